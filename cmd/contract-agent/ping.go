package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"contract-agent/internal/agent"

	"github.com/spf13/cobra"
)

func newPingCmd(root *rootArgs) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send a one-word prompt to the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPing(cmd.Context(), root, timeout, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}

func runPing(ctx context.Context, root *rootArgs, timeout time.Duration, out io.Writer) error {
	c, err := root.container(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	got, err := c.ModelClient().Complete(ctx, agent.Prompt{
		Model:  c.Config().Model.Name,
		System: "Reply with exactly: pong",
		Messages: []agent.Message{
			{ID: agent.NewID(), Role: agent.RoleUser, Content: "ping"},
		},
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "ok: %s\n", got)
	return nil
}
