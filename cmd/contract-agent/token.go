package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"contract-agent/internal/auth"

	"github.com/spf13/cobra"
)

type tokenArgs struct {
	user        string
	ttl         time.Duration
	save        bool
	clear       bool
	credentials string
}

func newTokenCmd(root *rootArgs) *cobra.Command {
	t := &tokenArgs{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(root, t, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&t.user, "user", "", "User id to put in the token")
	cmd.Flags().DurationVar(&t.ttl, "ttl", auth.DefaultTTL, "Token lifetime")
	cmd.Flags().BoolVar(&t.save, "save", false, "Store the token for later ask commands")
	cmd.Flags().BoolVar(&t.clear, "clear", false, "Remove the stored token")
	cmd.Flags().StringVar(&t.credentials, "credentials", "", "Session token file (default ~/.contract-agent/auth.json)")
	return cmd
}

func runToken(root *rootArgs, t *tokenArgs, out io.Writer) error {
	path := t.credentials
	if path == "" {
		p, err := auth.DefaultCredentialsPath()
		if err != nil {
			return err
		}
		path = p
	}
	if t.clear {
		return auth.Clear(path)
	}
	if strings.TrimSpace(t.user) == "" {
		return fmt.Errorf("--user is required")
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	tok, err := auth.New(cfg.Server.JWTSecret).Mint(t.user, t.ttl)
	if err != nil {
		return err
	}
	if t.save {
		if err := auth.SaveToken(path, t.user, tok); err != nil {
			return err
		}
		log.WithField("path", path).Info("session token saved")
	}
	fmt.Fprintln(out, tok)
	return nil
}
