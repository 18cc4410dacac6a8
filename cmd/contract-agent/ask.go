package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"contract-agent/internal/auth"
	"contract-agent/internal/chat"
	"contract-agent/internal/dependency"
	"contract-agent/internal/render"
	"contract-agent/internal/state"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type askArgs struct {
	chatID      string
	user        string
	credentials string
	history     bool
}

func newAskCmd(root *rootArgs) *cobra.Command {
	a := &askArgs{}
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Run one chat turn in the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), root, a, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&a.chatID, "chat", "", "Continue an existing chat id (default: new chat)")
	cmd.Flags().StringVar(&a.user, "user", "", "Save the chat for this user id")
	cmd.Flags().StringVar(&a.credentials, "credentials", "", "Session token file (default ~/.contract-agent/auth.json)")
	cmd.Flags().BoolVar(&a.history, "history", false, "Print the chat history before the new turn")
	return cmd
}

func runAsk(ctx context.Context, root *rootArgs, a *askArgs, prompt string, out io.Writer) error {
	c, err := root.container(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	chatID := strings.TrimSpace(a.chatID)
	if chatID == "" {
		chatID = uuid.NewString()
	}
	userID := resolveUser(c, a)

	sess, err := c.States().Open(ctx, chatID)
	if err != nil {
		return err
	}
	term := render.NewTerminal(out)
	if a.history {
		snap := sess.Snapshot()
		term.Entries(c.Cards().Project(snap.ChatID, snap.Messages))
	}

	var hook state.CommitFunc
	if userID != "" {
		hook = chat.CommitHook(c.Chats(), userID)
	}
	turn := sess.BeginTurn(ctx, hook)
	if _, err := c.Engine().SubmitUserMessage(ctx, turn, prompt, term.Frame); err != nil {
		return err
	}
	fmt.Fprintf(out, "chat: %s\n", chatID)
	return nil
}

// resolveUser 优先使用 --user，否则尝试本地保存的会话令牌。
func resolveUser(c *dependency.Container, a *askArgs) string {
	if u := strings.TrimSpace(a.user); u != "" {
		return u
	}
	path := a.credentials
	if path == "" {
		p, err := auth.DefaultCredentialsPath()
		if err != nil {
			return ""
		}
		path = p
	}
	creds, err := auth.LoadToken(path)
	if err != nil || creds.Token == "" || !c.Auth().Enabled() {
		return ""
	}
	u, err := c.Auth().Parse(creds.Token)
	if err != nil {
		log.WithError(err).Warn("stored session token is invalid, chat will not be saved")
		return ""
	}
	return u.ID
}
