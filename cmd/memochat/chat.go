package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/logger"
	"github.com/memohai/memochat/internal/session"
	"github.com/memohai/memochat/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (full-screen on a terminal, line mode otherwise)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	interactive := isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout())
	opts.logToFile = interactive

	a, err := newApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if interactive {
		return tui.Run(cmd.Context(), tui.Options{
			Session:  a.session,
			History:  a.history,
			Handoff:  a.handoff,
			Logger:   a.logger,
			Markdown: true,
		})
	}
	ctx := logger.WithContext(cmd.Context(), a.logger)
	return runLineChat(ctx, a.session, cmd.InOrStdin(), cmd.OutOrStdout())
}

// runLineChat is the plain prompt loop used when stdin or stdout is not a terminal.
func runLineChat(ctx context.Context, ctrl *session.Controller, in io.Reader, out io.Writer) error {
	if err := ctrl.Load(ctx); err != nil {
		logger.FromContext(ctx).Warn("starting without previous conversation", slog.Any("error", err))
	}
	for _, msg := range ctrl.Messages() {
		printMessage(out, msg)
	}

	reader := bufio.NewScanner(in)
	reader.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	fmt.Fprint(out, "You: ")
	for reader.Scan() {
		line := reader.Text()
		if strings.TrimSpace(line) == "" {
			fmt.Fprint(out, "You: ")
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(line))
		if lower == "exit" || lower == "quit" {
			return nil
		}
		reply, err := ctrl.Send(ctx, line)
		if err != nil {
			return err
		}
		printMessage(out, reply)
		fmt.Fprint(out, "You: ")
	}
	return reader.Err()
}

func printMessage(out io.Writer, msg conversation.Message) {
	fmt.Fprintf(out, "%s: %s\n", msg.Label(), msg.Content)
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question in the current conversation and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.session.Load(ctx); err != nil {
				a.logger.Warn("continuing without previous conversation", slog.Any("error", err))
			}
			reply, err := a.session.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			if err := a.session.LastError(); err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return nil
		},
	}
}
