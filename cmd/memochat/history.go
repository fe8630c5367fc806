package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/memohai/memochat/internal/api"
	"github.com/memohai/memochat/internal/history"
	"github.com/memohai/memochat/internal/viewer"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, view, search and delete saved conversations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved conversations, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withBrowser(cmd, opts, func(b *history.Browser) error {
					if err := b.Refresh(cmd.Context()); err != nil {
						return err
					}
					return printEntries(cmd, b.Entries())
				})
			},
		},
		&cobra.Command{
			Use:   "search <query...>",
			Short: "Search saved conversations",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withBrowser(cmd, opts, func(b *history.Browser) error {
					if err := b.Search(cmd.Context(), strings.Join(args, " ")); err != nil {
						return err
					}
					return printEntries(cmd, b.Entries())
				})
			},
		},
		newHistoryViewCmd(opts),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one saved conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withBrowser(cmd, opts, func(b *history.Browser) error {
					if err := b.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every saved memory of the current user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withBrowser(cmd, opts, func(b *history.Browser) error {
					if err := b.Clear(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
					return nil
				})
			},
		},
	)
	return cmd
}

func newHistoryViewCmd(opts *rootOptions) *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Print one saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, id := cmd.Context(), args[0]
			if err := a.history.Refresh(ctx); err != nil {
				return err
			}
			if _, err := a.history.View(ctx, id); err != nil {
				if !errors.Is(err, history.ErrUnknownRecord) {
					return err
				}
				// not a listed chat snapshot, look the id up directly
				record, getErr := a.memory.Get(ctx, id)
				if api.IsNotFound(getErr) {
					return fmt.Errorf("%s: %w", id, history.ErrUnknownRecord)
				}
				if getErr != nil {
					return getErr
				}
				if err := viewer.Handoff(ctx, a.handoff, record); err != nil {
					return err
				}
			}

			record, err := viewer.Open(ctx, a.handoff)
			if err != nil {
				return err
			}
			render := viewer.PlainContent
			if markdown {
				if md, err := viewer.Markdown(100); err == nil {
					render = md
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), viewer.Render(record, render))
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render assistant replies as terminal markdown")
	return cmd
}

func withBrowser(cmd *cobra.Command, opts *rootOptions, fn func(*history.Browser) error) error {
	a, err := newApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.history)
}

func printEntries(cmd *cobra.Command, entries []history.Entry) error {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No conversations found. Start chatting to create history.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tMESSAGES\tPREVIEW")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			entry.ID(), viewer.FormatDate(entry.CreatedAt()), entry.MessageCount, entry.Preview)
	}
	return w.Flush()
}
