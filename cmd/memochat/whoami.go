package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the user id conversations are saved under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if reset {
				if err := a.resolver.Reset(cmd.Context()); err != nil {
					return fmt.Errorf("reset identity: %w", err)
				}
				fmt.Fprintf(out, "Forgot %s; a new id is created on next use\n", a.identity.UserID)
				return nil
			}
			fmt.Fprintln(out, a.identity.UserID)
			if a.identity.Ephemeral {
				fmt.Fprintln(out, "(not saved: durable storage unavailable)")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Forget the stored id")
	return cmd
}
