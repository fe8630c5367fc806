package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/memochat/internal/config"
	"github.com/memohai/memochat/internal/version"
)

type rootOptions struct {
	configPath string
	apiURL     string
	userID     string
	timeout    time.Duration
	// logToFile routes logs to the configured file while the TUI owns the terminal.
	logToFile bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "memochat",
		Short:         "Chat with a memory-backed assistant from the terminal",
		Version:       version.GetInfo(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadDotEnv()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	root.SetVersionTemplate(version.Name + " {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.toml (default $CONFIG_PATH or config.toml)")
	flags.StringVar(&opts.apiURL, "api-url", "", "Backend base URL (e.g. http://127.0.0.1:25046)")
	flags.StringVar(&opts.userID, "user", "", "Use this user id instead of the stored one")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default from config)")

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newHistoryCmd(opts),
		newWhoamiCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Name, version.GetInfo())
			if info.BuildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", info.BuildTime)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", info.GoVersion)
		},
	}
}
