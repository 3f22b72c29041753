package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(ctx).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vmpeer: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(ctx context.Context) *cobra.Command {
	opts := &app.Options{}

	root := &cobra.Command{
		Use:           "vmpeer",
		Short:         "Tracker session client for VM peers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(ctx, *opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/vmpeer/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/vmpeer/prefs.toml)")
	flags.StringVar(&opts.TrackerURL, "tracker", "", "tracker URL, overrides tracker_url")
	flags.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error; overrides log_level")

	root.AddCommand(
		uiCommand(ctx, opts),
		watchCommand(ctx, opts),
		statusCommand(ctx, opts),
		uploadCommand(ctx, opts),
	)
	return root
}

func uiCommand(ctx context.Context, opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Run the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(ctx, *opts)
		},
	}
}

func watchCommand(ctx context.Context, opts *app.Options) *cobra.Command {
	var statusEvery time.Duration
	c := &cobra.Command{
		Use:   "watch",
		Short: "Connect headless and log session activity until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Watch(ctx, *opts, statusEvery)
		},
	}
	c.Flags().DurationVar(&statusEvery, "status-every", 0, "also log the tracker HTTP status at this interval (0 disables)")
	return c
}

func statusCommand(ctx context.Context, opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print tracker health, peers and torrents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := *opts
			o.Out = cmd.OutOrStdout()
			return app.Status(ctx, o)
		},
	}
}

func uploadCommand(ctx context.Context, opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.torrent>",
		Short: "Upload a torrent file to the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := *opts
			o.Out = cmd.OutOrStdout()
			return app.Upload(ctx, o, args[0])
		},
	}
}
