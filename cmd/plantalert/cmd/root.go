package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vlambert/plantalert/internal/config"
	"github.com/vlambert/plantalert/internal/service/alerting"
	"github.com/vlambert/plantalert/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// dryRun renders notifications without sending them.
	dryRun bool

	// rootCmd represents the base command: one forecast check.
	rootCmd = &cobra.Command{
		Use:   "plantalert",
		Short: "Check the forecast and alert when plants need shelter.",
		Long: `Fetches the hourly temperature forecast, detects upcoming cold periods
and reconciles them with the alerts already on record.

New, extended or ended cold periods are announced on the configured
channels (Discord webhook, desktop notify-send). Each run is a full
independent pass, so the command is safe to schedule from cron.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return alerting.Run(ctx, options())
		},
	}

	// watchCmd keeps the workflow running on the configured interval.
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Run forecast checks continuously on the configured interval.",
		Long: `Runs the forecast check on the check_interval configured in the settings
file until interrupted. Equivalent to scheduling the root command from
cron, without needing cron.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return alerting.Watch(ctx, options())
		},
	}

	// checkCmd exercises the whole chain end to end.
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify the setup: fetch a forecast and send a test notification.",
		Long: `Fetches a real forecast and pushes a sample alert through every
configured notification channel, without touching the stored alerts.
Use it after editing the settings file to confirm everything works.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return alerting.SelfTest(ctx, options())
		},
	}

	// initdbCmd creates the database schema and exits.
	initdbCmd = &cobra.Command{
		Use:   "initdb",
		Short: "Create the alert database and its schema.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return alerting.InitDB(ctx, options())
		},
	}
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

func options() *alerting.Options {
	return &alerting.Options{
		ConfigPath: configPath,
		DryRun:     dryRun,
	}
}

// Execute runs the plantalert CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		BoolVar(&dryRun, "dry-run", false, "render notifications without sending them")

	rootCmd.AddCommand(watchCmd, checkCmd, initdbCmd)
}
