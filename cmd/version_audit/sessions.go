package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/version-auditor/internal/observability"
	"github.com/jonathan/version-auditor/internal/reconcile"
	"github.com/jonathan/version-auditor/internal/records"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the distinct client identifiers seen in session history",
	Long:  "Load session history from the configured records provider and print each distinct client identifier with its parsed version.",
	RunE:  runSessions,
}

var (
	sessionsConfigPath string
	sessionsLogLevel   string
)

func init() {
	sessionsCmd.Flags().StringVarP(&sessionsConfigPath, "config", "c", "", "Path to config file (optional; environment variables override it)")
	sessionsCmd.Flags().StringVar(&sessionsLogLevel, "log-level", "", "Log level")

	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(sessionsConfigPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, sessionsLogLevel, false)

	provider, err := openProvider(ctx, cfg, &log)
	if err != nil {
		return err
	}
	defer func() { _ = provider.Close() }()

	return printSessions(ctx, cmd.OutOrStdout(), provider)
}

func printSessions(ctx context.Context, out io.Writer, provider records.Provider) error {
	rows, err := provider.Sessions(ctx)
	if err != nil {
		return err
	}
	observability.NewPrinter(out).PrintSessions(reconcile.Dedupe(reconcile.BuildSessions(rows)))
	return nil
}
