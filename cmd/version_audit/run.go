package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/version-auditor/internal/config"
	"github.com/jonathan/version-auditor/internal/notify"
	"github.com/jonathan/version-auditor/internal/observability"
	"github.com/jonathan/version-auditor/internal/pipeline"
	"github.com/jonathan/version-auditor/internal/records"
	"github.com/jonathan/version-auditor/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full audit: fetch requirements, reconcile sessions, notify users",
	Long: `Fetches the recommended-version table, loads session history and the user directory
from the configured provider, finds every account on an out-of-date client, and emails it.

Configuration is read from --config (JSON or YAML) and VERSION_AUDIT_* environment variables.
With --dry-run no mail is sent and SMTP settings are not required.`,
	RunE: runAuditCmd,
}

var (
	runConfigPath string
	runDryRun     bool
	runReportPath string
	runVerbose    bool
	runLogLevel   string
)

func init() {
	runCommand.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to config file (optional; environment variables override it)")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Log notifications instead of sending them")
	runCommand.Flags().StringVarP(&runReportPath, "report", "r", "", "Write a JSON run report to this path")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print stage output and debug logs")
	runCommand.Flags().StringVar(&runLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides --verbose")

	rootCmd.AddCommand(runCommand)
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, runLogLevel, runVerbose)
	if cfg.ConfigFile != "" {
		log.Debug().Str("path", cfg.ConfigFile).Msg("loaded config file")
	}

	// Check mail settings before touching the warehouse.
	transport, err := newTransport(cfg, runDryRun, &log)
	if err != nil {
		return err
	}

	provider, err := openProvider(ctx, cfg, &log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := provider.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close records provider")
		}
	}()

	return executeAudit(ctx, cmd.OutOrStdout(), auditDeps{
		cfg:        cfg,
		fetcher:    newFetcher(cfg, &log),
		provider:   provider,
		transport:  transport,
		dryRun:     runDryRun,
		verbose:    runVerbose,
		reportPath: runReportPath,
		log:        &log,
	})
}

type auditDeps struct {
	cfg        *config.Config
	fetcher    pipeline.TableFetcher
	provider   records.Provider
	transport  notify.Transport
	dryRun     bool
	verbose    bool
	reportPath string
	log        *zerolog.Logger
}

func executeAudit(ctx context.Context, out io.Writer, deps auditDeps) error {
	printer := observability.NewPrinter(out)

	opts := pipeline.RunOptions{
		SourceURL:   deps.cfg.SourceURL,
		Fetcher:     deps.fetcher,
		Provider:    deps.provider,
		Transport:   deps.transport,
		Signature:   deps.cfg.Signature,
		SendTimeout: deps.cfg.SendTimeout,
		DryRun:      deps.dryRun,
		Logger:      deps.log,
	}
	if deps.verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			switch content := event.Content.(type) {
			case []types.RequirementRow:
				printer.PrintRequirements(content)
			case []types.SessionRecord:
				printer.PrintSessions(content)
			}
		}
	}

	report, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	printer.PrintMismatches(report.Mismatches)
	printer.PrintSummary(report.Summary)

	if deps.reportPath != "" {
		if err := pipeline.WriteReport(deps.reportPath, report); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Report written to %s\n", deps.reportPath)
	}

	if report.HasFailures() {
		deps.log.Warn().Int("failed", len(report.Notifications.Failures)).Msg("some notifications were not delivered")
	}
	return nil
}
