package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/version-auditor/internal/config"
	"github.com/jonathan/version-auditor/internal/fetch"
	"github.com/jonathan/version-auditor/internal/observability"
	"github.com/jonathan/version-auditor/internal/requirements"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements",
	Short: "Fetch and print the normalized recommended-version table",
	Long:  "Fetch the vendor requirements page, normalize its table, and print one row per product family. No records provider or mail server is needed.",
	RunE:  runRequirements,
}

var (
	reqURL        string
	reqUseBrowser bool
	reqJSON       bool
	reqTimeout    time.Duration
	reqLogLevel   string
)

func init() {
	requirementsCmd.Flags().StringVar(&reqURL, "url", config.DefaultSourceURL, "Requirements page URL")
	requirementsCmd.Flags().BoolVar(&reqUseBrowser, "use-browser", false, "Render the page in headless Chrome (requires Chrome)")
	requirementsCmd.Flags().BoolVar(&reqJSON, "json", false, "Print rows as JSON")
	requirementsCmd.Flags().DurationVar(&reqTimeout, "timeout", fetch.DefaultTimeout, "Fetch timeout")
	requirementsCmd.Flags().StringVar(&reqLogLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(requirementsCmd)
}

func runRequirements(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The static page normally carries the table; fall back to the browser when it doesn't.
	cfg := &config.Config{
		SourceURL:       reqURL,
		UseBrowser:      reqUseBrowser,
		BrowserFallback: true,
		FetchTimeout:    reqTimeout,
	}
	log := newLogger(cfg, reqLogLevel, false)
	return printRequirements(ctx, cmd.OutOrStdout(), newFetcher(cfg, &log), reqURL, reqJSON)
}

func printRequirements(ctx context.Context, out io.Writer, fetcher *fetch.Fetcher, url string, asJSON bool) error {
	table, err := fetcher.FetchTable(ctx, url)
	if err != nil {
		return err
	}
	reqs, err := requirements.Normalize(table)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reqs); err != nil {
			return fmt.Errorf("failed to encode requirements: %w", err)
		}
		return nil
	}

	observability.NewPrinter(out).PrintRequirements(reqs)
	return nil
}
