package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jonathan/version-auditor/internal/config"
	"github.com/jonathan/version-auditor/internal/fetch"
	"github.com/jonathan/version-auditor/internal/logging"
	"github.com/jonathan/version-auditor/internal/notify"
	"github.com/jonathan/version-auditor/internal/pipeline"
	"github.com/jonathan/version-auditor/internal/records"
)

// loadConfig reads the optional config file plus environment overrides and validates
// the result.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, explicitLevel string, verbose bool) zerolog.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ResolveLevel(explicitLevel, verbose, cfg.LogLevel)
	if cfg.LogFormat != "" {
		logCfg.Format = cfg.LogFormat
	}
	if cfg.LogOutput != "" {
		logCfg.Output = cfg.LogOutput
	}
	return logging.New(logCfg)
}

func newFetcher(cfg *config.Config, log *zerolog.Logger) *fetch.Fetcher {
	opts := fetch.DefaultOptions()
	if cfg.FetchTimeout > 0 {
		opts.Timeout = cfg.FetchTimeout
	}
	opts.UseBrowser = cfg.UseBrowser
	opts.BrowserFallback = cfg.BrowserFallback
	opts.Logger = log
	return &fetch.Fetcher{Options: opts}
}

// openProvider connects to the records store selected by cfg.Provider. Failures are
// reported as the connect stage.
func openProvider(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (records.Provider, error) {
	var (
		provider records.Provider
		err      error
	)
	switch cfg.Provider {
	case config.ProviderSnowflake:
		var p *records.SQLProvider
		p, err = records.ConnectSnowflake(ctx, records.SnowflakeConfig{
			Account:   cfg.Snowflake.Account,
			User:      cfg.Snowflake.User,
			Password:  cfg.Snowflake.Password,
			Warehouse: cfg.Snowflake.Warehouse,
			Role:      cfg.Snowflake.Role,
			Database:  cfg.Snowflake.Database,
		}, log)
		if err == nil {
			provider = p
		}
	case config.ProviderPostgres:
		var p *records.PostgresProvider
		p, err = records.ConnectPostgres(ctx, cfg.DatabaseURL, log)
		if err == nil {
			provider = p
		}
	default:
		err = fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageConnect, Err: err}
	}
	return provider, nil
}

// newTransport returns an SMTP transport, or a logging transport for dry runs.
func newTransport(cfg *config.Config, dryRun bool, log *zerolog.Logger) (notify.Transport, error) {
	if dryRun {
		return notify.NewLogTransport(log), nil
	}
	if err := cfg.ValidateSMTP(); err != nil {
		return nil, err
	}
	return notify.NewSMTPTransport(notify.SMTPConfig{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		Username:       cfg.SMTP.Username,
		Password:       cfg.SMTP.Password,
		From:           cfg.SMTP.From,
		AllowPlaintext: cfg.SMTP.AllowPlaintext,
	})
}
