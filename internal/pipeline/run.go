// Package pipeline orchestrates a version audit run: fetch the requirements table,
// load sessions and users, reconcile, and notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/version-auditor/internal/fetch"
	"github.com/jonathan/version-auditor/internal/notify"
	"github.com/jonathan/version-auditor/internal/reconcile"
	"github.com/jonathan/version-auditor/internal/records"
	"github.com/jonathan/version-auditor/internal/requirements"
)

// Stage names a step of the run.
type Stage string

// Run stages in execution order. StageConnect covers opening the records provider,
// which the caller does before Run.
const (
	StageConnect   Stage = "connect"
	StageFetch     Stage = "fetch"
	StageSessions  Stage = "sessions"
	StageUsers     Stage = "users"
	StageNormalize Stage = "normalize"
	StageReconcile Stage = "reconcile"
	StageNotify    Stage = "notify"
)

// StageError is a fatal failure in one stage of the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TableFetcher retrieves the requirements table.
type TableFetcher interface {
	FetchTable(ctx context.Context, url string) (*fetch.Table, error)
}

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Stage   Stage
	Message string
	Content any
}

// ProgressCallback is called when a stage completes
type ProgressCallback func(event ProgressEvent)

// RunOptions holds the collaborators and settings for a run.
// DryRun is only recorded in the report; the caller picks a non-delivering Transport.
type RunOptions struct {
	SourceURL   string
	Fetcher     TableFetcher
	Provider    records.Provider
	Transport   notify.Transport
	Signature   string
	SendTimeout time.Duration
	DryRun      bool
	Logger      *zerolog.Logger
	OnProgress  ProgressCallback
}

func (o *RunOptions) validate() error {
	var errs []error
	if o.SourceURL == "" {
		errs = append(errs, errors.New("source URL is required"))
	}
	if o.Fetcher == nil {
		errs = append(errs, errors.New("fetcher is required"))
	}
	if o.Provider == nil {
		errs = append(errs, errors.New("records provider is required"))
	}
	if o.Transport == nil {
		errs = append(errs, errors.New("notifier transport is required"))
	}
	return errors.Join(errs...)
}

func (o *RunOptions) emit(stage Stage, message string, content any) {
	if o.OnProgress != nil {
		o.OnProgress(ProgressEvent{Stage: stage, Message: message, Content: content})
	}
}

// Run executes one audit run. Each stage completes before the next begins.
// Fetch, provider and schema failures abort the run with a *StageError; delivery
// failures are recorded in the report and do not.
func Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	log := opts.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	report := newReport(uuid.New(), opts.SourceURL, opts.DryRun)
	runLog := log.With().Str("run_id", report.RunID.String()).Logger()
	runLog.Info().Str("source_url", opts.SourceURL).Bool("dry_run", opts.DryRun).Msg("starting version audit")

	table, err := opts.Fetcher.FetchTable(ctx, opts.SourceURL)
	if err != nil {
		return nil, fail(&runLog, StageFetch, err)
	}
	runLog.Info().Int("headers", len(table.Headers)).Int("rows", len(table.Rows)).Msg("fetched requirements table")
	runLog.Debug().Strs("headers", table.Headers).Msg("table headers")
	opts.emit(StageFetch, fmt.Sprintf("fetched %d rows", len(table.Rows)), table)

	sessionRows, err := opts.Provider.Sessions(ctx)
	if err != nil {
		return nil, fail(&runLog, StageSessions, err)
	}
	runLog.Info().Int("sessions", len(sessionRows)).Msg("loaded sessions")

	users, err := opts.Provider.Users(ctx)
	if err != nil {
		return nil, fail(&runLog, StageUsers, err)
	}
	runLog.Info().Int("users", len(users)).Msg("loaded users")

	reqs, err := requirements.Normalize(table)
	if err != nil {
		return nil, fail(&runLog, StageNormalize, err)
	}
	sessions := reconcile.BuildSessions(sessionRows)
	unique := reconcile.Dedupe(sessions)
	runLog.Info().Int("requirements", len(reqs)).Int("unique_sessions", len(unique)).Msg("normalized inputs")
	opts.emit(StageNormalize, fmt.Sprintf("%d requirements", len(reqs)), reqs)
	opts.emit(StageSessions, fmt.Sprintf("%d unique sessions", len(unique)), unique)

	mismatches := reconcile.NewEngine(&runLog).Reconcile(reqs, sessions, users)
	runLog.Info().Int("mismatches", len(mismatches)).Msg("reconciled")
	opts.emit(StageReconcile, fmt.Sprintf("%d mismatches", len(mismatches)), mismatches)

	notifier := notify.New(opts.Transport, notify.Options{
		Signature:   opts.Signature,
		SendTimeout: opts.SendTimeout,
		Logger:      &runLog,
	})
	summary := notifier.Notify(ctx, mismatches)
	runLog.Info().
		Int("sent", len(summary.Sent)).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failures)).
		Msg("notifications complete")
	opts.emit(StageNotify, fmt.Sprintf("%d sent, %d failed", len(summary.Sent), len(summary.Failures)), summary)

	report.Requirements = len(reqs)
	report.Sessions = len(sessionRows)
	report.UniqueSessions = len(unique)
	report.Users = len(users)
	report.Mismatches = mismatches
	report.RequirementRows = reqs
	report.SessionRecords = unique
	report.setNotifications(summary)
	report.FinishedAt = time.Now().UTC()

	return report, nil
}

func fail(log *zerolog.Logger, stage Stage, err error) error {
	log.Error().Err(err).Str("stage", string(stage)).Msg("run aborted")
	return &StageError{Stage: stage, Err: err}
}
