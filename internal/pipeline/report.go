package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/version-auditor/internal/notify"
	"github.com/jonathan/version-auditor/internal/schemas"
	"github.com/jonathan/version-auditor/internal/types"
)

// Report summarizes one audit run.
type Report struct {
	RunID          uuid.UUID              `json:"run_id"`
	SourceURL      string                 `json:"source_url"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
	DryRun         bool                   `json:"dry_run"`
	Requirements   int                    `json:"requirements"`
	Sessions       int                    `json:"sessions"`
	UniqueSessions int                    `json:"unique_sessions"`
	Users          int                    `json:"users"`
	Mismatches     []types.MismatchRecord `json:"mismatches"`
	Notifications  NotificationReport     `json:"notifications"`

	RequirementRows []types.RequirementRow `json:"-"`
	SessionRecords  []types.SessionRecord  `json:"-"`
	Summary         notify.Summary         `json:"-"`
}

// NotificationReport is the serializable form of notify.Summary.
type NotificationReport struct {
	Sent     []string        `json:"sent"`
	Skipped  int             `json:"skipped"`
	Failures []FailureReport `json:"failures"`
}

// FailureReport records one failed delivery.
type FailureReport struct {
	Recipient string `json:"recipient"`
	UserName  string `json:"user_name,omitempty"`
	Error     string `json:"error"`
}

func newReport(runID uuid.UUID, sourceURL string, dryRun bool) *Report {
	return &Report{
		RunID:      runID,
		SourceURL:  sourceURL,
		StartedAt:  time.Now().UTC(),
		DryRun:     dryRun,
		Mismatches: []types.MismatchRecord{},
		Notifications: NotificationReport{
			Sent:     []string{},
			Failures: []FailureReport{},
		},
	}
}

func (r *Report) setNotifications(s notify.Summary) {
	r.Summary = s
	r.Notifications.Skipped = s.Skipped
	r.Notifications.Sent = append([]string{}, s.Sent...)
	r.Notifications.Failures = make([]FailureReport, 0, len(s.Failures))
	for _, f := range s.Failures {
		r.Notifications.Failures = append(r.Notifications.Failures, FailureReport{
			Recipient: f.Recipient,
			UserName:  f.UserName,
			Error:     f.Cause.Error(),
		})
	}
}

// HasFailures reports whether any delivery failed.
func (r *Report) HasFailures() bool {
	return len(r.Notifications.Failures) > 0
}

// MarshalReport encodes r as indented JSON and validates it against the report schema.
func MarshalReport(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := schemas.ValidateReport(data); err != nil {
		return nil, fmt.Errorf("report failed schema validation: %w", err)
	}
	return data, nil
}

// WriteReport writes r as JSON to path, creating parent directories as needed.
func WriteReport(path string, r *Report) error {
	data, err := MarshalReport(r)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
