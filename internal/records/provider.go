// Package records reads observed client sessions and the user directory from the
// analytics store.
package records

import (
	"context"
	"fmt"

	"github.com/jonathan/version-auditor/internal/types"
)

// Query names used in ProviderError.
const (
	QuerySessions = "sessions"
	QueryUsers    = "users"
)

// Provider returns the record sets the reconciliation runs on.
type Provider interface {
	// Sessions returns (user name, client identifier) pairs for observed client connections.
	Sessions(ctx context.Context) ([]types.SessionRow, error)
	// Users returns (user name, email) pairs from the account directory.
	Users(ctx context.Context) ([]types.UserRecord, error)
	Close() error
}

// ProviderError is returned when connecting to the store or running a query fails.
type ProviderError struct {
	Provider string
	Query    string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s provider: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("%s provider: %s query failed: %v", e.Provider, e.Query, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

var (
	_ Provider = (*SQLProvider)(nil)
	_ Provider = (*PostgresProvider)(nil)
)
