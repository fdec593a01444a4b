package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jonathan/version-auditor/internal/types"
)

// Postgres mirror of the account usage views.
const (
	PostgresSessionsQuery = `SELECT user_name, client_application_id FROM account_usage.sessions`
	PostgresUsersQuery    = `SELECT name AS user_name, email FROM account_usage.users`
)

// PostgresProvider reads a PostgreSQL mirror of the account usage views.
type PostgresProvider struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

// ConnectPostgres establishes a connection pool to the database.
func ConnectPostgres(ctx context.Context, databaseURL string, log *zerolog.Logger) (*PostgresProvider, error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &ProviderError{Provider: "postgres", Cause: fmt.Errorf("failed to connect to database: %w", err)}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ProviderError{Provider: "postgres", Cause: fmt.Errorf("failed to ping database: %w", err)}
	}

	return &PostgresProvider{pool: pool, log: log}, nil
}

// Sessions returns all observed client connections.
func (p *PostgresProvider) Sessions(ctx context.Context) ([]types.SessionRow, error) {
	rows, err := p.pool.Query(ctx, PostgresSessionsQuery)
	if err != nil {
		return nil, &ProviderError{Provider: "postgres", Query: QuerySessions, Cause: err}
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.SessionRow, error) {
		var s types.SessionRow
		var userName *string
		if err := row.Scan(&userName, &s.ClientIdentifier); err != nil {
			return s, err
		}
		if userName != nil {
			s.UserName = *userName
		}
		return s, nil
	})
	if err != nil {
		return nil, &ProviderError{Provider: "postgres", Query: QuerySessions, Cause: err}
	}

	p.log.Debug().Str("provider", "postgres").Int("rows", len(out)).Msg("loaded sessions")
	return out, nil
}

// Users returns the account directory.
func (p *PostgresProvider) Users(ctx context.Context) ([]types.UserRecord, error) {
	rows, err := p.pool.Query(ctx, PostgresUsersQuery)
	if err != nil {
		return nil, &ProviderError{Provider: "postgres", Query: QueryUsers, Cause: err}
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.UserRecord, error) {
		var u types.UserRecord
		var userName *string
		if err := row.Scan(&userName, &u.Email); err != nil {
			return u, err
		}
		if userName != nil {
			u.UserName = *userName
		}
		return u, nil
	})
	if err != nil {
		return nil, &ProviderError{Provider: "postgres", Query: QueryUsers, Cause: err}
	}

	p.log.Debug().Str("provider", "postgres").Int("rows", len(out)).Msg("loaded users")
	return out, nil
}

// Close closes the connection pool.
func (p *PostgresProvider) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
