package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jonathan/version-auditor/internal/types"
)

// SQLProvider runs the session and user queries through database/sql.
type SQLProvider struct {
	name          string
	db            *sql.DB
	sessionsQuery string
	usersQuery    string
	log           *zerolog.Logger
}

// NewSQLProvider wraps an open database handle. name identifies the backend in errors.
func NewSQLProvider(name string, db *sql.DB, sessionsQuery, usersQuery string, log *zerolog.Logger) *SQLProvider {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &SQLProvider{
		name:          name,
		db:            db,
		sessionsQuery: sessionsQuery,
		usersQuery:    usersQuery,
		log:           log,
	}
}

// Sessions runs the sessions query. NULL client identifiers are returned as nil.
func (p *SQLProvider) Sessions(ctx context.Context) ([]types.SessionRow, error) {
	rows, err := p.db.QueryContext(ctx, p.sessionsQuery)
	if err != nil {
		return nil, p.wrap(QuerySessions, err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.SessionRow
	for rows.Next() {
		var userName sql.NullString
		var clientID sql.NullString
		if err := rows.Scan(&userName, &clientID); err != nil {
			return nil, p.wrap(QuerySessions, fmt.Errorf("failed to scan session: %w", err))
		}
		row := types.SessionRow{UserName: userName.String}
		if clientID.Valid {
			v := clientID.String
			row.ClientIdentifier = &v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap(QuerySessions, err)
	}

	p.log.Debug().Str("provider", p.name).Int("rows", len(out)).Msg("loaded sessions")
	return out, nil
}

// Users runs the users query. NULL emails are returned as nil.
func (p *SQLProvider) Users(ctx context.Context) ([]types.UserRecord, error) {
	rows, err := p.db.QueryContext(ctx, p.usersQuery)
	if err != nil {
		return nil, p.wrap(QueryUsers, err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.UserRecord
	for rows.Next() {
		var userName sql.NullString
		var email sql.NullString
		if err := rows.Scan(&userName, &email); err != nil {
			return nil, p.wrap(QueryUsers, fmt.Errorf("failed to scan user: %w", err))
		}
		rec := types.UserRecord{UserName: userName.String}
		if email.Valid {
			v := email.String
			rec.Email = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap(QueryUsers, err)
	}

	p.log.Debug().Str("provider", p.name).Int("rows", len(out)).Msg("loaded users")
	return out, nil
}

// Close closes the underlying database handle.
func (p *SQLProvider) Close() error {
	return p.db.Close()
}

func (p *SQLProvider) wrap(query string, err error) error {
	return &ProviderError{Provider: p.name, Query: query, Cause: err}
}
