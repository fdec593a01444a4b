package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"
)

const (
	// SnowflakeSessionsQuery lists every observed client connection.
	SnowflakeSessionsQuery = `SELECT USER_NAME, CLIENT_APPLICATION_ID
FROM SNOWFLAKE.ACCOUNT_USAGE.SESSIONS`

	// SnowflakeUsersQuery lists the account directory.
	SnowflakeUsersQuery = `SELECT NAME AS USER_NAME, EMAIL
FROM SNOWFLAKE.ACCOUNT_USAGE.USERS`
)

// SnowflakeConfig holds the connection parameters for the Snowflake account.
type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Role      string
	Database  string
}

// SnowflakeDSN builds a gosnowflake data source name from cfg.
func SnowflakeDSN(cfg SnowflakeConfig) (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
		Database:  cfg.Database,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake DSN: %w", err)
	}
	return dsn, nil
}

// ConnectSnowflake opens and pings a Snowflake connection and returns a provider
// over the ACCOUNT_USAGE views.
func ConnectSnowflake(ctx context.Context, cfg SnowflakeConfig, log *zerolog.Logger) (*SQLProvider, error) {
	dsn, err := SnowflakeDSN(cfg)
	if err != nil {
		return nil, &ProviderError{Provider: "snowflake", Cause: err}
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, &ProviderError{Provider: "snowflake", Cause: fmt.Errorf("failed to open connection: %w", err)}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ProviderError{Provider: "snowflake", Cause: fmt.Errorf("failed to ping: %w", err)}
	}

	return NewSQLProvider("snowflake", db, SnowflakeSessionsQuery, SnowflakeUsersQuery, log), nil
}
