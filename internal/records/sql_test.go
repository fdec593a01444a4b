package records

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockProvider(t *testing.T) (*SQLProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewSQLProvider("snowflake", db, SnowflakeSessionsQuery, SnowflakeUsersQuery, nil), mock
}

func TestSQLProvider_Sessions(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta(SnowflakeSessionsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"USER_NAME", "CLIENT_APPLICATION_ID"}).
			AddRow("alice", "JDBC 3.13.30").
			AddRow("bob", nil))

	got, err := p.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "alice", got[0].UserName)
	require.NotNil(t, got[0].ClientIdentifier)
	assert.Equal(t, "JDBC 3.13.30", *got[0].ClientIdentifier)
	assert.Equal(t, "bob", got[1].UserName)
	assert.Nil(t, got[1].ClientIdentifier)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProvider_Users(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta(SnowflakeUsersQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"USER_NAME", "EMAIL"}).
			AddRow("alice", "a@x.com").
			AddRow("svc_loader", nil))

	got, err := p.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].Email)
	assert.Equal(t, "a@x.com", *got[0].Email)
	assert.Nil(t, got[1].Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProvider_QueryFailure(t *testing.T) {
	p, mock := newMockProvider(t)

	cause := errors.New("warehouse suspended")
	mock.ExpectQuery(regexp.QuoteMeta(SnowflakeSessionsQuery)).WillReturnError(cause)

	_, err := p.Sessions(context.Background())
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, QuerySessions, providerErr.Query)
	assert.Equal(t, "snowflake", providerErr.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "sessions query failed")
}

func TestSQLProvider_RowError(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta(SnowflakeUsersQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"USER_NAME", "EMAIL"}).
			AddRow("alice", "a@x.com").
			RowError(0, errors.New("network reset")))

	_, err := p.Users(context.Background())
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, QueryUsers, providerErr.Query)
}

func TestSQLProvider_Close(t *testing.T) {
	p, mock := newMockProvider(t)
	mock.ExpectClose()

	require.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnowflakeDSN(t *testing.T) {
	dsn, err := SnowflakeDSN(SnowflakeConfig{
		Account:   "myorg-myaccount",
		User:      "auditor",
		Password:  "secret",
		Warehouse: "AUDIT_WH",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "auditor")
	assert.Contains(t, dsn, "myorg-myaccount")
	assert.Contains(t, dsn, "warehouse=AUDIT_WH")
}

func TestSnowflakeDSN_MissingAccount(t *testing.T) {
	_, err := SnowflakeDSN(SnowflakeConfig{User: "auditor", Password: "secret"})
	assert.Error(t, err)
}

func TestProviderError_WithoutQuery(t *testing.T) {
	err := &ProviderError{Provider: "postgres", Cause: errors.New("refused")}
	assert.Equal(t, "postgres provider: refused", err.Error())
}
