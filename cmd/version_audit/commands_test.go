package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/version-auditor/internal/config"
	"github.com/jonathan/version-auditor/internal/fetch"
	"github.com/jonathan/version-auditor/internal/notify"
	"github.com/jonathan/version-auditor/internal/pipeline"
	"github.com/jonathan/version-auditor/internal/records"
	"github.com/jonathan/version-auditor/internal/types"
)

const requirementsPage = `<html><body>
<table>
  <thead><tr><th>Type</th><th>Client</th><th>Recommended Version</th></tr></thead>
  <tbody>
    <tr><td>Driver A</td><td>JDBC</td><td>2.0</td></tr>
    <tr><td></td><td>ODBC</td><td>N/A</td></tr>
    <tr><td>Connector B</td><td>Python</td><td>3.1.4</td></tr>
  </tbody>
</table>
</body></html>`

func strPtr(s string) *string { return &s }

func newRequirementsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(requirementsPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type stubProvider struct {
	sessions []types.SessionRow
	users    []types.UserRecord
}

func (p *stubProvider) Sessions(context.Context) ([]types.SessionRow, error) { return p.sessions, nil }
func (p *stubProvider) Users(context.Context) ([]types.UserRecord, error) { return p.users, nil }
func (p *stubProvider) Close() error { return nil }

type recordingTransport struct {
	sent []notify.Message
}

func (r *recordingTransport) Send(_ context.Context, msg notify.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func staticFetcher() *fetch.Fetcher {
	return &fetch.Fetcher{Options: fetch.DefaultOptions()}
}

func TestExecuteAudit(t *testing.T) {
	srv := newRequirementsServer(t)
	transport := &recordingTransport{}
	log := zerolog.Nop()
	reportPath := filepath.Join(t.TempDir(), "report.json")

	var out bytes.Buffer
	err := executeAudit(context.Background(), &out, auditDeps{
		cfg:      &config.Config{SourceURL: srv.URL, Signature: "Data Platform"},
		fetcher:  staticFetcher(),
		provider: &stubProvider{
			sessions: []types.SessionRow{
				{UserName: "alice", ClientIdentifier: strPtr("Driver A 1.5")},
				{UserName: "bob", ClientIdentifier: strPtr("Connector B 3.1.4")},
			},
			users: []types.UserRecord{{UserName: "alice", Email: strPtr("a@x.com")}},
		},
		transport:  transport,
		verbose:    true,
		reportPath: reportPath,
		log:        &log,
	})
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "REQUIREMENTS (2)")
	assert.Contains(t, output, "UNIQUE SESSIONS (2)")
	assert.Contains(t, output, "VERSION MISMATCHES (1)")
	assert.Contains(t, output, "Report written to")

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "a@x.com", transport.sent[0].To)
	assert.Contains(t, transport.sent[0].Body, "Data Platform")

	_, err = os.Stat(reportPath)
	assert.NoError(t, err)
}

func TestExecuteAudit_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	log := zerolog.Nop()
	transport := &recordingTransport{}
	err := executeAudit(context.Background(), &bytes.Buffer{}, auditDeps{
		cfg:       &config.Config{SourceURL: srv.URL},
		fetcher:   staticFetcher(),
		provider:  &stubProvider{},
		transport: transport,
		log:       &log,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch:")
	assert.Contains(t, err.Error(), "503")
	assert.Empty(t, transport.sent)
}

func TestPrintRequirements_Table(t *testing.T) {
	srv := newRequirementsServer(t)

	var out bytes.Buffer
	require.NoError(t, printRequirements(context.Background(), &out, staticFetcher(), srv.URL, false))

	assert.Contains(t, out.String(), "Driver A")
	assert.Contains(t, out.String(), "3.1.4")
	assert.NotContains(t, out.String(), "N/A")
}

func TestPrintRequirements_JSON(t *testing.T) {
	srv := newRequirementsServer(t)

	var out bytes.Buffer
	require.NoError(t, printRequirements(context.Background(), &out, staticFetcher(), srv.URL, true))

	assert.Contains(t, out.String(), `"join_key": "Connector"`)
	assert.Contains(t, out.String(), `"recommended_version": "2.0"`)
}

func TestPrintSessions_Deduplicated(t *testing.T) {
	provider := &stubProvider{sessions: []types.SessionRow{
		{UserName: "alice", ClientIdentifier: strPtr("Driver A 1.5")},
		{UserName: "bob", ClientIdentifier: strPtr("Driver A 1.5")},
		{UserName: "svc", ClientIdentifier: strPtr("Driver A")},
	}}

	var out bytes.Buffer
	require.NoError(t, printSessions(context.Background(), &out, provider))

	assert.Contains(t, out.String(), "UNIQUE SESSIONS (2)")
	assert.Contains(t, out.String(), "alice")
	assert.NotContains(t, out.String(), "bob")
	assert.Contains(t, out.String(), "[No version]")
}

func TestLoadConfig_ProviderRequirements(t *testing.T) {
	t.Setenv("VERSION_AUDIT_PROVIDER", "postgres")
	t.Setenv("VERSION_AUDIT_DATABASE_URL", "")

	_, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestNewTransport(t *testing.T) {
	log := zerolog.Nop()

	transport, err := newTransport(&config.Config{}, true, &log)
	require.NoError(t, err)
	assert.IsType(t, &notify.LogTransport{}, transport)

	_, err = newTransport(&config.Config{}, false, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.host")

	transport, err = newTransport(&config.Config{SMTP: config.SMTPConfig{Host: "smtp.example.com", From: "audit@example.com"}}, false, &log)
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPTransport{}, transport)
}

func TestOpenProvider_Unknown(t *testing.T) {
	log := zerolog.Nop()
	_, err := openProvider(context.Background(), &config.Config{Provider: "oracle"}, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageConnect, stageErr.Stage)
}

func TestOpenProvider_ConnectFailureNamesStage(t *testing.T) {
	log := zerolog.Nop()
	_, err := openProvider(context.Background(), &config.Config{
		Provider:    config.ProviderPostgres,
		DatabaseURL: "postgres://user@127.0.0.1:1/none?connect_timeout=1",
	}, &log)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "connect: "), err.Error())

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageConnect, stageErr.Stage)

	var providerErr *records.ProviderError
	assert.ErrorAs(t, err, &providerErr)
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["requirements"])
	assert.True(t, names["sessions"])
}
