package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validSnowflakeConfig() *Config {
	return &Config{
		SourceURL: DefaultSourceURL,
		Provider:  ProviderSnowflake,
		Snowflake: SnowflakeConfig{
			Account:   "myorg-myaccount",
			User:      "auditor",
			Password:  "secret",
			Warehouse: "AUDIT_WH",
		},
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"provider": "snowflake",
		"fetch_timeout": "45s",
		"snowflake": {
			"account": "myorg-myaccount",
			"user": "auditor",
			"password": "secret",
			"warehouse": "AUDIT_WH"
		},
		"smtp": {
			"host": "smtp.example.com",
			"from": "ops@example.com"
		}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "myorg-myaccount", cfg.Snowflake.Account)
	assert.Equal(t, "AUDIT_WH", cfg.Snowflake.Warehouse)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateSMTP())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.SourceURL)
	assert.Equal(t, ProviderSnowflake, cfg.Provider)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "Your Team", cfg.Signature)
	assert.Equal(t, 30*time.Second, cfg.SendTimeout)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"smtp": {"host": "smtp.example.com", "port": 25}}`)

	t.Setenv("VERSION_AUDIT_SMTP_HOST", "relay.internal")
	t.Setenv("VERSION_AUDIT_SNOWFLAKE_PASSWORD", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "relay.internal", cfg.SMTP.Host)
	assert.Equal(t, 25, cfg.SMTP.Port)
	assert.Equal(t, "from-env", cfg.Snowflake.Password)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "provider: postgres\ndatabase_url: postgres://localhost/usage\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderPostgres, cfg.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validSnowflakeConfig().Validate())
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validSnowflakeConfig()
	cfg.Provider = "bigquery"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider")
}

func TestValidate_InvalidSourceURL(t *testing.T) {
	cfg := validSnowflakeConfig()
	cfg.SourceURL = "not a url"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SourceURL")
}

func TestValidate_MissingSnowflakeFields(t *testing.T) {
	cfg := validSnowflakeConfig()
	cfg.Snowflake.Password = ""
	cfg.Snowflake.Warehouse = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'snowflake.password', 'snowflake.warehouse'")
}

func TestValidate_PostgresRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{SourceURL: DefaultSourceURL, Provider: ProviderPostgres}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestValidate_InvalidFromAddress(t *testing.T) {
	cfg := validSnowflakeConfig()
	cfg.SMTP.From = "not-an-email"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "From")
}

func TestValidateSMTP(t *testing.T) {
	cfg := validSnowflakeConfig()

	err := cfg.ValidateSMTP()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'smtp.from', 'smtp.host'")

	cfg.SMTP = SMTPConfig{Host: "smtp.example.com", From: "ops@example.com", Username: "ops"}
	err = cfg.ValidateSMTP()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.password")

	cfg.SMTP.Password = "secret"
	assert.NoError(t, cfg.ValidateSMTP())
}
