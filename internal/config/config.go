// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variable overrides, e.g. VERSION_AUDIT_SMTP_HOST.
const EnvPrefix = "VERSION_AUDIT"

// DefaultSourceURL is the vendor page listing recommended client versions.
const DefaultSourceURL = "https://docs.snowflake.com/en/release-notes/requirements"

// Provider names.
const (
	ProviderSnowflake = "snowflake"
	ProviderPostgres  = "postgres"
)

// Config represents the CLI configuration. Every key can come from the config file
// or an environment variable; environment variables win.
type Config struct {
	// Source table
	SourceURL       string        `mapstructure:"source_url" validate:"required,url"`
	UseBrowser      bool          `mapstructure:"use_browser"`
	BrowserFallback bool          `mapstructure:"browser_fallback"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" validate:"gte=0"`

	// Records provider
	Provider    string          `mapstructure:"provider" validate:"required,oneof=snowflake postgres"`
	Snowflake   SnowflakeConfig `mapstructure:"snowflake"`
	DatabaseURL string          `mapstructure:"database_url"` // PostgreSQL mirror of the usage views

	// Notification
	SMTP        SMTPConfig    `mapstructure:"smtp"`
	Signature   string        `mapstructure:"signature"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn warning error off"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=auto json console"`
	LogOutput string `mapstructure:"log_output"`

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// SnowflakeConfig holds the connection parameters for the Snowflake account.
type SnowflakeConfig struct {
	Account   string `mapstructure:"account"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Warehouse string `mapstructure:"warehouse"`
	Role      string `mapstructure:"role"`
	Database  string `mapstructure:"database"`
}

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from" validate:"omitempty,email"`
	AllowPlaintext bool   `mapstructure:"allow_plaintext"`
}

var defaults = map[string]any{
	"source_url":           DefaultSourceURL,
	"use_browser":          false,
	"browser_fallback":     false,
	"fetch_timeout":        30 * time.Second,
	"provider":             ProviderSnowflake,
	"snowflake.account":    "",
	"snowflake.user":       "",
	"snowflake.password":   "",
	"snowflake.warehouse":  "",
	"snowflake.role":       "",
	"snowflake.database":   "",
	"database_url":         "",
	"smtp.host":            "",
	"smtp.port":            587,
	"smtp.username":        "",
	"smtp.password":        "",
	"smtp.from":            "",
	"smtp.allow_plaintext": false,
	"signature":            "Your Team",
	"send_timeout":         30 * time.Second,
	"log_level":            "",
	"log_format":           "auto",
	"log_output":           "stderr",
}

// LoadConfig loads configuration from an optional file (JSON or YAML, by extension)
// and VERSION_AUDIT_* environment variables, on top of defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		v.SetConfigFile(absPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", absPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	return &cfg, nil
}

// Validate checks field formats and the settings required by the selected provider.
// SMTP settings are checked separately by ValidateSMTP since dry runs don't need them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.Provider {
	case ProviderSnowflake:
		missing := missingFields(map[string]string{
			"snowflake.account":   c.Snowflake.Account,
			"snowflake.user":      c.Snowflake.User,
			"snowflake.password":  c.Snowflake.Password,
			"snowflake.warehouse": c.Snowflake.Warehouse,
		})
		if len(missing) > 0 {
			return fmt.Errorf("config error: snowflake provider requires %s", strings.Join(missing, ", "))
		}
	case ProviderPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: postgres provider requires 'database_url'")
		}
	}

	return nil
}

// ValidateSMTP checks the settings needed to send mail.
func (c *Config) ValidateSMTP() error {
	missing := missingFields(map[string]string{
		"smtp.host": c.SMTP.Host,
		"smtp.from": c.SMTP.From,
	})
	if len(missing) > 0 {
		return fmt.Errorf("config error: sending mail requires %s", strings.Join(missing, ", "))
	}
	if c.SMTP.Username != "" && c.SMTP.Password == "" {
		return fmt.Errorf("config error: 'smtp.password' is required when 'smtp.username' is set")
	}
	return nil
}

// missingFields returns the sorted keys whose values are empty.
func missingFields(fields map[string]string) []string {
	var missing []string
	for key, value := range fields {
		if value == "" {
			missing = append(missing, "'"+key+"'")
		}
	}
	sort.Strings(missing)
	return missing
}
