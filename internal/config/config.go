package config

import "github.com/imamik/cosmoclear/internal/cascade"

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "cosmoclear.yaml"

// Environment variables.
const (
	EnvTenantID      = "AZURE_TENANT_ID"
	EnvClientID      = "AZURE_CLIENT_ID"
	EnvClientSecret  = "AZURE_CLIENT_SECRET"
	EnvAccessToken   = "AZURE_ACCESS_TOKEN"
	EnvArchiveAccess = "COSMOCLEAR_ARCHIVE_ACCESS_KEY"
	EnvArchiveSecret = "COSMOCLEAR_ARCHIVE_SECRET_KEY"
	EnvLogFormat     = "LOG_FORMAT"
	EnvLogLevel      = "LOG_LEVEL"
)

const defaultArchiveRegion = "us-east-1"

// Config is the complete cosmoclear configuration.
type Config struct {
	Tenants            []Tenant      `mapstructure:"tenants"`
	ManagementEndpoint string        `mapstructure:"managementEndpoint"`
	AuthorityEndpoint  string        `mapstructure:"authorityEndpoint"`
	Clear              ClearConfig   `mapstructure:"clear"`
	Archive            ArchiveConfig `mapstructure:"archive"`
	Metrics            MetricsConfig `mapstructure:"metrics"`
	Log                LogConfig     `mapstructure:"log"`
}

// Tenant is one Entra ID tenant to sign in to. Either a service principal
// (ClientID plus a secret) or a pre-issued AccessToken is required.
type Tenant struct {
	ID              string `mapstructure:"id"`
	ClientID        string `mapstructure:"clientId"`
	ClientSecretEnv string `mapstructure:"clientSecretEnv"`

	ClientSecret string `mapstructure:"-"`
	AccessToken  string `mapstructure:"-"`
}

// ClearConfig tunes the clear engine.
type ClearConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ArchiveConfig enables archiving documents before deletion.
type ArchiveConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`

	AccessKey string `mapstructure:"-"`
	SecretKey string `mapstructure:"-"`
}

// Enabled reports whether a bucket is configured.
func (a ArchiveConfig) Enabled() bool { return a.Bucket != "" }

// MetricsConfig controls the metrics textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LogConfig selects the log format and level.
type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

func (c *Config) applyDefaults() {
	if c.Clear.Concurrency == 0 {
		c.Clear.Concurrency = cascade.DefaultConcurrency
	}
	if c.Archive.Enabled() && c.Archive.Region == "" {
		c.Archive.Region = defaultArchiveRegion
	}
}
