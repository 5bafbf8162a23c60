package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned by FindConfigFile when no file exists.
var ErrConfigNotFound = errors.New("config file not found")

// Load builds the configuration. An explicit path must exist; without one
// the file is searched with FindConfigFile and is optional. The environment
// is applied on top and the result validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	if path == "" {
		found, err := FindConfigFile()
		switch {
		case err == nil:
			path = found
		case errors.Is(err, ErrConfigNotFound):
		default:
			return nil, err
		}
	}
	if path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML file without applying the environment
// or validating.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overlays environment settings read through getenv.
//
// Tenant secrets are read from the variable named by clientSecretEnv.
// AZURE_TENANT_ID adds a tenant (or completes the one with the same id)
// using AZURE_CLIENT_ID/AZURE_CLIENT_SECRET or AZURE_ACCESS_TOKEN.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for i := range c.Tenants {
		if name := c.Tenants[i].ClientSecretEnv; name != "" {
			c.Tenants[i].ClientSecret = getenv(name)
		}
	}

	if id := getenv(EnvTenantID); id != "" {
		t := c.tenant(id)
		if v := getenv(EnvClientID); v != "" {
			t.ClientID = v
		}
		if v := getenv(EnvClientSecret); v != "" {
			t.ClientSecret = v
		}
		if v := getenv(EnvAccessToken); v != "" {
			t.AccessToken = v
		}
	}

	c.Archive.AccessKey = getenv(EnvArchiveAccess)
	c.Archive.SecretKey = getenv(EnvArchiveSecret)

	if v := getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// tenant returns the tenant with id, appending it when absent.
func (c *Config) tenant(id string) *Tenant {
	for i := range c.Tenants {
		if c.Tenants[i].ID == id {
			return &c.Tenants[i]
		}
	}
	c.Tenants = append(c.Tenants, Tenant{ID: id})
	return &c.Tenants[len(c.Tenants)-1]
}

// FindConfigFile searches the current directory and its parents for
// cosmoclear.yaml.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findConfigFrom(cwd)
}

func findConfigFrom(dir string) (string, error) {
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, DefaultConfigFilename)
		}
		dir = parent
	}
}
