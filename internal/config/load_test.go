package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `
tenants:
  - id: tenant-a
    clientId: app-a
    clientSecretEnv: TENANT_A_SECRET
  - id: tenant-b
managementEndpoint: http://localhost:8080
clear:
  concurrency: 4
archive:
  bucket: backups
  prefix: cosmos
  endpoint: http://localhost:9000
metrics:
  textfile: /tmp/cosmoclear.prom
log:
  format: json
  level: debug
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.Len(t, cfg.Tenants, 2)
	assert.Equal(t, "tenant-a", cfg.Tenants[0].ID)
	assert.Equal(t, "app-a", cfg.Tenants[0].ClientID)
	assert.Equal(t, "TENANT_A_SECRET", cfg.Tenants[0].ClientSecretEnv)
	assert.Empty(t, cfg.Tenants[0].ClientSecret)
	assert.Equal(t, "http://localhost:8080", cfg.ManagementEndpoint)
	assert.Equal(t, 4, cfg.Clear.Concurrency)
	assert.Equal(t, "backups", cfg.Archive.Bucket)
	assert.Equal(t, "cosmos", cfg.Archive.Prefix)
	assert.Equal(t, "/tmp/cosmoclear.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "invalid yaml", content: "tenants: [", wantErr: "failed to parse YAML"},
		{name: "unknown field", content: "tenant: x", wantErr: "failed to decode config"},
		{name: "wrong type", content: "clear:\n  concurrency: many", wantErr: "failed to decode config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("secret from named variable", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{Tenants: []Tenant{{ID: "a", ClientID: "app", ClientSecretEnv: "A_SECRET"}}}
		cfg.ApplyEnv(envMap(map[string]string{"A_SECRET": "s3cret"}))
		assert.Equal(t, "s3cret", cfg.Tenants[0].ClientSecret)
	})

	t.Run("tenant from environment is appended", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		cfg.ApplyEnv(envMap(map[string]string{
			EnvTenantID:     "t1",
			EnvClientID:     "app",
			EnvClientSecret: "secret",
		}))
		require.Len(t, cfg.Tenants, 1)
		assert.Equal(t, Tenant{ID: "t1", ClientID: "app", ClientSecret: "secret"}, cfg.Tenants[0])
	})

	t.Run("environment completes configured tenant", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{Tenants: []Tenant{{ID: "t1"}}}
		cfg.ApplyEnv(envMap(map[string]string{EnvTenantID: "t1", EnvAccessToken: "tok"}))
		require.Len(t, cfg.Tenants, 1)
		assert.Equal(t, "tok", cfg.Tenants[0].AccessToken)
	})

	t.Run("archive keys and log overrides", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{Log: LogConfig{Format: "text", Level: "info"}}
		cfg.ApplyEnv(envMap(map[string]string{
			EnvArchiveAccess: "ak",
			EnvArchiveSecret: "sk",
			EnvLogFormat:     "json",
		}))
		assert.Equal(t, "ak", cfg.Archive.AccessKey)
		assert.Equal(t, "sk", cfg.Archive.SecretKey)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "info", cfg.Log.Level)
	})
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{Archive: ArchiveConfig{Bucket: "b"}}
	cfg.applyDefaults()
	assert.Equal(t, 8, cfg.Clear.Concurrency)
	assert.Equal(t, "us-east-1", cfg.Archive.Region)

	cfg = &Config{Clear: ClearConfig{Concurrency: 2}}
	cfg.applyDefaults()
	assert.Equal(t, 2, cfg.Clear.Concurrency)
	assert.Empty(t, cfg.Archive.Region, "region only defaults when archiving")
}

func TestFindConfigFrom(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	want := writeConfig(t, root, "tenants: []")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	got, err := findConfigFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFrom_NotFound(t *testing.T) {
	t.Parallel()

	_, err := findConfigFrom(t.TempDir())
	if err == nil {
		t.Skip("a cosmoclear.yaml exists above the temp directory")
	}
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("COSMOCLEAR_TEST_SECRET", "value")
	t.Setenv(EnvTenantID, "")
	t.Setenv(EnvArchiveAccess, "")
	t.Setenv(EnvArchiveSecret, "")
	t.Setenv(EnvLogFormat, "")
	t.Setenv(EnvLogLevel, "")
	path := writeConfig(t, t.TempDir(), `
tenants:
  - id: t1
    clientId: app
    clientSecretEnv: COSMOCLEAR_TEST_SECRET
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "value", cfg.Tenants[0].ClientSecret)
	assert.Equal(t, 8, cfg.Clear.Concurrency)
}

func TestLoad_ValidationError(t *testing.T) {
	t.Setenv(EnvTenantID, "")
	path := writeConfig(t, t.TempDir(), "tenants: []\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
