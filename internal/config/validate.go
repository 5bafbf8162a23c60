package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Tenants) == 0 {
		errs = append(errs, fmt.Errorf("at least one tenant is required (configure tenants or set %s)", EnvTenantID))
	}
	seen := make(map[string]bool)
	for i, t := range c.Tenants {
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("tenants[%d]: %w", i, err))
		}
		if t.ID != "" && seen[t.ID] {
			errs = append(errs, fmt.Errorf("tenants[%d]: duplicate tenant id %q", i, t.ID))
		}
		seen[t.ID] = true
	}

	if c.Clear.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("clear.concurrency must be positive, got %d", c.Clear.Concurrency))
	}

	if c.Archive.Enabled() && (c.Archive.AccessKey == "" || c.Archive.SecretKey == "") {
		errs = append(errs, fmt.Errorf("archive.bucket requires %s and %s", EnvArchiveAccess, EnvArchiveSecret))
	}

	if err := validateChoice("log.format", c.Log.Format, "text", "json"); err != nil {
		errs = append(errs, err)
	}
	if err := validateChoice("log.level", c.Log.Level, "debug", "info", "warn", "error"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (t Tenant) validate() error {
	if t.ID == "" {
		return errors.New("id is required")
	}
	switch {
	case t.AccessToken != "":
		return nil
	case t.ClientID == "":
		return fmt.Errorf("tenant %s needs clientId or %s", t.ID, EnvAccessToken)
	case t.ClientSecret == "":
		if t.ClientSecretEnv != "" {
			return fmt.Errorf("tenant %s: client secret variable %s is empty", t.ID, t.ClientSecretEnv)
		}
		return fmt.Errorf("tenant %s: clientId requires a secret (set clientSecretEnv or %s)", t.ID, EnvClientSecret)
	}
	return nil
}

func validateChoice(field, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}
