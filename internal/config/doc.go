// Package config loads the cosmoclear configuration.
//
// Settings come from an optional cosmoclear.yaml, found in the working
// directory or one of its parents, overlaid with environment variables.
// A .env file in the working directory is loaded into the environment first.
// Secrets are only ever read from the environment.
package config
