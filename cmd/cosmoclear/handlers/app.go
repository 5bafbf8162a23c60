// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/cosmoclear/internal/archive"
	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/cascade"
	"github.com/imamik/cosmoclear/internal/config"
	"github.com/imamik/cosmoclear/internal/confirm"
	"github.com/imamik/cosmoclear/internal/logging"
	"github.com/imamik/cosmoclear/internal/metrics"
	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/remote/azure"
	"github.com/imamik/cosmoclear/internal/session"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads and validates the configuration.
	loadConfig = config.Load

	// newPort creates the remote fetch port bound to store.
	newPort = func(store *session.Store, cfg *config.Config, log *slog.Logger) remote.Port {
		return azure.New(store, azure.Options{
			ManagementURL: cfg.ManagementEndpoint,
			Logger:        log,
		})
	}

	// newArchiver creates the S3 archiver and makes sure its bucket exists.
	newArchiver = func(ctx context.Context, cfg config.ArchiveConfig) (cascade.Archiver, error) {
		client, err := archive.NewClient(ctx, cfg.Endpoint, cfg.Region, cfg.AccessKey, cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx, cfg.Bucket); err != nil {
			return nil, err
		}
		return archive.New(client, cfg.Bucket, cfg.Prefix), nil
	}

	// newInteractivePrompter reads confirmations from the user: huh forms on
	// a terminal, plain lines otherwise.
	newInteractivePrompter = func() confirm.Prompter {
		if isTerminal() {
			return confirm.HuhPrompter{}
		}
		return confirm.NewLinePrompter(stdin, stdout)
	}

	// isTerminal reports whether stdin and stdout are attached to a terminal.
	isTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
	}

	// stdin, stdout and logOutput are the handler streams.
	stdin     io.Reader = os.Stdin
	stdout    io.Writer = os.Stdout
	logOutput io.Writer = os.Stderr
)

// app bundles the components a command works with.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *session.Store
	cache   *cache.Cache
	engine  *cascade.Engine
	metrics *metrics.Recorder
}

// newApp loads the configuration and wires the session, cache and engine.
func newApp(ctx context.Context, configPath, command string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.Bootstrap(cfg.Log.Format, cfg.Log.Level, logOutput, command)
	if err != nil {
		return nil, err
	}

	store := session.NewStore()
	store.SignIn(session.New(credentials(ctx, cfg)...))

	rec := metrics.New()
	port := newPort(store, cfg, logger)
	c := cache.New(port, store, cache.WithLogger(logger), cache.WithMetrics(rec))

	opts := []cascade.Option{
		cascade.WithLogger(logger),
		cascade.WithMetrics(rec),
		cascade.WithConcurrency(cfg.Clear.Concurrency),
	}
	if cfg.Archive.Enabled() {
		archiver, err := newArchiver(ctx, cfg.Archive)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to set up archive bucket %s: %w", cfg.Archive.Bucket, err)
		}
		logger.Info("archiving documents before deletion", "bucket", cfg.Archive.Bucket)
		opts = append(opts, cascade.WithArchiver(archiver))
	}

	return &app{
		cfg:     cfg,
		log:     logger,
		store:   store,
		cache:   c,
		engine:  cascade.New(c, port, opts...),
		metrics: rec,
	}, nil
}

// close releases the cache and writes the metrics textfile if configured.
func (a *app) close() {
	a.cache.Close()
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Warn("failed to write metrics", "error", err)
	}
}

func credentials(ctx context.Context, cfg *config.Config) []*session.Credential {
	creds := make([]*session.Credential, 0, len(cfg.Tenants))
	for _, t := range cfg.Tenants {
		if t.AccessToken != "" {
			creds = append(creds, session.StaticCredential(t.ID, t.AccessToken))
			continue
		}
		creds = append(creds, session.ClientSecretCredential(ctx, cfg.AuthorityEndpoint, t.ID, t.ClientID, t.ClientSecret))
	}
	return creds
}

// prompter returns a fixed answer when one was given on the command line
// and asks the user otherwise.
func prompter(answer string, scripted bool) confirm.Prompter {
	if scripted {
		return confirm.ScriptedPrompter{Answer: answer}
	}
	return newInteractivePrompter()
}
