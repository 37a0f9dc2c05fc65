// Package app wires the policytool CLI together. It owns the shared
// application state (configuration, logger, lazily built client) so the
// command constructors stay thin.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/atlas"
	"github.com/platformops/policytool/internal/config"
	"github.com/platformops/policytool/internal/ranger"
	"github.com/platformops/policytool/internal/transport"
	"github.com/platformops/policytool/pkg/errors"
)

// Environment variable prefixes for service credentials.
const (
	atlasEnvPrefix  = "ATLAS"
	rangerEnvPrefix = "RANGER"
)

// App carries everything the commands share: build identity, the CLI
// configuration, the logger, and the lazily built policytool client.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	mu     sync.RWMutex
	client policytool.Policytool
}

// Option adjusts an App during construction.
type Option func(*App) error

// WithConfig swaps in a pre-built configuration, mainly for tests.
func WithConfig(c *Config) Option {
	return func(a *App) error {
		if c == nil {
			return errors.NewConfigError("app", "config cannot be nil", nil)
		}
		a.config = c
		return nil
	}
}

// WithLogger swaps in a pre-built logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(a *App) error {
		if l == nil {
			return errors.NewConfigError("app", "logger cannot be nil", nil)
		}
		a.logger = l
		return nil
	}
}

// New assembles an App: configuration from flags and environment, a logger
// derived from that configuration, then any options on top.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log := NewLogger(cfg)

	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		config:  cfg,
		logger:  &log,
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Build identity, stamped by the release pipeline.

func (a *App) Version() string { return a.version }
func (a *App) Commit() string  { return a.commit }
func (a *App) Date() string    { return a.date }
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the CLI configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// SourceDir returns the directory holding the tag and rule files.
func (a *App) SourceDir() string { return a.config.SrcDir }

// EnvironmentName returns the selected environment name.
func (a *App) EnvironmentName() string { return a.config.Environment }

// EnvironmentConfig loads the named environment section of the config file
// and applies process-environment overrides.
func (a *App) EnvironmentConfig(name string) (*config.Environment, error) {
	if a.config.ConfigFile == "" {
		return nil, errors.NewConfigError("app", "no config file given (use --config)", nil)
	}
	env, err := config.Load(a.config.ConfigFile, name)
	if err != nil {
		return nil, err
	}
	config.ApplyOverrides(env)
	return env, nil
}

// Client returns the shared policytool instance, building it on first use.
// Concurrent callers all see the same instance.
func (a *App) Client() (policytool.Policytool, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		built, err := a.newClient()
		if err != nil {
			return nil, err
		}
		a.client = built
	}
	return a.client, nil
}

// ClientWithOptions builds a fresh policytool instance layering extra
// options over the configured collaborators. Commands use it when they need
// per-invocation settings such as a retry budget or dry run.
func (a *App) ClientWithOptions(opts ...policytool.Option) (policytool.Policytool, error) {
	return a.newClient(opts...)
}

// newClient wires a policytool instance to the services the selected
// environment declares. Credentials come from the process environment.
func (a *App) newClient(opts ...policytool.Option) (policytool.Policytool, error) {
	env, err := a.EnvironmentConfig(a.config.Environment)
	if err != nil {
		return nil, err
	}

	options := []policytool.Option{policytool.WithLogger(a.logger)}

	if env.AtlasAPIURL != "" {
		catalog := atlas.New(env.AtlasAPIURL, transport.FromEnv(atlasEnvPrefix),
			atlas.WithLogger(a.logger))
		options = append(options, policytool.WithCatalog(catalog))
	}

	if env.RangerAPIURL != "" {
		store := ranger.New(env.RangerAPIURL, transport.FromEnv(rangerEnvPrefix),
			ranger.WithLogger(a.logger))
		options = append(options, policytool.WithPolicyStore(store))
	}

	options = append(options, opts...)
	return policytool.New(options...)
}
