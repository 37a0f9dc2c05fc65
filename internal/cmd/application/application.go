// Package application defines the contract between the CLI application
// layer and command implementations, enabling dependency injection and
// testability.
//
// Commands accept the Application interface rather than the concrete App
// type, so tests can drive them with the Mock in this package.
//
// Usage in commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use client
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/config"
)

// DefaultEnvironmentAnnotation is the cobra annotation key a command sets
// to declare the environment it falls back to when --environment is not
// given. Commands without it require the flag.
const DefaultEnvironmentAnnotation = "default-environment"

// Application is the set of dependencies commands need from the app layer.
type Application interface {
	// Client returns the default policytool instance, creating it lazily
	// from the run's environment configuration. Thread-safe.
	Client() (policytool.Policytool, error)

	// ClientWithOptions creates a fresh policytool instance layering extra
	// options (retry budget, dry run) over the configured collaborators.
	ClientWithOptions(opts ...policytool.Option) (policytool.Policytool, error)

	// EnvironmentConfig loads the named environment section of the config
	// file, with process-environment overrides applied.
	EnvironmentConfig(name string) (*config.Environment, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// SourceDir returns the directory holding the tag and rule files.
	SourceDir() string

	// EnvironmentName returns the name of the selected environment.
	EnvironmentName() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
