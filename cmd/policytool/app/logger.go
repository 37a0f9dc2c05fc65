package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/logging"
)

// NewLogger builds the invocation logger from the CLI configuration.
// Level precedence, highest first: --log-level, -q, -v count, the
// LOG_LEVEL environment variable, then warn so successful runs stay quiet.
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == "debug" || level == "trace",
	})
}

// determineLogLevel resolves the effective level from flags and environment.
func determineLogLevel(config *Config) string {
	// An explicit --log-level wins over everything else.
	if config.LogLevel != "" {
		level := validateLogLevel(config.LogLevel)
		if level != config.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, level)
		}
		return level
	}

	// Quiet beats verbose when both are given.
	if config.Quiet {
		if config.Verbose > 0 {
			fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		}
		return "error"
	}

	switch {
	case config.Verbose >= 2:
		return "debug"
	case config.Verbose == 1:
		return "info"
	}

	if config.EnvLogLevel != "" {
		return validateLogLevel(config.EnvLogLevel)
	}

	return "warn"
}

// validateLogLevel returns level when it names a known level, warn otherwise.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	return "warn"
}
