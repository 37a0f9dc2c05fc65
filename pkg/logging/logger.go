// Package logging provides structured logging for policytool using zerolog.
// Interactive runs get human-readable console output on stderr; piped runs
// and CI pipelines get JSON lines. Components reach the logger through a
// context (see FromContext) so one invocation's fields, such as its run id,
// follow every catalog and policy-service call.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("entity", "sales.orders").Msg("Pushing tags")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	logging.Ctx(ctx).Debug().Msg("Using logger from context")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger backs the package-level event helpers and FromContext when
// a context carries no logger of its own.
var defaultLogger = bootLogger()

// bootLogger builds the logger active before Configure runs: console output
// when stderr is a terminal and LOG_FORMAT is not json, JSON otherwise.
func bootLogger() zerolog.Logger {
	level := bootLevel()
	zerolog.SetGlobalLevel(level)

	out := io.Writer(os.Stderr)
	if stderrIsTerminal() && os.Getenv("LOG_FORMAT") != "json" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	lc := zerolog.New(out).Level(level).With().Timestamp()
	if level <= zerolog.DebugLevel {
		lc = lc.Caller()
	}
	return lc.Logger()
}

// bootLevel reads LOG_LEVEL, treating a set DEBUG variable as a shortcut
// for debug when LOG_LEVEL is absent. Unparseable values fall back to info.
func bootLevel() zerolog.Level {
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := zerolog.ParseLevel(raw); err == nil {
			return level
		}
		return zerolog.InfoLevel
	}
	if os.Getenv("DEBUG") != "" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger. zerolog's own global logger
// follows it so third-party code logging through zerolog/log stays
// consistent with ours.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the default logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

// Fatal starts a fatal event on the default logger; the process exits once
// the event is sent.
func Fatal() *zerolog.Event { return defaultLogger.Fatal() }
