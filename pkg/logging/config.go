package logging

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/constants"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level to emit (trace, debug, info, warn, error).
	Level string

	// Format selects json, console, or auto (console on a terminal).
	Format string

	// Output names the sink: stderr, stdout, discard, or a file path.
	Output string

	// TimeFormat names the console timestamp layout (kitchen, rfc3339, ...).
	TimeFormat string

	// NoColor disables color in console output.
	NoColor bool

	// AddCaller includes file:line in every entry.
	AddCaller bool

	// Fields are stamped on every entry the logger emits.
	Fields map[string]any
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
		AddCaller:  false,
		Fields:     make(map[string]any),
	}
}

// NewLoggerFromConfig builds a logger from cfg. A nil cfg means defaults.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(configuredWriter(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		lc = lc.Caller()
	}

	// Sorted so the stamped fields land in a stable order.
	keys := make([]string, 0, len(cfg.Fields))
	for k := range cfg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lc = appendField(lc, k, cfg.Fields[k])
	}

	return lc.Logger()
}

// Configure rebuilds the default logger from cfg.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// configuredWriter resolves the sink and wraps it for console output when
// the format asks for it. Unopenable file paths fall back to stderr rather
// than failing the run.
func configuredWriter(cfg *Config) io.Writer {
	var sink io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		sink = os.Stderr
	case "stdout":
		sink = os.Stdout
	case "discard", "none":
		sink = io.Discard
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			sink = os.Stderr
		} else {
			sink = file
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "auto" {
		format = "json"
		if f, ok := sink.(*os.File); ok && (f == os.Stderr || f == os.Stdout) {
			if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
				format = "console"
			}
		}
	}

	switch format {
	case "console", "pretty":
		return zerolog.ConsoleWriter{
			Out:        sink,
			TimeFormat: consoleTimeFormat(cfg.TimeFormat),
			NoColor:    cfg.NoColor,
		}
	default:
		return sink
	}
}

var levelNames = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"disabled": zerolog.Disabled,
	"none":     zerolog.Disabled,
	"off":      zerolog.Disabled,
}

// parseLevel maps a level name to a zerolog level, defaulting to info.
func parseLevel(name string) zerolog.Level {
	if level, ok := levelNames[strings.ToLower(name)]; ok {
		return level
	}
	if level, err := zerolog.ParseLevel(name); err == nil {
		return level
	}
	return zerolog.InfoLevel
}

var timeLayouts = map[string]string{
	"kitchen":     time.Kitchen,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"stamp":       time.Stamp,
	// An empty layout tells the console writer to print Unix timestamps.
	"unix":  "",
	"epoch": "",
}

// consoleTimeFormat maps a named layout, accepts reference-time layouts
// verbatim, and otherwise falls back to kitchen time.
func consoleTimeFormat(name string) string {
	if layout, ok := timeLayouts[strings.ToLower(name)]; ok {
		return layout
	}
	if strings.Contains(name, "2006") || strings.Contains(name, "15:04") {
		return name
	}
	return time.Kitchen
}
