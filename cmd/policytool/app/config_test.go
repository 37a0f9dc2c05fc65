package app

import (
	"testing"

	"github.com/platformops/policytool/pkg/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.SrcDir != constants.DefaultSrcDir {
		t.Errorf("SrcDir = %s, want %s", config.SrcDir, constants.DefaultSrcDir)
	}
	if config.LogFormat == "" || config.LogOutput == "" {
		t.Errorf("logging defaults not set: format=%q output=%q", config.LogFormat, config.LogOutput)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("VERBOSE", "2")
	t.Setenv("FORMAT", "json")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Verbose != 2 {
		t.Errorf("Verbose = %d, want 2", config.Verbose)
	}
	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
}

func TestLoadConfigLoggingEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "stdout")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	// LOG_LEVEL must land in the fallback slot so --log-level can still win.
	if config.EnvLogLevel != "debug" {
		t.Errorf("EnvLogLevel = %s, want debug", config.EnvLogLevel)
	}
	if config.LogLevel != "" {
		t.Errorf("LogLevel = %s, want empty without --log-level", config.LogLevel)
	}
	if config.LogFormat != "json" {
		t.Errorf("LogFormat = %s, want json", config.LogFormat)
	}
	if config.LogOutput != "stdout" {
		t.Errorf("LogOutput = %s, want stdout", config.LogOutput)
	}
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "json"}

	config.UpdateFromFlags(2, true, true, "yaml", "trace")

	if config.Verbose != 2 || !config.Quiet || !config.NoColor {
		t.Errorf("flag values not applied: %+v", config)
	}
	if config.Format != "yaml" {
		t.Errorf("Format = %s, want yaml", config.Format)
	}
	if config.LogLevel != "trace" {
		t.Errorf("LogLevel = %s, want trace", config.LogLevel)
	}
}

func TestUpdateFromFlagsKeepsUnsetValues(t *testing.T) {
	config := &Config{Format: "json", LogLevel: "debug"}

	config.UpdateFromFlags(0, false, false, "", "")

	if config.Format != "json" {
		t.Errorf("Format = %s, want json preserved", config.Format)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug preserved", config.LogLevel)
	}
}
