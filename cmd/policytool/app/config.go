package app

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/platformops/policytool/pkg/constants"
)

// Config holds the CLI configuration assembled from flags, environment
// variables, and .env files.
type Config struct {
	// Global flags
	Verbose int // each -v raises the log level one step
	Quiet   bool
	NoColor bool
	Format  string

	// Run selection
	ConfigFile  string
	SrcDir      string
	Environment string

	// Logging configuration
	LogLevel    string // explicit --log-level value; empty means derive
	EnvLogLevel string // LOG_LEVEL environment fallback
	LogFormat   string
	LogOutput   string
}

// LoadConfig assembles the configuration before flag parsing. Cobra-bound
// flags overwrite these values afterwards, so precedence ends up flags,
// then environment, then .env files, then defaults.
func LoadConfig() (*Config, error) {
	// .env before viper's env binding, so both see the same values.
	// .env.local wins over .env.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	bindServiceEnv()

	return &Config{
		Verbose: viper.GetInt("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.GetString("config"),
		SrcDir:     constants.DefaultSrcDir,

		// LOG_LEVEL lands in the fallback slot; LogLevel stays empty until
		// an explicit --log-level sets it.
		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   cmp.Or(os.Getenv("LOG_FORMAT"), "auto"),
		LogOutput:   cmp.Or(os.Getenv("LOG_OUTPUT"), "stderr"),
	}, nil
}

// UpdateFromFlags applies parsed flag values on top of the loaded
// configuration. Empty format and log-level values leave the loaded ones
// in place.
func (c *Config) UpdateFromFlags(verbose int, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// bindServiceEnv binds the service endpoint and credential variables so
// values loaded from .env files participate in viper resolution.
func bindServiceEnv() {
	for _, key := range []string{
		"ATLAS_API_URL",
		"ATLAS_USERNAME",
		"ATLAS_PASSWORD",
		"ATLAS_TOKEN",
		"RANGER_API_URL",
		"RANGER_USERNAME",
		"RANGER_PASSWORD",
		"RANGER_TOKEN",
	} {
		if err := viper.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}
