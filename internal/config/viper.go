package config

import (
	"os"

	"github.com/spf13/viper"
)

// Environment variable names that override the config file when set.
const (
	// EnvAtlasURL overrides the environment's atlas_api_url.
	EnvAtlasURL = "ATLAS_API_URL"

	// EnvRangerURL overrides the environment's ranger_api_url.
	EnvRangerURL = "RANGER_API_URL"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	// Check OS env directly first
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// ApplyOverrides replaces an environment's connection settings with their
// process-environment counterparts when set, so one config file can serve
// several clusters.
func ApplyOverrides(env *Environment) {
	if url := GetString(EnvAtlasURL); url != "" {
		env.AtlasAPIURL = url
	}
	if url := GetString(EnvRangerURL); url != "" {
		env.RangerAPIURL = url
	}
}
