// Package config loads the per-environment service configuration file.
//
// The file is JSON with one top-level section per environment:
//
//	{
//	  "dev":  {"atlas_api_url": "...", "ranger_api_url": "...", "retries": 3},
//	  "prod": {"atlas_api_url": "...", "ranger_api_url": "...",
//	           "variables": [{"name": "warehouse", "value": "wh_main"}]}
//	}
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/errors"
)

// Variable is one config-declared context variable, merged into the policy
// expansion context. Config variables win over run-derived values on name
// collision.
type Variable struct {
	Name  string `mapstructure:"name" json:"name"`
	Value string `mapstructure:"value" json:"value"`
}

// Environment is one environment's section of the config file.
type Environment struct {
	AtlasAPIURL  string     `mapstructure:"atlas_api_url" json:"atlas_api_url"`
	RangerAPIURL string     `mapstructure:"ranger_api_url" json:"ranger_api_url"`
	Retries      int        `mapstructure:"retries" json:"retries"`
	Variables    []Variable `mapstructure:"variables" json:"variables"`
}

// Load reads the config file at path and returns the section for the given
// environment. A missing file, unknown environment, or unparseable section is
// a ConfigError.
func Load(path, environment string) (*Environment, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError("config file", "cannot read "+path, err)
	}

	section := v.Sub(environment)
	if section == nil {
		return nil, errors.NewConfigError("config file",
			fmt.Sprintf("environment %q not found in %s", environment, path), nil)
	}
	section.SetDefault("retries", constants.DefaultRetries)

	env := &Environment{}
	if err := section.Unmarshal(env); err != nil {
		return nil, errors.NewConfigError("config file",
			fmt.Sprintf("cannot parse environment %q", environment), err)
	}
	return env, nil
}
