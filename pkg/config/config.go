// Package config provides a reusable loader for assetmesh configuration
// files and environment variables. It is versioned so that applications
// can depend on a stable API contract.
//
// Version: v0.2.0
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hypermesh-network/assetmesh/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.2.0"

// Config is the unified configuration for one assetmesh node. It mirrors
// the structure of the YAML files under config/.
type Config struct {
	Node struct {
		ID       string `mapstructure:"id" json:"id"`
		MinTrust float64 `mapstructure:"min_trust" json:"min_trust"`
	} `mapstructure:"node" json:"node"`

	Consensus struct {
		BaselineStake         uint64 `mapstructure:"baseline_stake" json:"baseline_stake"`
		BaselineWorkDifficulty uint64 `mapstructure:"baseline_work_difficulty" json:"baseline_work_difficulty"`
	} `mapstructure:"consensus" json:"consensus"`

	Proxy struct {
		PortRangeLow  uint16 `mapstructure:"port_range_low" json:"port_range_low"`
		PortRangeHigh uint16 `mapstructure:"port_range_high" json:"port_range_high"`
		MappingTTL    string `mapstructure:"mapping_ttl" json:"mapping_ttl"`
	} `mapstructure:"proxy" json:"proxy"`

	Metrics struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"metrics" json:"metrics"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	// .env is optional; a missing file is not an error, it just means
	// nothing overrides the process environment.
	_ = godotenv.Load()

	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ASSETMESH_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ASSETMESH_ENV", ""))
}
