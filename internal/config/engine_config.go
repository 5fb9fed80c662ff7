// Package config loads the engine's startup configuration: the data
// directory holding every relation/index file and a block_size setting.
// Block files always use the fixed page.BlockSize; the loaded BlockSize is
// not read by any other package. Grounded on internal/config/yaml_config.go's layered
// load order (file, then environment override) and local_config.go's
// "never error on a missing file, fall back to defaults" idiom.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EngineConfig is the engine's startup configuration, loaded from
// giraffe.toml with GIRAFFESQL_* environment variable overrides.
type EngineConfig struct {
	DataDir   string `toml:"data_dir"`
	BlockSize int    `toml:"block_size"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() EngineConfig {
	return EngineConfig{DataDir: "./data", BlockSize: 4096}
}

// Load reads path as TOML (if it exists; a missing file is not an error,
// matching LoadLocalConfig's "return defaults" behavior) and applies
// GIRAFFESQL_DATA_DIR / GIRAFFESQL_BLOCK_SIZE environment overrides, which
// take precedence over the file the same way BEADS_SYNC_BRANCH overrides
// config.yaml in LoadLocalConfigWithEnv.
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return EngineConfig{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix("GIRAFFESQL")
	v.AutomaticEnv()
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("block_size") {
		cfg.BlockSize = v.GetInt("block_size")
	}
	return cfg, nil
}
