// Package config loads mergecp settings from file, environment and
// defaults. Flags bind on top of this in the CLI layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the tunables of a merge run.
type Config struct {
	// Hash selects the fingerprint algorithm: "md5" or "xxh3".
	Hash string `mapstructure:"hash"`
	// Concurrency bounds the hashing worker pool.
	Concurrency int `mapstructure:"concurrency"`
	// Ignore lists doublestar globs for junk files skipped on both sides.
	Ignore []string `mapstructure:"ignore"`
	// ProgressInterval is how many files pass between progress events.
	ProgressInterval int64 `mapstructure:"progress_interval"`
}

// Default mirrors the tool's behavior with no configuration present.
var Default = Config{
	Hash:        "md5",
	Concurrency: 8,
	Ignore: []string{
		"**/.DS_Store",
		"**/Thumbs.db",
		"**/desktop.ini",
	},
	ProgressInterval: 1000,
}

// Load reads configuration from cfgFile if given, otherwise from
// mergecp.yaml in the working directory or $HOME/.config/mergecp/.
// A missing config file is not an error; an unreadable explicit one is.
// Environment variables with the MERGECP_ prefix override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("hash", Default.Hash)
	v.SetDefault("concurrency", Default.Concurrency)
	v.SetDefault("ignore", Default.Ignore)
	v.SetDefault("progress_interval", Default.ProgressInterval)

	v.SetEnvPrefix("MERGECP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("mergecp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mergecp"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
