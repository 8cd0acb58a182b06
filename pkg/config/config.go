// Package config loads process configuration from environment
// variables (and an optional .env file) into a typed struct.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every setting the core and its HTTP surface need.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `mapstructure:"addr"`
	// DataDir is the ordered KV substrate's directory.
	DataDir string `mapstructure:"data.dir"`
	// WalPath is the WAL file's path.
	WalPath string `mapstructure:"wal.path"`
	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `mapstructure:"log.level"`
	// LogFormat is one of json, text.
	LogFormat string `mapstructure:"log.format"`
}

// Defaults returns the configuration used when no environment
// variable overrides a field.
func Defaults() Config {
	return Config{
		Addr:      ":8080",
		DataDir:   "data",
		WalPath:   "wal.db",
		LogLevel:  "INFO",
		LogFormat: "json",
	}
}

// Load starts from Defaults and overlays VKV_-prefixed environment
// variables (and an optional .env file in the working directory).
// VKV_DATA_DIR becomes data.dir, VKV_LOG_LEVEL becomes log.level, and
// so on.
func Load(prefix string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("config: read .env: %w", err)
		}
	}

	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key, value := pair[0], pair[1]
		if !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		propKey := strings.TrimPrefix(key, prefixUpper)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		v.Set(propKey, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
