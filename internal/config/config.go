// Package config loads chessvision settings with viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "chessvision.json"

// Config is the typed view of the loaded settings.
type Config struct {
	LogLevel  string          `mapstructure:"logLevel"`
	Render    RenderConfig    `mapstructure:"render"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// RenderConfig holds overlay rendering settings.
type RenderConfig struct {
	SquareSize int  `mapstructure:"squareSize"`
	ShowCounts bool `mapstructure:"showCounts"`
	ShowPieces bool `mapstructure:"showPieces"`
}

// StorageConfig holds preference store settings. An empty Dir selects the
// platform data directory.
type StorageConfig struct {
	Dir      string `mapstructure:"dir"`
	InMemory bool   `mapstructure:"inMemory"`
}

// TelemetryConfig holds metric settings.
type TelemetryConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"serviceName"`
	Interval    time.Duration `mapstructure:"interval"`
}

// SetDefaults registers the default values.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("render.squareSize", 80)
	viper.SetDefault("render.showCounts", true)
	viper.SetDefault("render.showPieces", true)

	viper.SetDefault("storage.dir", "")
	viper.SetDefault("storage.inMemory", false)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.serviceName", "chessvision")
	viper.SetDefault("telemetry.interval", "30s")
}

// Load reads configuration from configDir and the environment.
// A missing config file is not an error: defaults and CHESSVISION_*
// environment variables still apply.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix("CHESSVISION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(strings.TrimSuffix(FileName, ".json"))
	viper.SetConfigType("json")
	if configDir != "" {
		viper.AddConfigPath(configDir)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Get materialises the current settings.
func Get() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.Render.SquareSize <= 0 {
		return Config{}, fmt.Errorf("render.squareSize must be positive, got %d", cfg.Render.SquareSize)
	}
	return cfg, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
