// Package config loads application settings from an optional app.env file
// and the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the application settings.
type Config struct {
	AppName            string  `mapstructure:"APP_NAME"`
	PlatformFeePercent float64 `mapstructure:"PLATFORM_FEE_PERCENT"`
	Currency           string  `mapstructure:"CURRENCY"`
	WorkOrderPrefix    string  `mapstructure:"WORK_ORDER_PREFIX"`
	SeedDemoData       bool    `mapstructure:"SEED_DEMO_DATA"`
	MaxImportRows      int     `mapstructure:"MAX_IMPORT_ROWS"`
}

// LoadConfig reads app.env from the given path and overlays environment
// variables. A missing config file is fine, the defaults and environment
// still apply.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "renovasi")
	v.SetDefault("PLATFORM_FEE_PERCENT", 5.0)
	v.SetDefault("CURRENCY", "IDR")
	v.SetDefault("WORK_ORDER_PREFIX", "WO")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("MAX_IMPORT_ROWS", 2000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.PlatformFeePercent < 0 || cfg.PlatformFeePercent > 100 {
		return Config{}, fmt.Errorf("PLATFORM_FEE_PERCENT must be between 0 and 100, got %v", cfg.PlatformFeePercent)
	}
	return cfg, nil
}
