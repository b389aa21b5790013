package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

const defaultStoreURL = "http://127.0.0.1:3001"

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	StoreURL         string        `mapstructure:"store-url"`
	RealTimeInterval time.Duration `mapstructure:"realtime-interval"`
	CriticalInterval time.Duration `mapstructure:"critical-interval"`
	SystemInterval   time.Duration `mapstructure:"system-interval"`
	MaxLogs          int           `mapstructure:"max-logs"`
	UseStream        bool          `mapstructure:"use-stream"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LOGDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("store-url", defaultStoreURL)
	v.SetDefault("realtime-interval", model.DefaultRealTimeInterval)
	v.SetDefault("critical-interval", model.DefaultCriticalInterval)
	v.SetDefault("system-interval", model.DefaultSystemInterval)
	v.SetDefault("max-logs", model.DefaultMaxLogs)
	v.SetDefault("use-stream", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "logdeck", "tui.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.StoreURL == "" {
		return cfg, errors.New("store-url must not be empty")
	}
	cfg.StoreURL = strings.TrimRight(cfg.StoreURL, "/")
	return cfg, nil
}
