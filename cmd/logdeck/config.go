package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultBindAddr = "127.0.0.1:3001"
	defaultMySQLDSN = "logdeck:logdeck@tcp(127.0.0.1:3306)/logdeck?charset=utf8mb4&parseTime=True&loc=Local"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Addr        string `mapstructure:"addr"`
	MySQLDSN    string `mapstructure:"mysql-dsn"`
	GitHubRepo  string `mapstructure:"github-repo"`
	GitHubToken string `mapstructure:"github-token"`
	LogLevel    string `mapstructure:"log-level"`
	ConfigPath  string `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LOGDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("addr", defaultBindAddr)
	v.SetDefault("mysql-dsn", defaultMySQLDSN)
	v.SetDefault("github-repo", "")
	v.SetDefault("github-token", "")
	v.SetDefault("log-level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "logdeck", "config.yml"))
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
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.Addr == "" {
		return cfg, errors.New("addr must not be empty")
	}
	return cfg, nil
}
