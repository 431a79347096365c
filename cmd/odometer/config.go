package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/socketrpc"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 3000
	defaultStreamInterval = model.DefaultStreamInterval
	defaultRateLimit      = model.DefaultRateLimit
	defaultRateBurst      = model.DefaultRateBurst
)

// appConfig is internal runtime configuration.
type appConfig struct {
	SocketPath     string         `mapstructure:"socket-path"`
	APIEnabled     bool           `mapstructure:"api-enabled"`
	APIPort        int            `mapstructure:"api-port"`
	APIAddr        string         `mapstructure:"api-addr"`
	StreamInterval time.Duration  `mapstructure:"stream-interval"`
	RateLimit      float64        `mapstructure:"rate-limit"`
	RateBurst      int            `mapstructure:"rate-burst"`
	Odometer       map[string]any `mapstructure:"odometer"`
	Displays       []display.Spec `mapstructure:"displays"`
	ConfigPath     string         `mapstructure:"-"`
}

func newViper(configPath string) (*viper.Viper, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ODOMETER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("stream-interval", defaultStreamInterval)
	v.SetDefault("rate-limit", defaultRateLimit)
	v.SetDefault("rate-burst", defaultRateBurst)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "odometer", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return v, nil
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v, err := newViper(configPath)
	if err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.StreamInterval <= 0 {
		return cfg, fmt.Errorf("invalid stream-interval: %s", cfg.StreamInterval)
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}
	return cfg, nil
}
