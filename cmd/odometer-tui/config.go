package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/socketrpc"
)

// cliConfig holds only TUI-relevant configuration. The display layers are
// read so -local can host the same displays the service would.
type cliConfig struct {
	SocketPath    string         `mapstructure:"socket-path"`
	Skin          string         `mapstructure:"skin"`
	FrameInterval time.Duration  `mapstructure:"frame-interval"`
	Odometer      map[string]any `mapstructure:"odometer"`
	Displays      []display.Spec `mapstructure:"displays"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ODOMETER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("skin", model.DefaultSkin)
	v.SetDefault("frame-interval", model.DefaultFrameInterval)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "odometer", "config.yml"))
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
	if cfg.FrameInterval <= 0 {
		return cfg, fmt.Errorf("invalid frame-interval: %s", cfg.FrameInterval)
	}
	return cfg, nil
}
