package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var printConfig bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/odometer/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&printConfig, "print-config", false, "print the merged options of every display and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("Odometer - Digit Animation Service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if printConfig {
		if err := writeConfig(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// writeConfig resolves every configured display without starting it and
// dumps the merged options keyed by display name.
func writeConfig(w io.Writer, cfg appConfig) error {
	specs, err := display.Names(cfg.Displays)
	if err != nil {
		return err
	}
	resolved := make(map[string]odometer.Options, len(specs))
	for _, spec := range specs {
		opts, err := display.Resolve(cfg.Odometer, spec)
		if err != nil {
			return err
		}
		if err := opts.Validate(); err != nil {
			return fmt.Errorf("display %s: %w", spec.Name, err)
		}
		resolved[spec.Name] = opts
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"displays": resolved}); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
