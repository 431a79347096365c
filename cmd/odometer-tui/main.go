package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/socketrpc"
	"github.com/tinytelemetry/odometer/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var displayName string
	var local bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/odometer/config.yml)")
	flag.StringVar(&socketPath, "socket", "", "override socket path to connect to odometer service")
	flag.StringVar(&displayName, "display", "", "show only the named display")
	flag.BoolVar(&local, "local", false, "host the configured displays in-process instead of connecting to the service")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Odometer TUI - Digit Wheel Renderer\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
	}

	if err := runTUI(cfg, local, displayName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig, local bool, only string) error {
	if home, err := os.UserHomeDir(); err == nil {
		if err := tui.InitializeSkin(cfg.Skin, filepath.Join(home, ".config", "odometer")); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
		}
	}

	var api model.DisplayAPI
	if local {
		set, err := display.New(display.Config{Base: cfg.Odometer, Displays: cfg.Displays})
		if err != nil {
			return fmt.Errorf("failed to build displays: %w", err)
		}
		defer set.StopAll()
		api = set
	} else {
		client, err := socketrpc.Dial(cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("cannot connect to odometer service at %s: %w\nIs the odometer service running? Start it with: odometer (or pass -local)", cfg.SocketPath, err)
		}
		defer client.Close()
		api = client
	}

	pages, err := buildPages(api, cfg, only)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewApp(pages...), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// buildPages creates one page per display, or just the one named by only.
func buildPages(api model.DisplayAPI, cfg cliConfig, only string) ([]tui.Page, error) {
	names, err := api.ListDisplays()
	if err != nil {
		return nil, fmt.Errorf("listing displays: %w", err)
	}
	if only != "" {
		if !slices.Contains(names, only) {
			return nil, fmt.Errorf("%w: %s", display.ErrNotFound, only)
		}
		names = []string{only}
	}

	pages := make([]tui.Page, 0, len(names))
	for _, name := range names {
		pages = append(pages, tui.NewDisplayPage(api, name, cfg.FrameInterval))
	}
	return pages, nil
}
