package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Skin is a named colour set. Colours are lipgloss colour strings (ANSI
// index or hex).
type Skin struct {
	Name   string `yaml:"name"`
	Digit  string `yaml:"digit"`
	Tenth  string `yaml:"tenth"`
	Border string `yaml:"border"`
	Accent string `yaml:"accent"`
	Muted  string `yaml:"muted"`
	Error  string `yaml:"error"`
}

var builtinSkins = map[string]Skin{
	"default": {Name: "default", Digit: "15", Tenth: "214", Border: "240", Accent: "12", Muted: "245", Error: "9"},
	"mono":    {Name: "mono", Digit: "15", Tenth: "250", Border: "245", Accent: "15", Muted: "245", Error: "15"},
	"amber":   {Name: "amber", Digit: "214", Tenth: "208", Border: "130", Accent: "220", Muted: "136", Error: "196"},
}

// Palette colours used across the renderer. InitializeSkin replaces them.
var (
	ColorDigit  lipgloss.Color
	ColorTenth  lipgloss.Color
	ColorBorder lipgloss.Color
	ColorAccent lipgloss.Color
	ColorMuted  lipgloss.Color
	ColorError  lipgloss.Color
)

func init() {
	applySkin(builtinSkins["default"])
}

// InitializeSkin selects a built-in skin by name or loads
// <configDir>/skins/<name>.yml. On error the default skin stays active.
func InitializeSkin(name, configDir string) error {
	if name == "" {
		name = "default"
	}
	if s, ok := builtinSkins[name]; ok {
		applySkin(s)
		return nil
	}

	path := filepath.Join(configDir, "skins", name+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tui: skin %s: %w", name, err)
	}
	s := builtinSkins["default"]
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tui: skin %s: %w", path, err)
	}
	applySkin(s)
	return nil
}

func applySkin(s Skin) {
	ColorDigit = lipgloss.Color(s.Digit)
	ColorTenth = lipgloss.Color(s.Tenth)
	ColorBorder = lipgloss.Color(s.Border)
	ColorAccent = lipgloss.Color(s.Accent)
	ColorMuted = lipgloss.Color(s.Muted)
	ColorError = lipgloss.Color(s.Error)
}
