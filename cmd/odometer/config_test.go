package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.APIEnabled {
		t.Fatal("expected api enabled by default")
	}
	if cfg.APIAddr != "127.0.0.1:3000" {
		t.Fatalf("APIAddr = %q, want %q", cfg.APIAddr, "127.0.0.1:3000")
	}
	if cfg.StreamInterval != defaultStreamInterval {
		t.Fatalf("StreamInterval = %s, want %s", cfg.StreamInterval, defaultStreamInterval)
	}
	if len(cfg.Displays) != 0 {
		t.Fatalf("expected no displays, got %d", len(cfg.Displays))
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, `
api-port: 4100
stream-interval: 200ms
odometer:
  digits: 4
  tickAmount: 0.5
displays:
  - name: hits
    options:
      endValue: 40
  - name: timer
    options:
      direction: down
      startValue: 10
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
	if cfg.APIAddr != "127.0.0.1:4100" {
		t.Fatalf("APIAddr = %q", cfg.APIAddr)
	}
	if cfg.StreamInterval != 200*time.Millisecond {
		t.Fatalf("StreamInterval = %s", cfg.StreamInterval)
	}
	if len(cfg.Displays) != 2 || cfg.Displays[0].Name != "hits" || cfg.Displays[1].Name != "timer" {
		t.Fatalf("unexpected displays: %+v", cfg.Displays)
	}
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	path := writeFile(t, "api-port: 70000\n")
	if _, err := loadConfig(path); err == nil || !strings.Contains(err.Error(), "api-port") {
		t.Fatalf("expected api-port error, got %v", err)
	}
}

func TestWriteConfig_MergesLayers(t *testing.T) {
	path := writeFile(t, `
odometer:
  digits: 4
displays:
  - name: hits
    options:
      digits: 2
      endValue: 40
  - name: other
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	var buf bytes.Buffer
	if err := writeConfig(&buf, cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}

	var out struct {
		Displays map[string]map[string]any `yaml:"displays"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v\n%s", err, buf.String())
	}
	if got := out.Displays["hits"]["digits"]; got != 2 {
		t.Fatalf("hits digits = %v, want 2", got)
	}
	if got := out.Displays["hits"]["endValue"]; got != 40 && got != 40.0 {
		t.Fatalf("hits endValue = %v, want 40", got)
	}
	if got := out.Displays["other"]["digits"]; got != 4 {
		t.Fatalf("other digits = %v, want 4", got)
	}
}

func TestWriteConfig_RejectsInvalidDisplay(t *testing.T) {
	path := writeFile(t, `
displays:
  - name: bad
    options:
      digits: notanumber
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	var buf bytes.Buffer
	if err := writeConfig(&buf, cfg); err == nil {
		t.Fatal("expected error for invalid display options")
	}
}
