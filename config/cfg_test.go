package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rupor-github/gencfg"

	"okvars/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Store.Kind != common.StoreKindYAML {
		t.Errorf("Store.Kind = %q, want yaml", cfg.Store.Kind)
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path should have default value")
	}
	if cfg.Output.Format != common.OutputFmtYAML {
		t.Errorf("Output.Format = %q, want yaml", cfg.Output.Format)
	}
	if cfg.Swatch.Columns < 1 || cfg.Swatch.CellSize < 24 {
		t.Errorf("Swatch = %+v", cfg.Swatch)
	}
	if cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("file logger level = %q, want none", cfg.Logging.FileLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
store:
  kind: SQLite
  path: `+filepath.Join(dir, "db", "vars.db")+`
  collection: 0190f0d4-0000-7000-8000-000000000000
input:
  encoding: windows-1252
output:
  format: JSON
swatch:
  columns: 4
  cell_size: 64
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Store.Kind != common.StoreKindSQLite {
		t.Errorf("Store.Kind = %q, want sqlite", cfg.Store.Kind)
	}
	if cfg.Store.Collection != "0190f0d4-0000-7000-8000-000000000000" {
		t.Errorf("Store.Collection = %q", cfg.Store.Collection)
	}
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Errorf("store directory was not created: %v", err)
	}
	if cfg.Input.Encoding != "windows-1252" {
		t.Errorf("Input.Encoding = %q", cfg.Input.Encoding)
	}
	if cfg.Output.Format != common.OutputFmtJSON {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
	if cfg.Swatch.Columns != 4 || cfg.Swatch.CellSize != 64 {
		t.Errorf("Swatch = %+v", cfg.Swatch)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
	// not in file - default is kept
	if cfg.Reporting.Destination == "" {
		t.Error("Reporting.Destination should keep default value")
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nstore:\n  kind: yaml\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad store kind", "version: 1\nstore:\n  kind: redis\n"},
		{"bad format", "version: 1\noutput:\n  format: toml\n"},
		{"bad columns", "version: 1\nswatch:\n  columns: 0\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Prepare() returned empty data")
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Store.Collection = "abc"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Store != cfg.Store || cfg2.Output != cfg.Output || cfg2.Swatch != cfg.Swatch {
		t.Errorf("mismatch after dump/load: got %+v, want %+v", cfg2, cfg)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"styles.css", "styles.css"},
		{"color/sky/500", "color_sky_500"},
		{".hidden", "hidden"},
		{"", "fallback"},
		{"/", "fallback"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in, "fallback"); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
