package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

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
	if cfg.Document.ExtendMode != PresentationModeSingle {
		t.Errorf("Default extend mode = %v, want single", cfg.Document.ExtendMode)
	}
	if cfg.Document.TOCPlacement != TOCPlacementSidebar {
		t.Errorf("Default TOC placement = %v, want sidebar", cfg.Document.TOCPlacement)
	}
	if cfg.Network.FetchWorkers < 1 {
		t.Errorf("Default fetch workers = %d, want at least 1", cfg.Network.FetchWorkers)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
vehicle:
  id: WVGZZZ5NZLW000000
  language: de_DE
document:
  extend_mode: all
  toc_placement: header
  on_fetch_error: crash
  images:
    optimize: true
    jpeg_quality_level: 75
    scale_factor: 0.5
    grayscale: true
network:
  timeout_sec: 120
  fetch_workers: 8
  download_workers: 2
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if string(cfg.Vehicle.ID) != "WVGZZZ5NZLW000000" {
		t.Errorf("Vehicle id was not loaded from file")
	}
	if cfg.Vehicle.Language != "de_DE" {
		t.Errorf("Vehicle language = %q, want de_DE", cfg.Vehicle.Language)
	}
	if cfg.Document.ExtendMode != PresentationModeAll {
		t.Errorf("Extend mode = %v, want all", cfg.Document.ExtendMode)
	}
	if cfg.Document.TOCPlacement != TOCPlacementHeader {
		t.Errorf("TOC placement = %v, want header", cfg.Document.TOCPlacement)
	}
	if cfg.Document.OnFetchError != OnFetchErrorCrash {
		t.Errorf("Fetch error policy = %v, want crash", cfg.Document.OnFetchError)
	}
	if cfg.Network.FetchWorkers != 8 {
		t.Errorf("Fetch workers = %d, want 8", cfg.Network.FetchWorkers)
	}
	// defaults not mentioned in the file survive
	if len(cfg.Network.BaseURL) == 0 {
		t.Error("Base URL default was lost when overlaying file")
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
vehicle:
  language: en_GB
docment:
  extend_mode: all
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfiguration(configPath); err == nil {
		t.Error("LoadConfiguration() accepted misspelled section name")
	}
}

func TestLoadConfiguration_BadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad extend mode", "version: 1\nvehicle:\n  language: en_GB\ndocument:\n  extend_mode: everything\n"},
		{"bad version", "version: 2\nvehicle:\n  language: en_GB\n"},
		{"quality too low", "version: 1\nvehicle:\n  language: en_GB\ndocument:\n  images:\n    jpeg_quality_level: 10\n"},
		{"too many workers", "version: 1\nvehicle:\n  language: en_GB\nnetwork:\n  fetch_workers: 64\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("LoadConfiguration() accepted invalid configuration")
			}
		})
	}
}

func TestDump_MasksVehicleID(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Vehicle.ID = "WVGZZZ5NZLW000000"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "WVGZZZ5NZLW000000") {
		t.Error("Dump() leaked vehicle id")
	}
	if !strings.Contains(string(data), SecretStringValue) {
		t.Error("Dump() did not mask vehicle id")
	}
}

func TestPrepare_MatchesDefaults(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "extend_mode") {
		t.Error("Prepare() output does not look like a configuration template")
	}
}
