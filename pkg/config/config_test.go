package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/launchkeyctl/pkg/layout"
)

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Mode != layout.Drum || cfg.BPM != 120 || cfg.LoggingEnabled || cfg.ThrottlingEnabled {
		t.Errorf("LoadFile() = %+v, want defaults", cfg)
	}
	if cfg.File() != path {
		t.Errorf("File() = %q, want %q", cfg.File(), path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg, _ := LoadFile(path)
	cfg.Output = "Launchkey Mini MK3 DAW Port"
	cfg.Mode = layout.Session
	cfg.BPM = 140
	cfg.LoggingEnabled = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got.Output != cfg.Output || got.Mode != layout.Session || got.BPM != 140 || !got.LoggingEnabled {
		t.Errorf("LoadFile() = %+v", got)
	}
}

func TestLoadFileSanitizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"mode":7,"bpm":9000}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Mode != layout.Drum || cfg.BPM != 300 {
		t.Errorf("LoadFile() mode = %v bpm = %d", cfg.Mode, cfg.BPM)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() error = nil for corrupt file")
	}
}
