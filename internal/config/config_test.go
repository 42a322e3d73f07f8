package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Namespace != "tapa" {
		t.Errorf("namespace %q, want tapa", cfg.Namespace)
	}
	if cfg.OutputDir != "." {
		t.Errorf("output dir %q, want .", cfg.OutputDir)
	}
	if cfg.Rules == nil {
		t.Error("rules map must be initialized")
	}
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcc.json")
	if err := os.WriteFile(path, []byte(`{"top": "VecAdd"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Top != "VecAdd" {
		t.Errorf("top %q", cfg.Top)
	}
	if cfg.Namespace != "tapa" {
		t.Errorf("namespace default not applied: %q", cfg.Namespace)
	}
	if cfg.Rules == nil {
		t.Error("rules default not applied")
	}
}

func TestLoadFileRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcc.json")
	if err := os.WriteFile(path, []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed config must be rejected")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcc.json")
	cfg := DefaultConfig()
	cfg.Top = "App"
	cfg.SuffixVectorNames = true
	cfg.Rules["zero-depth-fifo"] = "off"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Top != "App" || !loaded.SuffixVectorNames {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.Rules["zero-depth-fifo"] != "off" {
		t.Errorf("rules round trip: %v", loaded.Rules)
	}
}
