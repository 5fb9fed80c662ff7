package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadReadsTomlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "giraffe.toml")
	if err := os.WriteFile(path, []byte("data_dir = \"/tmp/giraffe-data\"\nblock_size = 8192\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/giraffe-data" || cfg.BlockSize != 8192 {
		t.Fatalf("got %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "giraffe.toml")
	if err := os.WriteFile(path, []byte("data_dir = \"/tmp/from-file\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("GIRAFFESQL_DATA_DIR", "/tmp/from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/from-env" {
		t.Fatalf("got DataDir = %q, want env override to win", cfg.DataDir)
	}
}
