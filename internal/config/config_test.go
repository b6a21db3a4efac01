package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error for a missing config file: %v", err)
	}
	want := NewDefault()
	if cfg != want {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickfind.toml")
	body := "drive_letter = \"D\"\nprune_threshold = 0.5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DriveLetter != "D" {
		t.Fatalf("expected drive_letter override, got %q", cfg.DriveLetter)
	}
	if cfg.PruneThreshold != 0.5 {
		t.Fatalf("expected prune_threshold override, got %v", cfg.PruneThreshold)
	}
	if cfg.PipeName != DefaultPipeName {
		t.Fatalf("expected unset fields to keep their default, got pipe_name=%q", cfg.PipeName)
	}
}

func TestDriveLetterByte(t *testing.T) {
	cfg := NewDefault()
	cfg.DriveLetter = "e"
	if got := cfg.DriveLetterByte(); got != 'e' {
		t.Fatalf("expected 'e', got %q", got)
	}

	cfg.DriveLetter = ""
	if got := cfg.DriveLetterByte(); got != 'C' {
		t.Fatalf("expected fallback to 'C' for an empty drive letter, got %q", got)
	}
}

func TestSnapshotPathIsUnderRootDir(t *testing.T) {
	cfg := NewDefault()
	cfg.RootDir = t.TempDir()
	path, err := cfg.SnapshotPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != cfg.RootDir {
		t.Fatalf("expected snapshot path under RootDir, got %q", path)
	}
}
