package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "safechain.yaml")
	if err := os.WriteFile(path, []byte("grouping: enabled\npruning: unset\ntimeout: 30s\nbmc: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Grouping != Enabled {
		t.Errorf("expected grouping enabled, got %v", cfg.Grouping)
	}
	if cfg.Pruning != Unset {
		t.Errorf("expected pruning unset, got %v", cfg.Pruning)
	}
	if !cfg.BMC {
		t.Error("expected bmc true")
	}
	if cfg.Custom != Disabled {
		t.Errorf("expected custom to keep its default, got %v", cfg.Custom)
	}
}

func TestTriUnmarshalRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("grouping: maybe\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unrecognized tri-state value")
	}
}
