package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `database:
  path: test.db
training:
  seed: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Database.Path != "test.db" {
		t.Fatalf("explicit value lost: %q", cfg.Database.Path)
	}
	if cfg.Training.Seed != 7 {
		t.Fatalf("explicit seed lost: %d", cfg.Training.Seed)
	}
	if cfg.Http.Port != 8080 {
		t.Fatalf("default port lost: %d", cfg.Http.Port)
	}
	if cfg.Training.Algorithm != "tritraining" || cfg.Training.MaxIterations != 40 {
		t.Fatalf("training defaults lost: %+v", cfg.Training)
	}
	if cfg.Training.Threshold != 0.5 {
		t.Fatalf("default threshold lost: %v", cfg.Training.Threshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("training: ["), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
