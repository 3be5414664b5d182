package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeUserConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".redline")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Ingestion.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.Ingestion.BatchSize)
	}
	if cfg.Ingestion.InputFormat != "txt" {
		t.Errorf("InputFormat = %q, want txt", cfg.Ingestion.InputFormat)
	}
	if cfg.Ingestion.CleanPolicy != "prices" {
		t.Errorf("CleanPolicy = %q, want prices", cfg.Ingestion.CleanPolicy)
	}
	if !cfg.Ingestion.ValidateHeader() {
		t.Error("ValidateHeader default = false, want true")
	}
	if cfg.Storage.Table != "tickers_data" {
		t.Errorf("Table = %q, want tickers_data", cfg.Storage.Table)
	}
}

func TestValidateHeader_NilMeansTrue(t *testing.T) {
	var ic IngestionConfig
	if !ic.ValidateHeader() {
		t.Error("unset flag should default to true")
	}
	off := false
	ic.ValidateStooqHeader = &off
	if ic.ValidateHeader() {
		t.Error("explicit false must stick")
	}
}

func TestLoad_UserFileOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	writeUserConfig(t, home, `
ingestion:
  batch_size: 50
  validate_stooq_header: false
storage:
  database: /data/custom.duckdb
`)

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.Get()
	if cfg.Ingestion.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.Ingestion.BatchSize)
	}
	if cfg.Ingestion.ValidateHeader() {
		t.Error("ValidateHeader = true, want false from file")
	}
	if cfg.Storage.Database != "/data/custom.duckdb" {
		t.Errorf("Database = %q", cfg.Storage.Database)
	}
	// Untouched keys keep defaults.
	if cfg.Storage.Table != "tickers_data" {
		t.Errorf("Table = %q, want default", cfg.Storage.Table)
	}
	if len(m.Paths()) != 1 {
		t.Errorf("Paths = %v, want the user config only", m.Paths())
	}
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeUserConfig(t, home, "ingestion:\n  batch_size: 50\n")

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ".redline.yaml"),
		[]byte("ingestion:\n  batch_size: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(project)

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Get().Ingestion.BatchSize; got != 10 {
		t.Errorf("BatchSize = %d, want project value 10", got)
	}
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	writeUserConfig(t, home, "ingestion:\n  batch_size: 50\n")

	t.Setenv("REDLINE_BATCH_SIZE", "25")
	t.Setenv("REDLINE_TABLE", "env_table")
	t.Setenv("REDLINE_WORKERS", "4")

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.Get()
	if cfg.Ingestion.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want env value 25", cfg.Ingestion.BatchSize)
	}
	if cfg.Storage.Table != "env_table" {
		t.Errorf("Table = %q, want env_table", cfg.Storage.Table)
	}
	if cfg.Ingestion.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Ingestion.Workers)
	}
}

func TestLoad_MalformedFileSurfaces(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	writeUserConfig(t, home, "ingestion: [not a mapping\n")

	m := NewManager()
	if err := m.Load(); err == nil {
		t.Fatal("expected parse error from malformed config")
	}
}

func TestSave_Roundtrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	m := NewManager()
	m.Get().Ingestion.BatchSize = 77
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := NewManager()
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := fresh.Get().Ingestion.BatchSize; got != 77 {
		t.Errorf("BatchSize after roundtrip = %d, want 77", got)
	}
}
