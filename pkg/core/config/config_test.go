package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extract.MaxAttempts != 3 || cfg.Extract.InitialDelay != time.Second {
		t.Errorf("retry defaults = %+v", cfg.Extract)
	}
	if cfg.Gemini.Temperature != 0 || cfg.Gemini.TopP != 1 || cfg.Gemini.MaxOutputTokens != 8192 {
		t.Errorf("gemini defaults = %+v", cfg.Gemini)
	}
	if cfg.Sheets.Audit != "調整ログ" {
		t.Errorf("audit sheet = %q", cfg.Sheets.Audit)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "gemini:\n  model: gemini-file\nextract:\n  max_attempts: 5\nmatch:\n  threshold: 0.8\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EXTRACT_MAX_ATTEMPTS", "4")
	t.Setenv("SHEET_AUDIT", "監査")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.Model != "gemini-file" {
		t.Errorf("file value lost: model = %q", cfg.Gemini.Model)
	}
	if cfg.Extract.MaxAttempts != 4 {
		t.Errorf("env should override file: max_attempts = %d", cfg.Extract.MaxAttempts)
	}
	if cfg.Match.Threshold != 0.8 {
		t.Errorf("threshold = %v", cfg.Match.Threshold)
	}
	if cfg.Sheets.Audit != "監査" || cfg.Sheets.OCR != "OCR作業シート" {
		t.Errorf("sheets = %+v", cfg.Sheets)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Match.Threshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected threshold error")
	}

	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}

	cfg = Default()
	cfg.Store = "sheets"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected missing spreadsheet id error")
	}
}

func TestBackend(t *testing.T) {
	cfg := Default()
	if cfg.Backend() != "memory" {
		t.Errorf("default backend = %s", cfg.Backend())
	}
	cfg.XLSX.Output = "out.xlsx"
	if cfg.Backend() != "xlsx" {
		t.Errorf("backend = %s", cfg.Backend())
	}
	cfg.Store = "memory"
	if cfg.Backend() != "memory" {
		t.Errorf("explicit backend ignored: %s", cfg.Backend())
	}
}
