package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "symbols: [RELIANCE]\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" {
		t.Errorf("expected default provider yahoo, got %s", cfg.DataSource.Provider)
	}
	if cfg.Years != 1 {
		t.Errorf("expected default years 1, got %g", cfg.Years)
	}
	if cfg.Detector.Window != 2 {
		t.Errorf("expected default window 2, got %d", cfg.Detector.Window)
	}
	if cfg.Filter.Tolerance != 0.005 || cfg.Filter.MinTouches != 3 || cfg.Filter.MinGapDays != 3 {
		t.Errorf("unexpected default filter thresholds: %+v", cfg.Filter)
	}
	if cfg.Database.SQLitePath != "data/levelscan.db" {
		t.Errorf("expected default sqlite path, got %s", cfg.Database.SQLitePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "symbols: [RELIANCE]\nyears: 2\n")
	t.Setenv("SYMBOLS", "TCS, INFY")
	t.Setenv("DATA_PROVIDER", "kite")
	t.Setenv("KITE_API_KEY", "key")
	t.Setenv("KITE_ACCESS_TOKEN", "token")
	t.Setenv("YEARS", "0.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "TCS" || cfg.Symbols[1] != "INFY" {
		t.Errorf("unexpected symbols: %v", cfg.Symbols)
	}
	if cfg.DataSource.Provider != "kite" {
		t.Errorf("expected provider kite, got %s", cfg.DataSource.Provider)
	}
	if cfg.Years != 0.5 {
		t.Errorf("expected years 0.5, got %g", cfg.Years)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected config to validate, got %v", err)
	}
}

func TestLoad_ExplicitZerosKept(t *testing.T) {
	path := writeConfig(t, "symbols: [RELIANCE]\nfilter:\n  tolerance: 0\n  min_gap_days: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Filter.Tolerance != 0 {
		t.Errorf("expected explicit tolerance 0 to be kept, got %g", cfg.Filter.Tolerance)
	}
	if cfg.Filter.MinGapDays != 0 {
		t.Errorf("expected explicit min_gap_days 0 to be kept, got %d", cfg.Filter.MinGapDays)
	}
	if cfg.Filter.MinTouches != 3 {
		t.Errorf("expected untouched min_touches default 3, got %d", cfg.Filter.MinTouches)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected zero thresholds to validate, got %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SYMBOLS", "AAPL")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Symbols) != 1 || cfg.Symbols[0] != "AAPL" {
		t.Errorf("unexpected symbols: %v", cfg.Symbols)
	}
}

func TestValidate_RequiresSymbols(t *testing.T) {
	path := writeConfig(t, "years: 1\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure without symbols")
	}
}

func TestValidate_ProviderCredentials(t *testing.T) {
	path := writeConfig(t, "symbols: [RELIANCE]\ndata_source:\n  provider: kite\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for kite without credentials")
	}

	path = writeConfig(t, "symbols: [AAPL]\ndata_source:\n  provider: alpaca\n")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for alpaca without credentials")
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	path := writeConfig(t, "symbols: [AAPL]\ndata_source:\n  provider: bloomberg\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for unknown provider")
	}
}
