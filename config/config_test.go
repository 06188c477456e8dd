package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppConfigMissingFileFallsBackToDefaults(t *testing.T) {
	ac, err := LoadAppConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ac.Snapshot().WhaleNotionalFloor != 5000 {
		t.Fatalf("expected default floor, got %v", ac.Snapshot().WhaleNotionalFloor)
	}
}

func TestLoadAppConfigMalformedReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected decode error for malformed config")
	}
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cfg := &Config{ConfigFile: path, App: DefaultAppConfig()}
	cfg.App.Weights.Adjust(0, 1.02) // nudge Flow weight away from default

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if got, want := reloaded.Snapshot().WeightsSnapshot.Flow, cfg.App.Snapshot().WeightsSnapshot.Flow; got != want {
		t.Fatalf("reloaded Flow weight = %v, want %v", got, want)
	}
}

func TestResetRestoresDefaultsInPlace(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{ConfigFile: filepath.Join(dir, "config.json"), App: DefaultAppConfig()}
	originalWeights := cfg.App.Weights
	cfg.App.Weights.Adjust(0, 1.5)

	if err := cfg.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if cfg.App.Weights != originalWeights {
		t.Fatal("Reset must not replace the Weights pointer identity")
	}
	if got := cfg.App.Snapshot().WeightsSnapshot.Flow; got != 2.2 {
		t.Fatalf("Flow weight after reset = %v, want 2.2", got)
	}
}
