package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TargetSpeed != 180 {
		t.Errorf("expected target speed 180, got %f", cfg.TargetSpeed)
	}
	if len(cfg.GearSpeeds) != 6 {
		t.Errorf("expected 6 gear speeds, got %d", len(cfg.GearSpeeds))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg, err := Preset("Aggressive")
	if err != nil {
		t.Fatalf("expected preset, got %v", err)
	}
	if cfg.TargetSpeed != 205 {
		t.Errorf("expected target speed 205, got %f", cfg.TargetSpeed)
	}
	if cfg.SpinPrevention {
		t.Error("aggressive preset disables spin prevention")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	_, err := Preset("nonexistent")
	if !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestPresetsAreIndependent(t *testing.T) {
	a, _ := Preset("balanced")
	a.GearSpeeds[0] = 99
	a.TargetSpeed = 1

	b, _ := Preset("balanced")
	if b.GearSpeeds[0] != 0 || b.TargetSpeed != 185 {
		t.Error("mutating one preset value leaked into another")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	want := []string{"aggressive", "balanced", "beginner", "conservative", "drift", "precision"}
	if len(presets) != len(want) {
		t.Fatalf("expected %d presets, got %d", len(want), len(presets))
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("preset[%d] = %s, want %s", i, presets[i], want[i])
		}
	}
	for _, name := range presets {
		cfg, _ := Preset(name)
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s does not validate: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero target", func(c *Config) { c.TargetSpeed = 0 }},
		{"inverted bounds", func(c *Config) { c.MinSpeed = 200; c.MaxSpeed = 100 }},
		{"spin brake", func(c *Config) { c.SpinBrake = 1.5 }},
		{"no gears", func(c *Config) { c.GearSpeeds = nil }},
		{"descending gears", func(c *Config) { c.GearSpeeds = []float64{0, 50, 40} }},
		{"negative recovery", func(c *Config) { c.StuckRecoveryTime = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestParseWithPreset(t *testing.T) {
	cfg, err := Parse([]byte("preset: drift\ntarget_speed: 150\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.TargetSpeed != 150 {
		t.Errorf("expected override 150, got %f", cfg.TargetSpeed)
	}
	if cfg.TractionControl {
		t.Error("expected drift base to keep traction control off")
	}
	if cfg.SteerGain != 70 {
		t.Errorf("expected drift steer gain 70, got %f", cfg.SteerGain)
	}
}

func TestParseUnknownPreset(t *testing.T) {
	if _, err := Parse([]byte("preset: rally\n")); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver.yaml")

	cfg := Precision()
	cfg.GearSpeeds = []float64{0, 30, 60, 90, 130, 170}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.SteerSmoothing != 0.92 {
		t.Errorf("expected steer smoothing 0.92, got %f", loaded.SteerSmoothing)
	}
	if loaded.GearSpeeds[1] != 30 {
		t.Errorf("expected gear speed 30, got %f", loaded.GearSpeeds[1])
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
