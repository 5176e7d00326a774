package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

const DefaultPreset = "balanced"

// Presets maps a preset name to the function building it. Each call returns
// a fresh value.
var Presets = map[string]func() Config{
	"beginner":     Beginner,
	"conservative": Conservative,
	"balanced":     Balanced,
	"aggressive":   Aggressive,
	"drift":        Drift,
	"precision":    Precision,
}

// Beginner is very slow and forgiving, meant for a first connection test.
func Beginner() Config {
	c := DefaultConfig()
	c.TargetSpeed = 130
	c.SteerGain = 35
	c.CenteringGain = 0.90
	c.BrakeThresholdTight = 0.50
	c.BrakeForce = 0.8
	c.AccelGain = 0.20
	c.TractionControl = true
	c.SpinPrevention = true
	return c
}

func Conservative() Config {
	c := DefaultConfig()
	c.TargetSpeed = 160
	c.SteerGain = 40
	c.CenteringGain = 0.85
	c.BrakeThresholdTight = 0.45
	c.BrakeForce = 0.7
	c.AccelGain = 0.25
	c.TractionControl = true
	c.SpinPrevention = true
	return c
}

func Balanced() Config {
	c := DefaultConfig()
	c.TargetSpeed = 185
	c.SteerGain = 55
	c.CenteringGain = 0.75
	c.BrakeThresholdTight = 0.35
	c.BrakeForce = 0.6
	c.AccelGain = 0.35
	c.TractionControl = true
	c.SpinPrevention = true
	return c
}

func Aggressive() Config {
	c := DefaultConfig()
	c.TargetSpeed = 205
	c.SteerGain = 65
	c.CenteringGain = 0.65
	c.BrakeThresholdTight = 0.28
	c.BrakeForce = 0.5
	c.AccelGain = 0.45
	c.TractionControl = true
	c.SpinPrevention = false
	return c
}

// Drift runs without traction control or spin prevention.
func Drift() Config {
	c := DefaultConfig()
	c.TargetSpeed = 195
	c.SteerGain = 70
	c.CenteringGain = 0.50
	c.BrakeThresholdTight = 0.32
	c.BrakeForce = 0.45
	c.AccelGain = 0.40
	c.TractionControl = false
	c.SpinPrevention = false
	c.TractionReduction = 0.05
	return c
}

func Precision() Config {
	c := DefaultConfig()
	c.TargetSpeed = 170
	c.SteerGain = 50
	c.CenteringGain = 0.95
	c.BrakeThresholdTight = 0.40
	c.BrakeForce = 0.65
	c.AccelGain = 0.30
	c.SteerSmoothing = 0.92
	c.TractionControl = true
	c.SpinPrevention = true
	return c
}

// Preset looks a preset up by case-insensitive name.
func Preset(name string) (Config, error) {
	fn, ok := Presets[strings.ToLower(name)]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s (available: %s)", ErrUnknownPreset, name, strings.Join(ListPresets(), ", "))
	}
	return fn(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
