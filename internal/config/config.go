package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTargetSpeed = 180.0
	DefaultSteerGain   = 70.0
	DefaultCentering   = 0.60
	DefaultGears       = 6
)

var ErrInvalid = errors.New("config: invalid driving configuration")

// Config holds the tuning of the driving policy. It is a plain value: copy
// it, never share a pointer to it between sessions.
type Config struct {
	TargetSpeed float64 `yaml:"target_speed"`
	MaxSpeed    float64 `yaml:"max_speed"`
	MinSpeed    float64 `yaml:"min_speed"`

	SteerGain      float64 `yaml:"steer_gain"`
	CenteringGain  float64 `yaml:"centering_gain"`
	SteerSmoothing float64 `yaml:"steer_smoothing"`

	BrakeThresholdTight  float64 `yaml:"brake_threshold_tight"`
	BrakeThresholdMedium float64 `yaml:"brake_threshold_medium"`
	BrakeForce           float64 `yaml:"brake_force"`

	AccelGain         float64 `yaml:"accel_gain"`
	AccelDecay        float64 `yaml:"accel_decay"`
	AccelMinThreshold float64 `yaml:"accel_min_threshold"`

	TractionControl   bool    `yaml:"traction_control"`
	TractionThreshold float64 `yaml:"traction_threshold"`
	TractionReduction float64 `yaml:"traction_reduction"`

	SpinPrevention bool    `yaml:"spin_prevention"`
	SpinThreshold  float64 `yaml:"spin_threshold"`
	SpinBrake      float64 `yaml:"spin_brake"`

	GearSpeeds []float64 `yaml:"gear_speeds"`

	StuckThreshold    float64 `yaml:"stuck_threshold"`
	StuckRecoveryTime int     `yaml:"stuck_recovery_time"`
}

func DefaultConfig() Config {
	return Config{
		TargetSpeed:          DefaultTargetSpeed,
		MaxSpeed:             180,
		MinSpeed:             5,
		SteerGain:            DefaultSteerGain,
		CenteringGain:        DefaultCentering,
		SteerSmoothing:       0.95,
		BrakeThresholdTight:  0.25,
		BrakeThresholdMedium: 0.15,
		BrakeForce:           0.6,
		AccelGain:            0.20,
		AccelDecay:           0.35,
		AccelMinThreshold:    10,
		TractionControl:      true,
		TractionThreshold:    2.2,
		TractionReduction:    0.15,
		SpinPrevention:       true,
		SpinThreshold:        0.3,
		SpinBrake:            0.7,
		GearSpeeds:           []float64{0, 35, 65, 100, 140, 180},
		StuckThreshold:       300,
		StuckRecoveryTime:    20,
	}
}

// Clone returns a deep copy so callers can derive variants without touching
// the original.
func (c Config) Clone() Config {
	out := c
	out.GearSpeeds = append([]float64(nil), c.GearSpeeds...)
	return out
}

func (c Config) Validate() error {
	if c.TargetSpeed <= 0 {
		return fmt.Errorf("%w: target_speed must be positive, got %g", ErrInvalid, c.TargetSpeed)
	}
	if c.MinSpeed < 0 || c.MaxSpeed < c.MinSpeed {
		return fmt.Errorf("%w: speed bounds [%g, %g]", ErrInvalid, c.MinSpeed, c.MaxSpeed)
	}
	if c.TractionReduction < 0 {
		return fmt.Errorf("%w: traction_reduction must not be negative", ErrInvalid)
	}
	if c.SpinBrake < 0 || c.SpinBrake > 1 {
		return fmt.Errorf("%w: spin_brake must be in [0,1], got %g", ErrInvalid, c.SpinBrake)
	}
	if len(c.GearSpeeds) == 0 || len(c.GearSpeeds) > DefaultGears {
		return fmt.Errorf("%w: need 1..%d gear speeds, got %d", ErrInvalid, DefaultGears, len(c.GearSpeeds))
	}
	for i := 1; i < len(c.GearSpeeds); i++ {
		if c.GearSpeeds[i] < c.GearSpeeds[i-1] {
			return fmt.Errorf("%w: gear_speeds must be ascending", ErrInvalid)
		}
	}
	if c.StuckRecoveryTime < 0 {
		return fmt.Errorf("%w: stuck_recovery_time must not be negative", ErrInvalid)
	}
	return nil
}

// file is the on-disk layout: an optional preset name followed by any
// subset of Config fields overriding it.
type file struct {
	Preset string `yaml:"preset"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var head file
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if head.Preset != "" {
		p, err := Preset(head.Preset)
		if err != nil {
			return Config{}, err
		}
		cfg = p
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
