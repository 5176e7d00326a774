// Package scenario replays scripted telemetry through a driving policy
// without a server, checking the commands against expectations.
package scenario

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/metrics"
	"github.com/san-kum/torcsdrive/internal/protocol"
	"github.com/san-kum/torcsdrive/internal/track"
)

// Tolerance is the allowed deviation for expected pedal and steer values.
const Tolerance = 1e-3

// Scenario is a scripted sequence of telemetry frames.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Policy      string  `yaml:"policy"`
	Preset      string  `yaml:"preset"`
	Track       string  `yaml:"track"`
	Frames      []Frame `yaml:"frames"`
}

// Frame is one datagram, either raw text or typed channels, optionally
// repeated and checked.
type Frame struct {
	Telemetry string               `yaml:"telemetry"`
	Channels  map[string][]float64 `yaml:"channels"`
	Repeat    int                  `yaml:"repeat"`
	Expect    *Expect              `yaml:"expect"`
}

// Expect lists the command and memory fields to check; nil fields are not
// checked. Expectations apply to the last repetition of a frame.
type Expect struct {
	Steer *float64 `yaml:"steer"`
	Accel *float64 `yaml:"accel"`
	Brake *float64 `yaml:"brake"`
	Gear  *int     `yaml:"gear"`
	Laps  *int     `yaml:"laps"`
	Phase string   `yaml:"phase"`
}

func (f Frame) Snapshot() protocol.Snapshot {
	if f.Telemetry != "" {
		return protocol.Decode([]byte(f.Telemetry))
	}
	return protocol.NewSnapshot(f.Channels)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Frames) == 0 {
		return nil, fmt.Errorf("scenario %q: no frames", sc.Name)
	}
	if sc.Policy == "" {
		sc.Policy = control.DefaultVariant
	}
	if sc.Preset == "" {
		sc.Preset = config.DefaultPreset
	}
	if sc.Track == "" {
		sc.Track = "corkscrew"
	}
	return &sc, nil
}

type FrameResult struct {
	Frame    int
	Tick     int
	Command  protocol.Command
	Memory   control.Memory
	Failures []string
}

type Report struct {
	Name     string
	Policy   string
	Preset   string
	Ticks    int
	Frames   []FrameResult
	Metrics  map[string]float64
	Failures int
}

func (r *Report) Passed() bool { return r.Failures == 0 }

// Driver builds the scenario's policy from its preset and track.
func (sc *Scenario) Driver() (*control.Driver, error) {
	cfg, err := config.Preset(sc.Preset)
	if err != nil {
		return nil, err
	}
	tm, err := track.Lookup(sc.Track)
	if err != nil {
		return nil, err
	}
	return control.New(sc.Policy, cfg, tm)
}

// Run feeds every frame through a fresh driver memory.
func Run(ctx context.Context, sc *Scenario, logger *zap.Logger) (*Report, error) {
	drv, err := sc.Driver()
	if err != nil {
		return nil, err
	}
	return run(ctx, sc, drv, logger)
}

func run(ctx context.Context, sc *Scenario, drv control.Policy, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := &Report{
		Name:    sc.Name,
		Policy:  sc.Policy,
		Preset:  sc.Preset,
		Frames:  make([]FrameResult, 0, len(sc.Frames)),
		Metrics: make(map[string]float64),
	}
	ms := metrics.Default()

	mem := control.NewMemory()
	for i, frame := range sc.Frames {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		snap := frame.Snapshot()
		var cmd protocol.Command
		for n := 0; n < max(1, frame.Repeat); n++ {
			cmd, mem = drv.Decide(snap, mem)
			report.Ticks++
			for _, m := range ms {
				m.Observe(snap, cmd, report.Ticks)
			}
		}

		res := FrameResult{Frame: i + 1, Tick: report.Ticks, Command: cmd, Memory: mem}
		if frame.Expect != nil {
			res.Failures = frame.Expect.check(cmd, mem)
		}
		for _, f := range res.Failures {
			logger.Warn("expectation failed", zap.Int("frame", i+1), zap.String("detail", f))
		}
		report.Failures += len(res.Failures)
		report.Frames = append(report.Frames, res)
	}

	for _, m := range ms {
		report.Metrics[m.Name()] = m.Value()
	}
	logger.Info("scenario finished",
		zap.String("name", sc.Name),
		zap.Int("ticks", report.Ticks),
		zap.Int("failures", report.Failures))
	return report, nil
}

func (e *Expect) check(cmd protocol.Command, mem control.Memory) []string {
	var out []string
	near := func(name string, want *float64, got float64) {
		if want != nil && math.Abs(*want-got) > Tolerance {
			out = append(out, fmt.Sprintf("%s: want %.3f, got %.3f", name, *want, got))
		}
	}
	near("steer", e.Steer, cmd.Steer)
	near("accel", e.Accel, cmd.Accel)
	near("brake", e.Brake, cmd.Brake)
	if e.Gear != nil && *e.Gear != cmd.Gear {
		out = append(out, fmt.Sprintf("gear: want %d, got %d", *e.Gear, cmd.Gear))
	}
	if e.Laps != nil && *e.Laps != mem.Laps {
		out = append(out, fmt.Sprintf("laps: want %d, got %d", *e.Laps, mem.Laps))
	}
	if e.Phase != "" && e.Phase != mem.Phase.String() {
		out = append(out, fmt.Sprintf("phase: want %s, got %s", e.Phase, mem.Phase))
	}
	return out
}
