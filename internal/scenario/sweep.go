package scenario

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/track"
)

type SweepResult struct {
	Policy   string
	Preset   string
	Metrics  map[string]float64
	Failures int
}

// Sweep replays the scenario once per policy and preset combination, each
// in its own goroutine. Results keep the policy-major order of the inputs.
// Empty lists mean every registered policy or preset.
func Sweep(ctx context.Context, sc *Scenario, policies, presets []string) ([]SweepResult, error) {
	if len(policies) == 0 {
		policies = control.Variants()
	}
	if len(presets) == 0 {
		presets = config.ListPresets()
	}
	tm, err := track.Lookup(sc.Track)
	if err != nil {
		return nil, err
	}

	drivers := make([]*control.Driver, 0, len(policies)*len(presets))
	for _, policy := range policies {
		for _, preset := range presets {
			cfg, err := config.Preset(preset)
			if err != nil {
				return nil, err
			}
			drv, err := control.New(policy, cfg, tm)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", policy, preset, err)
			}
			drivers = append(drivers, drv)
		}
	}

	results := make([]SweepResult, len(drivers))
	errs := make([]error, len(drivers))

	var wg sync.WaitGroup
	for i, drv := range drivers {
		wg.Add(1)
		go func(idx int, drv *control.Driver) {
			defer wg.Done()

			replay := *sc
			replay.Policy, replay.Preset = policies[idx/len(presets)], presets[idx%len(presets)]
			report, err := run(ctx, &replay, drv, zap.NewNop())
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = SweepResult{
				Policy:   replay.Policy,
				Preset:   replay.Preset,
				Metrics:  report.Metrics,
				Failures: report.Failures,
			}
		}(i, drv)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Best picks the result with the lowest value of metric among those with
// no failed expectations. Set maximize to prefer the highest value.
func Best(results []SweepResult, metric string, maximize bool) (SweepResult, bool) {
	best := math.Inf(1)
	var pick SweepResult
	found := false
	for _, r := range results {
		if r.Failures > 0 {
			continue
		}
		val, ok := r.Metrics[metric]
		if !ok {
			continue
		}
		if maximize {
			val = -val
		}
		if val < best {
			best = val
			pick = r
			found = true
		}
	}
	return pick, found
}
