package automation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/sim"
)

// ParameterSweep runs one headless simulation per evenly spaced value of a
// single parameter.
type ParameterSweep struct {
	Param string
	Min   float32
	Max   float32
	Steps int
	Ticks int
}

// SweepResult holds the final metric values of one sweep run.
type SweepResult struct {
	ParamValue     float32
	Metrics        map[string]float64
	Faults         int
	TicksPerSecond float64
}

// RunSweep executes the sweep on top of base. newMetrics is called once per
// run so metric state never leaks between runs.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config, newMetrics func() []sim.Metric) ([]SweepResult, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.Steps)
	}
	if _, err := fluid.DefaultParams().Get(sweep.Param); err != nil {
		return nil, err
	}
	ticks := sweep.Ticks
	if ticks <= 0 {
		ticks = base.Ticks
	}

	results := make([]SweepResult, 0, sweep.Steps)
	paramStep := (sweep.Max - sweep.Min) / float32(sweep.Steps-1)

	for i := 0; i < sweep.Steps; i++ {
		paramVal := sweep.Min + float32(i)*paramStep

		cfg := base.Clone()
		p, err := cfg.Params().Set(sweep.Param, paramVal)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, paramVal, err)
		}
		cfg.SetParams(p)

		r, err := sim.NewFromConfig(cfg)
		if err != nil {
			return results, err
		}
		for _, m := range newMetrics() {
			r.AddMetric(m)
		}

		result, err := r.RunTicks(ctx, ticks)
		if err != nil {
			return results, err
		}

		tps := 0.0
		if result.Elapsed > 0 {
			tps = float64(result.Ticks) / result.Elapsed.Seconds()
		}
		results = append(results, SweepResult{
			ParamValue:     paramVal,
			Metrics:        result.Metrics,
			Faults:         result.Faults,
			TicksPerSecond: tps,
		})

		slog.Info("sweep step done", "step", i+1, "of", sweep.Steps, "param", sweep.Param, "value", paramVal)
	}

	return results, nil
}

// Best returns the result with the lowest value of metric. Runs that faulted
// or lack the metric are skipped; ok is false when none qualify.
func Best(results []SweepResult, metric string) (best SweepResult, ok bool) {
	for _, r := range results {
		v, has := r.Metrics[metric]
		if !has || r.Faults > 0 {
			continue
		}
		if !ok || v < best.Metrics[metric] {
			best, ok = r, true
		}
	}
	return best, ok
}
