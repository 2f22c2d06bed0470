package automation

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/metrics"
	"github.com/san-kum/firesim/internal/sim"
)

func TestRunSweep(t *testing.T) {
	base := config.DefaultConfig()
	base.Grid = 32
	sweep := &ParameterSweep{Param: "buoyancy", Min: 0, Max: 2, Steps: 3, Ticks: 5}

	results, err := RunSweep(context.Background(), sweep, base, func() []sim.Metric {
		return []sim.Metric{metrics.NewMass(), metrics.NewStability(metrics.DefaultVelocityLimit)}
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []float32{0, 1, 2}
	for i, r := range results {
		if math.Abs(float64(r.ParamValue-want[i])) > 1e-6 {
			t.Errorf("step %d: expected %v, got %v", i, want[i], r.ParamValue)
		}
		if _, ok := r.Metrics["stability"]; !ok {
			t.Errorf("step %d: stability metric missing", i)
		}
	}
}

func TestRunSweep_Invalid(t *testing.T) {
	base := config.DefaultConfig()
	base.Grid = 32
	none := func() []sim.Metric { return nil }

	tests := []struct {
		name  string
		sweep ParameterSweep
	}{
		{"too few steps", ParameterSweep{Param: "dt", Min: 0.01, Max: 0.1, Steps: 1}},
		{"unknown param", ParameterSweep{Param: "gravity", Min: 0, Max: 1, Steps: 3}},
		{"invalid values", ParameterSweep{Param: "dt", Min: -1, Max: 0.1, Steps: 3, Ticks: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RunSweep(context.Background(), &tt.sweep, base, none); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBest(t *testing.T) {
	results := []SweepResult{
		{ParamValue: 1, Metrics: map[string]float64{"max_divergence": 3}},
		{ParamValue: 2, Metrics: map[string]float64{"max_divergence": 1}, Faults: 4},
		{ParamValue: 3, Metrics: map[string]float64{"max_divergence": 2}},
		{ParamValue: 4, Metrics: map[string]float64{}},
	}

	best, ok := Best(results, "max_divergence")
	if !ok || best.ParamValue != 3 {
		t.Errorf("expected value 3, got %v (ok=%v)", best.ParamValue, ok)
	}

	if _, ok := Best(results, "mass"); ok {
		t.Error("no result carries mass")
	}
}
