package fluid

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestStep_RejectsInvalidParamsWithoutTouchingState(t *testing.T) {
	g, _ := New(32)
	g.Inject(0.5, 0.5, 300)
	var before Snapshot
	g.Snapshot(&before)

	p := DefaultParams()
	p.Dt = 0
	if err := g.Step(p); !errors.Is(err, ErrParameterBounds) {
		t.Fatalf("expected ErrParameterBounds, got %v", err)
	}

	var after Snapshot
	g.Snapshot(&after)
	for k := range before.Density {
		if before.Density[k] != after.Density[k] || before.V[k] != after.V[k] {
			t.Fatalf("cell %d changed after rejected step", k)
		}
	}
}

func TestStep_RestStaysAtRest(t *testing.T) {
	g, _ := New(48)
	p := DefaultParams()
	for i := 0; i < 25; i++ {
		if err := g.Step(p); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	for _, f := range [][]float32{g.Density(), g.Temperature(), g.VelocityX(), g.VelocityY()} {
		for k, val := range f {
			if val != 0 {
				t.Fatalf("cell %d = %v, expected exact zero", k, val)
			}
		}
	}
}

func TestStep_ScalarsStayNonNegative(t *testing.T) {
	presets := map[string]Params{
		"default": DefaultParams(),
		"falling": {Dt: 0.08, Viscosity: 0.024, Diffusion: 0.0001, Buoyancy: 2.6, InjectStrength: 300, TemperatureDecay: 0.05},
		"rising":  {Dt: 0.02, Viscosity: 0.018, Diffusion: 0.0001, Buoyancy: 0.1, InjectStrength: 300, TemperatureDecay: 0.31},
	}

	for name, p := range presets {
		t.Run(name, func(t *testing.T) {
			g, _ := New(40)
			w := NewWanderer(EdgeBottom, 7)
			for tick := 0; tick < 60; tick++ {
				w.Emit(g, p.InjectStrength)
				g.AddSteadySource(p.InjectStrength, EdgeBottom)
				if err := g.Step(p); err != nil {
					t.Fatalf("tick %d: %v", tick, err)
				}
				for k := range g.dens {
					if g.dens[k] < 0 || g.temp[k] < 0 {
						t.Fatalf("tick %d cell %d: dens=%v temp=%v", tick, k, g.dens[k], g.temp[k])
					}
					if !finite(g.u[k]) || !finite(g.v[k]) {
						t.Fatalf("tick %d cell %d: velocity not finite", tick, k)
					}
				}
			}
		})
	}
}

func TestStep_HeatRisesTowardsNegativeV(t *testing.T) {
	g, _ := New(32)
	g.Inject(0.5, 0.5, 300)
	idx := g.Index(17, 17)

	p := DefaultParams()
	p.Buoyancy = 1
	if err := g.Step(p); err != nil {
		t.Fatal(err)
	}

	if !(g.v[idx] < 0) {
		t.Errorf("expected negative v at a hot cell, got %v", g.v[idx])
	}
}

func TestAddBuoyancy(t *testing.T) {
	g, _ := New(32)
	idx := g.Index(3, 3)
	g.temp[idx] = 10
	g.dens[idx] = 20

	g.addBuoyancy(1, 0.5)

	// (1*10 - 0.1*20) * 0.5 = 4
	if g.v[idx] != -4 {
		t.Errorf("expected v=-4, got %v", g.v[idx])
	}
	if g.v[g.Index(4, 3)] != 0 {
		t.Error("buoyancy leaked into a cold cell")
	}
}

func TestDecay(t *testing.T) {
	tests := []struct {
		in, rate, want float32
	}{
		{10, 0.1, 9},
		{0, 0.5, 0},
		{-3, 0.1, 0},
		{5, 2, 0},
		{float32(math.NaN()), 0.1, 0},
	}

	for _, tt := range tests {
		x := []float32{tt.in}
		decay(x, tt.rate)
		if x[0] != tt.want {
			t.Errorf("decay(%v, %v) = %v, want %v", tt.in, tt.rate, x[0], tt.want)
		}
	}
}

func TestStep_DensityFadesSlowerThanHeat(t *testing.T) {
	g, _ := New(32)
	p := DefaultParams()
	p.Dt = 0.02
	p.Viscosity, p.Diffusion, p.Buoyancy = 0, 0, 0
	for j := 6; j <= 14; j++ {
		for i := 6; i <= 14; i++ {
			g.dens[g.Index(i, j)] = 100
			g.temp[g.Index(i, j)] = 100
		}
	}
	idx := g.Index(10, 10)

	if err := g.Step(p); err != nil {
		t.Fatal(err)
	}

	if !(g.dens[idx] > g.temp[idx]) {
		t.Errorf("expected density (%v) to outlast temperature (%v)", g.dens[idx], g.temp[idx])
	}
}

func BenchmarkStep(b *testing.B) {
	sizes := []int{50, 100, 200}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("N=%d", n), func(b *testing.B) {
			g, _ := New(n)
			p := DefaultParams()
			g.AddSteadySource(p.InjectStrength, EdgeBottom)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = g.Step(p)
			}
		})
	}
}
