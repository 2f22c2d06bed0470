package metrics

import (
	"math"

	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/sim"
)

// Mass is the total interior density after the latest tick.
type Mass struct {
	name  string
	value float64
}

func NewMass() *Mass { return &Mass{name: "mass"} }

func (m *Mass) Name() string { return m.name }

func (m *Mass) Observe(g *fluid.Grid) {
	m.value = interiorSum(g, g.Density())
}

func (m *Mass) Value() float64 { return m.value }
func (m *Mass) Reset()         { m.value = 0 }

// PeakTemperature is the hottest interior cell seen since the last reset.
type PeakTemperature struct {
	name string
	peak float64
}

func NewPeakTemperature() *PeakTemperature {
	return &PeakTemperature{name: "peak_temperature"}
}

func (p *PeakTemperature) Name() string { return p.name }

func (p *PeakTemperature) Observe(g *fluid.Grid) {
	if t := interiorMaxAbs(g, g.Temperature()); t > p.peak {
		p.peak = t
	}
}

func (p *PeakTemperature) Value() float64 { return p.peak }
func (p *PeakTemperature) Reset()         { p.peak = 0 }

// KineticEnergy averages 0.5*|velocity|^2 summed over the interior.
type KineticEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(g *fluid.Grid) {
	k.sum += 0.5 * (interiorDot(g, g.VelocityX()) + interiorDot(g, g.VelocityY()))
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.sum / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.sum = 0
	k.samples = 0
}

// Divergence is the largest absolute velocity divergence after the latest
// tick, in grid units. Projection keeps it small.
type Divergence struct {
	name  string
	value float64
}

func NewDivergence() *Divergence { return &Divergence{name: "max_divergence"} }

func (d *Divergence) Name() string { return d.name }

func (d *Divergence) Observe(g *fluid.Grid) {
	d.value = MaxDivergence(g)
}

func (d *Divergence) Value() float64 { return d.value }
func (d *Divergence) Reset()         { d.value = 0 }

// MaxDivergence computes max |du/dx + dv/dy| over interior cells with
// central differences.
func MaxDivergence(g *fluid.Grid) float64 {
	u, v := g.VelocityX(), g.VelocityY()
	n, size := g.N(), g.Size()
	h := 1 / float64(n)
	var peak float64
	for j := 1; j <= n; j++ {
		row := j * size
		for i := 1; i <= n; i++ {
			idx := row + i
			div := 0.5 * float64(u[idx+1]-u[idx-1]+v[idx+size]-v[idx-size]) / h
			if div = math.Abs(div); div > peak {
				peak = div
			}
		}
	}
	return peak
}

// Stability is the fraction of ticks that stayed finite, produced no solver
// faults and kept every velocity component under the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	faults     int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(g *fluid.Grid) {
	s.samples++
	faults := g.Faults()
	if faults < s.faults {
		// grid was replaced
		s.faults = 0
	}
	peak := math.Max(interiorMaxAbs(g, g.VelocityX()), interiorMaxAbs(g, g.VelocityY()))
	if faults > s.faults || math.IsNaN(peak) || peak > s.threshold {
		s.violations++
	}
	s.faults = faults
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.faults = 0
}

// Standard returns the metrics recorded by headless runs, in a stable order.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewMass(),
		NewPeakTemperature(),
		NewKineticEnergy(),
		NewDivergence(),
		NewStability(DefaultVelocityLimit),
	}
}

// DefaultVelocityLimit flags a tick whose velocity would cross the whole grid
// many times over in one step.
const DefaultVelocityLimit = 1e3

// Sample is an instantaneous reading of the grid, as recorded per row of a
// run's stats.
type Sample struct {
	Mass            float64
	PeakTemperature float64
	KineticEnergy   float64
	MaxDivergence   float64
	Faults          int
}

func Measure(g *fluid.Grid) Sample {
	return Sample{
		Mass:            interiorSum(g, g.Density()),
		PeakTemperature: interiorMaxAbs(g, g.Temperature()),
		KineticEnergy:   0.5 * (interiorDot(g, g.VelocityX()) + interiorDot(g, g.VelocityY())),
		MaxDivergence:   MaxDivergence(g),
		Faults:          g.Faults(),
	}
}
