package storage

import (
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/metrics"
)

type StatsRow struct {
	Tick            int     `csv:"tick" json:"tick"`
	Mass            float64 `csv:"mass" json:"mass"`
	PeakTemperature float64 `csv:"peak_temperature" json:"peak_temperature"`
	KineticEnergy   float64 `csv:"kinetic_energy" json:"kinetic_energy"`
	MaxDivergence   float64 `csv:"max_divergence" json:"max_divergence"`
	Faults          int     `csv:"faults" json:"faults"`
}

// StatsRecorder samples the grid every Every ticks. It implements
// sim.Observer.
type StatsRecorder struct {
	Every int
	rows  []StatsRow
}

func NewStatsRecorder(every int) *StatsRecorder {
	if every < 1 {
		every = 1
	}
	return &StatsRecorder{Every: every}
}

func (r *StatsRecorder) OnTick(tick int, g *fluid.Grid) {
	if tick%r.Every != 0 {
		return
	}
	s := metrics.Measure(g)
	r.rows = append(r.rows, StatsRow{
		Tick:            tick,
		Mass:            s.Mass,
		PeakTemperature: s.PeakTemperature,
		KineticEnergy:   s.KineticEnergy,
		MaxDivergence:   s.MaxDivergence,
		Faults:          s.Faults,
	})
}

func (r *StatsRecorder) Rows() []StatsRow { return r.rows }

// Column extracts one named series from rows for plotting. Unknown names
// return nil.
func Column(rows []StatsRow, name string) []float64 {
	pick := map[string]func(StatsRow) float64{
		"mass":             func(r StatsRow) float64 { return r.Mass },
		"peak_temperature": func(r StatsRow) float64 { return r.PeakTemperature },
		"kinetic_energy":   func(r StatsRow) float64 { return r.KineticEnergy },
		"max_divergence":   func(r StatsRow) float64 { return r.MaxDivergence },
		"faults":           func(r StatsRow) float64 { return float64(r.Faults) },
	}[name]
	if pick == nil {
		return nil
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = pick(r)
	}
	return out
}

// Columns lists the names Column accepts.
func Columns() []string {
	return []string{"mass", "peak_temperature", "kinetic_energy", "max_divergence", "faults"}
}
