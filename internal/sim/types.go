package sim

import (
	"time"

	"github.com/san-kum/firesim/internal/fluid"
)

// Source contributes disturbances at the start of a tick, before the solver
// runs. It receives the live grid, so it must not retain it.
type Source interface {
	Apply(g *fluid.Grid, p fluid.Params, tick int)
}

// Controller adjusts the solver parameters at the start of a tick, before
// any source runs.
type Controller interface {
	Control(tick int, p fluid.Params) fluid.Params
}

// Metric folds one observation per tick into a running value.
type Metric interface {
	Name() string
	Observe(g *fluid.Grid)
	Value() float64
	Reset()
}

// Observer is notified after every completed tick while the runner lock is
// held. Implementations must not call back into the runner.
type Observer interface {
	OnTick(tick int, g *fluid.Grid)
}

type Config struct {
	Ticks int
	// Interval is the pause between ticks in Run; zero runs flat out.
	Interval time.Duration
}

type Result struct {
	Ticks     int
	Elapsed   time.Duration
	TickTimes []time.Duration
	Metrics   map[string]float64
	Faults    int
}
