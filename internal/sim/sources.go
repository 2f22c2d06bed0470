package sim

import "github.com/san-kum/firesim/internal/fluid"

// SteadySource feeds the half-disc emitter on one edge every tick.
type SteadySource struct {
	Edge fluid.Edge
}

func (s SteadySource) Apply(g *fluid.Grid, p fluid.Params, tick int) {
	g.AddSteadySource(p.InjectStrength, s.Edge)
}

// WanderSource fires a wandering emitter every Every ticks (every tick when
// Every is below 2).
type WanderSource struct {
	Wanderer *fluid.Wanderer
	Every    int
}

func NewWanderSource(edge fluid.Edge, seed int64, every int) *WanderSource {
	return &WanderSource{Wanderer: fluid.NewWanderer(edge, seed), Every: every}
}

func (s *WanderSource) Apply(g *fluid.Grid, p fluid.Params, tick int) {
	if s.Every > 1 && tick%s.Every != 0 {
		return
	}
	s.Wanderer.Emit(g, p.InjectStrength)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(g *fluid.Grid, p fluid.Params, tick int)

func (f SourceFunc) Apply(g *fluid.Grid, p fluid.Params, tick int) { f(g, p, tick) }
