package fluid

import (
	"math"
	"math/rand"
)

// Edge picks the wall a steady source sits on. Row N is the top of the
// rendered image, row 1 the bottom.
type Edge int

const (
	EdgeBottom Edge = iota
	EdgeTop
)

func (e Edge) String() string {
	if e == EdgeTop {
		return "top"
	}
	return "bottom"
}

// Inject adds a one-shot disturbance at a normalized position in [0,1]x[0,1].
// Positions outside that square land on the nearest interior cell.
func (g *Grid) Inject(x, y, strength float32) {
	i := g.cellAt(x)
	j := g.cellAt(y)
	idx := g.Index(i, j)
	g.dens[idx] += strength * 0.8
	g.temp[idx] += strength*0.03 + 25
	// small kick towards row 1
	g.v[idx] -= strength * 0.01
}

func (g *Grid) cellAt(s float32) int {
	c := int(math.Round(float64(s)*float64(g.n))) + 1
	if c < 1 {
		return 1
	}
	if c > g.n {
		return g.n
	}
	return c
}

// AddSteadySource seeds a half disc of radius max(1, N/20) centred on the
// middle column of the given edge. Intensity falls off linearly with the
// horizontal distance from the centre.
func (g *Grid) AddSteadySource(strength float32, edge Edge) {
	n := g.n
	cx := n / 2
	radius := n / 20
	if radius < 1 {
		radius = 1
	}
	for dx := -radius; dx <= radius; dx++ {
		for dy := 0; dy <= radius; dy++ {
			i := cx + dx
			j := 1 + dy
			if edge == EdgeTop {
				j = n - dy
			}
			if i < 1 || i > n || j < 1 || j > n {
				continue
			}
			idx := g.Index(i, j)
			r := 1 - float32(abs(dx))/float32(radius+1)
			g.dens[idx] += strength * 0.01 * r
			g.temp[idx] += strength * 0.0006 * (1 + r*3)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Wanderer is an emitter that sweeps back and forth along one edge, taking a
// random step every time it fires and bouncing off a margin at each end.
type Wanderer struct {
	Edge    Edge
	Margin  float32 // distance from the side walls where it turns around
	MaxStep float32 // upper bound of one random step, normalized

	x       float32
	forward bool
	rng     *rand.Rand
}

// NewWanderer starts an emitter at the left margin moving right.
func NewWanderer(edge Edge, seed int64) *Wanderer {
	return &Wanderer{
		Edge:    edge,
		Margin:  0.05,
		MaxStep: 0.02,
		x:       0.05,
		forward: true,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Position returns the normalized point the next emission will use.
func (w *Wanderer) Position() (x, y float32) {
	if w.Edge == EdgeTop {
		y = 1
	}
	return w.x, y
}

// Advance moves the emitter one random step and turns it at the margins.
func (w *Wanderer) Advance() {
	step := w.rng.Float32() * w.MaxStep
	if w.forward && w.x < 1-w.Margin {
		w.x += step
	} else {
		w.forward = false
	}
	if !w.forward && w.x > w.Margin {
		w.x -= step
	} else {
		w.forward = true
	}
}

// Emit advances the emitter and injects at its new position.
func (w *Wanderer) Emit(g *Grid, strength float32) {
	w.Advance()
	x, y := w.Position()
	g.Inject(x, y, strength)
}
