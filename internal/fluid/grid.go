package fluid

import "fmt"

// MinN is the smallest interior resolution the solver accepts.
const MinN = 32

// Grid owns every field of one simulation. All slices share the padded
// (N+2)*(N+2) layout addressed by Index.
type Grid struct {
	n    int
	size int

	u, v         []float32
	uPrev, vPrev []float32
	dens         []float32
	densPrev     []float32
	temp         []float32
	tempPrev     []float32

	// projection scratch, never aliased with the velocity buffers
	pressure   []float32
	divergence []float32

	faults int
}

// New allocates a zero-filled grid with an n*n interior.
func New(n int) (*Grid, error) {
	if n < MinN {
		return nil, fmt.Errorf("n=%d (min %d): %w", n, MinN, ErrGridTooSmall)
	}
	size := n + 2
	cells := size * size
	return &Grid{
		n:          n,
		size:       size,
		u:          make([]float32, cells),
		v:          make([]float32, cells),
		uPrev:      make([]float32, cells),
		vPrev:      make([]float32, cells),
		dens:       make([]float32, cells),
		densPrev:   make([]float32, cells),
		temp:       make([]float32, cells),
		tempPrev:   make([]float32, cells),
		pressure:   make([]float32, cells),
		divergence: make([]float32, cells),
	}, nil
}

// N returns the interior resolution.
func (g *Grid) N() int { return g.n }

// Size returns the padded side length N+2.
func (g *Grid) Size() int { return g.size }

// Cells returns the number of cells in each field, boundary included.
func (g *Grid) Cells() int { return g.size * g.size }

// Index maps a padded cell coordinate to its slice offset.
func (g *Grid) Index(i, j int) int { return i + j*g.size }

// Faults returns how many cell updates have been replaced by zero because
// their result was not finite. It is cumulative over the grid's lifetime.
func (g *Grid) Faults() int { return g.faults }

// Density, Temperature, VelocityX and VelocityY expose the live fields.
// Callers must treat them as read-only and must not hold them across a tick.
func (g *Grid) Density() []float32     { return g.dens }
func (g *Grid) Temperature() []float32 { return g.temp }
func (g *Grid) VelocityX() []float32   { return g.u }
func (g *Grid) VelocityY() []float32   { return g.v }

// Snapshot is a caller-owned copy of the presentation fields.
type Snapshot struct {
	N           int
	Density     []float32
	Temperature []float32
	U, V        []float32
}

// Size returns the padded side length of the snapshot.
func (s *Snapshot) Size() int { return s.N + 2 }

// Index maps a padded cell coordinate to its slice offset.
func (s *Snapshot) Index(i, j int) int { return i + j*(s.N+2) }

// Snapshot copies the current fields into dst, growing its buffers when the
// grid is larger than what dst already holds.
func (g *Grid) Snapshot(dst *Snapshot) {
	cells := g.Cells()
	dst.N = g.n
	dst.Density = fit(dst.Density, cells)
	dst.Temperature = fit(dst.Temperature, cells)
	dst.U = fit(dst.U, cells)
	dst.V = fit(dst.V, cells)
	copy(dst.Density, g.dens)
	copy(dst.Temperature, g.temp)
	copy(dst.U, g.u)
	copy(dst.V, g.v)
}

func fit(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
