package fluid

// Kind selects the wall behaviour of a field.
type Kind int

const (
	// Scalar fields copy the adjacent interior value on every wall.
	Scalar Kind = iota
	// VelocityX is mirrored on the left and right walls.
	VelocityX
	// VelocityY is mirrored on the top and bottom walls.
	VelocityY
)

func (k Kind) String() string {
	switch k {
	case VelocityX:
		return "velocity-x"
	case VelocityY:
		return "velocity-y"
	default:
		return "scalar"
	}
}

// ApplyBounds fills the boundary ring of x from its interior. The velocity
// component normal to a wall is negated so nothing flows through it; corners
// take the mean of their two edge neighbours. It works in place.
func (g *Grid) ApplyBounds(kind Kind, x []float32) {
	n := g.n
	for i := 1; i <= n; i++ {
		if kind == VelocityY {
			x[g.Index(i, 0)] = -x[g.Index(i, 1)]
			x[g.Index(i, n+1)] = -x[g.Index(i, n)]
		} else {
			x[g.Index(i, 0)] = x[g.Index(i, 1)]
			x[g.Index(i, n+1)] = x[g.Index(i, n)]
		}
	}
	for j := 1; j <= n; j++ {
		if kind == VelocityX {
			x[g.Index(0, j)] = -x[g.Index(1, j)]
			x[g.Index(n+1, j)] = -x[g.Index(n, j)]
		} else {
			x[g.Index(0, j)] = x[g.Index(1, j)]
			x[g.Index(n+1, j)] = x[g.Index(n, j)]
		}
	}

	x[g.Index(0, 0)] = 0.5 * (x[g.Index(1, 0)] + x[g.Index(0, 1)])
	x[g.Index(0, n+1)] = 0.5 * (x[g.Index(1, n+1)] + x[g.Index(0, n)])
	x[g.Index(n+1, 0)] = 0.5 * (x[g.Index(n, 0)] + x[g.Index(n+1, 1)])
	x[g.Index(n+1, n+1)] = 0.5 * (x[g.Index(n, n+1)] + x[g.Index(n+1, n)])
}
