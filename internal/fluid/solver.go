package fluid

// Iterations is the fixed number of Gauss-Seidel sweeps per solve. The count
// bounds the cost of a tick instead of chasing a residual.
const Iterations = 20

// finite reports whether x is neither NaN nor Inf (both give NaN for x-x).
func finite(x float32) bool { return x-x == 0 }

// diffuse solves implicit diffusion of src into dst at the given rate.
func (g *Grid) diffuse(kind Kind, dst, src []float32, rate, dt float32) {
	n := float32(g.n)
	a := dt * rate * n * n
	g.linSolve(kind, dst, src, a, 1+4*a)
}

// linSolve relaxes dst towards (src + a*neighbours)/c, applying the wall
// policy after every sweep. A cell that comes out non-finite is zeroed.
func (g *Grid) linSolve(kind Kind, dst, src []float32, a, c float32) {
	n, size := g.n, g.size
	for k := 0; k < Iterations; k++ {
		for j := 1; j <= n; j++ {
			row := j * size
			for i := 1; i <= n; i++ {
				idx := row + i
				val := (src[idx] + a*(dst[idx-1]+dst[idx+1]+dst[idx-size]+dst[idx+size])) / c
				if !finite(val) {
					val = 0
					g.faults++
				}
				dst[idx] = val
			}
		}
		g.ApplyBounds(kind, dst)
	}
}

// project removes the divergent part of (u, v) using the grid's pressure and
// divergence scratch buffers.
func (g *Grid) project(u, v []float32) {
	n, size := g.n, g.size
	p, div := g.pressure, g.divergence
	h := 1 / float32(n)

	for j := 1; j <= n; j++ {
		row := j * size
		for i := 1; i <= n; i++ {
			idx := row + i
			div[idx] = -0.5 * h * (u[idx+1] - u[idx-1] + v[idx+size] - v[idx-size])
			p[idx] = 0
		}
	}
	g.ApplyBounds(Scalar, div)
	g.ApplyBounds(Scalar, p)

	g.linSolve(Scalar, p, div, 1, 4)

	for j := 1; j <= n; j++ {
		row := j * size
		for i := 1; i <= n; i++ {
			idx := row + i
			du := u[idx] - 0.5*(p[idx+1]-p[idx-1])/h
			dv := v[idx] - 0.5*(p[idx+size]-p[idx-size])/h
			if !finite(du) || !finite(dv) {
				du, dv = 0, 0
				g.faults++
			}
			u[idx], v[idx] = du, dv
		}
	}
	g.ApplyBounds(VelocityX, u)
	g.ApplyBounds(VelocityY, v)
}

// advect transports src along (u, v) into dst by tracing each cell centre
// backwards and sampling src bilinearly at the departure point.
func (g *Grid) advect(kind Kind, dst, src, u, v []float32, dt float32) {
	n, size := g.n, g.size
	nf := float32(n)
	dt0 := dt * nf
	lo, hi := float32(0.5), nf+0.5

	for j := 1; j <= n; j++ {
		row := j * size
		for i := 1; i <= n; i++ {
			idx := row + i
			x := float32(i) - dt0*u[idx]
			y := float32(j) - dt0*v[idx]
			// NaN slips through the clamps below and would index out of
			// range, so it is the only case the fallback has to catch.
			if !finite(x) || !finite(y) {
				dst[idx] = 0
				g.faults++
				continue
			}
			x = clamp(x, lo, hi)
			y = clamp(y, lo, hi)

			i0, j0 := int(x), int(y)
			s1, t1 := x-float32(i0), y-float32(j0)
			s0, t0 := 1-s1, 1-t1

			k := i0 + j0*size
			val := s0*(t0*src[k]+t1*src[k+size]) + s1*(t0*src[k+1]+t1*src[k+1+size])
			if !finite(val) {
				val = 0
				g.faults++
			}
			dst[idx] = val
		}
	}
	g.ApplyBounds(kind, dst)
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
