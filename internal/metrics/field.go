package metrics

import (
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/san-kum/firesim/internal/fluid"
)

// interiorRows calls fn with a vector over the interior cells of each row.
func interiorRows(g *fluid.Grid, x []float32, fn func(v blas32.Vector)) {
	n, size := g.N(), g.Size()
	for j := 1; j <= n; j++ {
		start := j*size + 1
		fn(blas32.Vector{N: n, Inc: 1, Data: x[start : start+n]})
	}
}

// interiorSum is the sum of absolute interior values.
func interiorSum(g *fluid.Grid, x []float32) float64 {
	var total float64
	interiorRows(g, x, func(v blas32.Vector) {
		total += float64(blas32.Asum(v))
	})
	return total
}

// interiorMaxAbs is the largest absolute interior value.
func interiorMaxAbs(g *fluid.Grid, x []float32) float64 {
	var peak float32
	interiorRows(g, x, func(v blas32.Vector) {
		k := blas32.Iamax(v)
		if k < 0 {
			return
		}
		val := v.Data[k]
		if val < 0 {
			val = -val
		}
		if val > peak || val != val {
			peak = val
		}
	})
	return float64(peak)
}

// interiorDot is the interior sum of x*x.
func interiorDot(g *fluid.Grid, x []float32) float64 {
	var total float64
	interiorRows(g, x, func(v blas32.Vector) {
		total += float64(blas32.Dot(v, v))
	})
	return total
}
