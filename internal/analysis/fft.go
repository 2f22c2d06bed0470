package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each non-negative frequency of data
// with its mean removed. Bin k is k cycles over the whole series.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := stat.Mean(data, nil)
	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centred)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// Flicker describes the strongest oscillation in a series.
type Flicker struct {
	// Period in ticks; zero when the series has no oscillation.
	Period   float64
	Power    float64
	Spectrum []float64
}

// DominantPeriod finds the strongest oscillation of data, sampled every
// `every` ticks.
func DominantPeriod(data []float64, every int) Flicker {
	ps := PowerSpectrum(data)
	f := Flicker{Spectrum: ps}

	best := 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > f.Power {
			f.Power = ps[k]
			best = k
		}
	}
	if best > 0 {
		f.Period = float64(len(data)*max(every, 1)) / float64(best)
	}
	return f
}
