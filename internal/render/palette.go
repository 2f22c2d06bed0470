// Package render turns solver snapshots into pixels.
//
// Temperature picks the hue on a black, red, orange, yellow, white ramp;
// temperature and density together set the brightness. Grid row N is the top
// of the image.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/san-kum/firesim/internal/fluid"
)

const (
	DefaultGamma    = 0.7
	DefaultBlueTint = 30
)

type Palette struct {
	Gamma float32
	// BlueTint is the blue floor of the cooler bands. From 220 up it also
	// replaces the blue ramp of the hottest band, washing out the yellow.
	BlueTint uint8
}

func DefaultPalette() Palette {
	return Palette{Gamma: DefaultGamma, BlueTint: DefaultBlueTint}
}

// Intensity is min(1, temp*0.04 + dens*0.01) raised to the palette gamma.
func (p Palette) Intensity(temp, dens float32) float32 {
	in := temp*0.04 + dens*0.01
	if !(in > 0) {
		return 0
	}
	if in >= 1 {
		return 1
	}
	return float32(math.Pow(float64(in), float64(p.Gamma)))
}

// Color maps a temperature and an intensity in [0,1] to a straight-alpha
// colour. Alpha carries the intensity.
func (p Palette) Color(temp, intensity float32) color.NRGBA {
	t := temp * 0.05
	if !(t > 0) {
		t = 0
	} else if t > 1 {
		t = 1
	}
	a := uint8(min(255, int(255*intensity)))
	tint := p.BlueTint

	switch {
	case t <= 0.25:
		s := t / 0.25
		return color.NRGBA{R: uint8(s*180 + 20*(1-s)), B: tint, A: a}
	case t <= 0.5:
		s := (t - 0.25) / 0.25
		g := uint8(s * 120)
		return color.NRGBA{R: 255, G: uint8(float32(g) * intensity), B: tint, A: a}
	case t <= 0.75:
		s := (t - 0.5) / 0.25
		g := uint8(120 + s*135)
		return color.NRGBA{R: 255, G: uint8(float32(g) * intensity), B: tint, A: a}
	default:
		s := (t - 0.75) / 0.25
		b := tint
		if tint < 220 {
			b = uint8(s * 255)
		}
		return color.NRGBA{
			R: uint8(255 * intensity),
			G: uint8(255 * intensity),
			B: uint8(float32(b) * intensity),
			A: a,
		}
	}
}

// Cell colours the interior cell (i, j) of s.
func (p Palette) Cell(s *fluid.Snapshot, i, j int) color.NRGBA {
	idx := s.Index(i, j)
	temp, dens := s.Temperature[idx], s.Density[idx]
	return p.Color(temp, p.Intensity(temp, dens))
}

// OverBlack composites c onto an opaque black background.
func OverBlack(c color.NRGBA) color.RGBA {
	pm := color.RGBAModel.Convert(c).(color.RGBA)
	pm.A = 255
	return pm
}

// rowsPerChunk keeps small grids on one goroutine.
const rowsPerChunk = 16

// Render draws s into dst, one pixel per interior cell, and returns it. dst is
// reallocated when nil or of the wrong size.
func (p Palette) Render(s *fluid.Snapshot, dst *image.NRGBA) *image.NRGBA {
	n := s.N
	if dst == nil || dst.Rect.Dx() != n || dst.Rect.Dy() != n {
		dst = image.NewNRGBA(image.Rect(0, 0, n, n))
	}
	ParallelFor(n, rowsPerChunk, func(start, end int) {
		for y := start; y < end; y++ {
			srcJ := n - y
			off := dst.PixOffset(0, y)
			for x := 0; x < n; x++ {
				c := p.Cell(s, x+1, srcJ)
				px := dst.Pix[off+4*x : off+4*x+4 : off+4*x+4]
				px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
			}
		}
	})
	return dst
}

// RenderOpaque draws s composited over black into dst, the layout texture
// uploads and terminal cells expect. dst is grown to N*N when short.
func (p Palette) RenderOpaque(s *fluid.Snapshot, dst []color.RGBA) []color.RGBA {
	n := s.N
	if cap(dst) < n*n {
		dst = make([]color.RGBA, n*n)
	}
	dst = dst[:n*n]
	ParallelFor(n, rowsPerChunk, func(start, end int) {
		for y := start; y < end; y++ {
			srcJ := n - y
			row := dst[y*n : (y+1)*n]
			for x := range row {
				row[x] = OverBlack(p.Cell(s, x+1, srcJ))
			}
		}
	})
	return dst
}
