package export

import (
	"fmt"
	"math"
	"strings"
)

// SeriesToSVG draws values as a polyline scaled to the given size, with 10%
// padding on each axis.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	stepX := float64(width) / float64(len(values)-1)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor))

	cmd := "M"
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			// break the line over gaps
			cmd = "M"
			continue
		}
		x := float64(i) * stepX
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if cmd == "M" && i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, x, y))
		cmd = " L"
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
