package viz

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// maxCachedStyles bounds the per-colour style cache; a busy fire produces a
// few thousand distinct cell pairs.
const maxCachedStyles = 8192

// Canvas draws an image with upper half blocks: the foreground colours the
// top pixel of a cell, the background the bottom one.
type Canvas struct {
	Cols, Rows int

	lines  []string
	styles map[[2]color.RGBA]lipgloss.Style
}

func NewCanvas(cols, rows int) *Canvas {
	return &Canvas{
		Cols:   cols,
		Rows:   rows,
		lines:  make([]string, 0, rows),
		styles: make(map[[2]color.RGBA]lipgloss.Style),
	}
}

// Resize changes the canvas dimensions, keeping the style cache.
func (c *Canvas) Resize(cols, rows int) {
	c.Cols, c.Rows = max(cols, 1), max(rows, 1)
}

// Draw samples the n x n image pix, row 0 on top, onto the canvas with
// nearest neighbour scaling.
func (c *Canvas) Draw(pix []color.RGBA, n int) {
	c.lines = c.lines[:0]
	if n <= 0 || len(pix) < n*n {
		return
	}

	var b strings.Builder
	pixelRows := 2 * c.Rows
	for row := 0; row < c.Rows; row++ {
		b.Reset()
		top := (2 * row) * n / pixelRows
		bottom := (2*row + 1) * n / pixelRows
		for col := 0; col < c.Cols; col++ {
			x := col * n / c.Cols
			b.WriteString(c.cell(pix[top*n+x], pix[bottom*n+x]))
		}
		c.lines = append(c.lines, b.String())
	}
}

func (c *Canvas) cell(up, down color.RGBA) string {
	key := [2]color.RGBA{up, down}
	st, ok := c.styles[key]
	if !ok {
		if len(c.styles) >= maxCachedStyles {
			clear(c.styles)
		}
		st = lipgloss.NewStyle().Foreground(hexColor(up)).Background(hexColor(down))
		c.styles[key] = st
	}
	return st.Render("▀")
}

func hexColor(c color.RGBA) lipgloss.Color {
	cc, _ := colorful.MakeColor(c)
	return lipgloss.Color(cc.Hex())
}

// Locate maps a terminal cell relative to the canvas origin to a normalized
// grid position. The top of the canvas is the top of the grid, y = 1.
func (c *Canvas) Locate(col, row int) (x, y float32, ok bool) {
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return 0, 0, false
	}
	x = (float32(col) + 0.5) / float32(c.Cols)
	y = 1 - (float32(row)+0.5)/float32(c.Rows)
	return x, y, true
}

func (c *Canvas) String() string {
	return strings.Join(c.lines, "\n")
}
