package viz

import (
	"image/color"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/metrics"
	"github.com/san-kum/firesim/internal/sim"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Grid = 32
	r, err := sim.NewFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range metrics.Standard() {
		r.AddMetric(m)
	}
	return NewModel(r, cfg)
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestCanvasLocate(t *testing.T) {
	c := NewCanvas(20, 10)

	tests := []struct {
		col, row int
		x, y     float32
		ok       bool
	}{
		{0, 0, 0.025, 0.95, true},
		{19, 9, 0.975, 0.05, true},
		{10, 5, 0.525, 0.45, true},
		{-1, 0, 0, 0, false},
		{20, 0, 0, 0, false},
		{0, 10, 0, 0, false},
	}

	for _, tt := range tests {
		x, y, ok := c.Locate(tt.col, tt.row)
		if ok != tt.ok {
			t.Errorf("Locate(%d,%d) ok = %v, want %v", tt.col, tt.row, ok, tt.ok)
			continue
		}
		if ok && (abs32(x-tt.x) > 1e-6 || abs32(y-tt.y) > 1e-6) {
			t.Errorf("Locate(%d,%d) = (%v,%v), want (%v,%v)", tt.col, tt.row, x, y, tt.x, tt.y)
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestCanvasDraw(t *testing.T) {
	n := 4
	pix := make([]color.RGBA, n*n)
	for k := range pix {
		pix[k] = color.RGBA{A: 255}
	}
	pix[0] = color.RGBA{R: 255, A: 255}

	c := NewCanvas(4, 2)
	c.Draw(pix, n)

	if got := len(c.lines); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	if len(c.styles) != 2 {
		t.Errorf("expected 2 distinct cell styles, got %d", len(c.styles))
	}

	c.Draw(pix[:3], n)
	if c.String() != "" {
		t.Error("short pixel buffer should draw nothing")
	}
}

func TestModel_Layout(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: 200, Height: 80})

	if m.canvas.Cols != 32 || m.canvas.Rows != 16 {
		t.Errorf("expected a 32x16 canvas, got %dx%d", m.canvas.Cols, m.canvas.Rows)
	}

	m = update(m, tea.WindowSizeMsg{Width: 70, Height: 80})
	if m.canvas.Cols != 20 || m.canvas.Rows != 10 {
		t.Errorf("expected a 20x10 canvas, got %dx%d", m.canvas.Cols, m.canvas.Rows)
	}
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t)

	m = update(m, key(" "))
	if !m.runner.Paused() {
		t.Error("space should pause")
	}
	m = update(m, key(" "))
	if m.runner.Paused() {
		t.Error("space should resume")
	}

	m = update(m, key("tab"))
	if m.selected != 1 {
		t.Fatalf("expected viscosity selected, got %d", m.selected)
	}
	before := m.runner.Params().Viscosity
	m = update(m, key("up"))
	if got := m.runner.Params().Viscosity; abs32(got-before*1.05) > 1e-6 {
		t.Errorf("expected viscosity %v, got %v", before*1.05, got)
	}
	if m.cfg.Viscosity != m.runner.Params().Viscosity {
		t.Error("config not updated with tuned parameter")
	}

	m = update(m, key("+"))
	if m.runner.N() != 42 || m.cfg.Grid != 42 {
		t.Errorf("expected grid 42, got runner %d config %d", m.runner.N(), m.cfg.Grid)
	}
	m = update(m, key("-"))
	m = update(m, key("-"))
	if m.runner.N() != fluid.MinN {
		t.Errorf("grid should stop at %d, got %d", fluid.MinN, m.runner.N())
	}

	m = update(m, key("o"))
	if m.cfg.Orientation != config.OrientationFalling {
		t.Errorf("expected falling, got %s", m.cfg.Orientation)
	}
	if m.runner.Params().Buoyancy != config.Presets["falling"].Buoyancy {
		t.Error("falling preset parameters not applied")
	}
	if m.cfg.Grid != fluid.MinN {
		t.Error("orientation toggle should keep the resolution")
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should return a quit command")
	}
}

func TestModel_MouseInjects(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: 200, Height: 80})

	// top-left corner of the canvas, inside the padding offset
	m = update(m, tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	var s fluid.Snapshot
	m.runner.Snapshot(&s)
	n := s.N
	hit := false
	for j := 1; j <= n; j++ {
		for i := 1; i <= n; i++ {
			if s.Density[s.Index(i, j)] == 0 {
				continue
			}
			hit = true
			if i > n/2 || j < n/2 {
				t.Errorf("injection landed at (%d,%d), expected the top-left quadrant", i, j)
			}
		}
	}
	if !hit {
		t.Fatal("mouse press did not inject")
	}

	m = update(m, tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	m.runner.Snapshot(&s)
	mass := sum(s.Density)
	update(m, tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionMotion})
	m.runner.Snapshot(&s)
	if sum(s.Density) != mass {
		t.Error("motion without a pressed button should not inject")
	}
}

func TestModel_MouseWithHelpShown(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: 200, Height: 80})
	m = update(m, key("?"))
	if !m.showHelp {
		t.Fatal("expected help to be shown")
	}

	var s fluid.Snapshot
	// the help box sits above the canvas, so this row is not on the canvas
	m = update(m, tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.runner.Snapshot(&s)
	if sum(s.Density) != 0 {
		t.Fatal("press on the help box should not inject")
	}
	m = update(m, tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	m = update(m, tea.MouseMsg{X: 2, Y: 1 + helpLines, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.runner.Snapshot(&s)
	n := s.N
	hit := false
	for j := 1; j <= n; j++ {
		for i := 1; i <= n; i++ {
			if s.Density[s.Index(i, j)] == 0 {
				continue
			}
			hit = true
			if i > n/2 || j < n/2 {
				t.Errorf("injection landed at (%d,%d), expected the top-left quadrant", i, j)
			}
		}
	}
	if !hit {
		t.Fatal("press on the first canvas row did not inject")
	}
}

func sum(x []float32) float32 {
	var t float32
	for _, v := range x {
		t += v
	}
	return t
}

func TestModel_FrameAndView(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 5; i++ {
		if err := m.runner.Step(); err != nil {
			t.Fatal(err)
		}
	}
	m = update(m, TickMsg{})

	if len(m.massHistory) != 1 {
		t.Errorf("expected one mass sample, got %d", len(m.massHistory))
	}
	if m.canvas.String() == "" {
		t.Error("canvas empty after a frame")
	}
	if m.View() == "" {
		t.Error("empty view")
	}
}
