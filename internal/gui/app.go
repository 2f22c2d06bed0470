package gui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/render"
	"github.com/san-kum/firesim/internal/sim"
)

const (
	windowWidth  = 1120
	windowHeight = 740
	viewSize     = 720
	panelX       = viewSize + 20
	panelWidth   = windowWidth - panelX - 20
	gridStep     = 10
	maxGrid      = 400
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(255, 140, 40, 255)
	ColText    = rl.NewColor(180, 180, 180, 255)
	ColTextDim = rl.NewColor(90, 90, 90, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

// sliderRange bounds each parameter slider; dt keeps a positive floor.
var sliderRange = map[string][2]float32{
	"dt":                {0.005, 0.2},
	"viscosity":         {0, 0.1},
	"diffusion":         {0, 0.001},
	"buoyancy":          {-1, 4},
	"inject_strength":   {0, 1000},
	"temperature_decay": {0, 1},
}

type App struct {
	Runner  *sim.Runner
	Config  *config.Config
	Palette render.Palette

	pool   *sim.SnapshotPool
	pixels []color.RGBA
	tex    rl.Texture2D
	texN   int

	Telemetry  []float64
	MaxHistory int
	Status     string
}

func initWindow() {
	rl.InitWindow(windowWidth, windowHeight, "firesim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp creates the window state for r. The window must already be open.
func NewApp(r *sim.Runner, cfg *config.Config) *App {
	a := &App{
		Runner:     r,
		Config:     cfg,
		Palette:    cfg.Palette(),
		MaxHistory: 240,
		Telemetry:  make([]float64, 0, 240),
	}
	a.loadTexture(r.N())
	return a
}

// Run opens the window, starts r on its own goroutine and blocks until the
// window is closed or ctx is cancelled.
func Run(ctx context.Context, r *sim.Runner, cfg *config.Config) error {
	initWindow()
	defer rl.CloseWindow()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- r.Run(ctx, sim.Config{Interval: cfg.TickInterval})
	}()

	app := NewApp(r, cfg)
	defer app.Close()
	app.RunLoop(ctx)
	cancel()

	if err := <-errc; err != nil && !sim.IsCancelled(err) {
		return err
	}
	return nil
}

func (a *App) RunLoop(ctx context.Context) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		a.Update()
		a.Draw()
	}
}

func (a *App) Close() {
	rl.UnloadTexture(a.tex)
}

// loadTexture (re)creates the field texture for an n x n grid.
func (a *App) loadTexture(n int) {
	if a.texN != 0 {
		rl.UnloadTexture(a.tex)
	}
	img := rl.GenImageColor(n, n, rl.Black)
	a.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(a.tex, rl.FilterBilinear)
	a.texN = n
	a.pool = sim.NewSnapshotPool(n)
}

func (a *App) viewRect() rl.Rectangle {
	return rl.Rectangle{X: 10, Y: 10, Width: viewSize, Height: viewSize}
}

// Update handles input and uploads the latest completed tick.
func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Runner.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.reset()
	}
	if rl.IsKeyPressed(rl.KeyO) {
		a.toggleOrientation()
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.resize(a.Runner.N() + gridStep)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.resize(a.Runner.N() - gridStep)
	}

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		view := a.viewRect()
		mouse := rl.GetMousePosition()
		if rl.CheckCollisionPointRec(mouse, view) {
			x := (mouse.X - view.X) / view.Width
			y := 1 - (mouse.Y-view.Y)/view.Height
			a.Runner.Inject(x, y)
		}
	}

	if n := a.Runner.N(); n != a.texN {
		a.loadTexture(n)
	}
	s := a.pool.Capture(a.Runner)
	if s.N == a.texN {
		a.pixels = a.Palette.RenderOpaque(s, a.pixels)
		rl.UpdateTexture(a.tex, a.pixels)
	}
	a.pool.Put(s)

	if mass, ok := a.Runner.Metrics()["mass"]; ok && !a.Runner.Paused() {
		a.Telemetry = append(a.Telemetry, mass)
		if len(a.Telemetry) > a.MaxHistory {
			a.Telemetry = a.Telemetry[1:]
		}
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	view := a.viewRect()
	rl.DrawTexturePro(
		a.tex,
		rl.Rectangle{X: 0, Y: 0, Width: float32(a.texN), Height: float32(a.texN)},
		view,
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
	rl.DrawRectangleLinesEx(view, 1, ColGrid)

	a.drawPanel()
	rl.EndDrawing()
}

func (a *App) drawPanel() {
	x := float32(panelX)
	y := float32(14)

	rl.DrawText("FIRESIM", int32(x), int32(y), 24, ColAccent)
	y += 36

	state := "running"
	if a.Runner.Paused() {
		state = "paused"
	}
	lines := []string{
		fmt.Sprintf("%s  %.1f tps", state, a.Runner.Rate()),
		fmt.Sprintf("tick %d  grid %d  faults %d", a.Runner.Tick(), a.Runner.N(), a.Runner.Faults()),
		fmt.Sprintf("orientation %s", a.Config.Orientation),
	}
	metrics := a.Runner.Metrics()
	for _, name := range []string{"mass", "peak_temperature", "max_divergence"} {
		if v, ok := metrics[name]; ok {
			lines = append(lines, fmt.Sprintf("%s %.4g", name, v))
		}
	}
	for _, line := range lines {
		rl.DrawText(line, int32(x), int32(y), 16, ColText)
		y += 20
	}
	y += 6
	a.drawTelemetry(rl.Rectangle{X: x, Y: y, Width: panelWidth, Height: 60})
	y += 76

	p := a.Runner.Params()
	next := p
	for _, name := range fluid.ParamNames() {
		v, _ := p.Get(name)
		lim := sliderRange[name]
		rl.DrawText(name, int32(x), int32(y), 14, ColTextDim)
		y += 18
		nv := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 80, Height: 18}, "", "", v, lim[0], lim[1])
		rl.DrawText(fmt.Sprintf("%.4g", v), int32(x+panelWidth-70), int32(y+2), 14, ColText)
		if nv != v {
			if changed, err := next.Set(name, nv); err == nil {
				next = changed
			}
		}
		y += 30
	}
	if next != p {
		if err := a.Runner.SetParams(next); err != nil {
			a.Status = err.Error()
		} else {
			a.Config.SetParams(next)
		}
	}

	y += 6
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 110, Height: 30}, toggleText(a.Runner.Paused(), "Resume", "Pause")) {
		a.Runner.TogglePause()
	}
	if gui.Button(rl.Rectangle{X: x + 120, Y: y, Width: 110, Height: 30}, "Reset") {
		a.reset()
	}
	if gui.Button(rl.Rectangle{X: x + 240, Y: y, Width: 110, Height: 30}, "Flip") {
		a.toggleOrientation()
	}
	y += 40
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 110, Height: 30}, "Grid -") {
		a.resize(a.Runner.N() - gridStep)
	}
	if gui.Button(rl.Rectangle{X: x + 120, Y: y, Width: 110, Height: 30}, "Grid +") {
		a.resize(a.Runner.N() + gridStep)
	}
	y += 44

	if a.Status != "" {
		rl.DrawText(a.Status, int32(x), int32(y), 14, ColAccent)
	}
	rl.DrawText("drag to inject  SPACE pause  R reset  O flip  +/- grid", int32(x), windowHeight-26, 12, ColTextDim)
}

func (a *App) drawTelemetry(bounds rl.Rectangle) {
	rl.DrawRectangleLinesEx(bounds, 1, ColGrid)
	if len(a.Telemetry) < 2 {
		return
	}
	lo, hi := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := bounds.Width / float32(a.MaxHistory-1)
	point := func(i int) rl.Vector2 {
		norm := float32((a.Telemetry[i] - lo) / rng)
		return rl.Vector2{X: bounds.X + float32(i)*step, Y: bounds.Y + bounds.Height - norm*bounds.Height}
	}
	for i := 1; i < len(a.Telemetry); i++ {
		rl.DrawLineV(point(i-1), point(i), ColAccent)
	}
}

func (a *App) reset() {
	if err := a.Runner.Reset(); err != nil {
		a.Status = err.Error()
		return
	}
	a.Telemetry = a.Telemetry[:0]
	a.Status = ""
}

func (a *App) toggleOrientation() {
	next := config.OrientationFalling
	if a.Config.Orientation == config.OrientationFalling {
		next = config.OrientationRising
	}
	grid := a.Config.Grid
	a.Config.ApplyPreset(config.ForOrientation(next))
	a.Config.Grid = grid

	if err := a.Runner.SetParams(a.Config.Params()); err != nil {
		a.Status = err.Error()
		return
	}
	a.Runner.SetSources(sim.Sources(a.Config)...)
	a.Status = "orientation: " + next
	slog.Info("orientation changed", "orientation", next)
}

func (a *App) resize(n int) {
	n = max(fluid.MinN, min(n, maxGrid))
	if n == a.Runner.N() {
		return
	}
	if err := a.Runner.Resize(n); err != nil {
		a.Status = err.Error()
		return
	}
	a.Config.Grid = n
	a.Telemetry = a.Telemetry[:0]
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
