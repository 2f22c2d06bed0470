package viz

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/export"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/render"
	"github.com/san-kum/firesim/internal/sim"
)

const (
	width           = 80
	height          = 24
	statsWidth      = 44
	historyCapacity = 600
	// gridStep is how much + and - change the resolution.
	gridStep = 10
	maxGrid  = 400
)

type TickMsg time.Time

// Model is the Bubble Tea model of the live view. It never steps the
// simulation; it reads snapshots from a runner driven elsewhere.
type Model struct {
	runner  *sim.Runner
	cfg     *config.Config
	palette render.Palette
	pool    *sim.SnapshotPool
	pix     []color.RGBA

	width, height int
	canvas        *Canvas
	selected      int
	showHelp      bool
	mouseDown     bool

	massHistory []float64
	recorder    *export.GIFRecorder
	status      string
	statusErr   bool
}

// NewModel creates a live view of r. cfg is updated as the user tunes
// parameters or flips the orientation.
func NewModel(r *sim.Runner, cfg *config.Config) Model {
	m := Model{
		runner:      r,
		cfg:         cfg,
		palette:     cfg.Palette(),
		pool:        sim.NewSnapshotPool(r.N()),
		width:       width,
		height:      height,
		canvas:      NewCanvas(1, 1),
		massHistory: make([]float64, 0, historyCapacity),
	}
	m.layout()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and redraws on every frame tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.runner.TogglePause()
		case "r":
			if err := m.runner.Reset(); err != nil {
				m.setError(err)
			}
			m.massHistory = m.massHistory[:0]
		case "o":
			m.toggleOrientation()
		case "tab":
			m.selected = (m.selected + 1) % len(fluid.ParamNames())
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "+", "=":
			m.resize(m.runner.N() + gridStep)
		case "-", "_":
			m.resize(m.runner.N() - gridStep)
		case "g":
			m.toggleRecording()
		case "s":
			m.saveFrame()
		case "?":
			m.showHelp = !m.showHelp
			m.layout()
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	case TickMsg:
		m.frame()
		return m, tick()
	}
	return m, nil
}

// layout sizes the canvas to the terminal, keeping the grid square: one
// terminal cell is two grid rows tall.
func (m *Model) layout() {
	cols := m.width - statsWidth - 6
	rows := m.height - 3
	if m.showHelp {
		rows -= helpLines
	}
	n := m.runner.N()
	cols = min(cols, n)
	rows = min(rows, (n+1)/2)
	if cols > 2*rows {
		cols = 2 * rows
	} else {
		rows = (cols + 1) / 2
	}
	m.canvas.Resize(cols, rows)
}

// frame captures and draws the latest completed tick.
func (m *Model) frame() {
	if m.pool.N() != m.runner.N() {
		m.pool = sim.NewSnapshotPool(m.runner.N())
		m.layout()
	}
	s := m.pool.Capture(m.runner)
	defer m.pool.Put(s)

	m.pix = m.palette.RenderOpaque(s, m.pix)
	m.canvas.Draw(m.pix, s.N)
	if m.recorder != nil {
		m.recorder.Add(s)
	}

	if mass, ok := m.runner.Metrics()["mass"]; ok && !m.runner.Paused() {
		m.massHistory = append(m.massHistory, mass)
		if len(m.massHistory) > historyCapacity {
			m.massHistory = m.massHistory[1:]
		}
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.mouseDown = true
	case tea.MouseActionRelease:
		m.mouseDown = false
		return
	case tea.MouseActionMotion:
		if !m.mouseDown {
			return
		}
	}

	// canvasStyle pads by one line and two columns
	top := 1
	if m.showHelp {
		top += helpLines
	}
	x, y, ok := m.canvas.Locate(msg.X-2, msg.Y-top)
	if !ok {
		return
	}
	m.runner.Inject(x, y)
}

func (m *Model) adjustParam(factor float32) {
	names := fluid.ParamNames()
	name := names[m.selected%len(names)]
	p := m.runner.Params()
	v, _ := p.Get(name)
	if v == 0 {
		v = 1e-4
	}
	next, err := p.Set(name, v*factor)
	if err != nil {
		m.setError(err)
		return
	}
	if err := m.runner.SetParams(next); err != nil {
		m.setError(err)
		return
	}
	m.cfg.SetParams(next)
	m.status = ""
}

// toggleOrientation flips rising and falling, loading the matching preset
// parameters and moving the sources to the other edge.
func (m *Model) toggleOrientation() {
	next := config.OrientationFalling
	if m.cfg.Orientation == config.OrientationFalling {
		next = config.OrientationRising
	}
	grid := m.cfg.Grid
	m.cfg.ApplyPreset(config.ForOrientation(next))
	m.cfg.Grid = grid

	if err := m.runner.SetParams(m.cfg.Params()); err != nil {
		m.setError(err)
		return
	}
	m.runner.SetSources(sim.Sources(m.cfg)...)
	m.status = "orientation: " + next
	m.statusErr = false
	slog.Info("orientation changed", "orientation", next)
}

func (m *Model) resize(n int) {
	n = max(fluid.MinN, min(n, maxGrid))
	if n == m.runner.N() {
		return
	}
	if err := m.runner.Resize(n); err != nil {
		m.setError(err)
		return
	}
	m.cfg.Grid = n
	m.massHistory = m.massHistory[:0]
	if m.recorder != nil {
		// frames of different sizes cannot share one GIF
		m.stopRecording()
	}
	m.layout()
}

func (m *Model) toggleRecording() {
	if m.recorder != nil {
		m.stopRecording()
		return
	}
	m.recorder = export.NewGIFRecorder(m.palette, 1, 4, 2)
	m.recorder.MaxFrames = historyCapacity
	m.status = "recording"
	m.statusErr = false
}

func (m *Model) stopRecording() {
	rec := m.recorder
	m.recorder = nil
	path := fmt.Sprintf("firesim_%d.gif", time.Now().Unix())
	if err := rec.Save(path); err != nil {
		m.setError(err)
		return
	}
	m.status = fmt.Sprintf("saved %s (%d frames)", path, rec.Frames())
	m.statusErr = false
}

func (m *Model) saveFrame() {
	s := m.pool.Capture(m.runner)
	defer m.pool.Put(s)
	path := fmt.Sprintf("firesim_%d.png", time.Now().Unix())
	if err := export.SavePNG(path, m.palette.Render(s, nil), 4); err != nil {
		m.setError(err)
		return
	}
	m.status = "saved " + path
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	slog.Warn("live view", "error", err)
}

// helpLines is the height of the help box drawn above the canvas.
var helpLines = lipgloss.Height(helpText)

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset fields             ║
║  O        - Toggle orientation       ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  + / -    - Grow / shrink grid       ║
║  G        - Toggle GIF recording     ║
║  S        - Save PNG                 ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// View renders the canvas and the stats panel.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(GradientText("FIRESIM", "#ffdd55", "#cc2200") + "  " + m.statusLine() + "\n\n")

	s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", m.runner.Tick())) + "\n")
	s.WriteString(labelStyle.Render("Rate") + valueStyle.Render(fmt.Sprintf("%.1f tps", m.runner.Rate())) + "\n")
	s.WriteString(labelStyle.Render("Grid") + valueStyle.Render(fmt.Sprintf("%d x %d", m.runner.N(), m.runner.N())) + "\n")
	s.WriteString(labelStyle.Render("Mode") + valueStyle.Render(m.cfg.Orientation) + "\n")
	faults := m.runner.Faults()
	if faults > 0 {
		s.WriteString(labelStyle.Render("Faults") + errorStyle.Render(fmt.Sprintf("%d", faults)) + "\n")
	} else {
		s.WriteString(labelStyle.Render("Faults") + valueStyle.Render("0") + "\n")
	}

	metrics := m.runner.Metrics()
	for _, name := range []string{"mass", "peak_temperature", "max_divergence"} {
		if v, ok := metrics[name]; ok {
			s.WriteString(labelStyle.Render(shortName(name)) + valueStyle.Render(fmt.Sprintf("%.4g", v)) + "\n")
		}
	}
	s.WriteString("\n" + SparklineChart(m.massHistory, statsWidth-6) + "\n")
	if len(m.massHistory) > 1 && m.height > 40 {
		chart := asciigraph.Plot(m.massHistory, asciigraph.Height(5), asciigraph.Width(statsWidth-12), asciigraph.Caption("mass"))
		s.WriteString(chart + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	p := m.runner.Params()
	defaults := config.ForOrientation(m.cfg.Orientation).Params()
	for i, name := range fluid.ParamNames() {
		v, _ := p.Get(name)
		ref, _ := defaults.Get(name)
		ratio := 0.5
		if ref != 0 {
			ratio = float64(v / (2 * ref))
		}
		line := fmt.Sprintf("%-17s %s %.4g", name, ProgressBar(ratio, 8), v)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> ") + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	if m.status != "" {
		if m.statusErr {
			s.WriteString("\n" + errorStyle.Render(m.status) + "\n")
		} else {
			s.WriteString("\n" + valueStyle.Render(m.status) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset O:Flip Q:Quit\nTab ↑↓:Tune +-:Grid G:GIF ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func (m Model) statusLine() string {
	switch {
	case m.recorder != nil:
		return StatusRecording.Render(fmt.Sprintf("REC %d", m.recorder.Frames()))
	case m.runner.Paused():
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func shortName(metric string) string {
	switch metric {
	case "peak_temperature":
		return "Peak temp"
	case "max_divergence":
		return "Divergence"
	}
	return strings.ToUpper(metric[:1]) + metric[1:]
}

// Run starts the runner on its own goroutine and blocks in the live view
// until the user quits or ctx is cancelled.
func Run(ctx context.Context, r *sim.Runner, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- r.Run(ctx, sim.Config{Interval: cfg.TickInterval})
	}()

	p := tea.NewProgram(NewModel(r, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, uiErr := p.Run()
	killed := errors.Is(uiErr, tea.ErrProgramKilled)
	cancel()

	if err := <-errc; err != nil && !sim.IsCancelled(err) {
		return err
	}
	if uiErr != nil && !killed {
		return uiErr
	}
	return nil
}
