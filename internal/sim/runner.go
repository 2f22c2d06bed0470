package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/firesim/internal/fluid"
)

// pausedPoll is how long Run sleeps between checks while paused and no tick
// interval is configured.
const pausedPoll = 10 * time.Millisecond

// Runner owns a grid and drives it one tick at a time. Every exported method
// is safe for concurrent use; a tick holds the lock for its whole duration, so
// Inject, Resize and Snapshot never observe a half-finished tick.
type Runner struct {
	mu          sync.Mutex
	grid        *fluid.Grid
	params      fluid.Params
	sources     []Source
	controllers []Controller
	metrics     []Metric
	observers   []Observer

	tick   int
	faults int
	paused bool
	rate   rateCounter
	logger *slog.Logger
}

func New(n int, p fluid.Params) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g, err := fluid.New(n)
	if err != nil {
		return nil, err
	}
	return &Runner{
		grid:   g,
		params: p,
		logger: slog.Default(),
	}, nil
}

func (r *Runner) SetLogger(l *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

func (r *Runner) AddSource(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
}

// SetSources replaces every source, e.g. when the orientation flips.
func (r *Runner) SetSources(src ...Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources[:0:0], src...)
}

func (r *Runner) AddController(c Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers = append(r.controllers, c)
}

func (r *Runner) AddMetric(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
}

func (r *Runner) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Step runs one tick: controllers, sources, the solver pipeline, then
// metrics and observers.
func (r *Runner) Step() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stepLocked()
}

func (r *Runner) stepLocked() error {
	for _, c := range r.controllers {
		next := c.Control(r.tick, r.params)
		if next == r.params {
			continue
		}
		if err := next.Validate(); err != nil {
			return &TickError{Tick: r.tick, Wrapped: fmt.Errorf("controller: %w", err)}
		}
		r.logger.Debug("parameters changed", "tick", r.tick, "params", next)
		r.params = next
	}
	for _, s := range r.sources {
		s.Apply(r.grid, r.params, r.tick)
	}
	if err := r.grid.Step(r.params); err != nil {
		return &TickError{Tick: r.tick, Wrapped: err}
	}
	r.tick++

	if f := r.grid.Faults(); f > r.faults {
		r.logger.Debug("non-finite cells zeroed", "tick", r.tick, "count", f-r.faults)
		r.faults = f
	}
	for _, m := range r.metrics {
		m.Observe(r.grid)
	}
	for _, o := range r.observers {
		o.OnTick(r.tick, r.grid)
	}
	if tps, ok := r.rate.tick(time.Now()); ok {
		r.logger.Info("tick rate", "tps", fmt.Sprintf("%.1f", tps), "n", r.grid.N())
	}
	return nil
}

// Run ticks until ctx is cancelled, sleeping cfg.Interval between ticks. A
// positive cfg.Ticks stops the loop after that many ticks. Cancellation is
// only observed between ticks.
func (r *Runner) Run(ctx context.Context, cfg Config) error {
	r.logger.Info("simulation started", "n", r.N(), "interval", cfg.Interval)
	done := 0
	for cfg.Ticks <= 0 || done < cfg.Ticks {
		select {
		case <-ctx.Done():
			r.logger.Info("simulation stopped", "ticks", r.Tick())
			return ctx.Err()
		default:
		}

		wait := cfg.Interval
		if r.Paused() {
			if wait <= 0 {
				wait = pausedPoll
			}
		} else {
			if err := r.Step(); err != nil {
				return err
			}
			done++
		}

		if err := sleep(ctx, wait); err != nil {
			r.logger.Info("simulation stopped", "ticks", r.Tick())
			return err
		}
	}
	return nil
}

// RunTicks runs a fixed number of ticks flat out and reports timing and
// metric values. Metrics are reset first.
func (r *Runner) RunTicks(ctx context.Context, ticks int) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	r.mu.Lock()
	for _, m := range r.metrics {
		m.Reset()
	}
	r.mu.Unlock()

	result := &Result{
		TickTimes: make([]time.Duration, 0, ticks),
		Metrics:   make(map[string]float64),
	}

	start := time.Now()
	var runErr error
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		t0 := time.Now()
		if err := r.Step(); err != nil {
			runErr = err
			break
		}
		result.TickTimes = append(result.TickTimes, time.Since(t0))
		result.Ticks++
	}
	result.Elapsed = time.Since(start)

	r.mu.Lock()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Faults = r.grid.Faults()
	r.mu.Unlock()

	return result, runErr
}

// Inject adds a disturbance at a normalized position with the current inject
// strength.
func (r *Runner) Inject(x, y float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grid.Inject(x, y, r.params.InjectStrength)
}

// Resize replaces the grid with a zeroed one of interior size n and resets
// the metrics. The tick counter keeps running.
func (r *Runner) Resize(n int) error {
	g, err := fluid.New(n)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.grid.N()
	r.grid = g
	r.faults = 0
	for _, m := range r.metrics {
		m.Reset()
	}
	r.logger.Info("grid resized", "from", old, "to", n)
	return nil
}

// Reset clears every field and metric, keeping the current resolution.
func (r *Runner) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := fluid.New(r.grid.N())
	if err != nil {
		return err
	}
	r.grid = g
	r.tick = 0
	r.faults = 0
	for _, m := range r.metrics {
		m.Reset()
	}
	r.logger.Info("simulation reset", "n", g.N())
	return nil
}

func (r *Runner) SetParams(p fluid.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = p
	return nil
}

func (r *Runner) Params() fluid.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// Snapshot copies the presentation fields into dst.
func (r *Runner) Snapshot(dst *fluid.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grid.Snapshot(dst)
}

func (r *Runner) N() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grid.N()
}

func (r *Runner) Tick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

func (r *Runner) Faults() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grid.Faults()
}

// Rate returns the most recent ticks-per-second measurement.
func (r *Runner) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate.last
}

func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *Runner) SetPaused(p bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = p
}

// TogglePause flips the pause state and returns the new value.
func (r *Runner) TogglePause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = !r.paused
	return r.paused
}

// Metrics returns the current value of every registered metric.
func (r *Runner) Metrics() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type rateCounter struct {
	since time.Time
	count int
	last  float64
}

// tick records one tick and reports a new rate once a full second has passed.
func (c *rateCounter) tick(now time.Time) (float64, bool) {
	if c.since.IsZero() {
		c.since = now
	}
	c.count++
	elapsed := now.Sub(c.since)
	if elapsed < time.Second {
		return 0, false
	}
	c.last = float64(c.count) / elapsed.Seconds()
	c.count = 0
	c.since = now
	return c.last, true
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
