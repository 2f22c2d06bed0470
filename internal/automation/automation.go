package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/sim"
)

// Scenario is a scripted sequence of disturbances and parameter changes.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Ticks       int     `yaml:"ticks"`
	Events      []Event `yaml:"events"`
}

// Event fires at Tick and then every Repeat ticks up to Until (forever when
// Until is zero). An event with Set changes parameters; any other event
// injects at (X, Y).
type Event struct {
	Tick     int                `yaml:"tick"`
	X        float32            `yaml:"x"`
	Y        float32            `yaml:"y"`
	Strength float32            `yaml:"strength"`
	Repeat   int                `yaml:"repeat"`
	Until    int                `yaml:"until"`
	Set      map[string]float32 `yaml:"set"`
}

func (e Event) due(tick int) bool {
	if tick == e.Tick {
		return true
	}
	if e.Repeat <= 0 || tick < e.Tick {
		return false
	}
	if e.Until > 0 && tick > e.Until {
		return false
	}
	return (tick-e.Tick)%e.Repeat == 0
}

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.Preset != "" && config.GetPreset(s.Preset) == nil {
		return fmt.Errorf("unknown preset %q", s.Preset)
	}
	if s.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", s.Ticks)
	}
	probe := fluid.DefaultParams()
	for i, e := range s.Events {
		if e.Tick < 0 || e.Repeat < 0 || e.Until < 0 {
			return fmt.Errorf("event %d: negative tick, repeat or until", i+1)
		}
		if e.Strength < 0 {
			return fmt.Errorf("event %d: negative strength", i+1)
		}
		for name := range e.Set {
			if _, err := probe.Get(name); err != nil {
				return fmt.Errorf("event %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Apply injects every event due at tick. Events without a strength use the
// current inject strength. Scenario implements sim.Source.
func (s *Scenario) Apply(g *fluid.Grid, p fluid.Params, tick int) {
	for _, e := range s.Events {
		if len(e.Set) > 0 || !e.due(tick) {
			continue
		}
		strength := e.Strength
		if strength == 0 {
			strength = p.InjectStrength
		}
		g.Inject(e.X, e.Y, strength)
	}
}

// Control applies the parameter changes due at tick. A change that would
// make the parameters invalid is skipped and logged. Scenario implements
// sim.Controller.
func (s *Scenario) Control(tick int, p fluid.Params) fluid.Params {
	for _, e := range s.Events {
		if len(e.Set) == 0 || !e.due(tick) {
			continue
		}
		for _, name := range fluid.ParamNames() {
			v, ok := e.Set[name]
			if !ok {
				continue
			}
			next, err := p.Set(name, v)
			if err != nil {
				slog.Warn("scenario parameter rejected", "scenario", s.Name, "tick", tick, "param", name, "error", err)
				continue
			}
			p = next
		}
	}
	return p
}

// Config returns the run configuration for the scenario: base with the
// scenario's preset and tick count applied.
func (s *Scenario) Config(base *config.Config) *config.Config {
	cfg := base.Clone()
	if s.Preset != "" {
		cfg.ApplyPreset(config.Presets[s.Preset])
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	return cfg
}

// Attach registers the scenario with a runner as both source and controller.
func (s *Scenario) Attach(r *sim.Runner) {
	r.AddSource(s)
	r.AddController(s)
}

// RunScenario builds a runner from base and the scenario, then runs it
// headless for the configured number of ticks.
func RunScenario(ctx context.Context, s *Scenario, base *config.Config, metrics []sim.Metric, observers ...sim.Observer) (*sim.Result, *sim.Runner, error) {
	cfg := s.Config(base)
	r, err := sim.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	s.Attach(r)
	for _, m := range metrics {
		r.AddMetric(m)
	}
	for _, o := range observers {
		r.AddObserver(o)
	}

	slog.Info("running scenario", "name", s.Name, "ticks", cfg.Ticks, "events", len(s.Events))
	result, err := r.RunTicks(ctx, cfg.Ticks)
	if err != nil {
		return result, r, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return result, r, nil
}
