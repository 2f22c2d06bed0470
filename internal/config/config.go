package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/render"
)

const (
	DefaultGrid             = 100
	DefaultDt               = 0.08
	DefaultViscosity        = 0.04
	DefaultDiffusion        = 0.0001
	DefaultBuoyancy         = 0.1
	DefaultInjectStrength   = 300
	DefaultTemperatureDecay = 0.09
	DefaultGamma            = 0.7
	DefaultBlueTint         = 30
	DefaultTickInterval     = 15 * time.Millisecond
	DefaultWanderEvery      = 2
	DefaultTicks            = 600
	DefaultRecordEvery      = 10
)

const (
	OrientationRising  = "rising"
	OrientationFalling = "falling"
)

type Config struct {
	Grid             int           `yaml:"grid"`
	Dt               float32       `yaml:"dt"`
	Viscosity        float32       `yaml:"viscosity"`
	Diffusion        float32       `yaml:"diffusion"`
	Buoyancy         float32       `yaml:"buoyancy"`
	InjectStrength   float32       `yaml:"inject_strength"`
	TemperatureDecay float32       `yaml:"temperature_decay"`
	Orientation      string        `yaml:"orientation"`
	SteadySource     bool          `yaml:"steady_source"`
	Wander           bool          `yaml:"wander"`
	WanderEvery      int           `yaml:"wander_every"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	Gamma            float32       `yaml:"gamma"`
	BlueTint         int           `yaml:"blue_tint"`
	Seed             int64         `yaml:"seed"`
	Ticks            int           `yaml:"ticks"`
	RecordEvery      int           `yaml:"record_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid:             DefaultGrid,
		Dt:               DefaultDt,
		Viscosity:        DefaultViscosity,
		Diffusion:        DefaultDiffusion,
		Buoyancy:         DefaultBuoyancy,
		InjectStrength:   DefaultInjectStrength,
		TemperatureDecay: DefaultTemperatureDecay,
		Orientation:      OrientationRising,
		SteadySource:     true,
		Wander:           true,
		WanderEvery:      DefaultWanderEvery,
		TickInterval:     DefaultTickInterval,
		Gamma:            DefaultGamma,
		BlueTint:         DefaultBlueTint,
		Seed:             1,
		Ticks:            DefaultTicks,
		RecordEvery:      DefaultRecordEvery,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate raises the grid to fluid.MinN and rejects values the solver or
// the renderer cannot use.
func (c *Config) Validate() error {
	if c.Grid < fluid.MinN {
		c.Grid = fluid.MinN
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Orientation != OrientationRising && c.Orientation != OrientationFalling {
		return fmt.Errorf("orientation %q: %w", c.Orientation, fluid.ErrParameterBounds)
	}
	if g := float64(c.Gamma); math.IsNaN(g) || math.IsInf(g, 0) || g <= 0 {
		return &fluid.ParamError{Name: "gamma", Value: g, Wrapped: fluid.ErrParameterBounds}
	}
	if c.BlueTint < 0 || c.BlueTint > 255 {
		return &fluid.ParamError{Name: "blue_tint", Value: float64(c.BlueTint), Wrapped: fluid.ErrParameterBounds}
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("tick_interval %v: %w", c.TickInterval, fluid.ErrParameterBounds)
	}
	if c.WanderEvery < 1 {
		c.WanderEvery = 1
	}
	if c.RecordEvery < 1 {
		c.RecordEvery = 1
	}
	return nil
}

func (c *Config) Params() fluid.Params {
	return fluid.Params{
		Dt:               c.Dt,
		Viscosity:        c.Viscosity,
		Diffusion:        c.Diffusion,
		Buoyancy:         c.Buoyancy,
		InjectStrength:   c.InjectStrength,
		TemperatureDecay: c.TemperatureDecay,
	}
}

// SetParams copies solver parameters back, e.g. after live tuning.
func (c *Config) SetParams(p fluid.Params) {
	c.Dt = p.Dt
	c.Viscosity = p.Viscosity
	c.Diffusion = p.Diffusion
	c.Buoyancy = p.Buoyancy
	c.InjectStrength = p.InjectStrength
	c.TemperatureDecay = p.TemperatureDecay
}

// Edge is the wall the sources sit on: the bottom for rising smoke, the top
// for falling smoke.
func (c *Config) Edge() fluid.Edge {
	if c.Orientation == OrientationFalling {
		return fluid.EdgeTop
	}
	return fluid.EdgeBottom
}

func (c *Config) Palette() render.Palette {
	return render.Palette{Gamma: c.Gamma, BlueTint: uint8(c.BlueTint)}
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
