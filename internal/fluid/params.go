package fluid

import (
	"fmt"
	"math"
)

// Params holds the tunable solver parameters. They are read once at the start
// of every tick, so changes apply from the next tick on.
type Params struct {
	Dt               float32
	Viscosity        float32
	Diffusion        float32
	Buoyancy         float32
	InjectStrength   float32
	TemperatureDecay float32
}

// DefaultParams returns the solver's stock settings.
func DefaultParams() Params {
	return Params{
		Dt:               0.08,
		Viscosity:        0.04,
		Diffusion:        0.0001,
		Buoyancy:         0.1,
		InjectStrength:   300,
		TemperatureDecay: 0.09,
	}
}

// Validate rejects non-finite values, a non-positive timestep and negative
// rates. Buoyancy may take either sign.
func (p Params) Validate() error {
	checks := []struct {
		name     string
		value    float32
		positive bool
		signed   bool
	}{
		{"dt", p.Dt, true, false},
		{"viscosity", p.Viscosity, false, false},
		{"diffusion", p.Diffusion, false, false},
		{"buoyancy", p.Buoyancy, false, true},
		{"inject_strength", p.InjectStrength, false, false},
		{"temperature_decay", p.TemperatureDecay, false, false},
	}
	for _, c := range checks {
		v := float64(c.value)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return &ParamError{Name: c.name, Value: v, Wrapped: ErrNonFinite}
		case c.positive && v <= 0:
			return &ParamError{Name: c.name, Value: v, Wrapped: ErrParameterBounds}
		case !c.signed && v < 0:
			return &ParamError{Name: c.name, Value: v, Wrapped: ErrParameterBounds}
		}
	}
	return nil
}

// ParamNames lists the names accepted by Get and Set, in display order.
func ParamNames() []string {
	return []string{"dt", "viscosity", "diffusion", "buoyancy", "inject_strength", "temperature_decay"}
}

func (p *Params) field(name string) *float32 {
	switch name {
	case "dt":
		return &p.Dt
	case "viscosity":
		return &p.Viscosity
	case "diffusion":
		return &p.Diffusion
	case "buoyancy":
		return &p.Buoyancy
	case "inject_strength":
		return &p.InjectStrength
	case "temperature_decay":
		return &p.TemperatureDecay
	}
	return nil
}

func (p Params) Get(name string) (float32, error) {
	f := p.field(name)
	if f == nil {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return *f, nil
}

// Set returns a copy of p with one named parameter changed. The result is
// validated, so p is never replaced by something Step would reject.
func (p Params) Set(name string, v float32) (Params, error) {
	next := p
	f := next.field(name)
	if f == nil {
		return p, fmt.Errorf("unknown parameter %q", name)
	}
	*f = v
	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}
