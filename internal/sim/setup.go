package sim

import (
	"github.com/san-kum/firesim/internal/config"
)

// NewFromConfig builds a runner for cfg with the sources it asks for. cfg is
// validated first.
func NewFromConfig(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := New(cfg.Grid, cfg.Params())
	if err != nil {
		return nil, err
	}
	r.SetSources(Sources(cfg)...)
	return r, nil
}

// Sources returns the steady and wandering sources cfg enables, placed on the
// edge its orientation implies.
func Sources(cfg *config.Config) []Source {
	var src []Source
	edge := cfg.Edge()
	if cfg.SteadySource {
		src = append(src, SteadySource{Edge: edge})
	}
	if cfg.Wander {
		src = append(src, NewWanderSource(edge, cfg.Seed, cfg.WanderEvery))
	}
	return src
}
