package sim

import (
	"sync"

	"github.com/san-kum/firesim/internal/fluid"
)

// SnapshotPool recycles snapshots of one resolution between frames.
type SnapshotPool struct {
	pool sync.Pool
	n    int
}

func NewSnapshotPool(n int) *SnapshotPool {
	return &SnapshotPool{
		n: n,
		pool: sync.Pool{
			New: func() interface{} {
				size := (n + 2) * (n + 2)
				return &fluid.Snapshot{
					N:           n,
					Density:     make([]float32, size),
					Temperature: make([]float32, size),
					U:           make([]float32, size),
					V:           make([]float32, size),
				}
			},
		},
	}
}

func (p *SnapshotPool) N() int { return p.n }

func (p *SnapshotPool) Get() *fluid.Snapshot {
	return p.pool.Get().(*fluid.Snapshot)
}

// Put returns s to the pool. Snapshots of another resolution are dropped so a
// resize never hands out a stale size.
func (p *SnapshotPool) Put(s *fluid.Snapshot) {
	if s == nil || s.N != p.n {
		return
	}
	p.pool.Put(s)
}

// Capture takes a pooled snapshot and fills it from r. After a resize the
// snapshot grows to the new size and will not be re-pooled.
func (p *SnapshotPool) Capture(r *Runner) *fluid.Snapshot {
	s := p.Get()
	r.Snapshot(s)
	return s
}
