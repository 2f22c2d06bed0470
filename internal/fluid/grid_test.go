package fluid

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	g, err := New(40)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if g.N() != 40 || g.Size() != 42 {
		t.Errorf("expected N=40 size=42, got N=%d size=%d", g.N(), g.Size())
	}

	fields := map[string][]float32{
		"u": g.u, "v": g.v, "uPrev": g.uPrev, "vPrev": g.vPrev,
		"dens": g.dens, "densPrev": g.densPrev, "temp": g.temp, "tempPrev": g.tempPrev,
		"pressure": g.pressure, "divergence": g.divergence,
	}
	for name, f := range fields {
		if len(f) != 42*42 {
			t.Errorf("%s: expected %d cells, got %d", name, 42*42, len(f))
		}
		for k, val := range f {
			if val != 0 {
				t.Fatalf("%s[%d] = %v, want 0", name, k, val)
			}
		}
	}
}

func TestNew_TooSmall(t *testing.T) {
	tests := []int{-1, 0, 16, MinN - 1}
	for _, n := range tests {
		_, err := New(n)
		if !errors.Is(err, ErrGridTooSmall) {
			t.Errorf("New(%d): expected ErrGridTooSmall, got %v", n, err)
		}
	}

	if _, err := New(MinN); err != nil {
		t.Errorf("New(%d) should succeed, got %v", MinN, err)
	}
}

func TestIndex(t *testing.T) {
	g, _ := New(32)
	if got := g.Index(0, 0); got != 0 {
		t.Errorf("Index(0,0) = %d", got)
	}
	if got := g.Index(3, 2); got != 3+2*34 {
		t.Errorf("Index(3,2) = %d, want %d", got, 3+2*34)
	}
	if got := g.Index(33, 33); got != g.Cells()-1 {
		t.Errorf("Index(33,33) = %d, want %d", got, g.Cells()-1)
	}
}

func TestSnapshot(t *testing.T) {
	g, _ := New(32)
	g.Inject(0.5, 0.5, 100)

	var snap Snapshot
	g.Snapshot(&snap)

	if snap.N != 32 || len(snap.Density) != g.Cells() {
		t.Fatalf("unexpected snapshot shape: N=%d len=%d", snap.N, len(snap.Density))
	}
	idx := snap.Index(17, 17)
	if snap.Density[idx] != g.dens[idx] || snap.Temperature[idx] != g.temp[idx] || snap.V[idx] != g.v[idx] {
		t.Error("snapshot does not match grid")
	}

	snap.Density[idx] = -1
	if g.dens[idx] == -1 {
		t.Error("snapshot shares memory with the grid")
	}

	buf := snap.Density
	g.Snapshot(&snap)
	if &buf[0] != &snap.Density[0] {
		t.Error("snapshot did not reuse its buffer")
	}
}

func TestSnapshot_GrowsForLargerGrid(t *testing.T) {
	small, _ := New(32)
	large, _ := New(64)

	var snap Snapshot
	small.Snapshot(&snap)
	large.Snapshot(&snap)

	if snap.N != 64 || len(snap.U) != large.Cells() {
		t.Errorf("expected snapshot of N=64 with %d cells, got N=%d with %d", large.Cells(), snap.N, len(snap.U))
	}
}

func TestResizeClearsState(t *testing.T) {
	g, _ := New(48)
	p := DefaultParams()
	for i := 0; i < 10; i++ {
		g.Inject(0.3, 0.2, 300)
		if err := g.Step(p); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	for _, n := range []int{32, 48, 64} {
		fresh, err := New(n)
		if err != nil {
			t.Fatalf("New(%d): %v", n, err)
		}
		var snap Snapshot
		fresh.Snapshot(&snap)
		for _, f := range [][]float32{snap.Density, snap.Temperature, snap.U, snap.V} {
			for k, val := range f {
				if val != 0 {
					t.Fatalf("N=%d: cell %d = %v after reinitialization", n, k, val)
				}
			}
		}
	}
}
