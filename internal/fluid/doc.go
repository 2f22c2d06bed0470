// Package fluid implements a stable-fluids solver for smoke and fire on a
// square grid.
//
// The grid stores every field as a flat float32 slice of (N+2)*(N+2) cells;
// the outer ring of cells holds boundary values. The main types are:
//
//   - [Grid]: field storage, the tick pipeline and disturbance injection
//   - [Params]: tunable solver parameters, passed explicitly to [Grid.Step]
//   - [Kind]: selects how [Grid.ApplyBounds] treats a field at the walls
//   - [Snapshot]: caller-owned copy of the fields for presentation
//
// # Example
//
//	g, _ := fluid.New(100)
//	g.Inject(0.5, 0.1, 300)
//	g.Step(fluid.DefaultParams())
//	var snap fluid.Snapshot
//	g.Snapshot(&snap)
//
// # Thread Safety
//
// Grid is NOT thread-safe. The sim package serializes ticks, injections and
// resizes behind a single lock.
package fluid
