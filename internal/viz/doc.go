// Package viz provides the terminal live view of the smoke simulation.
//
// The view is a Bubble Tea program that draws the fire field with half-block
// characters, two grid rows per terminal line, next to a panel of tick rate,
// metrics and tunable parameters. The simulation itself runs on its own
// goroutine; the view only snapshots the grid once per frame.
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	R      - Reset the fields
//	O      - Toggle rising/falling orientation
//	Tab    - Select next parameter
//	Up/K   - Increase parameter (+5%)
//	Down/J - Decrease parameter (-5%)
//	+/-    - Grow or shrink the grid
//	G      - Toggle GIF recording
//	S      - Save a PNG of the current frame
//	?      - Show help overlay
//
// Click or drag with the left mouse button to inject smoke.
package viz
