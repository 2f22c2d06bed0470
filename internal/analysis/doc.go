// Package analysis looks for periodic behaviour in recorded run statistics.
//
// A steady fire puffs: its mass and peak temperature oscillate as blobs of
// hot smoke detach from the source. [DominantPeriod] finds the strongest of
// those oscillations from a stats column:
//
//	f := analysis.DominantPeriod(storage.Column(rows, "mass"), recordEvery)
//	if f.Period > 0 {
//	    // one puff every f.Period ticks
//	}
package analysis
