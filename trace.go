package brot

import "fmt"

// HistArena owns the orbit-visit histograms for one trace run: a single
// contiguous allocation split into one private slice per rank, plus a merged
// buffer of the same bin count. Ranks write only their own slice, so trace
// kernels need no locks or atomics; Merge sums the private slices afterward.
//
// Bins are x-major within a slice: bin (xi, yi) lives at xi*steps + yi.
// The rendering path compensates with a 270 degree rotation.
type HistArena struct {
	counts []int32 // ranks * steps * steps, rank-contiguous
	merged []int32 // steps * steps
	ranks  int
	steps  int
}

// NewHistArena allocates an arena of private histograms. ranks is clamped
// to [1, MaxRenderBufs]; the cap keeps arena memory under the render-buffer
// ceiling regardless of pool size.
func NewHistArena(ranks, steps int) *HistArena {
	if ranks < 1 {
		ranks = 1
	}
	if ranks > MaxRenderBufs {
		ranks = MaxRenderBufs
	}
	bins := steps * steps
	return &HistArena{
		counts: make([]int32, ranks*bins),
		merged: make([]int32, bins),
		ranks:  ranks,
		steps:  steps,
	}
}

// Ranks returns the number of private histograms.
func (a *HistArena) Ranks() int { return a.ranks }

// Steps returns the grid side length.
func (a *HistArena) Steps() int { return a.steps }

// Rank returns rank r's private histogram slice. Slices of distinct ranks
// never overlap.
func (a *HistArena) Rank(r int) []int32 {
	bins := a.steps * a.steps
	return a.counts[r*bins : (r+1)*bins : (r+1)*bins]
}

// Merge sums the private histograms into the merged buffer and returns it.
// Addition is commutative and associative, so the result is independent of
// rank order; callers must only ensure the dispatch writing the private
// slices has completed. The returned slice stays owned by the arena and is
// overwritten by the next Merge.
func (a *HistArena) Merge() []int32 {
	bins := a.steps * a.steps
	for k := range a.merged {
		a.merged[k] = 0
	}
	for r := 0; r < a.ranks; r++ {
		priv := a.counts[r*bins : (r+1)*bins]
		for k, c := range priv {
			a.merged[k] += c
		}
	}
	return a.merged
}

// Reset zeroes every private histogram and the merged buffer so the arena
// can accumulate a fresh trace.
func (a *HistArena) Reset() {
	for i := range a.counts {
		a.counts[i] = 0
	}
	for i := range a.merged {
		a.merged[i] = 0
	}
}

// UnboundedIters is the sentinel budget for traceStep and Engine.Trace:
// a negative budget disables the iteration cap, so a seed's trace ends only
// when its orbit escapes.
const UnboundedIters int32 = -1

// traceStep re-iterates the orbits of one rank's seeds, binning every
// visited point into the rank's private histogram. Seeds are partitioned by
// stride: rank r owns seeds r, r+ranks, r+2*ranks, ... so every seed belongs
// to exactly one rank, and with hist being the rank's own arena slice the
// kernel touches no state any other rank can see.
//
// Per seed, at most budget recurrence steps run in one call. Before each
// step the orbit is checked for escape and, when maxIters is non-negative,
// for budget exhaustion (Iters >= maxIters); either settles the seed. Each
// step bins the new position via v.Bin, dropping points outside the
// viewport. Settled seeds are skipped, and a seed's resumable state
// (X, Y, Iters) carries across calls.
//
// Returns the number of the rank's seeds still unfinished.
func traceStep(b *PointBuffer, rank, ranks int, hist []int32, v Viewport, maxIters int32, budget int) int {
	steps := v.Steps
	n := b.Len()
	unfinished := 0
	for s := rank; s < n; s += ranks {
		if b.Done[s] != 0 {
			continue
		}
		x0, y0 := b.X0[s], b.Y0[s]
		x, y := b.X[s], b.Y[s]
		it := b.Iters[s]
		done := false
		for n := 0; n < budget; n++ {
			if x*x+y*y >= 4.0 {
				done = true
				break
			}
			if maxIters >= 0 && it >= maxIters {
				done = true
				break
			}
			x, y = x*x-y*y+x0, 2*x*y+y0
			it++
			if xi, yi, ok := v.Bin(x, y); ok {
				hist[xi*steps+yi]++
			}
		}
		b.X[s], b.Y[s] = x, y
		b.Iters[s] = it
		if done {
			b.Done[s] = 1
		} else {
			unfinished++
		}
	}
	return unfinished
}

// checkArena verifies an arena matches the viewport it will accumulate for.
func checkArena(a *HistArena, v Viewport) error {
	if a.steps != v.Steps {
		return fmt.Errorf("brot: arena steps %d does not match viewport steps %d", a.steps, v.Steps)
	}
	return nil
}
