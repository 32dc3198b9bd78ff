package brot

// The quadratic recurrence at the core of every kernel:
//
//	x' = x*x - y*y + x0
//	y' = 2*x*y + y0
//
// A point escapes when its squared modulus reaches 4.0 (modulus 2); orbits
// that stay below the radius for max_iters steps are classified in-set.

// escapeStep advances points [lo, hi) through the recurrence, at most budget
// steps per point. The escape test runs before each step, so Iters holds the
// exact step count at which the orbit first left the radius, never a value
// rounded up to a pass boundary. Points whose Iters reach maxIters settle as
// in-set candidates.
//
// Settled points are skipped, which makes re-invocation idempotent: the pass
// leaves X, Y, Iters and Done of a done point untouched. Unfinished points
// keep their resumable (X, Y, Iters) state for the next pass.
//
// Returns the number of points in the range still unfinished after the pass.
func escapeStep(b *PointBuffer, lo, hi int, maxIters int32, budget int) int {
	unfinished := 0
	for k := lo; k < hi; k++ {
		if b.Done[k] != 0 {
			continue
		}
		x0, y0 := b.X0[k], b.Y0[k]
		x, y := b.X[k], b.Y[k]
		it := b.Iters[k]
		done := false
		for n := 0; n < budget; n++ {
			if x*x+y*y >= 4.0 {
				done = true
				break
			}
			if it >= maxIters {
				done = true
				break
			}
			x, y = x*x-y*y+x0, 2*x*y+y0
			it++
		}
		b.X[k], b.Y[k] = x, y
		b.Iters[k] = it
		if done {
			b.Done[k] = 1
		} else {
			unfinished++
		}
	}
	return unfinished
}
