package brot

import "math/rand"

// SampleCells scatters jittered sample points over the frontier cells:
// every cell receives perCell = 1 + samples/len(cells) points uniformly
// distributed inside it, at least one even when samples is small. Sampling
// is round-major — one point per cell, then a second per cell, and so on —
// so truncating the buffer still covers all cells evenly.
//
// The caller owns rng; a fixed-seed source makes the sample set, and
// everything downstream of it, reproducible.
func SampleCells(v Viewport, cells []Cell, samples int, rng *rand.Rand) *PointBuffer {
	perCell := 1 + samples/len(cells)
	n := perCell * len(cells)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	dx, dy := v.DX(), v.DY()
	for r := 0; r < perCell; r++ {
		for _, c := range cells {
			xs = append(xs, v.GridX(c.J)+rng.Float64()*dx)
			ys = append(ys, v.GridY(c.I)+rng.Float64()*dy)
		}
	}
	return NewPointBuffer(xs, ys)
}

// FilterSeeds retains the evaluated samples whose orbit length lies strictly
// between minIters and maxIters, in buffer order. Short orbits stay too
// close to the frontier cell to add detail; orbits at the cap never escaped
// and would trace forever.
func FilterSeeds(b *PointBuffer, minIters, maxIters int32) []Seed {
	var seeds []Seed
	for k := range b.Iters {
		if it := b.Iters[k]; it > minIters && it < maxIters {
			seeds = append(seeds, Seed{X: b.X0[k], Y: b.Y0[k], OrbitLength: it})
		}
	}
	return seeds
}
