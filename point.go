package brot

// PointBuffer holds the evaluation state of a set of plane points in
// structure-of-arrays layout, mirroring the device buffers of a compute
// dispatch. All six slices share one length.
//
// (X0, Y0) are the immutable plane coordinates of each point. (X, Y) are the
// current orbit position, Iters the number of recurrence steps taken so far,
// and Done whether the point has settled. Together they make evaluation
// resumable: a kernel can stop mid-orbit after its loop budget and a later
// dispatch continues exactly where it left off.
//
// Done is monotonic. Kernels only ever set it; nothing clears it except the
// host calling ResetDone between animation checkpoints. Once a point is
// done, its X, Y and Iters are frozen and re-evaluation is a no-op.
type PointBuffer struct {
	X0, Y0 []float64
	X, Y   []float64
	Iters  []int32
	Done   []int32
}

// NewPointBuffer creates a buffer over arbitrary plane points. The orbit
// position starts at the point itself. xs and ys must have equal length;
// both are copied.
func NewPointBuffer(xs, ys []float64) *PointBuffer {
	if len(xs) != len(ys) {
		panic("brot: coordinate slices differ in length")
	}
	n := len(xs)
	b := &PointBuffer{
		X0:    make([]float64, n),
		Y0:    make([]float64, n),
		X:     make([]float64, n),
		Y:     make([]float64, n),
		Iters: make([]int32, n),
		Done:  make([]int32, n),
	}
	copy(b.X0, xs)
	copy(b.Y0, ys)
	copy(b.X, xs)
	copy(b.Y, ys)
	return b
}

// NewGridBuffer creates a buffer covering the viewport grid in row-major
// order: index k = yi*Steps + xi maps to the plane point
// (GridX(xi), GridY(yi)).
func NewGridBuffer(v Viewport) *PointBuffer {
	n := v.Steps * v.Steps
	b := &PointBuffer{
		X0:    make([]float64, n),
		Y0:    make([]float64, n),
		X:     make([]float64, n),
		Y:     make([]float64, n),
		Iters: make([]int32, n),
		Done:  make([]int32, n),
	}
	dx, dy := v.DX(), v.DY()
	k := 0
	for yi := 0; yi < v.Steps; yi++ {
		y := v.YMin + float64(yi)*dy
		for xi := 0; xi < v.Steps; xi++ {
			x := v.XMin + float64(xi)*dx
			b.X0[k] = x
			b.Y0[k] = y
			b.X[k] = x
			b.Y[k] = y
			k++
		}
	}
	return b
}

// NewSeedBuffer creates a buffer over persisted trace seeds.
func NewSeedBuffer(seeds []Seed) *PointBuffer {
	xs := make([]float64, len(seeds))
	ys := make([]float64, len(seeds))
	for i, s := range seeds {
		xs[i] = s.X
		ys[i] = s.Y
	}
	return NewPointBuffer(xs, ys)
}

// Len returns the number of points in the buffer.
func (b *PointBuffer) Len() int { return len(b.X0) }

// AllDone reports whether every point has settled.
func (b *PointBuffer) AllDone() bool {
	for _, d := range b.Done {
		if d == 0 {
			return false
		}
	}
	return true
}

// Unfinished returns the number of points still in flight.
func (b *PointBuffer) Unfinished() int {
	n := 0
	for _, d := range b.Done {
		if d == 0 {
			n++
		}
	}
	return n
}

// ResetDone clears every Done flag while keeping X, Y and Iters, so the
// next dispatch resumes all orbits where they stopped. Used between
// animation checkpoints: each checkpoint raises the iteration budget and
// re-releases the settled points.
func (b *PointBuffer) ResetDone() {
	for i := range b.Done {
		b.Done[i] = 0
	}
}

// Point returns the state of point k. Primarily for tests and debugging.
func (b *PointBuffer) Point(k int) (x0, y0, x, y float64, iters int32, done bool) {
	return b.X0[k], b.Y0[k], b.X[k], b.Y[k], b.Iters[k], b.Done[k] != 0
}
