package brot

import (
	"math/rand"
	"testing"
)

func TestSampleCellsWithinCellBounds(t *testing.T) {
	v := testViewport(8)
	cells := []Cell{{I: 1, J: 2}, {I: 3, J: 4}, {I: 6, J: 0}}
	rng := rand.New(rand.NewSource(42))

	b := SampleCells(v, cells, 10, rng)

	perCell := 1 + 10/len(cells)
	if want := perCell * len(cells); b.Len() != want {
		t.Fatalf("Len() = %d, want %d", b.Len(), want)
	}

	dx, dy := v.DX(), v.DY()
	for k := 0; k < b.Len(); k++ {
		// Round-major order: sample k belongs to cells[k % len(cells)].
		c := cells[k%len(cells)]
		xLo, yLo := v.GridX(c.J), v.GridY(c.I)
		if b.X0[k] < xLo || b.X0[k] >= xLo+dx {
			t.Errorf("sample %d: x = %v outside cell %v x-range [%v, %v)", k, b.X0[k], c, xLo, xLo+dx)
		}
		if b.Y0[k] < yLo || b.Y0[k] >= yLo+dy {
			t.Errorf("sample %d: y = %v outside cell %v y-range [%v, %v)", k, b.Y0[k], c, yLo, yLo+dy)
		}
	}
}

func TestSampleCellsDeterministicForSeed(t *testing.T) {
	v := testViewport(8)
	cells := []Cell{{I: 2, J: 2}, {I: 5, J: 1}}

	a := SampleCells(v, cells, 20, rand.New(rand.NewSource(7)))
	b := SampleCells(v, cells, 20, rand.New(rand.NewSource(7)))

	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for k := 0; k < a.Len(); k++ {
		if a.X0[k] != b.X0[k] || a.Y0[k] != b.Y0[k] {
			t.Fatalf("sample %d differs between identical seeds", k)
		}
	}

	c := SampleCells(v, cells, 20, rand.New(rand.NewSource(8)))
	same := true
	for k := 0; k < a.Len(); k++ {
		if a.X0[k] != c.X0[k] {
			same = false
			break
		}
	}
	if same {
		t.Error("different RNG seeds produced identical samples")
	}
}

func TestSampleCellsAtLeastOnePerCell(t *testing.T) {
	v := testViewport(8)
	cells := []Cell{{I: 0, J: 0}, {I: 1, J: 1}, {I: 2, J: 2}}

	// Fewer samples than cells still covers every cell once.
	b := SampleCells(v, cells, 0, rand.New(rand.NewSource(1)))
	if b.Len() != len(cells) {
		t.Errorf("Len() = %d, want %d", b.Len(), len(cells))
	}
}

func TestFilterSeedsStrictBounds(t *testing.T) {
	const minIters, maxIters = int32(100), int32(500)

	b := NewPointBuffer(
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5},
		[]float64{1.1, 1.2, 1.3, 1.4, 1.5},
	)
	b.Iters = []int32{minIters, minIters + 1, maxIters - 1, maxIters, 300}
	// FilterSeeds must report the original points, not the orbit positions.
	for k := range b.X {
		b.X[k], b.Y[k] = 99, 99
	}

	seeds := FilterSeeds(b, minIters, maxIters)

	want := []Seed{
		{X: 0.2, Y: 1.2, OrbitLength: minIters + 1},
		{X: 0.3, Y: 1.3, OrbitLength: maxIters - 1},
		{X: 0.5, Y: 1.5, OrbitLength: 300},
	}
	if len(seeds) != len(want) {
		t.Fatalf("FilterSeeds() kept %d seeds, want %d: %v", len(seeds), len(want), seeds)
	}
	for i := range want {
		if seeds[i] != want[i] {
			t.Errorf("seed %d = %v, want %v", i, seeds[i], want[i])
		}
	}
}

func TestFilterSeedsNoneQualify(t *testing.T) {
	b := NewPointBuffer([]float64{1, 2}, []float64{3, 4})
	b.Iters = []int32{10, 500}

	if seeds := FilterSeeds(b, 100, 500); len(seeds) != 0 {
		t.Errorf("FilterSeeds() = %v, want none", seeds)
	}
}
