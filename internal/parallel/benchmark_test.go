package parallel

import (
	"sync/atomic"
	"testing"
)

// benchSink keeps the compiler from eliding benchmark work.
var benchSink atomic.Int64

// iterateChunk runs the quadratic map over a synthetic chunk of points. It
// stands in for one rank's escape pass so dispatch overhead is measured
// against work shaped like the real thing.
func iterateChunk(start, count, iters int) int64 {
	var settled int64
	for k := start; k < start+count; k++ {
		cx := -2.0 + 3.0*float64(k%1024)/1024.0
		cy := -1.5 + 3.0*float64(k/1024%1024)/1024.0
		x, y := cx, cy
		i := 0
		for ; i < iters; i++ {
			if x*x+y*y >= 4.0 {
				break
			}
			x, y = x*x-y*y+cx, 2*x*y+cy
		}
		if i == iters {
			settled++
		}
	}
	return settled
}

// BenchmarkPoolCreate benchmarks starting and stopping a pool.
func BenchmarkPoolCreate(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := NewPool(0) // GOMAXPROCS workers
		p.Close()
	}
}

// BenchmarkExecuteAll_10 benchmarks dispatching 10 empty closures.
func BenchmarkExecuteAll_10(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	work := make([]func(), 10)
	for i := range work {
		work[i] = func() {}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ExecuteAll(work)
	}
}

// BenchmarkExecuteAll_100 benchmarks dispatching 100 empty closures.
func BenchmarkExecuteAll_100(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	work := make([]func(), 100)
	for i := range work {
		work[i] = func() {}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ExecuteAll(work)
	}
}

// BenchmarkExecuteAll_1000 benchmarks dispatching 1000 empty closures.
// Rank counts well beyond the worker count exercise queue backpressure.
func BenchmarkExecuteAll_1000(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	work := make([]func(), 1000)
	for i := range work {
		work[i] = func() {}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ExecuteAll(work)
	}
}

// BenchmarkExecuteAll_EscapeChunks benchmarks a dispatch whose closures do
// real per-point iteration, one chunk of a 64K-point grid per closure.
func BenchmarkExecuteAll_EscapeChunks(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	const (
		points = 64 * 1024
		chunks = 64
		iters  = 64
	)
	perChunk := points / chunks

	work := make([]func(), chunks)
	for i := range work {
		start := i * perChunk
		work[i] = func() {
			benchSink.Add(iterateChunk(start, perChunk, iters))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ExecuteAll(work)
	}
}

// BenchmarkForEach_Ranks benchmarks the parallel-for at a typical rank count.
func BenchmarkForEach_Ranks(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ForEach(64, func(int) {})
	}
}

// BenchmarkForEach_Rows benchmarks the parallel-for at grid-row granularity,
// the shape of a full-grid escape dispatch.
func BenchmarkForEach_Rows(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	const (
		rows  = 1024
		cols  = 1024
		iters = 16
	)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ForEach(rows, func(row int) {
			benchSink.Add(iterateChunk(row*cols, cols, iters))
		})
	}
}

// BenchmarkForEach_UnevenRanks benchmarks stealing under skewed rank cost:
// a handful of ranks carry almost all the iteration work, as happens when a
// few ranks own the seeds nearest the set boundary.
func BenchmarkForEach_UnevenRanks(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.ForEach(32, func(rank int) {
			iters := 8
			if rank%8 == 0 {
				iters = 512
			}
			benchSink.Add(iterateChunk(rank*256, 256, iters))
		})
	}
}
