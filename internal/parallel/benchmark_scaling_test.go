package parallel

import (
	"fmt"
	"runtime"
	"testing"
)

// These benchmarks measure how a fixed escape dispatch scales with the
// worker count. Run with:
//
//	go test -bench=BenchmarkScaling -benchmem ./internal/parallel/...
//
// Stealing should keep speedup close to linear until the worker count
// passes the physical core count.

// setMaxProcs sets GOMAXPROCS and returns a cleanup function to restore it.
func setMaxProcs(n int) func() {
	old := runtime.GOMAXPROCS(n)
	return func() {
		runtime.GOMAXPROCS(old)
	}
}

// scalingDispatch runs a 256-row grid dispatch on the given pool. Row cost
// is skewed the way a frontier grid skews it: most rows bail out quickly,
// a few iterate deep.
func scalingDispatch(p *Pool) {
	p.ForEach(256, func(row int) {
		iters := 32
		if row%16 == 0 {
			iters = 1024
		}
		benchSink.Add(iterateChunk(row*512, 512, iters))
	})
}

// BenchmarkScaling_Dispatch_1Worker benchmarks the dispatch with 1 worker.
func BenchmarkScaling_Dispatch_1Worker(b *testing.B) {
	cleanup := setMaxProcs(1)
	defer cleanup()

	p := NewPool(1)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		scalingDispatch(p)
	}
}

// BenchmarkScaling_Dispatch_2Workers benchmarks the dispatch with 2 workers.
func BenchmarkScaling_Dispatch_2Workers(b *testing.B) {
	cleanup := setMaxProcs(2)
	defer cleanup()

	p := NewPool(2)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		scalingDispatch(p)
	}
}

// BenchmarkScaling_Dispatch_4Workers benchmarks the dispatch with 4 workers.
func BenchmarkScaling_Dispatch_4Workers(b *testing.B) {
	cleanup := setMaxProcs(4)
	defer cleanup()

	p := NewPool(4)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		scalingDispatch(p)
	}
}

// BenchmarkScaling_Dispatch_8Workers benchmarks the dispatch with 8 workers.
func BenchmarkScaling_Dispatch_8Workers(b *testing.B) {
	cleanup := setMaxProcs(8)
	defer cleanup()

	p := NewPool(8)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		scalingDispatch(p)
	}
}

// BenchmarkScaling_Dispatch_MaxWorkers benchmarks the dispatch with all
// available cores.
func BenchmarkScaling_Dispatch_MaxWorkers(b *testing.B) {
	numCPU := runtime.NumCPU()
	cleanup := setMaxProcs(numCPU)
	defer cleanup()

	p := NewPool(numCPU)
	defer p.Close()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		scalingDispatch(p)
	}
}

// BenchmarkScalingEfficiency runs the same dispatch across worker counts as
// sub-benchmarks so efficiency can be read off one run.
// Parallel efficiency = (1-worker time / N-worker time) / N.
func BenchmarkScalingEfficiency(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8}

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("%dworkers", workers), func(b *testing.B) {
			cleanup := setMaxProcs(workers)
			defer cleanup()

			p := NewPool(workers)
			defer p.Close()

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				scalingDispatch(p)
			}
		})
	}
}
