package brot

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/gogpu/brot/internal/parallel"
)

// EngineOption configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Default engine: pool sized to GOMAXPROCS, chunk budget MaxLoops
//	eng := brot.NewEngine()
//	defer eng.Close()
//
//	// Custom dispatch width and chunk budget
//	eng := brot.NewEngine(brot.WithRanks(64), brot.WithLoopBudget(1000))
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	workers    int
	ranks      int
	loopBudget int
	pool       *parallel.Pool
}

// defaultEngineOptions returns the default engine options.
func defaultEngineOptions() engineOptions {
	return engineOptions{
		workers:    0, // pool picks GOMAXPROCS
		ranks:      0, // resolved from the pool in NewEngine
		loopBudget: MaxLoops,
	}
}

// WithWorkers sets the worker count of the engine's own pool. It has no
// effect when WithPool supplies an external pool.
func WithWorkers(n int) EngineOption {
	return func(o *engineOptions) {
		o.workers = n
	}
}

// WithRanks sets the dispatch width: the number of independent shards a
// kernel call is split into. More ranks than workers gives the pool's
// stealing room to balance uneven orbit costs; values above MaxRenderBufs
// are clamped so trace arenas stay under the render-buffer memory ceiling.
func WithRanks(n int) EngineOption {
	return func(o *engineOptions) {
		o.ranks = n
	}
}

// WithLoopBudget sets the per-call iteration budget of the chunked kernels.
// Smaller budgets mean more frequent returns to the host loop (finer
// progress logging and cancellation); the default is MaxLoops.
func WithLoopBudget(n int) EngineOption {
	return func(o *engineOptions) {
		o.loopBudget = n
	}
}

// WithPool runs the engine on an externally owned pool. The engine will not
// close it; use this to share one pool across engines.
func WithPool(p *parallel.Pool) EngineOption {
	return func(o *engineOptions) {
		o.pool = p
	}
}

// Engine runs the escape-time and orbit-trace kernels over point buffers,
// dispatching shards onto a worker pool and falling back from a registered
// accelerator to the CPU kernels when needed.
//
// The chunked entry points (IterateChunk, TraceChunk) run every unfinished
// point for at most the loop budget and report convergence; the plain
// entry points (Iterate, Trace) wrap them in the host loop that re-dispatches
// until every point settles, checking the context between passes.
//
// Thread safety: an Engine is safe for concurrent use, but the point buffers
// and arenas passed to it are not; never share one buffer between
// overlapping calls.
type Engine struct {
	pool       *parallel.Pool
	ownsPool   bool
	ranks      int
	loopBudget int
}

// NewEngine creates an Engine. Without options it builds its own
// GOMAXPROCS-sized pool and over-decomposes dispatches four ranks per
// worker.
func NewEngine(opts ...EngineOption) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pool := o.pool
	owns := false
	if pool == nil {
		pool = parallel.NewPool(o.workers)
		owns = true
	}

	ranks := o.ranks
	if ranks <= 0 {
		ranks = pool.Workers() * 4
	}
	if ranks > MaxRenderBufs {
		ranks = MaxRenderBufs
	}

	budget := o.loopBudget
	if budget <= 0 {
		budget = MaxLoops
	}

	return &Engine{
		pool:       pool,
		ownsPool:   owns,
		ranks:      ranks,
		loopBudget: budget,
	}
}

// Close releases the engine's pool if the engine owns it. Engines sharing
// an external pool leave it running.
func (e *Engine) Close() {
	if e.ownsPool {
		e.pool.Close()
	}
}

// Ranks returns the dispatch width.
func (e *Engine) Ranks() int { return e.ranks }

// LoopBudget returns the per-call iteration budget of the chunked kernels.
func (e *Engine) LoopBudget() int { return e.loopBudget }

// shardBounds splits n points into the engine's ranks by contiguous range
// and returns shard r's half-open bounds. Shards cover [0, n) exactly; when
// n < ranks the tail shards are empty.
func (e *Engine) shardBounds(n, r int) (lo, hi int) {
	per := (n + e.ranks - 1) / e.ranks
	lo = r * per
	hi = lo + per
	if lo > n {
		lo = n
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// IterateChunk advances every unfinished point of b by at most the loop
// budget of escape-time steps and reports whether the whole buffer has
// settled (every point escaped or reached maxIters). Call it repeatedly to
// interleave work with checkpoints, or use Iterate for the full loop.
//
// When an accelerator is registered and can take the work, the chunk runs
// there; ErrFallbackToCPU from the accelerator silently reroutes to the CPU
// kernels, any other error is returned.
func (e *Engine) IterateChunk(ctx context.Context, b *PointBuffer, maxIters int32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n := b.Len()
	if n == 0 {
		return true, nil
	}

	if acc := Accelerator(); acc != nil && acc.CanAccelerate(AccelIterate) {
		converged, err := acc.Iterate(b, maxIters, e.loopBudget)
		if err == nil {
			return converged, nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			return false, err
		}
		Logger().Debug("accelerator declined iterate chunk, using CPU", "accelerator", acc.Name(), "reason", err)
	}

	var unfinished atomic.Int64
	e.pool.ForEach(e.ranks, func(r int) {
		lo, hi := e.shardBounds(n, r)
		if lo >= hi {
			return
		}
		unfinished.Add(int64(escapeStep(b, lo, hi, maxIters, e.loopBudget)))
	})
	return unfinished.Load() == 0, nil
}

// Iterate runs escape-time iteration to completion: chunk after chunk until
// every point of b has escaped or reached maxIters. It returns the number of
// chunk passes taken. The context is checked between passes, so a running
// kernel finishes its budget before cancellation is observed.
func (e *Engine) Iterate(ctx context.Context, b *PointBuffer, maxIters int32) (int, error) {
	passes := 0
	for {
		converged, err := e.IterateChunk(ctx, b, maxIters)
		passes++
		if err != nil {
			return passes, err
		}
		Logger().Debug("escape iteration pass", "pass", passes, "iters", passes*e.loopBudget)
		if converged {
			return passes, nil
		}
	}
}

// TraceChunk advances every unfinished seed orbit of b by at most the loop
// budget, accumulating visited points into the arena's private histograms,
// and reports whether every seed has settled. maxIters bounds each orbit's
// iteration count; pass UnboundedIters to trace until escape. The arena must
// match the viewport's grid.
//
// Seed s is owned by rank s mod arena.Ranks(), so concurrent shards never
// share seed state or histogram bins.
func (e *Engine) TraceChunk(ctx context.Context, b *PointBuffer, arena *HistArena, v Viewport, maxIters int32) (bool, error) {
	if err := checkArena(arena, v); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if b.Len() == 0 {
		return true, nil
	}

	if acc := Accelerator(); acc != nil && acc.CanAccelerate(AccelTrace) {
		converged, err := acc.Trace(b, arena, v, maxIters, e.loopBudget)
		if err == nil {
			return converged, nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			return false, err
		}
		Logger().Debug("accelerator declined trace chunk, using CPU", "accelerator", acc.Name(), "reason", err)
	}

	ranks := arena.Ranks()
	var unfinished atomic.Int64
	e.pool.ForEach(ranks, func(r int) {
		unfinished.Add(int64(traceStep(b, r, ranks, arena.Rank(r), v, maxIters, e.loopBudget)))
	})
	return unfinished.Load() == 0, nil
}

// Trace runs orbit tracing to completion: chunk after chunk until every
// seed of b has settled, accumulating into arena. It returns the number of
// chunk passes taken. The context is checked between passes.
func (e *Engine) Trace(ctx context.Context, b *PointBuffer, arena *HistArena, v Viewport, maxIters int32) (int, error) {
	passes := 0
	for {
		converged, err := e.TraceChunk(ctx, b, arena, v, maxIters)
		passes++
		if err != nil {
			return passes, err
		}
		Logger().Debug("orbit trace pass", "pass", passes, "iters", passes*e.loopBudget)
		if converged {
			return passes, nil
		}
	}
}

// Frontier classifies the cell lattice of a settled escape grid in parallel
// and returns the frontier cells in row-major order, matching
// FrontierCells. Rows are scanned on independent shards and concatenated in
// row order afterward.
func (e *Engine) Frontier(iters []int32, steps int, maxIters int32) []Cell {
	rows := steps - 1
	if rows <= 0 {
		return nil
	}

	buckets := make([][]Cell, rows)
	e.pool.ForEach(rows, func(i int) {
		buckets[i] = frontierRow(nil, iters, steps, maxIters, i)
	})

	total := 0
	for _, bu := range buckets {
		total += len(bu)
	}
	cells := make([]Cell, 0, total)
	for _, bu := range buckets {
		cells = append(cells, bu...)
	}
	return cells
}
