// Package parallel provides the worker pool that runs compute dispatches on
// the CPU. A dispatch is a set of independent rank closures; ExecuteAll (or
// the ForEach parallel-for) returns only after every rank has finished,
// which is the synchronization boundary reductions rely on.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a work-stealing pool of goroutines for compute dispatches.
//
// Each worker owns a queue and primarily pulls from it, stealing from other
// workers when its own queue runs dry. Stealing matters here: escape-time
// ranks have wildly uneven cost (points near the set boundary iterate
// thousands of times longer than far-field points), so static splitting
// would leave most workers idle behind the slowest rank.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds the per-worker work queues.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to exit.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// NewPool creates a pool with the given number of workers and starts them.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Queue buffer of a few dispatches per worker; ranks regularly
	// outnumber workers, so submission must not block the dispatcher.
	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

// worker is the main loop for one worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return

		case work := <-own:
			if work != nil {
				work()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
			} else {
				// Nothing to steal; block on the own queue.
				select {
				case <-p.done:
					p.drain(own)
					return
				case work := <-own:
					if work != nil {
						work()
					}
				}
			}
		}
	}
}

// drain executes whatever is left in a queue during shutdown.
func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one work item from another worker's queue, or returns nil.
func (p *Pool) steal(myID int) func() {
	for i := 0; i < p.workers; i++ {
		if i == myID {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every closure on the pool and blocks until all of them
// have returned. This is the dispatch primitive: once ExecuteAll returns,
// every rank's writes are visible to the caller and reduction may begin.
// If the pool is closed, pending items are accounted but not run.
func (p *Pool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var dispatchWG sync.WaitGroup
	dispatchWG.Add(len(work))

	for i, fn := range work {
		worker := i % p.workers
		task := fn
		wrapped := func() {
			defer dispatchWG.Done()
			task()
		}
		select {
		case p.queues[worker] <- wrapped:
		case <-p.done:
			dispatchWG.Done()
		}
	}

	dispatchWG.Wait()
}

// ForEach runs fn(i) for every i in [0, n) on the pool and blocks until all
// calls return. It is the parallel-for used for rank and row dispatches.
func (p *Pool) ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	work := make([]func(), n)
	for i := 0; i < n; i++ {
		idx := i
		work[idx] = func() { fn(idx) }
	}
	p.ExecuteAll(work)
}

// Close stops the pool: no new work is accepted, queued work is drained,
// and all workers exit. Safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.workers }

// IsRunning reports whether the pool is still accepting work.
func (p *Pool) IsRunning() bool { return p.running.Load() }
