package parallel

import (
	"runtime"
	"sync"
)

type (
	WorkerFunc func(func())
	WaitFunc   func(done bool)
	CancelFunc func()
)

type Pool struct {
	wg      sync.WaitGroup
	workers int
	Do      WorkerFunc
	Wait    WaitFunc
	Cancel  CancelFunc
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: numWorkers,
		Do: func(f func()) {
			f()
		},
		Wait:   func(bool) {},
		Cancel: func() {},
	}

	if numWorkers > 1 {
		workChan := make(chan func(), numWorkers)

		for range numWorkers {
			pool.wg.Go(func() {
				for {
					f, ok := <-workChan
					if !ok {
						return
					}
					f()
				}
			})
		}

		pool.Do = func(f func()) {
			workChan <- f
		}

		pool.Wait = func(done bool) {
			if done {
				pool.Cancel()
			}
			pool.wg.Wait()
		}
		pool.Cancel = sync.OnceFunc(func() { close(workChan) })
	}

	return pool
}

// Workers returns the number of goroutines serving Do. A nil pool has one.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Spans returns how many ranges Split cuts [0,n) into.
func (p *Pool) Spans(n int) int {
	if n <= 0 {
		return 0
	}
	spans := p.Workers()
	if spans > 1 {
		// a few spans per worker evens out uneven rows
		spans *= 4
	}
	return min(spans, n)
}

// Split cuts [0,n) into Spans(n) contiguous ranges, runs fn once per range
// through Do and returns when every range is finished. fn must only write
// state owned by its own range. Split must not be called from inside a task
// running on the same pool.
func (p *Pool) Split(n int, fn func(span, lo, hi int)) {
	spans := p.Spans(n)
	if spans == 0 {
		return
	}
	if p == nil || spans == 1 {
		fn(0, 0, n)
		return
	}

	var wg sync.WaitGroup
	for s := range spans {
		lo, hi := s*n/spans, (s+1)*n/spans
		wg.Add(1)
		p.Do(func() {
			defer wg.Done()
			fn(s, lo, hi)
		})
	}
	wg.Wait()
}

// Close stops the workers once queued work has drained.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.Wait(true)
}
