// Copyright 2025 go-msm Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workerpool provides a persistent, reusable worker pool satisfying
// msm.ThreadPool. Workers are spawned once at creation and reused across
// every window and shard task the parallel driver submits,
// eliminating per-call goroutine spawn overhead on the hot path.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-msm/msm"
)

// Pool is a persistent worker pool reused across many parallel operations.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

var _ msm.ThreadPool = (*Pool)(nil)

// New creates a worker pool with the given number of workers. If
// numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumThreads reports the pool's worker count.
func (p *Pool) NumThreads() int {
	return p.numWorkers
}

// Close shuts down the worker pool once pending work completes. Safe to
// call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelFor partitions [0, n) into contiguous ranges, one per worker,
// and blocks until every range has run fn.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if p.closed.Load() {
		fn(0, n)
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			wg.Done()
			continue
		}
		p.workC <- workItem{fn: func() { fn(start, end) }, barrier: &wg}
	}
	wg.Wait()
}

// ParallelForAtomic distributes [0, n) across workers one index at a time
// via atomic work stealing, for callers whose per-index cost varies.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p.closed.Load() {
		for i := range n {
			fn(i)
		}
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var nextIdx atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					fn(idx)
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}

// future adapts a *sync.WaitGroup to msm.Future.
type future struct {
	wg *sync.WaitGroup
}

func (f future) Sync() { f.wg.Wait() }

var _ msm.Future = future{}

// Spawn runs fn on a pool worker and returns a handle Sync can join. If
// the pool is closed, fn runs synchronously and the returned Future is
// already complete.
func (p *Pool) Spawn(fn func()) msm.Future {
	var wg sync.WaitGroup
	wg.Add(1)
	if p.closed.Load() {
		fn()
		wg.Done()
		return future{&wg}
	}
	p.workC <- workItem{fn: fn, barrier: &wg}
	return future{&wg}
}
