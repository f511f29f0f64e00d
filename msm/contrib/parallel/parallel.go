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

// Package parallel implements the multithreaded multi-scalar-multiplication
// driver: window parallelism (one task per window), bucket-range parallelism
// (sharding one window's buckets across disjoint sub-ranges), and MSM-split
// parallelism (partitioning the point set itself), dispatched by whichever
// axis best matches the thread pool's size relative to the problem shape.
//
// The thread-pool collaborator's parallel_for is not guaranteed reentrant,
// so none of these axes nest a second round of pool usage inside a task
// already running on the pool: every Spawn here is issued from the calling
// goroutine, never from inside another spawned task. The MSM-split axis
// does not go through the pool at all; its chunks are independent,
// self-contained tasks, so it fans them out with an errgroup.Group instead.
package parallel

import (
	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/bucket"
	"github.com/ajroetker/go-msm/msm/contrib/scheduler"
	"github.com/ajroetker/go-msm/msm/contrib/serial"
	"golang.org/x/sync/errgroup"
)

// SerialFallbackThreshold is N below which the parallel driver defers to
// the single-threaded driver outright: pool dispatch overhead would
// dominate.
const SerialFallbackThreshold = 16

// MSMVarTimeParallel computes *r = sum_i scalars[i] * points[i] in variable
// time using tp to parallelise the work. Falls back to the serial driver
// for small inputs or single-worker pools.
func MSMVarTimeParallel[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	tp msm.ThreadPool,
	r *A,
	scalars []msm.Scalar,
	points []msm.Affine[F],
	bits int,
	curveA F,
) {
	n := len(points)
	if n == 0 {
		AE(r).SetIdentity()
		return
	}
	msmVarTimeParallelWithWindow[A, F, AE, FE](tp, r, scalars, points, bits, curveA, msm.ChooseWindowSize(bits, n))
}

// MSMVarTimeParallelWithWindow computes the same result as
// MSMVarTimeParallel but with the window size c forced rather than chosen
// by msm.ChooseWindowSize, for window-size-invariance testing and for
// callers that want to force a specific c for comparison.
func MSMVarTimeParallelWithWindow[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	tp msm.ThreadPool,
	r *A,
	scalars []msm.Scalar,
	points []msm.Affine[F],
	bits int,
	curveA F,
	c int,
) {
	if len(points) == 0 {
		AE(r).SetIdentity()
		return
	}
	msmVarTimeParallelWithWindow[A, F, AE, FE](tp, r, scalars, points, bits, curveA, c)
}

// msmVarTimeParallelWithWindow is the shared axis-dispatch body: window-size
// selection happens in the caller, so both the auto-selecting
// MSMVarTimeParallel and the forced-c MSMVarTimeParallelWithWindow run
// through exactly the same dispatch and driver code below.
func msmVarTimeParallelWithWindow[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	tp msm.ThreadPool,
	r *A,
	scalars []msm.Scalar,
	points []msm.Affine[F],
	bits int,
	curveA F,
	c int,
) {
	AE(r).SetIdentity()
	n := len(points)
	if n == 0 {
		return
	}
	if n < SerialFallbackThreshold || tp == nil || tp.NumThreads() <= 1 {
		serial.MSMVarTimeWithWindow[A, F, AE, FE](r, scalars, points, bits, curveA, c)
		return
	}

	threads := tp.NumThreads()
	top, excess := msm.DetermineEffectiveBits(scalars, bits, c)
	numWindows := top/c + 1
	numBuckets := 1 << uint(c-1)

	switch {
	case numWindows >= threads:
		windowParallel[A, F, AE, FE](tp, r, scalars, points, bits, curveA, c, top, excess, numWindows)
	case numBuckets < threads:
		msmSplit[A, F, AE, FE](r, scalars, points, bits, curveA, threads, c)
	default:
		bucketShardedWindows[A, F, AE, FE](tp, r, scalars, points, curveA, c, top, excess, numWindows, numBuckets, threads)
	}
}

// windowParallel spawns one task per window (the top/last window runs on
// the calling goroutine inline after every spawn is issued), each doing a
// full single-threaded accumulate+reduce over the whole bucket range, then
// combines windowSums on the calling goroutine in strict high-to-low
// order, syncing each window's future just before it is needed.
func windowParallel[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	tp msm.ThreadPool,
	r *A,
	scalars []msm.Scalar,
	points []msm.Affine[F],
	bits int,
	curveA F,
	c, top, excess, numWindows int,
) {
	n := len(points)
	streams := make([]msm.DigitStream, n)
	for j, s := range scalars {
		streams[j] = msm.NewDigitStream(s, top, c)
	}
	numBuckets := 1 << uint(c-1)

	// NewDigitStream appends a guard window above the declared top to
	// catch a Booth carry out of it (see window.go); totalWindows walks
	// that level too.
	totalWindows := numWindows + 1

	windowSums := make([]A, totalWindows)
	futures := make([]msm.Future, totalWindows)
	last := totalWindows - 1
	for widx := last - 1; widx >= 0; widx-- {
		widx := widx
		isTopNarrow := widx == totalWindows-2 && excess != 0
		futures[widx] = tp.Spawn(func() {
			windowSums[widx] = accumulateOneWindow[A, F, AE, FE](points, streams, widx, c, curveA, numBuckets, isTopNarrow)
		})
	}
	windowSums[last] = accumulateOneWindow[A, F, AE, FE](points, streams, last, c, curveA, numBuckets, true)

	for widx := last; widx >= 0; widx-- {
		if widx != last {
			futures[widx].Sync()
		}
		AE(r).AddVartime(&windowSums[widx])
		if widx != 0 {
			for i := 0; i < c; i++ {
				AE(r).Double()
			}
		}
	}
}

// accumulateOneWindow runs the full accumulate-then-reduce pass for a
// single window over the entire bucket range, on whichever goroutine
// calls it.
func accumulateOneWindow[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	points []msm.Affine[F],
	streams []msm.DigitStream,
	widx, c int,
	curveA F,
	numBuckets int,
	isTopNarrow bool,
) A {
	store := bucket.New[A, F, AE, FE](numBuckets)
	n := len(points)

	if isTopNarrow || c <= serial.SchedulerWindowThreshold {
		for j := 0; j < n; j++ {
			d := streams[j].At(widx)
			if d.Abs == 0 {
				continue
			}
			store.FoldAccum(int(d.Abs)-1, points[j], d.Neg)
		}
	} else {
		sched := scheduler.New[A, F, AE, FE](points, store, 0, numBuckets, curveA, scheduler.QueueCapacity(c))
		for j := 0; j < n; j++ {
			d := streams[j].At(widx)
			if d.Abs == 0 {
				continue
			}
			sp := msm.ScheduledPoint{BucketIndex: int64(d.Abs) - 1, Sign: d.Neg, PointIndex: int64(j)}
			sched.Prefetch(sp)
			sched.Schedule(sp)
		}
		sched.Flush()
	}

	var s, t A
	AE(&s).SetIdentity()
	AE(&t).SetIdentity()
	for k := store.Len() - 1; k >= 0; k-- {
		if !store.Empty(k) {
			v := store.Value(k)
			AE(&s).AddVartime(&v)
			store.Reset(k)
		}
		AE(&t).AddVartime(&s)
	}
	return t
}

// bucketShardedWindows processes windows one at a time on the calling
// goroutine, sharding each window's bucket range across the pool so every
// worker has a disjoint sub-range to accumulate into against the same
// read-only point set, then reduces with latency hiding: the reduction
// walk awaits each shard's future just before crossing into that shard's
// range, letting early shards' reduction overlap with late shards still
// accumulating.
func bucketShardedWindows[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	tp msm.ThreadPool,
	r *A,
	scalars []msm.Scalar,
	points []msm.Affine[F],
	curveA F,
	c, top, excess, numWindows, numBuckets, shards int,
) {
	n := len(points)
	streams := make([]msm.DigitStream, n)
	for j, s := range scalars {
		streams[j] = msm.NewDigitStream(s, top, c)
	}

	bounds := partitionRange(numBuckets, shards)
	if msm.DebugAssertsEnabled {
		los := make([]int, len(bounds))
		his := make([]int, len(bounds))
		for i, b := range bounds {
			los[i], his[i] = b.lo, b.hi
		}
		msm.DebugAssertDisjointRanges(los, his)
	}
	store := bucket.New[A, F, AE, FE](numBuckets)

	// NewDigitStream appends a guard window above the declared top to
	// catch a Booth carry out of it (see window.go); totalWindows walks
	// that level too.
	totalWindows := numWindows + 1

	for widx := totalWindows - 1; widx >= 0; widx-- {
		isGuard := widx == totalWindows-1
		isTopNarrow := widx == totalWindows-2 && excess != 0

		futures := make([]msm.Future, len(bounds))
		for si, b := range bounds {
			si, b := si, b
			futures[si] = tp.Spawn(func() {
				accumulateShard[A, F, AE, FE](store, points, streams, widx, c, curveA, b.lo, b.hi, isTopNarrow || isGuard)
			})
		}

		var s, t A
		AE(&s).SetIdentity()
		AE(&t).SetIdentity()
		for si := len(bounds) - 1; si >= 0; si-- {
			futures[si].Sync()
			b := bounds[si]
			for k := b.hi - 1; k >= b.lo; k-- {
				if !store.Empty(k) {
					v := store.Value(k)
					AE(&s).AddVartime(&v)
					store.Reset(k)
				}
				AE(&t).AddVartime(&s)
			}
		}

		AE(r).AddVartime(&t)
		if widx != 0 {
			for i := 0; i < c; i++ {
				AE(r).Double()
			}
		}
	}
}

// accumulateShard runs one window's accumulate pass restricted to bucket
// range [lo, hi): it scans the full point set, but the scheduler silently
// drops any scheduled point outside [lo, hi), so only this shard's buckets
// are ever written.
func accumulateShard[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	store *bucket.Store[A, F, AE, FE],
	points []msm.Affine[F],
	streams []msm.DigitStream,
	widx, c int,
	curveA F,
	lo, hi int,
	isTopNarrow bool,
) {
	n := len(points)
	if isTopNarrow || c <= serial.SchedulerWindowThreshold {
		for j := 0; j < n; j++ {
			d := streams[j].At(widx)
			if d.Abs == 0 {
				continue
			}
			i := int(d.Abs) - 1
			if i < lo || i >= hi {
				continue
			}
			store.FoldAccum(i, points[j], d.Neg)
		}
		return
	}

	sched := scheduler.New[A, F, AE, FE](points, store, lo, hi, curveA, scheduler.QueueCapacity(c))
	for j := 0; j < n; j++ {
		d := streams[j].At(widx)
		if d.Abs == 0 {
			continue
		}
		sp := msm.ScheduledPoint{BucketIndex: int64(d.Abs) - 1, Sign: d.Neg, PointIndex: int64(j)}
		sched.Prefetch(sp)
		sched.Schedule(sp)
	}
	sched.Flush()
}

// msmSplit partitions the point set into balanced chunks and computes a
// full independent serial MSM per chunk concurrently via an errgroup.Group,
// then sums the partials: MSM is linear in the (scalar, point) pairs, so
// chunking the input and adding partial results back together is always
// correct regardless of the window size c, which every chunk's serial
// driver is forced to use so the whole call stays window-size invariant.
//
// This axis runs its own goroutines through errgroup rather than tp.Spawn:
// each chunk's work is a single self-contained call with no further need
// of the pool, so an errgroup.Group's first-error-propagating join serves it more directly than threading a ThreadPool.Future through.
func msmSplit[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	r *A,
	scalars []msm.Scalar,
	points []msm.Affine[F],
	bits int,
	curveA F,
	chunks int,
	c int,
) {
	n := len(points)
	if chunks > n {
		chunks = n
	}
	bounds := partitionRange(n, chunks)

	partials := make([]A, len(bounds))
	var g errgroup.Group
	for i, b := range bounds {
		i, b := i, b
		g.Go(func() error {
			serial.MSMVarTimeWithWindow[A, F, AE, FE](&partials[i], scalars[b.lo:b.hi], points[b.lo:b.hi], bits, curveA, c)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // every Go task above always returns nil

	for i := range partials {
		AE(r).AddVartime(&partials[i])
	}
}

type rangeBounds struct{ lo, hi int }

// partitionRange splits [0, n) into up to parts power-of-two-friendly
// contiguous sub-ranges, none empty, covering every index exactly once.
func partitionRange(n, parts int) []rangeBounds {
	if parts > n {
		parts = n
	}
	if parts < 1 {
		parts = 1
	}
	chunk := (n + parts - 1) / parts
	bounds := make([]rangeBounds, 0, parts)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		bounds = append(bounds, rangeBounds{lo, hi})
	}
	return bounds
}
