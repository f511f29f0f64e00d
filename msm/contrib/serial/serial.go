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

// Package serial implements the single-threaded multi-scalar-multiplication
// driver: window-size selection, the bucket-method accumulate/reduce/combine
// loop, and the dispatch between the affine-scheduler path and a plain
// extended-coordinate bucket path for small window sizes.
package serial

import (
	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/bucket"
	"github.com/ajroetker/go-msm/msm/contrib/scheduler"
)

// SchedulerWindowThreshold is the window size above which the affine
// batch-affine scheduler path is worth its bookkeeping; at or below it,
// collisions are frequent enough that a plain extended-coordinate bucket
// accumulate is faster.
const SchedulerWindowThreshold = 8

// MSMVarTime computes *r = sum_i scalars[i] * points[i] in variable time.
// bits bounds every scalar's width; curveA is the short-Weierstrass
// coefficient a, needed by the affine scheduler path's tangent-slope
// formula (0 on every pairing-friendly curve this engine targets).
func MSMVarTime[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
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
	msmVarTimeWithWindow[A, F, AE, FE](r, scalars, points, bits, curveA, msm.ChooseWindowSize(bits, n))
}

// MSMVarTimeWithWindow computes the same result as MSMVarTime but with the
// window size c forced rather than chosen by msm.ChooseWindowSize. c must be
// in [msm.MinWindowSize, msm.WindowSizeCap]; this entry point exists so
// window-size invariance can be tested directly and so callers like
// cmd/msmbench can force a specific c for comparison.
func MSMVarTimeWithWindow[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
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
	msmVarTimeWithWindow[A, F, AE, FE](r, scalars, points, bits, curveA, c)
}

// msmVarTimeWithWindow is the shared bucket-method driver loop: window-size
// selection happens in the caller, so both the auto-selecting MSMVarTime and
// the forced-c MSMVarTimeWithWindow run through exactly the same code below.
func msmVarTimeWithWindow[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
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

	top, excess := msm.DetermineEffectiveBits(scalars, bits, c)
	numWindows := top/c + 1
	numBuckets := 1 << uint(c-1)

	streams := make([]msm.DigitStream, n)
	for j, s := range scalars {
		streams[j] = msm.NewDigitStream(s, top, c)
	}

	// NewDigitStream appends one guard window above the declared top to
	// catch a Booth carry that can propagate out of it (see window.go);
	// totalWindows includes that guard level, which is all-zero unless the
	// top window's digit folded and carried out, and must still be walked
	// so that carry is not silently dropped.
	totalWindows := numWindows + 1

	store := bucket.New[A, F, AE, FE](numBuckets)
	useScheduler := c > SchedulerWindowThreshold
	var sched *scheduler.Scheduler[A, F, AE, FE]
	if useScheduler {
		sched = scheduler.New[A, F, AE, FE](points, store, 0, numBuckets, curveA, scheduler.QueueCapacity(c))
	}

	for widx := totalWindows - 1; widx >= 0; widx-- {
		isGuard := widx == totalWindows-1
		isTopNarrow := widx == totalWindows-2 && excess != 0
		isBottom := widx == 0

		if useScheduler && !isTopNarrow && !isGuard {
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
		} else {
			for j := 0; j < n; j++ {
				d := streams[j].At(widx)
				if d.Abs == 0 {
					continue
				}
				store.FoldAccum(int(d.Abs)-1, points[j], d.Neg)
			}
		}

		windowSum := reduceBuckets[A, F, AE, FE](store)
		AE(r).AddVartime(&windowSum)
		if !isBottom {
			for i := 0; i < c; i++ {
				AE(r).Double()
			}
		}
	}
}

// reduceBuckets collapses the bucket store into a single accumulator via
// the running-sum trick: S accumulates buckets from the top down, T
// accumulates the cumulative sum of S at each step, so that after the walk
// T = sum_K (K+1) * bucket[K]. Every bucket is reset to empty as it is
// consumed, so the store is ready for the next window without a separate
// clearing pass.
func reduceBuckets[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](store *bucket.Store[A, F, AE, FE]) A {
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
