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

// Package scheduler implements the per-window (or per-shard) scheduling
// state that turns a stream of signed-digit additions into batches for the
// batch-affine adder, detecting same-bucket collisions and falling back to
// direct extended-coordinate accumulation when a collision queue overflows.
package scheduler

import (
	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/batchaffine"
	"github.com/ajroetker/go-msm/msm/contrib/bucket"
	"github.com/ajroetker/go-msm/msm/contrib/prefetch"
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sys/cpu"
)

// QueueCapacity returns Q, the queue and collision-buffer size for window
// width c: derived from collision-probability analysis so that at expected
// fill, fewer than roughly one collision per 32 points occurs for c >= 10.
func QueueCapacity(c int) int {
	q := 4*c*c - 16*c - 128
	if q < 32 {
		q = 32
	}
	return q
}

// Scheduler owns one contiguous bucket range [Start, End) of a shared
// bucket store and the in-flight queue/collision state needed to flush
// additions into it via the batch-affine adder. A window with a single
// scheduler uses Start=0, End=store.Len(); the parallel bucket-sharding
// axis runs one Scheduler per disjoint sub-range against the same store.
type Scheduler[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]] struct {
	points []msm.Affine[F]
	store  *bucket.Store[A, F, AE, FE]
	start  int
	end    int
	curveA F

	queue         []msm.ScheduledPoint
	collisions    []msm.ScheduledPoint
	collisionMap  *bitset.BitSet
	batch         *batchaffine.Queue[F, FE]
	overflowCount int

	_ cpu.CacheLinePad // keeps adjacent shard schedulers off each other's cache line
}

// New creates a scheduler over bucket range [start, end) of store, with
// queue capacity q = QueueCapacity(c) for the window's chosen c.
func New[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	points []msm.Affine[F],
	store *bucket.Store[A, F, AE, FE],
	start, end int,
	curveA F,
	q int,
) *Scheduler[A, F, AE, FE] {
	return &Scheduler[A, F, AE, FE]{
		points:       points,
		store:        store,
		start:        start,
		end:          end,
		curveA:       curveA,
		queue:        make([]msm.ScheduledPoint, 0, q),
		collisions:   make([]msm.ScheduledPoint, 0, q),
		collisionMap: bitset.New(uint(store.Len())),
		batch:        batchaffine.NewQueue[F, FE](q),
	}
}

// OverflowCount reports how many points this scheduler folded directly
// into a bucket's accumulator slot instead of the batch-affine path, for
// callers exercising the overflow fallback deliberately (tests forcing a
// small Q, or telemetry).
func (s *Scheduler[A, F, AE, FE]) OverflowCount() int {
	return s.overflowCount
}

// Prefetch issues a write-prefetch hint for the bucket sp targets, ahead
// of an imminent Schedule(sp) call. Callers should call it one or a few
// iterations ahead of the matching Schedule.
func (s *Scheduler[A, F, AE, FE]) Prefetch(sp msm.ScheduledPoint) {
	if sp.IsSkip() || int(sp.BucketIndex) < s.start || int(sp.BucketIndex) >= s.end {
		return
	}
	prefetch.Hint(s.store.StatusPtr(int(sp.BucketIndex)))
}

// Schedule queues one signed addition. sp.BucketIndex outside [start, end)
// is silently ignored: it belongs to a different shard's range.
func (s *Scheduler[A, F, AE, FE]) Schedule(sp msm.ScheduledPoint) {
	if sp.IsSkip() {
		return
	}
	i := int(sp.BucketIndex)
	if i < s.start || i >= s.end {
		return
	}

	if s.store.Status[i]&bucket.HasAffine == 0 {
		p := s.points[sp.PointIndex]
		if sp.Sign && !p.Infinity {
			var negY F
			FE(&negY).Neg(&p.Y)
			p.Y = negY
		}
		s.store.SetAffine(i, p)
		return
	}

	if s.collisionMap.Test(uint(i)) {
		s.handleCollision(sp)
		return
	}

	s.queue = append(s.queue, sp)
	s.collisionMap.Set(uint(i))
	if len(s.queue) == cap(s.queue) {
		s.drainQueue()
	}
}

// handleCollision appends sp to the collision buffer, or, if that buffer
// is already full, folds it directly into the bucket's accumulator slot.
func (s *Scheduler[A, F, AE, FE]) handleCollision(sp msm.ScheduledPoint) {
	if len(s.collisions) < cap(s.collisions) {
		s.collisions = append(s.collisions, sp)
		return
	}
	s.foldOverflow(sp)
}

// foldOverflow applies sp via the bucket store's accumulator slot, the
// deterministic fallback used on every collision-buffer overflow and at
// final flush for whatever the batch path did not consume.
func (s *Scheduler[A, F, AE, FE]) foldOverflow(sp msm.ScheduledPoint) {
	p := s.points[sp.PointIndex]
	s.store.FoldAccum(int(sp.BucketIndex), p, sp.Sign)
	s.overflowCount++
}

// drainQueue invokes the batch-affine adder on the full queue, clears the
// queue and collision map, then reschedules whatever collisions can now
// move into the freshly emptied queue.
func (s *Scheduler[A, F, AE, FE]) drainQueue() {
	if len(s.queue) == 0 {
		return
	}
	batchaffine.Apply(s.batch, s.store, s.points, s.curveA, s.queue)
	s.queue = s.queue[:0]
	s.collisionMap.ClearAll()
	s.rescheduleCollisions()
}

// rescheduleCollisions moves buffered collisions back into the queue now
// that the collision map has been cleared, leaving in collisions any entry
// that collides with another entry moved earlier in this same pass, or
// that no longer fits because the queue filled back up.
func (s *Scheduler[A, F, AE, FE]) rescheduleCollisions() {
	kept := s.collisions[:0]
	for _, sp := range s.collisions {
		i := uint(sp.BucketIndex)
		if len(s.queue) < cap(s.queue) && !s.collisionMap.Test(i) {
			s.queue = append(s.queue, sp)
			s.collisionMap.Set(i)
			continue
		}
		kept = append(kept, sp)
	}
	s.collisions = kept
}

// Flush drains whatever remains queued at the end of an accumulation
// pass: the batch-affine path if the queue is reasonably full, otherwise
// a direct fold of every remaining queued and collided entry into the
// accumulator slots.
func (s *Scheduler[A, F, AE, FE]) Flush() {
	const minBatchWorthwhile = 32
	if len(s.queue) >= minBatchWorthwhile {
		batchaffine.Apply(s.batch, s.store, s.points, s.curveA, s.queue)
	} else {
		for _, sp := range s.queue {
			s.foldOverflow(sp)
		}
	}
	for _, sp := range s.collisions {
		s.foldOverflow(sp)
	}
	s.queue = s.queue[:0]
	s.collisions = s.collisions[:0]
	s.collisionMap.ClearAll()
}
