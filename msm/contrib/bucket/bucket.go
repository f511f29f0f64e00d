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

// Package bucket implements the Pippenger bucket store: a dense,
// struct-of-arrays table of 2^(c-1) accumulators indexed by signed-digit
// magnitude, scanned and reset once per window.
package bucket

import (
	"unsafe"

	"github.com/ajroetker/go-msm/msm"
)

// Status bits for one bucket. A bucket's logical value is
// (Aff if HasAffine else 0) + (Acc if HasAccum else 0).
type Status uint8

const (
	HasAffine Status = 1 << iota
	HasAccum
)

// Store is the bucket array for one window (or one window x bucket-range
// shard in the parallel driver). It is laid out as three parallel arrays
// rather than an array of tagged structs so that a full scan over Status
// during reduction, the hottest read pattern, stays cache-line dense
// instead of striding over padding from the (much larger) Aff/Acc slots.
type Store[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]] struct {
	Status []Status
	Aff    []msm.Affine[F]
	Acc    []A
}

// New allocates a bucket store with n buckets, all initially empty.
func New[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](n int) *Store[A, F, AE, FE] {
	s := &Store[A, F, AE, FE]{
		Status: make([]Status, n),
		Aff:    make([]msm.Affine[F], n),
		Acc:    make([]A, n),
	}
	for i := range s.Acc {
		AE(&s.Acc[i]).SetIdentity()
	}
	return s
}

// Len returns the number of buckets.
func (s *Store[A, F, AE, FE]) Len() int {
	return len(s.Status)
}

// Reset clears bucket i back to empty, ready for the next window.
func (s *Store[A, F, AE, FE]) Reset(i int) {
	s.Status[i] = 0
	s.Aff[i] = msm.Affine[F]{}
	AE(&s.Acc[i]).SetIdentity()
}

// ResetAll clears every bucket.
func (s *Store[A, F, AE, FE]) ResetAll() {
	for i := range s.Status {
		s.Reset(i)
	}
}

// SetAffine writes p into bucket i's affine slot, replacing any previous
// affine value, and marks HasAffine. Used for a bucket's first touch, when
// there is nothing to add to yet.
func (s *Store[A, F, AE, FE]) SetAffine(i int, p msm.Affine[F]) {
	s.Aff[i] = p
	s.Status[i] |= HasAffine
}

// FoldAccum adds (or, if neg, subtracts) p into bucket i's accumulator
// slot, first setting that slot to the identity if this is its first
// contribution. The bucket's affine slot is left as it is; Value combines
// the two. This is the
// scheduler's overflow path: a mixed add that never needs the
// batch-affine adder's shared inversion.
func (s *Store[A, F, AE, FE]) FoldAccum(i int, p msm.Affine[F], neg bool) {
	if s.Status[i]&HasAccum == 0 {
		AE(&s.Acc[i]).SetIdentity()
		s.Status[i] |= HasAccum
	}
	if neg {
		AE(&s.Acc[i]).MsubVartime(&p)
	} else {
		AE(&s.Acc[i]).MaddVartime(&p)
	}
}

// Value materialises the logical value of bucket i as an accumulator: the
// affine slot mixed-added into the accumulator slot (or identity if
// neither is set).
func (s *Store[A, F, AE, FE]) Value(i int) A {
	var out A
	AE(&out).SetIdentity()
	if s.Status[i]&HasAccum != 0 {
		AE(&out).AddVartime(&s.Acc[i])
	}
	if s.Status[i]&HasAffine != 0 {
		aff := s.Aff[i]
		AE(&out).MaddVartime(&aff)
	}
	return out
}

// Empty reports whether bucket i currently holds no value.
func (s *Store[A, F, AE, FE]) Empty(i int) bool {
	return s.Status[i] == 0
}

// StatusPtr returns a pointer to bucket i's status byte, for the
// scheduler's prefetch hint ahead of a write to that bucket.
func (s *Store[A, F, AE, FE]) StatusPtr(i int) unsafe.Pointer {
	return unsafe.Pointer(&s.Status[i])
}
