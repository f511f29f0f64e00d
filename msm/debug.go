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

//go:build msmdebug

package msm

import "fmt"

// DebugAssertsEnabled reports whether this binary was built with the
// msmdebug tag. Callers can use it to skip building the slice they would
// otherwise pass to DebugAssert.
const DebugAssertsEnabled = true

// DebugAssert panics with msg if cond is false. It compiles away to a
// no-op without the msmdebug build tag, so the invariant checks it
// guards can afford to be as expensive as they like: walking every
// bucket index in a batch-affine Queue, or every shard boundary in the
// parallel bucket-sharding axis.
func DebugAssert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// DebugAssertDistinctBucketIndices panics if ops names the same bucket
// index twice. batchaffine.Apply requires distinct indices: a repeated
// index would have its earlier write shadowed by the later one instead
// of accumulated.
func DebugAssertDistinctBucketIndices(indices []int64) {
	seen := make(map[int64]struct{}, len(indices))
	for _, idx := range indices {
		if _, dup := seen[idx]; dup {
			panic(fmt.Sprintf("batchaffine: duplicate bucket index %d in one Apply batch", idx))
		}
		seen[idx] = struct{}{}
	}
}

// DebugAssertDisjointRanges panics if any two of [lo,hi) ranges overlap.
// The parallel driver's bucket-sharding axis assigns each worker a
// disjoint sub-range of the same window's bucket store; an overlap
// means two goroutines would race on the same bucket.
func DebugAssertDisjointRanges(los, his []int) {
	for i := range los {
		for j := i + 1; j < len(los); j++ {
			if los[i] < his[j] && los[j] < his[i] {
				panic(fmt.Sprintf("parallel: overlapping bucket shards [%d,%d) and [%d,%d)", los[i], his[i], los[j], his[j]))
			}
		}
	}
}
