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

// Package prefetch gives the scheduler a way to hide memory latency on
// random bucket access. Go exposes no PREFETCH instruction intrinsic, so
// Hint is a software approximation: a single read that pulls the target
// cache line in before the write that follows it.
package prefetch

import "unsafe"

// Hint touches the byte at p, nudging its cache line into this core's
// cache ahead of an imminent write. p must point at live, already-valid
// memory (a slice element); Hint never allocates and never panics on its
// own account.
func Hint(p unsafe.Pointer) {
	_ = *(*byte)(p)
}
