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

//go:build !msmdebug

package msm

// DebugAssertsEnabled is false in release builds; see debug.go.
const DebugAssertsEnabled = false

// DebugAssert is a no-op without the msmdebug build tag.
func DebugAssert(cond bool, format string, args ...any) {}

// DebugAssertDistinctBucketIndices is a no-op without the msmdebug build tag.
func DebugAssertDistinctBucketIndices(indices []int64) {}

// DebugAssertDisjointRanges is a no-op without the msmdebug build tag.
func DebugAssertDisjointRanges(los, his []int) {}
