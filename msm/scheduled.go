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

package msm

// ScheduledPoint is one pending "add points[PointIndex] (negated iff Sign)
// into bucket BucketIndex" operation. BucketIndex == -1 marks "skip": the
// digit that produced it was zero and it carries no contribution.
type ScheduledPoint struct {
	BucketIndex int64
	Sign        bool
	PointIndex  int64
}

// Skip is the sentinel BucketIndex for a zero digit.
const Skip int64 = -1

// IsSkip reports whether sp carries no contribution.
func (sp ScheduledPoint) IsSkip() bool {
	return sp.BucketIndex == Skip
}
