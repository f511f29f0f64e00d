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

// Relative group-operation costs used by the window-size cost model:
// A is the cost of a variable-time addition, D the cost of a doubling,
// both in arbitrary units that only matter relative to each other.
const (
	costAdd    = 10
	costDouble = 6
)

// MinWindowSize and MaxWindowSize bound the window-size search; the cost
// model is evaluated at every c in this range and the minimiser is
// returned, then capped further by the L2-residency rule in
// ChooseWindowSize.
const (
	MinWindowSize = 2
	MaxWindowSize = 20

	// WindowSizeCap is the hard upper bound on the c this package will
	// ever return, after the L2-residency decrement below.
	WindowSizeCap = 17
)

// windowCost estimates the total group-operation cost of running the
// bucket method with window size c over n points and a scalar width of
// bits bits: bucket accumulation, bucket reduction, and final
// cross-window reduction (doublings plus one addition per window).
func windowCost(bits, n, c int) float64 {
	windows := float64(bits) / float64(c)
	buckets := float64(uint64(1)<<uint(c-1)) - 2
	accumulate := windows * (float64(n) + buckets) * costAdd
	reduce := 2 * buckets * windows * costAdd
	finalReduce := (windows - 1) * (float64(c)*costDouble + costAdd)
	return accumulate + reduce + finalReduce
}

// ChooseWindowSize picks the window size c minimising windowCost over
// [MinWindowSize, MaxWindowSize], then applies an empirically tuned
// L2-residency correction: the result is decremented once for each of the
// thresholds 16, 15 and 14 that it reaches. A minimiser of 14, 15 or 16
// therefore becomes 13, and a minimiser of 17 through 20 becomes 14
// through 17, which is how WindowSizeCap ends up enforced in practice.
func ChooseWindowSize(bits, n int) int {
	if n <= 0 {
		return MinWindowSize
	}

	best := MinWindowSize
	bestCost := windowCost(bits, n, MinWindowSize)
	for c := MinWindowSize + 1; c <= MaxWindowSize; c++ {
		cost := windowCost(bits, n, c)
		if cost < bestCost {
			bestCost = cost
			best = c
		}
	}

	c := best
	if c >= 16 {
		c--
	}
	if c >= 15 {
		c--
	}
	if c >= 14 {
		c--
	}
	return c
}

// DetermineEffectiveBits finds the true high-water window, so that windows
// above the batch's highest set bit are skipped entirely. It takes the
// largest BitLen in the batch (clamped to declaredBits) and finds the
// window of the c-aligned grid that holds that bit. If that is the
// declared top window, it returns (declaredTop, declaredExcess), where
// declaredTop is declaredBits rounded down to a multiple of c and
// declaredExcess is the remainder. Otherwise it returns that window's
// start with excess 0: the trimmed top window is a full-width window and
// there is no narrow top window at all. An empty or all-zero batch yields
// (0, 0).
func DetermineEffectiveBits(scalars []Scalar, declaredBits, c int) (top, excess int) {
	declaredExcess := declaredBits % c
	declaredTop := declaredBits - declaredExcess

	msb := 0
	for _, s := range scalars {
		if bl := s.BitLen(); bl > msb {
			msb = bl
		}
	}
	if msb > declaredBits {
		msb = declaredBits
	}
	if msb == 0 {
		return 0, 0
	}

	// The window grid itself never moves: windows sit at every multiple of
	// c from 0 to declaredTop, plus one possibly-narrow window of width
	// declaredExcess at declaredTop. Only the highest grid line at or
	// below msb-1 (the scalar batch's true high-water bit) needs to be
	// visited; every window above it is guaranteed to recode to an
	// all-zero digit for every scalar and can be skipped outright, since
	// doubling the identity accumulator leaves it unchanged.
	windowOfMSB := (msb - 1) / c * c
	if windowOfMSB >= declaredTop {
		return declaredTop, declaredExcess
	}
	return windowOfMSB, 0
}
