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

// SignedFullWindow reads the c-bit digit of k starting at bitIndex (a
// multiple of c) and recodes it as a signed digit in [-2^(c-1), 2^(c-1)]
// via standard radix-2^c Booth recoding: the digit equals the window's raw
// c bits plus a carry-in from the window below; if that sum reaches the
// half-bucket threshold 2^(c-1) it is folded down by 2^c and a carry of 1
// propagates into the next window up.
//
// The carry-in is itself rederived from k rather than threaded through by
// the caller, so this function is a pure function of (k, bitIndex, c);
// any two windows of the same scalar can be recoded independently, which
// is what lets the parallel driver fan work out across windows.
//
// Returns (|d|, sign) with sign=true meaning d is negative; |d| is always
// in [0, 2^(c-1)].
func SignedFullWindow(k Scalar, bitIndex, c int) (abs uint64, sign bool) {
	carryIn := carryBelow(k, bitIndex, c)
	raw := k.bitsSlice(bitIndex, bitIndex+c)
	return recode(raw, carryIn, c)
}

// SignedBottomWindow is the least-significant window: there is nothing
// below bit 0, so the carry-in, the implicit 0 shifted in below the
// lowest window of a Booth recoding, is always 0. It is equivalent to
// SignedFullWindow(k, 0, c), exposed separately because the bottom window
// is the one pass that needs no trailing doublings (see the serial
// driver).
func SignedBottomWindow(k Scalar, c int) (abs uint64, sign bool) {
	raw := k.bitsSlice(0, c)
	return recode(raw, 0, c)
}

// SignedTopWindow recodes the high window, which may be narrower than c
// (width excess = bits mod c) when the scalar's declared bit width is not
// a multiple of c. Bits above the scalar's declared width are guaranteed
// zero by the MSM precondition that every scalar is below the group
// order, so reading a full c-bit window at `top` and letting the
// out-of-range high bits of k read as zero is exactly "padded with a zero
// on the left", so no special-casing of excess is needed for the digit
// value itself; excess only matters to the caller for deciding whether a
// top window exists at all (excess == 0 means bits is a multiple of c and
// there is no narrow top pass).
func SignedTopWindow(k Scalar, top, excess, c int) (abs uint64, sign bool) {
	_ = excess
	return SignedFullWindow(k, top, c)
}

// recode folds raw+carryIn around the half-bucket threshold.
func recode(raw, carryIn uint64, c int) (abs uint64, sign bool) {
	half := uint64(1) << uint(c-1)
	full := uint64(1) << uint(c)
	digitRaw := raw + carryIn
	if digitRaw >= half {
		return full - digitRaw, true
	}
	return digitRaw, false
}

// carryBelow recomputes, from scratch, the Booth carry flowing into the
// window starting at bitIndex by replaying every window below it. This is
// the "slow but stateless" reference path; DigitStream below computes the
// same carries for every window of a scalar in one forward pass, which is
// what the drivers actually use on the hot path.
func carryBelow(k Scalar, bitIndex, c int) uint64 {
	half := uint64(1) << uint(c-1)
	carry := uint64(0)
	for start := 0; start < bitIndex; start += c {
		raw := k.bitsSlice(start, start+c)
		digitRaw := raw + carry
		if digitRaw >= half {
			carry = 1
		} else {
			carry = 0
		}
	}
	return carry
}

// SignedDigit is one window's recoded digit: Abs in [0, 2^(c-1)], Neg true
// iff the digit is negative. Abs == 0 represents "no contribution" and is
// the signal the scheduler and bucket driver use to skip a point entirely.
type SignedDigit struct {
	Abs uint64
	Neg bool
}

// DigitStream recodes every window of a scalar in a single bottom-up pass,
// avoiding the O((bits/c)^2) blowup of calling SignedFullWindow
// independently per window per point. Digits[w] is the digit for the
// window starting at bit w*c.
type DigitStream struct {
	Digits []SignedDigit
}

// NewDigitStream recodes k into windows of width c covering [0, top+c),
// i.e. top/c + 1 regular windows, the last of which is the (possibly
// narrow) top window, plus one guard window above them at weight
// 2^(top+c).
//
// The guard window exists to catch the Booth carry that can propagate
// out of the top window: whenever that window's raw value plus its
// carry-in reaches the fold threshold 2^(c-1), its digit goes negative
// and a real carry of weight 2^(top+c) would otherwise be dropped on the
// floor. For a narrow top window of width excess this only happens when
// excess == c-1 and every one of the window's bits is set with a
// carry-in of 1. For a full-width top window, which is what
// DetermineEffectiveBits returns when it trims unused high windows, it
// happens for roughly half of all scalars. Since bits at and above top+c
// are zero, the guard window's own raw value is always 0, so its digit is
// exactly that carry: 0 or 1.
func NewDigitStream(k Scalar, top, c int) DigitStream {
	numWindows := top/c + 1
	digits := make([]SignedDigit, numWindows+1)
	half := uint64(1) << uint(c-1)
	full := uint64(1) << uint(c)
	carry := uint64(0)
	for w := 0; w < numWindows; w++ {
		start := w * c
		raw := k.bitsSlice(start, start+c)
		digitRaw := raw + carry
		if digitRaw >= half {
			digits[w] = SignedDigit{Abs: full - digitRaw, Neg: true}
			carry = 1
		} else {
			digits[w] = SignedDigit{Abs: digitRaw, Neg: false}
			carry = 0
		}
	}
	digits[numWindows] = SignedDigit{Abs: carry, Neg: false}
	return DigitStream{Digits: digits}
}

// At returns the digit for the window at index w, or the zero digit if w
// is out of range.
func (ds DigitStream) At(w int) SignedDigit {
	if w < 0 || w >= len(ds.Digits) {
		return SignedDigit{}
	}
	return ds.Digits[w]
}
