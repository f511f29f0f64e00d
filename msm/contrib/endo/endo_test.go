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

package endo

import (
	"math/rand"
	"testing"

	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/refcurve"
)

func scalarMulG(k uint64) msm.Affine[refcurve.Field] {
	var acc refcurve.Jacobian
	acc.SetIdentity()
	g := refcurve.Generator
	for b := 63; b >= 0; b-- {
		acc.Double()
		if (k>>uint(b))&1 == 1 {
			acc.MaddVartime(&g)
		}
	}
	var fe refcurve.Field
	return acc.ToAffine(&fe)
}

// msmDirect is a plain double-and-add oracle over the expanded
// (mini-scalar, point) pairs Expand produces, used to check that summing
// them with their original weights equals the unexpanded sum.
func msmDirect(scalars []msm.Scalar, points []msm.Affine[refcurve.Field]) refcurve.Jacobian {
	var r refcurve.Jacobian
	r.SetIdentity()
	for i, p := range points {
		if p.Infinity {
			continue
		}
		k := scalars[i]
		var acc refcurve.Jacobian
		acc.SetIdentity()
		for b := k.BitLen() - 1; b >= 0; b-- {
			acc.Double()
			if k.Bit(b) == 1 {
				acc.MaddVartime(&p)
			}
		}
		r.AddVartime(&acc)
	}
	return r
}

func TestExpandPreservesSum(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	e := refcurve.Endo{}
	const bits = 16

	n := 12
	scalars := make([]msm.Scalar, n)
	points := make([]msm.Affine[refcurve.Field], n)
	for i := 0; i < n; i++ {
		scalars[i] = msm.ScalarFromUint64(rng.Uint64() % refcurve.R)
		points[i] = scalarMulG(rng.Uint64())
	}

	expScalars, expPoints, l := Expand[refcurve.Field, *refcurve.Field](e, scalars, points, bits)

	if got := len(expScalars); got != e.Dimension()*n {
		t.Fatalf("Expand produced %d scalars, want %d", got, e.Dimension()*n)
	}
	if l <= 0 || l > bits {
		t.Fatalf("Expand returned reduced bit width %d, want in (0,%d]", l, bits)
	}

	want := msmDirect(scalars, points)
	got := msmDirect(expScalars, expPoints)

	var fe refcurve.Field
	wantAff, gotAff := want.ToAffine(&fe), got.ToAffine(&fe)
	if wantAff.Infinity != gotAff.Infinity || !wantAff.X.Equal(&gotAff.X) || !wantAff.Y.Equal(&gotAff.Y) {
		t.Fatalf("expanded MSM = (%v,%v), want (%v,%v)", gotAff.X, gotAff.Y, wantAff.X, wantAff.Y)
	}
}

func TestShouldApplyThreshold(t *testing.T) {
	if ShouldApply(Threshold - 1) {
		t.Errorf("ShouldApply(%d) = true, want false", Threshold-1)
	}
	if !ShouldApply(Threshold) {
		t.Errorf("ShouldApply(%d) = false, want true", Threshold)
	}
}
