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

package bucket

import (
	"testing"

	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/refcurve"
)

func newStore(n int) *Store[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field] {
	return New[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](n)
}

func TestNewStoreAllEmpty(t *testing.T) {
	s := newStore(8)
	if s.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		if !s.Empty(i) {
			t.Errorf("bucket %d not empty on a fresh store", i)
		}
		v := s.Value(i)
		if !v.IsIdentity() {
			t.Errorf("bucket %d value = %v, want identity", i, v)
		}
	}
}

func TestSetAffineThenValue(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.SetAffine(1, g)

	if s.Empty(1) {
		t.Fatalf("bucket 1 reported empty after SetAffine")
	}
	got := s.Value(1)
	var want refcurve.Jacobian
	want.SetIdentity()
	want.MaddVartime(&g)
	if !sameJacobian(got, want) {
		t.Errorf("Value(1) = %+v, want %+v", got, want)
	}
}

func TestFoldAccumAccumulates(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.FoldAccum(0, g, false)
	s.FoldAccum(0, g, false)

	var want refcurve.Jacobian
	want.SetIdentity()
	want.MaddVartime(&g)
	want.MaddVartime(&g)

	got := s.Value(0)
	if !sameJacobian(got, want) {
		t.Errorf("Value(0) after two FoldAccum adds = %+v, want %+v", got, want)
	}
}

func TestFoldAccumNegated(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.FoldAccum(0, g, false)
	s.FoldAccum(0, g, true)

	if v := s.Value(0); !v.IsIdentity() {
		t.Errorf("add then subtract the same point should be identity, got %+v", s.Value(0))
	}
}

func TestValueMixesAffineAndAccum(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.SetAffine(2, g)
	s.FoldAccum(2, g, false)

	var want refcurve.Jacobian
	want.SetIdentity()
	want.MaddVartime(&g)
	want.MaddVartime(&g)

	got := s.Value(2)
	if !sameJacobian(got, want) {
		t.Errorf("mixed affine+accum bucket = %+v, want %+v", got, want)
	}
}

func TestResetClearsBucket(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.SetAffine(0, g)
	s.FoldAccum(0, g, false)
	s.Reset(0)

	if !s.Empty(0) {
		t.Errorf("bucket not empty after Reset")
	}
	if v := s.Value(0); !v.IsIdentity() {
		t.Errorf("Value after Reset = %+v, want identity", s.Value(0))
	}
}

func TestResetAll(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	for i := 0; i < s.Len(); i++ {
		s.SetAffine(i, g)
	}
	s.ResetAll()
	for i := 0; i < s.Len(); i++ {
		if !s.Empty(i) {
			t.Errorf("bucket %d not empty after ResetAll", i)
		}
	}
}

func sameJacobian(a, b refcurve.Jacobian) bool {
	var fe refcurve.Field
	affA := a.ToAffine(&fe)
	affB := b.ToAffine(&fe)
	if affA.Infinity != affB.Infinity {
		return false
	}
	if affA.Infinity {
		return true
	}
	return affA.X.Equal(&affB.X) && affA.Y.Equal(&affB.Y)
}

var _ = assertAccumOps[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian]

// assertAccumOps compiles only when AE satisfies msm.AccumOps[A, F].
func assertAccumOps[A, F any, AE msm.AccumOps[A, F]]() {}
