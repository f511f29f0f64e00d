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

package batchaffine

import (
	"testing"

	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/bucket"
	"github.com/ajroetker/go-msm/msm/contrib/refcurve"
)

func newStore(n int) *bucket.Store[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field] {
	return bucket.New[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](n)
}

func toAffine(j refcurve.Jacobian) msm.Affine[refcurve.Field] {
	var fe refcurve.Field
	return j.ToAffine(&fe)
}

func affineOf(j refcurve.Jacobian) msm.Affine[refcurve.Field] { return toAffine(j) }

func doubleG() msm.Affine[refcurve.Field] {
	var j refcurve.Jacobian
	j.SetIdentity()
	j.MaddVartime(&refcurve.Generator)
	j.Double()
	return affineOf(j)
}

func assertSamePoint(t *testing.T, got, want msm.Affine[refcurve.Field]) {
	t.Helper()
	if got.Infinity != want.Infinity {
		t.Fatalf("Infinity = %v, want %v", got.Infinity, want.Infinity)
	}
	if got.Infinity {
		return
	}
	if !got.X.Equal(&want.X) || !got.Y.Equal(&want.Y) {
		t.Fatalf("point = (%v,%v), want (%v,%v)", got.X, got.Y, want.X, want.Y)
	}
}

func TestApplyLHSEmptyWritesDirectly(t *testing.T) {
	s := newStore(4)
	points := []msm.Affine[refcurve.Field]{refcurve.Generator}
	q := NewQueue[refcurve.Field, *refcurve.Field](4)
	ops := []msm.ScheduledPoint{{BucketIndex: 0, PointIndex: 0}}

	Apply[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](q, s, points, refcurve.CurveA, ops)

	assertSamePoint(t, s.Aff[0], refcurve.Generator)
}

func TestApplyChordAddition(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	h := doubleG()
	s.SetAffine(0, g)

	points := []msm.Affine[refcurve.Field]{h}
	q := NewQueue[refcurve.Field, *refcurve.Field](4)
	ops := []msm.ScheduledPoint{{BucketIndex: 0, PointIndex: 0}}

	Apply[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](q, s, points, refcurve.CurveA, ops)

	var want refcurve.Jacobian
	want.SetIdentity()
	want.MaddVartime(&g)
	want.MaddVartime(&h)

	assertSamePoint(t, s.Aff[0], affineOf(want))
}

func TestApplyDoubling(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.SetAffine(0, g)

	points := []msm.Affine[refcurve.Field]{g}
	q := NewQueue[refcurve.Field, *refcurve.Field](4)
	ops := []msm.ScheduledPoint{{BucketIndex: 0, PointIndex: 0}}

	Apply[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](q, s, points, refcurve.CurveA, ops)

	assertSamePoint(t, s.Aff[0], doubleG())
}

func TestApplyOppositeClearsBucket(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	s.SetAffine(0, g)

	points := []msm.Affine[refcurve.Field]{g}
	q := NewQueue[refcurve.Field, *refcurve.Field](4)
	ops := []msm.ScheduledPoint{{BucketIndex: 0, PointIndex: 0, Sign: true}}

	Apply[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](q, s, points, refcurve.CurveA, ops)

	if s.Status[0]&bucket.HasAffine != 0 {
		t.Fatalf("bucket still marked HasAffine after adding the negation of its contents")
	}
}

func TestApplySharesOneInversionAcrossBuckets(t *testing.T) {
	s := newStore(4)
	g := refcurve.Generator
	h := doubleG()
	s.SetAffine(0, g)
	s.SetAffine(1, h)

	points := []msm.Affine[refcurve.Field]{h, g}
	q := NewQueue[refcurve.Field, *refcurve.Field](4)
	ops := []msm.ScheduledPoint{
		{BucketIndex: 0, PointIndex: 0},
		{BucketIndex: 1, PointIndex: 1},
	}

	Apply[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](q, s, points, refcurve.CurveA, ops)

	var want0, want1 refcurve.Jacobian
	want0.SetIdentity()
	want0.MaddVartime(&g)
	want0.MaddVartime(&h)
	want1.SetIdentity()
	want1.MaddVartime(&h)
	want1.MaddVartime(&g)

	assertSamePoint(t, s.Aff[0], affineOf(want0))
	assertSamePoint(t, s.Aff[1], affineOf(want1))
}
