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

package refcurve

import "github.com/ajroetker/go-msm/msm"

// B is the curve coefficient in y^2 = x^3 + B (A = 0, short Weierstrass).
const B uint64 = 6

// CurveA is the A coefficient, threaded through to the batch-affine
// adder's tangent-slope formula.
var CurveA = Field(0)

// R is the prime order of the subgroup Generator lies in.
const R uint64 = 6577

// Cofactor is the curve's full order divided by R.
const Cofactor uint64 = 3

// Generator is a point of order R on the curve.
var Generator = msm.Affine[Field]{X: Field(16787), Y: Field(6038)}

// Jacobian is a point in Jacobian projective coordinates: the affine point
// is (X/Z^2, Y/Z^3), with the identity represented by Z = 0.
type Jacobian struct {
	X, Y, Z Field
}

var _ = assertAccumOps[Jacobian, Field, *Jacobian]

// assertAccumOps compiles only when AE satisfies msm.AccumOps[A, F].
func assertAccumOps[A, F any, AE msm.AccumOps[A, F]]() {}

// SetIdentity sets p to the point at infinity.
func (p *Jacobian) SetIdentity() {
	p.X, p.Y, p.Z = Field(1), Field(1), Field(0)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Jacobian) IsIdentity() bool {
	return p.Z.IsZero()
}

// Set sets p = o.
func (p *Jacobian) Set(o *Jacobian) {
	*p = *o
}

// Neg negates p in place.
func (p *Jacobian) Neg() {
	if p.IsIdentity() {
		return
	}
	var negY Field
	negY.Neg(&p.Y)
	p.Y = negY
}

// Double doubles p in place, using the A=0 short-Weierstrass Jacobian
// doubling formula (dbl-2009-l).
func (p *Jacobian) Double() {
	if p.IsIdentity() {
		return
	}
	var a, bb, c, d, e, f, x3, y3, z3, t0, t1 Field
	a.Square(&p.X)
	bb.Square(&p.Y)
	c.Square(&bb)
	t0.Add(&p.X, &bb)
	t1.Square(&t0)
	t1.Sub(&t1, &a)
	t1.Sub(&t1, &c)
	d.Add(&t1, &t1)
	t0.Add(&a, &a)
	e.Add(&t0, &a)
	f.Square(&e)

	t0.Add(&d, &d)
	x3.Sub(&f, &t0)

	t0.Sub(&d, &x3)
	t1.Mul(&e, &t0)
	t0.Add(&c, &c)
	t0.Add(&t0, &t0)
	t0.Add(&t0, &t0)
	y3.Sub(&t1, &t0)

	t0.Mul(&p.Y, &p.Z)
	z3.Add(&t0, &t0)

	p.X, p.Y, p.Z = x3, y3, z3
}

// AddVartime sets p = p + o in variable time, handling p or o being the
// identity and o being p's negation.
func (p *Jacobian) AddVartime(o *Jacobian) {
	if o.IsIdentity() {
		return
	}
	if p.IsIdentity() {
		*p = *o
		return
	}

	var z1z1, z2z2, u1, u2, s1, s2 Field
	z1z1.Square(&p.Z)
	z2z2.Square(&o.Z)
	u1.Mul(&p.X, &z2z2)
	u2.Mul(&o.X, &z1z1)
	var t0 Field
	t0.Mul(&o.Z, &z2z2)
	s1.Mul(&p.Y, &t0)
	t0.Mul(&p.Z, &z1z1)
	s2.Mul(&o.Y, &t0)

	if u1.Equal(&u2) {
		if s1.Equal(&s2) {
			p.Double()
			return
		}
		p.SetIdentity()
		return
	}

	var h, i, j, r, v, x3, y3, z3 Field
	h.Sub(&u2, &u1)
	t0.Add(&h, &h)
	i.Square(&t0)
	j.Mul(&h, &i)
	t0.Sub(&s2, &s1)
	r.Add(&t0, &t0)
	v.Mul(&u1, &i)

	t0.Square(&r)
	var t1 Field
	t1.Add(&v, &v)
	x3.Sub(&t0, &j)
	x3.Sub(&x3, &t1)

	t0.Sub(&v, &x3)
	t0.Mul(&r, &t0)
	t1.Mul(&s1, &j)
	t1.Add(&t1, &t1)
	y3.Sub(&t0, &t1)

	t0.Add(&p.Z, &o.Z)
	t0.Square(&t0)
	t0.Sub(&t0, &z1z1)
	t0.Sub(&t0, &z2z2)
	z3.Mul(&t0, &h)

	p.X, p.Y, p.Z = x3, y3, z3
}

// SubVartime sets p = p - o in variable time.
func (p *Jacobian) SubVartime(o *Jacobian) {
	neg := *o
	neg.Neg()
	p.AddVartime(&neg)
}

// MaddVartime sets p = p + q (a mixed Jacobian+affine addition) in
// variable time.
func (p *Jacobian) MaddVartime(q *msm.Affine[Field]) {
	if q.Infinity {
		return
	}
	if p.IsIdentity() {
		p.X, p.Y, p.Z = q.X, q.Y, Field(1)
		return
	}

	var z1z1, u2, s2 Field
	z1z1.Square(&p.Z)
	u2.Mul(&q.X, &z1z1)
	var t0 Field
	t0.Mul(&p.Z, &z1z1)
	s2.Mul(&q.Y, &t0)

	if p.X.Equal(&u2) {
		if p.Y.Equal(&s2) {
			p.Double()
			return
		}
		p.SetIdentity()
		return
	}

	var h, hh, i, j, r, v, x3, y3, z3 Field
	h.Sub(&u2, &p.X)
	hh.Square(&h)
	t0.Add(&hh, &hh)
	i.Add(&t0, &t0)
	j.Mul(&h, &i)
	t0.Sub(&s2, &p.Y)
	r.Add(&t0, &t0)
	v.Mul(&p.X, &i)

	t0.Square(&r)
	var t1 Field
	t1.Add(&v, &v)
	x3.Sub(&t0, &j)
	x3.Sub(&x3, &t1)

	t0.Sub(&v, &x3)
	t0.Mul(&r, &t0)
	t1.Mul(&p.Y, &j)
	t1.Add(&t1, &t1)
	y3.Sub(&t0, &t1)

	t0.Add(&p.Z, &h)
	t0.Square(&t0)
	t0.Sub(&t0, &z1z1)
	t0.Sub(&t0, &hh)
	z3 = t0

	p.X, p.Y, p.Z = x3, y3, z3
}

// MsubVartime sets p = p - q in variable time.
func (p *Jacobian) MsubVartime(q *msm.Affine[Field]) {
	if q.Infinity {
		return
	}
	neg := *q
	neg.Y.Neg(&q.Y)
	p.MaddVartime(&neg)
}

// ToAffine normalises p to affine coordinates using fe for the field
// operations needed to invert Z.
func (p *Jacobian) ToAffine(fe msm.FieldAccess[Field]) msm.Affine[Field] {
	if p.IsIdentity() {
		return msm.Affine[Field]{Infinity: true}
	}
	zInv := *fe.InverseVartime(&p.Z)
	zInv2 := *fe.Square(&zInv)
	zInv3 := *fe.Mul(&zInv2, &zInv)
	x := *fe.Mul(&p.X, &zInv2)
	y := *fe.Mul(&p.Y, &zInv3)
	return msm.Affine[Field]{X: x, Y: y}
}
