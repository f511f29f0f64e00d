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

// Package refcurve is a small concrete elliptic curve instantiation used to
// exercise and test the generic multi-scalar-multiplication engine: a
// short-Weierstrass curve y^2 = x^3 + B over F_P small enough that a
// reference double-and-add oracle and brute-force test vectors are cheap to
// compute, but large enough (and equipped with a genuine GLV endomorphism)
// to exercise every window size and the endomorphism adapter.
package refcurve

// P is the field modulus.
const P uint64 = 20011

// Field is an element of F_P, always kept in canonical form [0, P). It
// satisfies msm.FieldOps[Field] via pointer-receiver methods.
type Field uint64

func norm(v uint64) Field {
	return Field(v % P)
}

// Add sets dst = a+b and returns dst.
func (dst *Field) Add(a, b *Field) *Field {
	*dst = norm(uint64(*a) + uint64(*b))
	return dst
}

// Sub sets dst = a-b and returns dst.
func (dst *Field) Sub(a, b *Field) *Field {
	*dst = norm(uint64(*a) + P - uint64(*b))
	return dst
}

// Neg sets dst = -a and returns dst.
func (dst *Field) Neg(a *Field) *Field {
	*dst = norm(P - uint64(*a))
	return dst
}

// Mul sets dst = a*b and returns dst.
func (dst *Field) Mul(a, b *Field) *Field {
	*dst = norm(uint64(*a) * uint64(*b))
	return dst
}

// Square sets dst = a*a and returns dst.
func (dst *Field) Square(a *Field) *Field {
	return dst.Mul(a, a)
}

// InverseVartime sets dst = a^-1 via the extended Euclidean algorithm and
// returns dst. a must be nonzero.
func (dst *Field) InverseVartime(a *Field) *Field {
	t, newT := int64(0), int64(1)
	r, newR := int64(P), int64(*a)
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}
	if t < 0 {
		t += int64(P)
	}
	*dst = Field(uint64(t))
	return dst
}

// Halve sets dst = a/2 and returns dst.
func (dst *Field) Halve(a *Field) *Field {
	v := uint64(*a)
	if v&1 == 0 {
		*dst = Field(v / 2)
	} else {
		*dst = Field((v + P) / 2)
	}
	return dst
}

// IsZero reports whether a is the additive identity.
func (a *Field) IsZero() bool { return *a == 0 }

// IsOne reports whether a is the multiplicative identity.
func (a *Field) IsOne() bool { return *a == 1 }

// Equal reports whether a == b.
func (a *Field) Equal(b *Field) bool { return *a == *b }

// SetZero sets dst = 0 and returns dst.
func (dst *Field) SetZero() *Field { *dst = 0; return dst }

// SetOne sets dst = 1 and returns dst.
func (dst *Field) SetOne() *Field { *dst = 1; return dst }

// Set sets dst = a and returns dst.
func (dst *Field) Set(a *Field) *Field { *dst = *a; return dst }

// ConditionalSelect sets dst = a if cond else b, and returns dst.
func (dst *Field) ConditionalSelect(cond bool, a, b *Field) *Field {
	if cond {
		*dst = *a
	} else {
		*dst = *b
	}
	return dst
}
