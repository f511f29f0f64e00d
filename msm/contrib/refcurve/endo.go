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

// zeta is a primitive cube root of unity mod P: a point's x-coordinate
// times zeta gives the image of the endomorphism phi(x, y) = (zeta*x, y).
const zeta uint64 = 10539

// lambda is phi's eigenvalue on the order-R subgroup: phi(P) = lambda*P.
const lambda int64 = 353

// Short GLV lattice basis for the sublattice {(x, y) : x + y*lambda = 0 mod
// R}, precomputed via the extended Euclidean algorithm on (R, lambda) and
// stopping at the first remainder below sqrt(R): v1 = (a1, b1), v2 = (a2,
// b2).
const (
	glvA1 int64 = 37
	glvB1 int64 = -56
	glvA2 int64 = 93
	glvB2 int64 = 37
)

// Endo is the GLV endomorphism adapter for this curve: dimension 2,
// eigenvalue lambda, implemented via the x-coordinate multiplication
// phi(x, y) = (zeta*x, y).
type Endo struct{}

var _ msm.Endomorphism[Field] = Endo{}

// Dimension reports M = 2.
func (Endo) Dimension() int { return 2 }

// Decompose splits a scalar a (taken mod R) into two mini-scalars k0, k1
// with signs such that a == sign0*k0 + sign1*k1*lambda (mod R), each of
// magnitude O(sqrt(R)).
func (Endo) Decompose(a msm.Scalar, bits int) (mini []msm.Scalar, sign []bool) {
	v, ok := a.Uint64()
	if !ok {
		panic("refcurve: scalar too wide for this toy curve's subgroup order")
	}
	k := int64(v % R)

	c1 := roundDiv(glvB2*k, int64(R))
	c2 := roundDiv(-glvB1*k, int64(R))
	k0 := k - c1*glvA1 - c2*glvA2
	k1 := -c1*glvB1 - c2*glvB2

	mini = make([]msm.Scalar, 2)
	sign = make([]bool, 2)
	mini[0], sign[0] = absScalar(k0)
	mini[1], sign[1] = absScalar(k1)
	return mini, sign
}

// ApplyEndoM applies phi to p when m is odd and returns p unchanged when m
// is even. Only m=1 is meaningful for a dimension-2 endomorphism.
func (Endo) ApplyEndoM(p msm.Affine[Field], m int) msm.Affine[Field] {
	if p.Infinity || m%2 == 0 {
		return p
	}
	var zf, x Field
	zf = Field(zeta)
	x.Mul(&zf, &p.X)
	return msm.Affine[Field]{X: x, Y: p.Y}
}

func roundDiv(num, den int64) int64 {
	if den < 0 {
		num, den = -num, -den
	}
	if num >= 0 {
		return (2*num + den) / (2 * den)
	}
	return -((2*(-num) + den) / (2 * den))
}

func absScalar(v int64) (msm.Scalar, bool) {
	neg := v < 0
	if neg {
		v = -v
	}
	return msm.ScalarFromUint64(uint64(v)), neg
}
