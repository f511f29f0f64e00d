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

// Package endo expands an MSM problem over a curve with an efficient
// endomorphism into an equivalent, narrower-scalar problem: each input
// (scalar, point) pair becomes Dimension() pairs of (mini-scalar,
// endomorphism-image point), signs absorbed into the points, so the core
// driver runs over scalars roughly 1/Dimension() as wide.
package endo

import "github.com/ajroetker/go-msm/msm"

// Threshold is the minimum scalar bit width below which decomposition
// overhead is not worth it; curves gate endomorphism use on scalars at
// least this wide.
const Threshold = 50

// Expand applies endo to every (scalars[i], points[i]) pair, producing
// Dimension()*len(points) new pairs with mini-scalars of width
// ceil(bits/Dimension())+1. The caller runs the core MSM over the result
// with that reduced bit width in place of the original.
func Expand[F any, FE msm.FieldOps[F]](endo msm.Endomorphism[F], scalars []msm.Scalar, points []msm.Affine[F], bits int) ([]msm.Scalar, []msm.Affine[F], int) {
	m := endo.Dimension()
	n := len(points)
	l := (bits + m - 1) / m
	l++

	outScalars := make([]msm.Scalar, 0, m*n)
	outPoints := make([]msm.Affine[F], 0, m*n)

	for i := range points {
		minis, signs := endo.Decompose(scalars[i], bits)
		for d := 0; d < m; d++ {
			p := points[i]
			if d > 0 {
				p = endo.ApplyEndoM(p, d)
			}
			if signs[d] && !p.Infinity {
				var negY F
				FE(&negY).Neg(&p.Y)
				p.Y = negY
			}
			outScalars = append(outScalars, minis[d])
			outPoints = append(outPoints, p)
		}
	}

	return outScalars, outPoints, l
}

// ShouldApply reports whether the endomorphism path is worth taking for a
// scalar width of bits bits.
func ShouldApply(bits int) bool {
	return bits >= Threshold
}
