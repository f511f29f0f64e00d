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

// ReferenceMSM computes sum_i scalars[i]*points[i] via plain double-and-add,
// independent of every bucket-method machinery the rest of this module
// implements. It exists purely as a slow, obviously-correct oracle for
// tests to compare the generic engine's output against.
func ReferenceMSM(scalars []msm.Scalar, points []msm.Affine[Field]) Jacobian {
	var r Jacobian
	r.SetIdentity()
	for i, p := range points {
		if p.Infinity {
			continue
		}
		k := scalars[i]
		bits := k.BitLen()
		var acc Jacobian
		acc.SetIdentity()
		for b := bits - 1; b >= 0; b-- {
			acc.Double()
			if k.Bit(b) == 1 {
				acc.MaddVartime(&p)
			}
		}
		r.AddVartime(&acc)
	}
	return r
}
