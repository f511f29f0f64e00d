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

// Package batchaffine implements the batch-affine bucket adder: K
// independent "add a signed point into a bucket" updates, applied to each
// bucket's affine slot using a single shared field inversion via
// Montgomery's trick, with identity/doubling/opposite handled as
// variable-time special cases.
package batchaffine

import (
	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/bucket"
)

type caseKind uint8

const (
	caseRegular caseKind = iota
	caseLHSEmpty
	caseRHSEmpty
	caseOpposite
)

// Queue is reusable scratch space for one Apply call, sized once to the
// scheduler's queue capacity Q and reused across every flush so a hot MSM
// window never allocates per batch.
type Queue[F any, FE msm.FieldOps[F]] struct {
	kind      []caseKind
	qx, qy    []F // the (possibly negated) source point, per op
	lambdaNum []F
	lambdaDen []F
	prefix    []F // Montgomery running-product prefix, regular entries only
	regular   []int
}

// NewQueue allocates scratch for up to capacity entries.
func NewQueue[F any, FE msm.FieldOps[F]](capacity int) *Queue[F, FE] {
	return &Queue[F, FE]{
		kind:      make([]caseKind, capacity),
		qx:        make([]F, capacity),
		qy:        make([]F, capacity),
		lambdaNum: make([]F, capacity),
		lambdaDen: make([]F, capacity),
		prefix:    make([]F, capacity),
		regular:   make([]int, 0, capacity),
	}
}

// Apply processes ops, each naming a distinct bucket index, against
// store and points, updating each touched bucket's affine slot to the sum
// of its prior affine value and the (possibly negated) source point. curveA
// is the short-Weierstrass coefficient a in y^2 = x^3 + a*x + b, needed for
// the doubling tangent-slope formula; it is 0 for every pairing-friendly
// curve this engine targets, but is threaded through rather than assumed
// so the adder is not silently wrong on a curve with a != 0.
//
// Callers MUST ensure every op.BucketIndex in ops is distinct: a repeated
// bucket index would have its earlier write shadowed by the later one
// instead of accumulated.
func Apply[A, F any, AE msm.AccumOps[A, F], FE msm.FieldOps[F]](
	q *Queue[F, FE],
	store *bucket.Store[A, F, AE, FE],
	points []msm.Affine[F],
	curveA F,
	ops []msm.ScheduledPoint,
) {
	n := len(ops)
	if n == 0 {
		return
	}
	if msm.DebugAssertsEnabled {
		indices := make([]int64, n)
		for i, op := range ops {
			indices[i] = op.BucketIndex
		}
		msm.DebugAssertDistinctBucketIndices(indices)
	}
	q.regular = q.regular[:0]

	for i, op := range ops {
		src := points[op.PointIndex]
		if op.Sign && !src.Infinity {
			var negY F
			FE(&negY).Neg(&src.Y)
			src.Y = negY
		}
		q.qx[i], q.qy[i] = src.X, src.Y

		lhs := store.Aff[op.BucketIndex]
		lhsPresent := store.Status[op.BucketIndex]&bucket.HasAffine != 0 && !lhs.Infinity

		switch {
		case !lhsPresent:
			q.kind[i] = caseLHSEmpty
		case src.Infinity:
			q.kind[i] = caseRHSEmpty
		case FE(&lhs.X).Equal(&src.X) && !FE(&lhs.Y).Equal(&src.Y):
			q.kind[i] = caseOpposite
		case FE(&lhs.X).Equal(&src.X):
			// Tangent slope for doubling: lambda = (3x^2 + a) / 2y.
			var num, xx, three, one F
			FE(&xx).Square(&lhs.X)
			FE(&one).SetOne()
			FE(&three).Add(&one, &one)
			FE(&three).Add(&three, &one)
			FE(&num).Mul(&three, &xx)
			FE(&num).Add(&num, &curveA)
			var den F
			FE(&den).Add(&lhs.Y, &lhs.Y)
			q.lambdaNum[i], q.lambdaDen[i] = num, den
			q.kind[i] = caseRegular
			q.regular = append(q.regular, i)
		default:
			// Chord slope: lambda = (qy - py) / (qx - px).
			var num, den F
			FE(&num).Sub(&src.Y, &lhs.Y)
			FE(&den).Sub(&src.X, &lhs.X)
			q.lambdaNum[i], q.lambdaDen[i] = num, den
			q.kind[i] = caseRegular
			q.regular = append(q.regular, i)
		}
	}

	invertRegular(q)

	for _, i := range q.regular {
		op := ops[i]
		lhs := store.Aff[op.BucketIndex]
		var lambda, lambdaSq, rx, ry, tmp F
		FE(&lambda).Mul(&q.lambdaNum[i], &q.lambdaDen[i]) // lambdaDen[i] now holds the inverse
		FE(&lambdaSq).Square(&lambda)
		FE(&rx).Sub(&lambdaSq, &lhs.X)
		FE(&rx).Sub(&rx, &q.qx[i])
		FE(&tmp).Sub(&lhs.X, &rx)
		FE(&tmp).Mul(&lambda, &tmp)
		FE(&ry).Sub(&tmp, &lhs.Y)
		store.Aff[op.BucketIndex] = msm.Affine[F]{X: rx, Y: ry}
		store.Status[op.BucketIndex] |= bucket.HasAffine
	}

	for i, op := range ops {
		switch q.kind[i] {
		case caseLHSEmpty:
			store.SetAffine(int(op.BucketIndex), msm.Affine[F]{X: q.qx[i], Y: q.qy[i], Infinity: points[op.PointIndex].Infinity})
		case caseRHSEmpty:
			// Leave the bucket unchanged.
		case caseOpposite:
			store.Status[op.BucketIndex] &^= bucket.HasAffine
			store.Aff[op.BucketIndex] = msm.Affine[F]{}
		}
	}
}

// invertRegular runs Montgomery's batch-inversion trick over the regular
// entries named in q.regular: one field inversion amortised across every
// entry, replacing q.lambdaDen[i] in place with its own inverse.
func invertRegular[F any, FE msm.FieldOps[F]](q *Queue[F, FE]) {
	m := len(q.regular)
	if m == 0 {
		return
	}
	acc := q.lambdaDen[q.regular[0]]
	q.prefix[0] = acc
	for k := 1; k < m; k++ {
		var next F
		FE(&next).Mul(&acc, &q.lambdaDen[q.regular[k]])
		acc = next
		q.prefix[k] = acc
	}

	var inv F
	FE(&inv).InverseVartime(&acc)

	for k := m - 1; k >= 0; k-- {
		i := q.regular[k]
		if k == 0 {
			q.lambdaDen[i] = inv
			continue
		}
		var thisInv, nextAcc F
		FE(&thisInv).Mul(&inv, &q.prefix[k-1])
		FE(&nextAcc).Mul(&inv, &q.lambdaDen[i])
		q.lambdaDen[i] = thisInv
		inv = nextAcc
	}
}
