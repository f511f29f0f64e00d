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

package parallel

import (
	"math/rand"
	"testing"

	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/refcurve"
	"github.com/ajroetker/go-msm/msm/contrib/serial"
	"github.com/ajroetker/go-msm/msm/contrib/workerpool"
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

func randomInstance(rng *rand.Rand, n, bits int) ([]msm.Scalar, []msm.Affine[refcurve.Field]) {
	scalars := make([]msm.Scalar, n)
	points := make([]msm.Affine[refcurve.Field], n)
	mask := uint64(1)<<uint(bits) - 1
	for i := 0; i < n; i++ {
		scalars[i] = msm.ScalarFromUint64(rng.Uint64() & mask)
		points[i] = scalarMulG(rng.Uint64())
	}
	return scalars, points
}

func samePoint(t *testing.T, got, want msm.Affine[refcurve.Field]) {
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

func toAffine(j refcurve.Jacobian) msm.Affine[refcurve.Field] {
	var fe refcurve.Field
	return j.ToAffine(&fe)
}

func TestMSMVarTimeParallelMatchesSerial(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	rng := rand.New(rand.NewSource(11))
	cases := []struct{ n, bits int }{
		{8, 16},    // below SerialFallbackThreshold
		{20, 8},    // c=3, three windows, four buckets: bucket-sharded axis
		{200, 96},  // wide scalars, many windows: window-parallel axis
		{500, 32},  // mid-size, c=7, five windows: window-parallel axis
		{1, 16},
		{0, 16},
	}
	for _, c := range cases {
		scalars, points := randomInstance(rng, c.n, c.bits)

		var got refcurve.Jacobian
		MSMVarTimeParallel[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](pool, &got, scalars, points, c.bits, refcurve.CurveA)

		var want refcurve.Jacobian
		serial.MSMVarTime[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](&want, scalars, points, c.bits, refcurve.CurveA)

		samePoint(t, toAffine(got), toAffine(want))
	}
}

func TestMSMVarTimeParallelNilPoolFallsBackToSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	scalars, points := randomInstance(rng, 5, 16)

	var got refcurve.Jacobian
	MSMVarTimeParallel[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](nil, &got, scalars, points, 16, refcurve.CurveA)

	var want refcurve.Jacobian
	serial.MSMVarTime[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](&want, scalars, points, 16, refcurve.CurveA)

	samePoint(t, toAffine(got), toAffine(want))
}

func TestMSMVarTimeParallelSingleThreadPool(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()

	rng := rand.New(rand.NewSource(13))
	scalars, points := randomInstance(rng, 100, 32)

	var got refcurve.Jacobian
	MSMVarTimeParallel[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](pool, &got, scalars, points, 32, refcurve.CurveA)

	var want refcurve.Jacobian
	serial.MSMVarTime[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](&want, scalars, points, 32, refcurve.CurveA)

	samePoint(t, toAffine(got), toAffine(want))
}

func TestMSMVarTimeParallelEmptyIsIdentity(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	var r refcurve.Jacobian
	MSMVarTimeParallel[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](pool, &r, nil, nil, 32, refcurve.CurveA)
	if !r.IsIdentity() {
		t.Errorf("MSMVarTimeParallel with no points did not return the identity")
	}
}

// TestMSMVarTimeParallelWindowSizeInvariant is spec scenario S5: a forced
// c must not change the result. With four threads, c=4 and c=8 run the
// window-parallel axis and c=12 and c=16 the bucket-sharded axis; the
// MSM-split axis is not reached by this test.
func TestMSMVarTimeParallelWindowSizeInvariant(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	rng := rand.New(rand.NewSource(2026))
	const n, bits = 65536, 32
	scalars, points := randomInstance(rng, n, bits)

	want := refcurve.ReferenceMSM(scalars, points)

	for _, c := range []int{4, 8, 12, 16} {
		var got refcurve.Jacobian
		MSMVarTimeParallelWithWindow[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](pool, &got, scalars, points, bits, refcurve.CurveA, c)
		samePoint(t, toAffine(got), toAffine(want))
	}
}

func TestPartitionRangeCoversExactlyOnce(t *testing.T) {
	for _, tc := range []struct{ n, parts int }{
		{0, 4}, {1, 4}, {5, 3}, {100, 7}, {100, 1}, {3, 10},
	} {
		bounds := partitionRange(tc.n, tc.parts)
		covered := make([]bool, tc.n)
		for _, b := range bounds {
			if b.lo >= b.hi {
				t.Fatalf("partitionRange(%d,%d) produced an empty range [%d,%d)", tc.n, tc.parts, b.lo, b.hi)
			}
			for i := b.lo; i < b.hi; i++ {
				if covered[i] {
					t.Fatalf("partitionRange(%d,%d) covered index %d twice", tc.n, tc.parts, i)
				}
				covered[i] = true
			}
		}
		for i, c := range covered {
			if !c {
				t.Fatalf("partitionRange(%d,%d) never covered index %d", tc.n, tc.parts, i)
			}
		}
	}
}
