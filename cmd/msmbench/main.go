// Command msmbench runs refcurve multi-scalar multiplications over
// randomly generated inputs and reports timing and the window size the
// driver chose.
//
// Usage:
//
//	msmbench -n 100000 -bits 64 -parallel -workers 8
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/ajroetker/go-msm/msm"
	"github.com/ajroetker/go-msm/msm/contrib/parallel"
	"github.com/ajroetker/go-msm/msm/contrib/refcurve"
	"github.com/ajroetker/go-msm/msm/contrib/serial"
	"github.com/ajroetker/go-msm/msm/contrib/workerpool"
)

var (
	n           = flag.Int("n", 10000, "number of (scalar, point) pairs")
	bits        = flag.Int("bits", 32, "scalar bit width, up to 64")
	c           = flag.Int("c", 0, "force the driver to use this window size instead of choosing one (0: auto)")
	useParallel = flag.Bool("parallel", false, "use the parallel driver instead of the serial one")
	workers     = flag.Int("workers", 0, "worker pool size for -parallel (0: GOMAXPROCS)")
	seed        = flag.Int64("seed", 1, "random seed for the generated instance")
)

func main() {
	flag.Parse()

	if *n <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -n must be positive")
		flag.Usage()
		os.Exit(1)
	}
	if *bits <= 0 || *bits > 64 {
		fmt.Fprintln(os.Stderr, "Error: -bits must be in (0, 64]")
		flag.Usage()
		os.Exit(1)
	}

	chosenC := *c
	if chosenC != 0 && (chosenC < msm.MinWindowSize || chosenC > msm.WindowSizeCap) {
		fmt.Fprintf(os.Stderr, "Error: -c must be 0 (auto) or in [%d, %d]\n", msm.MinWindowSize, msm.WindowSizeCap)
		flag.Usage()
		os.Exit(1)
	}
	forced := chosenC != 0
	if !forced {
		chosenC = msm.ChooseWindowSize(*bits, *n)
	}

	scalars, points := randomInstance(*n, *bits)

	var result refcurve.Jacobian
	start := time.Now()
	if *useParallel {
		pool := workerpool.New(*workers)
		defer pool.Close()
		if forced {
			parallel.MSMVarTimeParallelWithWindow[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](
				pool, &result, scalars, points, *bits, refcurve.CurveA, chosenC)
		} else {
			parallel.MSMVarTimeParallel[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](
				pool, &result, scalars, points, *bits, refcurve.CurveA)
		}
	} else {
		if forced {
			serial.MSMVarTimeWithWindow[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](
				&result, scalars, points, *bits, refcurve.CurveA, chosenC)
		} else {
			serial.MSMVarTime[refcurve.Jacobian, refcurve.Field, *refcurve.Jacobian, *refcurve.Field](
				&result, scalars, points, *bits, refcurve.CurveA)
		}
	}
	elapsed := time.Since(start)

	var fe refcurve.Field
	aff := result.ToAffine(&fe)

	log.Printf("n=%d bits=%d window=%d forced=%v parallel=%v elapsed=%s", *n, *bits, chosenC, forced, *useParallel, elapsed)
	if aff.Infinity {
		fmt.Println("result: infinity")
	} else {
		fmt.Printf("result: (%d, %d)\n", aff.X, aff.Y)
	}
}

func randomInstance(n, bits int) ([]msm.Scalar, []msm.Affine[refcurve.Field]) {
	rng := rand.New(rand.NewSource(*seed))
	scalars := make([]msm.Scalar, n)
	points := make([]msm.Affine[refcurve.Field], n)
	mask := uint64(1)<<uint(bits) - 1
	if bits >= 64 {
		mask = ^uint64(0)
	}

	g := refcurve.Generator
	for i := 0; i < n; i++ {
		scalars[i] = msm.ScalarFromUint64(rng.Uint64() & mask)

		var acc refcurve.Jacobian
		acc.SetIdentity()
		for b := 63; b >= 0; b-- {
			acc.Double()
			if (rng.Uint64()>>uint(b))&1 == 1 {
				acc.MaddVartime(&g)
			}
		}
		var fe refcurve.Field
		points[i] = acc.ToAffine(&fe)
	}
	return scalars, points
}
