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

// Package msm defines the collaborator contracts and low-level primitives
// shared by every multi-scalar-multiplication component: the field,
// affine-point, accumulator, endomorphism and thread-pool interfaces the
// bucket-method driver is generic over, the Scalar representation, and the
// signed-digit (Booth) window extractor.
//
// Nothing in this package allocates buckets, schedules additions, or runs a
// window loop; those live in the sibling msm/contrib/* packages, each built
// on top of the contracts defined here.
package msm

// FieldOps is the arithmetic contract the core requires from a field
// element type F. Implementations mutate the receiver in place and return
// it, mirroring the "(z *T) Op(x, y *T) *T" convention used throughout the
// finite-field libraries this engine is designed to sit on top of.
//
// F itself carries no methods; *F must satisfy FieldOps. This lets generic
// core code call field arithmetic directly on *F values without going
// through an extra indirection object:
//
//	func addInto[F any, FE FieldOps[F]](dst, a, b *F) {
//	    FE(dst).Add(a, b)
//	}
type FieldOps[F any] interface {
	*F

	Add(a, b *F) *F
	Sub(a, b *F) *F
	Neg(a *F) *F
	Mul(a, b *F) *F
	Square(a *F) *F
	InverseVartime(a *F) *F
	Halve(a *F) *F
	IsZero() bool
	IsOne() bool
	Equal(b *F) bool
	SetZero() *F
	SetOne() *F
	Set(a *F) *F
	ConditionalSelect(cond bool, a, b *F) *F
}

// Affine is an (x, y) point on an elliptic curve over field F, with the
// identity represented by Infinity = true (x and y are left at their zero
// value). The core never mutates a caller-supplied Affine; every component
// that needs a negated or summed affine value writes to a fresh one.
type Affine[F any] struct {
	X, Y     F
	Infinity bool
}

// AccumOps is the contract the core requires from an accumulator point
// type A, a Jacobian, projective, or extended-Jacobian representation
// chosen once per instantiation. Doubling and the generic addition
// formulas are themselves external collaborators: the core calls them as
// black boxes and never inspects coordinates.
type AccumOps[A, F any] interface {
	*A

	SetIdentity()
	IsIdentity() bool
	Double()
	AddVartime(o *A)
	SubVartime(o *A)
	MaddVartime(p *Affine[F])
	MsubVartime(p *Affine[F])
	Neg()
	Set(o *A)
	ToAffine(fe FieldAccess[F]) Affine[F]
}

// FieldAccess is the subset of FieldOps an accumulator needs to normalise
// itself to affine coordinates (dividing by Z or ZZ/ZZZ). It is threaded
// through ToAffine explicitly rather than captured, since A's methods are
// defined once per accumulator type but the field implementation is a
// separate generic parameter.
type FieldAccess[F any] interface {
	InverseVartime(a *F) *F
	Mul(a, b *F) *F
	Square(a *F) *F
}

// Endomorphism is the optional fast-endomorphism collaborator (C7, GLV/GLS
// style). Dimension is 2 for a curve endomorphism over Fp, 4 for a twist
// endomorphism (e.g. Frobenius) over Fp2.
type Endomorphism[F any] interface {
	// Dimension is M: the number of mini-scalars a scalar is split into.
	Dimension() int
	// Decompose splits one scalar of the given bit width into Dimension
	// mini-scalars (magnitude, sign) pairs such that
	// a == sum(sign[m] * mini[m] * lambda^m) (mod group order).
	Decompose(a Scalar, bits int) (mini []Scalar, sign []bool)
	// ApplyEndoM applies phi^m to p, for m in [1, Dimension).
	ApplyEndoM(p Affine[F], m int) Affine[F]
}

// ThreadPool is the task-pool contract the parallel driver (C6) is written
// against; see msm/contrib/workerpool for the default implementation.
type ThreadPool interface {
	// ParallelFor partitions [0, n) into contiguous ranges and runs fn on
	// each concurrently, blocking until all ranges complete.
	ParallelFor(n int, fn func(start, end int))
	// Spawn runs fn asynchronously and returns a handle Sync can join.
	Spawn(fn func()) Future
	// NumThreads reports the pool's worker count.
	NumThreads() int
}

// Future is a handle to a task started by ThreadPool.Spawn.
type Future interface {
	// Sync blocks until the task completes.
	Sync()
}
