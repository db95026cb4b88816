package utils

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular is returned when a triangular solve meets a zero pivot.
	ErrSingular = errors.New("utils: matrix is singular")

	// ErrNotPSD is returned when a matrix that must be positive
	// semi-definite is not, beyond numerical noise.
	ErrNotPSD = errors.New("utils: matrix is not positive semi-definite")
)

// Identity Matrix.
func Eye(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// SolveTri solves L X = B in place for lower-triangular L, overwriting B
// with the solution.
func SolveTri(l *mat.TriDense, b *mat.Dense) error {
	if ok := lapack64.Trtrs(blas.NoTrans, l.RawTriangular(), b.RawMatrix()); !ok {
		return ErrSingular
	}
	return nil
}

// SolveTriTrans solves Lᵀ X = B in place for lower-triangular L.
func SolveTriTrans(l *mat.TriDense, b *mat.Dense) error {
	if ok := lapack64.Trtrs(blas.Trans, l.RawTriangular(), b.RawMatrix()); !ok {
		return ErrSingular
	}
	return nil
}

// PSDRoot returns a square root B with B Bᵀ = a. It uses the Cholesky
// factor when a is positive definite and otherwise falls back to an
// eigendecomposition, clamping eigenvalues within numerical noise of
// zero. Eigenvalues decisively below zero are an error.
func PSDRoot(a *mat.SymDense) (*mat.Dense, error) {
	n, _ := a.Dims()
	var chol mat.Cholesky
	if chol.Factorize(a) {
		l := mat.NewTriDense(n, mat.Lower, nil)
		chol.LTo(l)
		out := mat.NewDense(n, n, nil)
		out.Copy(l)
		return out, nil
	}
	var eig mat.EigenSym
	if !eig.Factorize(a, true) {
		return nil, ErrNotPSD
	}
	vals := eig.Values(nil)
	vecs := mat.NewDense(n, n, nil)
	eig.VectorsTo(vecs)
	scale := 0.0
	for _, v := range vals {
		if av := math.Abs(v); av > scale {
			scale = av
		}
	}
	tol := 1e-9 * (1 + scale)
	for j, v := range vals {
		if v < -tol {
			return nil, ErrNotPSD
		}
		s := 0.0
		if v > 0 {
			s = math.Sqrt(v)
		}
		for i := 0; i < n; i++ {
			vecs.Set(i, j, vecs.At(i, j)*s)
		}
	}
	return vecs, nil
}
