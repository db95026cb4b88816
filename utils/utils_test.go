package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEye(t *testing.T) {
	i3 := Eye(3)
	assert.Equal(t, 1.0, i3.At(1, 1))
	assert.Equal(t, 0.0, i3.At(0, 2))
}

func TestSolveTri(t *testing.T) {
	// L = [[2, 0], [1, 3]], B = L * X with X = [[1], [2]]
	l := mat.NewTriDense(2, mat.Lower, []float64{2, 0, 1, 3})
	b := mat.NewDense(2, 1, []float64{2, 7})
	require.NoError(t, SolveTri(l, b))
	assert.InDelta(t, 1.0, b.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, b.At(1, 0), 1e-12)
}

func TestSolveTriTrans(t *testing.T) {
	// Lᵀ X = B with L = [[2, 0], [1, 3]]: Lᵀ = [[2, 1], [0, 3]]
	l := mat.NewTriDense(2, mat.Lower, []float64{2, 0, 1, 3})
	b := mat.NewDense(2, 1, []float64{4, 3})
	require.NoError(t, SolveTriTrans(l, b))
	assert.InDelta(t, 1.5, b.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, b.At(1, 0), 1e-12)
}

func TestSolveTriSingular(t *testing.T) {
	l := mat.NewTriDense(2, mat.Lower, []float64{0, 0, 1, 1})
	b := mat.NewDense(2, 1, []float64{1, 1})
	assert.ErrorIs(t, SolveTri(l, b), ErrSingular)
}

func TestPSDRootPositiveDefinite(t *testing.T) {
	a := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	root, err := PSDRoot(a)
	require.NoError(t, err)
	assertRootSquares(t, a, root)
}

func TestPSDRootSingular(t *testing.T) {
	// Rank-one matrix: Cholesky fails, the eigenvalue path must take over.
	a := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	root, err := PSDRoot(a)
	require.NoError(t, err)
	assertRootSquares(t, a, root)
}

func TestPSDRootZero(t *testing.T) {
	a := mat.NewSymDense(2, nil)
	root, err := PSDRoot(a)
	require.NoError(t, err)
	assertRootSquares(t, a, root)
}

func TestPSDRootIndefinite(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 0, 0, -1})
	_, err := PSDRoot(a)
	assert.ErrorIs(t, err, ErrNotPSD)
}

func assertRootSquares(t *testing.T, a *mat.SymDense, root *mat.Dense) {
	t.Helper()
	var got mat.Dense
	got.Mul(root, root.T())
	n, _ := a.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, a.At(i, j), got.At(i, j), 1e-9)
		}
	}
}
