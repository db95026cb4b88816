package means

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestZeroEval(t *testing.T) {
	m := NewZero(2)
	out := m.Eval(mat.NewDense(3, 4, nil))
	r, c := out.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 0.0, out.At(2, 1))
	assert.Equal(t, 2, m.OutputDim(4))
}

func TestConstantEval(t *testing.T) {
	m := NewConstant(2, 3)
	out := m.Eval(mat.NewDense(2, 1, []float64{7, 8}))
	assert.Equal(t, []float64{2, 3}, out.RawRowView(0))
	assert.Equal(t, []float64{2, 3}, out.RawRowView(1))
}

func TestLinearEval(t *testing.T) {
	// m(x) = Aᵀx + b with A = [[1, 0], [2, -1]], b = [0.5, 0]
	a := mat.NewDense(2, 2, []float64{1, 0, 2, -1})
	m := NewLinear(a, []float64{0.5, 0})
	x := mat.NewDense(1, 2, []float64{3, 4})
	out := m.Eval(x)
	assert.InDelta(t, 3*1+4*2+0.5, out.At(0, 0), 1e-12)
	assert.InDelta(t, 3*0+4*-1, out.At(0, 1), 1e-12)
	assert.Equal(t, 2, m.OutputDim(2))
}

func TestIdentityEval(t *testing.T) {
	m := NewIdentity(2)
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	out := m.Eval(x)
	assert.Equal(t, []float64{3, 4}, out.RawRowView(1))
	assert.Panics(t, func() { m.Eval(mat.NewDense(1, 3, nil)) })
}

// Every mean function must agree with its own affine coefficients.
func TestCoefficientsMatchEval(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, -0.5, 0, 3, 1})
	funcs := []MeanFunction{
		NewZero(3),
		NewConstant(1, -2, 0.5),
		NewLinear(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}), []float64{-1, 0, 1}),
		NewIdentity(2),
	}
	for _, m := range funcs {
		a, b, err := Coefficients(m, 2)
		require.NoError(t, err)

		want := m.Eval(x)
		var got mat.Dense
		got.Mul(x, a)
		r, q := got.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < q; j++ {
				assert.InDelta(t, want.At(i, j), got.At(i, j)+b[j], 1e-12, "%T output (%d, %d)", m, i, j)
			}
		}
	}
}

// cubicMean is affine nowhere; Coefficients must refuse it.
type cubicMean struct{}

func (cubicMean) Eval(X mat.Matrix) *mat.Dense {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		v := X.At(i, 0)
		out.Set(i, 0, v*v*v)
	}
	return out
}

func (cubicMean) OutputDim(int) int { return 1 }

func TestCoefficientsNotAffine(t *testing.T) {
	_, _, err := Coefficients(cubicMean{}, 2)
	assert.ErrorIs(t, err, ErrNotAffine)
}

func TestCoefficientsDimMismatch(t *testing.T) {
	_, _, err := Coefficients(NewIdentity(3), 2)
	assert.ErrorIs(t, err, ErrDimMismatch)

	lin := NewLinear(mat.NewDense(3, 1, nil), []float64{0})
	_, _, err = Coefficients(lin, 2)
	assert.ErrorIs(t, err, ErrDimMismatch)
}

func TestConstructorPanics(t *testing.T) {
	assert.Panics(t, func() { NewZero(0) })
	assert.Panics(t, func() { NewConstant() })
	assert.Panics(t, func() { NewLinear(nil, nil) })
	assert.Panics(t, func() { NewLinear(mat.NewDense(2, 2, nil), []float64{1}) })
	assert.Panics(t, func() { NewIdentity(0) })
}
