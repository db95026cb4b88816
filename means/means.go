// Package means implements the affine mean functions whose expectations
// have closed forms: zero, constant, linear and identity maps.
package means

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/utils"
)

var (
	// ErrDimMismatch is returned by Coefficients when a mean function
	// cannot accept inputs of the requested dimension.
	ErrDimMismatch = errors.New("means: input dimension mismatch")

	// ErrNotAffine is returned by Coefficients for mean functions
	// outside this package.
	ErrNotAffine = errors.New("means: mean function is not affine")
)

// MeanFunction maps a batch of inputs (R x D) to outputs (R x Q).
type MeanFunction interface {
	Eval(X mat.Matrix) *mat.Dense

	// Output width Q for inputs of the given dimension.
	OutputDim(inputDim int) int
}

// Coefficients returns the affine parameters (A, b) of m, with
// m(x) = Aᵀx + b, A of size inputDim x Q. Every mean function in this
// package is affine.
func Coefficients(m MeanFunction, inputDim int) (*mat.Dense, []float64, error) {
	switch m := m.(type) {
	case *Zero:
		return mat.NewDense(inputDim, m.q, nil), make([]float64, m.q), nil
	case *Constant:
		b := make([]float64, len(m.c))
		copy(b, m.c)
		return mat.NewDense(inputDim, len(m.c), nil), b, nil
	case *Linear:
		if r, _ := m.a.Dims(); r != inputDim {
			return nil, nil, fmt.Errorf("%w: linear mean takes %d columns, data has %d", ErrDimMismatch, r, inputDim)
		}
		b := make([]float64, len(m.b))
		copy(b, m.b)
		return m.a, b, nil
	case *Identity:
		if m.d != inputDim {
			return nil, nil, fmt.Errorf("%w: identity mean takes %d columns, data has %d", ErrDimMismatch, m.d, inputDim)
		}
		return utils.Eye(m.d), make([]float64, m.d), nil
	}
	return nil, nil, fmt.Errorf("%w: %T", ErrNotAffine, m)
}

// Zero maps every input to the zero vector of a fixed width.
type Zero struct {
	q int
}

var _ MeanFunction = (*Zero)(nil)

func NewZero(outputDim int) *Zero {
	if outputDim < 1 {
		panic(fmt.Sprintf("means: output dim must be positive, got %d", outputDim))
	}
	return &Zero{q: outputDim}
}

func (m *Zero) Eval(X mat.Matrix) *mat.Dense {
	r, _ := X.Dims()
	return mat.NewDense(r, m.q, nil)
}

func (m *Zero) OutputDim(int) int { return m.q }

// Constant maps every input to the same vector.
type Constant struct {
	c []float64
}

var _ MeanFunction = (*Constant)(nil)

func NewConstant(c ...float64) *Constant {
	if len(c) == 0 {
		panic("means: constant mean needs at least one output")
	}
	cc := make([]float64, len(c))
	copy(cc, c)
	return &Constant{c: cc}
}

// Value returns the constant output vector.
func (m *Constant) Value() []float64 { return m.c }

func (m *Constant) Eval(X mat.Matrix) *mat.Dense {
	r, _ := X.Dims()
	out := mat.NewDense(r, len(m.c), nil)
	for i := 0; i < r; i++ {
		out.SetRow(i, m.c)
	}
	return out
}

func (m *Constant) OutputDim(int) int { return len(m.c) }
