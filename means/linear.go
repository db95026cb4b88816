package means

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is the affine map m(x) = Aᵀx + b with A of size D x Q.
type Linear struct {
	a *mat.Dense
	b []float64
}

var _ MeanFunction = (*Linear)(nil)

func NewLinear(a *mat.Dense, b []float64) *Linear {
	if a == nil {
		panic("means: nil coefficient matrix")
	}
	_, q := a.Dims()
	if len(b) != q {
		panic(fmt.Sprintf("means: %d offsets for %d outputs", len(b), q))
	}
	bb := make([]float64, q)
	copy(bb, b)
	return &Linear{a: a, b: bb}
}

// A returns the D x Q coefficient matrix.
func (m *Linear) A() *mat.Dense { return m.a }

// B returns the offset vector.
func (m *Linear) B() []float64 { return m.b }

func (m *Linear) Eval(X mat.Matrix) *mat.Dense {
	r, _ := X.Dims()
	_, q := m.a.Dims()
	out := mat.NewDense(r, q, nil)
	out.Mul(X, m.a)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j := 0; j < q; j++ {
			row[j] += m.b[j]
		}
	}
	return out
}

func (m *Linear) OutputDim(int) int {
	_, q := m.a.Dims()
	return q
}

// Identity maps inputs to themselves.
type Identity struct {
	d int
}

var _ MeanFunction = (*Identity)(nil)

func NewIdentity(dim int) *Identity {
	if dim < 1 {
		panic(fmt.Sprintf("means: input dim must be positive, got %d", dim))
	}
	return &Identity{d: dim}
}

func (m *Identity) Eval(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	if c != m.d {
		panic(fmt.Sprintf("means: identity mean of dim %d got %d columns", m.d, c))
	}
	out := mat.NewDense(r, c, nil)
	out.Copy(X)
	return out
}

func (m *Identity) OutputDim(int) int { return m.d }
