package kern

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Constant is the bias kernel, :math:`k(x, x') = \sigma^2`.
type Constant struct {
	variance float64
	inputDim int
	dims     Dims
}

var _ Kernel = (*Constant)(nil)

// NewConstant returns a kernel with the same covariance everywhere.
func NewConstant(inputDim int, variance float64, opts ...Option) *Constant {
	if inputDim < 1 {
		panic(fmt.Sprintf("kern: input dim must be positive, got %d", inputDim))
	}
	if variance < 0 {
		panic(fmt.Sprintf("kern: variance must be non-negative, got %v", variance))
	}
	o := applyOptions(opts)
	checkDims(o.dims, inputDim)
	return &Constant{variance: variance, inputDim: inputDim, dims: o.dims}
}

// Variance returns the constant covariance sigma^2.
func (k *Constant) Variance() float64 { return k.variance }

func (k *Constant) InputDim() int { return k.inputDim }

func (k *Constant) Dims() Dims { return k.dims }

func (k *Constant) K(X, X2 mat.Matrix) *mat.Dense {
	xs := k.dims.slice(X)
	zs := xs
	if X2 != nil {
		zs = k.dims.slice(X2)
	}
	r, d := xs.Dims()
	if d != k.inputDim {
		panic(fmt.Sprintf("kern: constant got %d input columns, want %d", d, k.inputDim))
	}
	m, _ := zs.Dims()
	out := mat.NewDense(r, m, nil)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] = k.variance
		}
	}
	return out
}

func (k *Constant) Kdiag(X mat.Matrix) *mat.VecDense {
	r, _ := X.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, k.variance)
	}
	return v
}

func (k *Constant) Equal(other Kernel) bool {
	o, ok := other.(*Constant)
	if !ok {
		return false
	}
	return k.variance == o.variance && k.inputDim == o.inputDim && k.dims.Equal(o.dims)
}
