package kern

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matern12 is the exponential kernel,
// :math:`k(x, x') = \sigma^2 \exp(-r / \ell)` with :math:`r = \lVert x - x' \rVert`.
type Matern12 struct {
	variance float64
	ls       float64
	inputDim int
	dims     Dims
}

var _ Kernel = (*Matern12)(nil)

// NewMatern12 returns a Matern kernel with smoothness 1/2.
func NewMatern12(inputDim int, variance, lengthscale float64, opts ...Option) *Matern12 {
	if lengthscale <= 0 {
		panic(fmt.Sprintf("kern: lengthscale must be positive, got %v", lengthscale))
	}
	if inputDim < 1 {
		panic(fmt.Sprintf("kern: input dim must be positive, got %d", inputDim))
	}
	if variance < 0 {
		panic(fmt.Sprintf("kern: variance must be non-negative, got %v", variance))
	}
	o := applyOptions(opts)
	checkDims(o.dims, inputDim)
	return &Matern12{variance: variance, ls: lengthscale, inputDim: inputDim, dims: o.dims}
}

// Variance returns the signal variance sigma^2.
func (k *Matern12) Variance() float64 { return k.variance }

// Lengthscale returns the shared lengthscale.
func (k *Matern12) Lengthscale() float64 { return k.ls }

func (k *Matern12) InputDim() int { return k.inputDim }

func (k *Matern12) Dims() Dims { return k.dims }

func (k *Matern12) K(X, X2 mat.Matrix) *mat.Dense {
	xs := k.dims.slice(X)
	zs := xs
	if X2 != nil {
		zs = k.dims.slice(X2)
	}
	r, d := xs.Dims()
	if d != k.inputDim {
		panic(fmt.Sprintf("kern: matern12 got %d input columns, want %d", d, k.inputDim))
	}
	m, _ := zs.Dims()
	out := mat.NewDense(r, m, nil)
	for i := 0; i < r; i++ {
		xi := xs.RawRowView(i)
		for j := 0; j < m; j++ {
			zj := zs.RawRowView(j)
			s := 0.0
			for dd := 0; dd < d; dd++ {
				diff := xi[dd] - zj[dd]
				s += diff * diff
			}
			out.Set(i, j, k.variance*math.Exp(-math.Sqrt(s)/k.ls))
		}
	}
	return out
}

func (k *Matern12) Kdiag(X mat.Matrix) *mat.VecDense {
	r, _ := X.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, k.variance)
	}
	return v
}

func (k *Matern12) Equal(other Kernel) bool {
	o, ok := other.(*Matern12)
	if !ok {
		return false
	}
	return k.variance == o.variance && k.ls == o.ls &&
		k.inputDim == o.inputDim && k.dims.Equal(o.dims)
}
