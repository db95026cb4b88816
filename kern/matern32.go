package kern

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matern32 is the Matern kernel with smoothness 3/2,
// :math:`k(x, x') = \sigma^2 (1 + \sqrt{3} r / \ell) \exp(-\sqrt{3} r / \ell)`.
type Matern32 struct {
	variance float64
	ls       float64
	inputDim int
	dims     Dims
}

var _ Kernel = (*Matern32)(nil)

// NewMatern32 returns a Matern kernel with smoothness 3/2.
func NewMatern32(inputDim int, variance, lengthscale float64, opts ...Option) *Matern32 {
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
	return &Matern32{variance: variance, ls: lengthscale, inputDim: inputDim, dims: o.dims}
}

// Variance returns the signal variance sigma^2.
func (k *Matern32) Variance() float64 { return k.variance }

// Lengthscale returns the shared lengthscale.
func (k *Matern32) Lengthscale() float64 { return k.ls }

func (k *Matern32) InputDim() int { return k.inputDim }

func (k *Matern32) Dims() Dims { return k.dims }

func (k *Matern32) K(X, X2 mat.Matrix) *mat.Dense {
	xs := k.dims.slice(X)
	zs := xs
	if X2 != nil {
		zs = k.dims.slice(X2)
	}
	r, d := xs.Dims()
	if d != k.inputDim {
		panic(fmt.Sprintf("kern: matern32 got %d input columns, want %d", d, k.inputDim))
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
			sr := math.Sqrt(3) * math.Sqrt(s) / k.ls
			out.Set(i, j, k.variance*(1+sr)*math.Exp(-sr))
		}
	}
	return out
}

func (k *Matern32) Kdiag(X mat.Matrix) *mat.VecDense {
	r, _ := X.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, k.variance)
	}
	return v
}

func (k *Matern32) Equal(other Kernel) bool {
	o, ok := other.(*Matern32)
	if !ok {
		return false
	}
	return k.variance == o.variance && k.ls == o.ls &&
		k.inputDim == o.inputDim && k.dims.Equal(o.dims)
}
