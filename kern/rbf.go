package kern

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RBF is the squared-exponential kernel,
// :math:`k(x, x') = \sigma^2 \exp(-\frac{1}{2} \sum_d (x_d - x'_d)^2 / \ell_d^2)`.
type RBF struct {
	variance float64
	ls       []float64 // one shared entry, or inputDim entries when ARD
	ard      bool
	inputDim int
	dims     Dims
}

var _ Kernel = (*RBF)(nil)

// NewRBF returns an RBF kernel with one lengthscale shared across
// dimensions.
func NewRBF(inputDim int, variance, lengthscale float64, opts ...Option) *RBF {
	if lengthscale <= 0 {
		panic(fmt.Sprintf("kern: lengthscale must be positive, got %v", lengthscale))
	}
	k := &RBF{variance: variance, ls: []float64{lengthscale}, inputDim: inputDim}
	finishRBF(k, opts)
	return k
}

// NewRBFARD returns an RBF kernel with one lengthscale per dimension.
func NewRBFARD(inputDim int, variance float64, lengthscales []float64, opts ...Option) *RBF {
	if len(lengthscales) != inputDim {
		panic(fmt.Sprintf("kern: %d lengthscales for input dim %d", len(lengthscales), inputDim))
	}
	for _, l := range lengthscales {
		if l <= 0 {
			panic(fmt.Sprintf("kern: lengthscale must be positive, got %v", l))
		}
	}
	ls := make([]float64, inputDim)
	copy(ls, lengthscales)
	k := &RBF{variance: variance, ls: ls, ard: true, inputDim: inputDim}
	finishRBF(k, opts)
	return k
}

func finishRBF(k *RBF, opts []Option) {
	if k.inputDim < 1 {
		panic(fmt.Sprintf("kern: input dim must be positive, got %d", k.inputDim))
	}
	if k.variance < 0 {
		panic(fmt.Sprintf("kern: variance must be non-negative, got %v", k.variance))
	}
	o := applyOptions(opts)
	checkDims(o.dims, k.inputDim)
	k.dims = o.dims
}

// Variance returns the signal variance sigma^2.
func (k *RBF) Variance() float64 { return k.variance }

// ARD reports whether the kernel has per-dimension lengthscales.
func (k *RBF) ARD() bool { return k.ard }

// Lengthscales returns the lengthscale of every input dimension,
// expanding a shared lengthscale.
func (k *RBF) Lengthscales() []float64 {
	out := make([]float64, k.inputDim)
	if k.ard {
		copy(out, k.ls)
		return out
	}
	for i := range out {
		out[i] = k.ls[0]
	}
	return out
}

func (k *RBF) InputDim() int { return k.inputDim }

func (k *RBF) Dims() Dims { return k.dims }

func (k *RBF) K(X, X2 mat.Matrix) *mat.Dense {
	xs := k.dims.slice(X)
	zs := xs
	if X2 != nil {
		zs = k.dims.slice(X2)
	}
	r, d := xs.Dims()
	if d != k.inputDim {
		panic(fmt.Sprintf("kern: rbf got %d input columns, want %d", d, k.inputDim))
	}
	m, _ := zs.Dims()
	ls := k.Lengthscales()
	out := mat.NewDense(r, m, nil)
	for i := 0; i < r; i++ {
		xi := xs.RawRowView(i)
		for j := 0; j < m; j++ {
			zj := zs.RawRowView(j)
			s := 0.0
			for dd := 0; dd < d; dd++ {
				diff := (xi[dd] - zj[dd]) / ls[dd]
				s += diff * diff
			}
			out.Set(i, j, k.variance*math.Exp(-0.5*s))
		}
	}
	return out
}

func (k *RBF) Kdiag(X mat.Matrix) *mat.VecDense {
	r, _ := X.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, k.variance)
	}
	return v
}

func (k *RBF) Equal(other Kernel) bool {
	o, ok := other.(*RBF)
	if !ok {
		return false
	}
	if k.variance != o.variance || k.ard != o.ard || k.inputDim != o.inputDim {
		return false
	}
	if len(k.ls) != len(o.ls) {
		return false
	}
	for i := range k.ls {
		if k.ls[i] != o.ls[i] {
			return false
		}
	}
	return k.dims.Equal(o.dims)
}
