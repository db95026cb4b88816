package kern

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is the dot-product kernel,
// :math:`k(x, x') = \sum_d \sigma_d^2 x_d x'_d`.
type Linear struct {
	variances []float64 // one shared entry, or inputDim entries when ARD
	ard       bool
	inputDim  int
	dims      Dims
}

var _ Kernel = (*Linear)(nil)

// NewLinear returns a linear kernel with one variance shared across
// dimensions.
func NewLinear(inputDim int, variance float64, opts ...Option) *Linear {
	k := &Linear{variances: []float64{variance}, inputDim: inputDim}
	finishLinear(k, opts)
	return k
}

// NewLinearARD returns a linear kernel with one variance per dimension.
func NewLinearARD(inputDim int, variances []float64, opts ...Option) *Linear {
	if len(variances) != inputDim {
		panic(fmt.Sprintf("kern: %d variances for input dim %d", len(variances), inputDim))
	}
	vs := make([]float64, inputDim)
	copy(vs, variances)
	k := &Linear{variances: vs, ard: true, inputDim: inputDim}
	finishLinear(k, opts)
	return k
}

func finishLinear(k *Linear, opts []Option) {
	if k.inputDim < 1 {
		panic(fmt.Sprintf("kern: input dim must be positive, got %d", k.inputDim))
	}
	for _, v := range k.variances {
		if v < 0 {
			panic(fmt.Sprintf("kern: variance must be non-negative, got %v", v))
		}
	}
	o := applyOptions(opts)
	checkDims(o.dims, k.inputDim)
	k.dims = o.dims
}

// ARD reports whether the kernel has per-dimension variances.
func (k *Linear) ARD() bool { return k.ard }

// Variances returns the variance of every input dimension, expanding a
// shared variance.
func (k *Linear) Variances() []float64 {
	out := make([]float64, k.inputDim)
	if k.ard {
		copy(out, k.variances)
		return out
	}
	for i := range out {
		out[i] = k.variances[0]
	}
	return out
}

func (k *Linear) InputDim() int { return k.inputDim }

func (k *Linear) Dims() Dims { return k.dims }

func (k *Linear) K(X, X2 mat.Matrix) *mat.Dense {
	xs := k.dims.slice(X)
	if X2 == nil {
		X2 = X
	}
	zs := k.dims.slice(X2)
	r, d := xs.Dims()
	if d != k.inputDim {
		panic(fmt.Sprintf("kern: linear got %d input columns, want %d", d, k.inputDim))
	}
	// K = (X .* variances) Zᵀ
	vs := k.Variances()
	for i := 0; i < r; i++ {
		row := xs.RawRowView(i)
		for dd := 0; dd < d; dd++ {
			row[dd] *= vs[dd]
		}
	}
	m, _ := zs.Dims()
	out := mat.NewDense(r, m, nil)
	out.Mul(xs, zs.T())
	return out
}

func (k *Linear) Kdiag(X mat.Matrix) *mat.VecDense {
	xs := k.dims.slice(X)
	r, d := xs.Dims()
	if d != k.inputDim {
		panic(fmt.Sprintf("kern: linear got %d input columns, want %d", d, k.inputDim))
	}
	vs := k.Variances()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		row := xs.RawRowView(i)
		s := 0.0
		for dd := 0; dd < d; dd++ {
			s += vs[dd] * row[dd] * row[dd]
		}
		v.SetVec(i, s)
	}
	return v
}

func (k *Linear) Equal(other Kernel) bool {
	o, ok := other.(*Linear)
	if !ok {
		return false
	}
	if k.ard != o.ard || k.inputDim != o.inputDim {
		return false
	}
	if len(k.variances) != len(o.variances) {
		return false
	}
	for i := range k.variances {
		if k.variances[i] != o.variances[i] {
			return false
		}
	}
	return k.dims.Equal(o.dims)
}
