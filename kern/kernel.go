// Package kern implements covariance functions over R^d inputs: RBF,
// Linear, Matern12, Matern32, Constant, and the Add and Prod
// combinations. Kernels are immutable once constructed.
package kern

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type Kernel interface {
	// Cross-covariance matrix between the rows of X and X2,
	// :math:`K_{ij} = k(x_i, x'_j)`. A nil X2 means K(X, X).
	K(X, X2 mat.Matrix) *mat.Dense

	// Diagonal of K(X, X).
	Kdiag(X mat.Matrix) *mat.VecDense

	// Number of input columns the kernel reads.
	InputDim() int

	// Input columns the kernel is active on (nil: all).
	Dims() Dims

	// Whether the other kernel has the same type, hyperparameters
	// and active dimensions.
	Equal(other Kernel) bool
}

// Dims selects the input columns a kernel acts on. Entries are strictly
// increasing column indices. A nil Dims selects every column.
type Dims []int

// Range returns the contiguous selection {start, ..., stop-1}.
func Range(start, stop int) Dims {
	if start < 0 || stop <= start {
		panic(fmt.Sprintf("kern: invalid dims range [%d, %d)", start, stop))
	}
	d := make(Dims, stop-start)
	for i := range d {
		d[i] = start + i
	}
	return d
}

// Contiguous reports whether d is a consecutive run of columns.
func (d Dims) Contiguous() bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[i-1]+1 {
			return false
		}
	}
	return true
}

// Disjoint reports whether two selections certainly do not overlap.
// Nil selections read every column and so overlap everything.
func (d Dims) Disjoint(other Dims) bool {
	if d == nil || other == nil {
		return false
	}
	seen := make(map[int]bool, len(d))
	for _, i := range d {
		seen[i] = true
	}
	for _, i := range other {
		if seen[i] {
			return false
		}
	}
	return true
}

// Span is one past the largest selected column, or 0 for nil.
func (d Dims) Span() int {
	if len(d) == 0 {
		return 0
	}
	return d[len(d)-1] + 1
}

// Equal reports whether two selections are identical.
func (d Dims) Equal(other Dims) bool {
	if (d == nil) != (other == nil) || len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

// slice returns the active columns of X as a dense copy.
func (d Dims) slice(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	if d == nil {
		dst := mat.NewDense(r, c, nil)
		dst.Copy(X)
		return dst
	}
	dst := mat.NewDense(r, len(d), nil)
	for i := 0; i < r; i++ {
		for j, idx := range d {
			dst.Set(i, j, X.At(i, idx))
		}
	}
	return dst
}

type options struct {
	dims Dims
}

type Option func(*options)

// WithDims restricts a kernel to the given input columns. The selection
// must name exactly the kernel's input dimension.
func WithDims(d Dims) Option {
	return func(o *options) { o.dims = d }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkDims(d Dims, inputDim int) {
	if d == nil {
		return
	}
	if len(d) != inputDim {
		panic(fmt.Sprintf("kern: %d active dims for input dim %d", len(d), inputDim))
	}
	for i, idx := range d {
		if idx < 0 {
			panic(fmt.Sprintf("kern: negative dim index %d", idx))
		}
		if i > 0 && idx <= d[i-1] {
			panic("kern: active dims must be strictly increasing")
		}
	}
}
