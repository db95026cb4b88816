// Package features implements inducing features for sparse
// approximations. Only inducing points are supported.
package features

import (
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/kern"
)

// InducingPoints holds M pseudo-input locations in the kernel input
// space, one per row.
type InducingPoints struct {
	z *mat.Dense // M x D
}

func NewInducingPoints(z *mat.Dense) *InducingPoints {
	if z == nil {
		panic("features: nil inducing point matrix")
	}
	return &InducingPoints{z: z}
}

// Len returns the number of inducing points M.
func (f *InducingPoints) Len() int {
	m, _ := f.z.Dims()
	return m
}

// Dim returns the input dimension D.
func (f *InducingPoints) Dim() int {
	_, d := f.z.Dims()
	return d
}

// Z returns the M x D location matrix. Callers must not mutate it.
func (f *InducingPoints) Z() *mat.Dense { return f.z }

// Kuf returns the M x R covariance between the inducing points and the
// rows of X.
func (f *InducingPoints) Kuf(k kern.Kernel, X mat.Matrix) *mat.Dense {
	return k.K(f.z, X)
}

// Equal reports whether two features hold identical locations.
func (f *InducingPoints) Equal(other *InducingPoints) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	return mat.Equal(f.z, other.z)
}
