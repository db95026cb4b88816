package kern

import (
	"gonum.org/v1/gonum/mat"
)

// Prod multiplies its child kernels. Children of nested Prods are
// flattened into one level.
type Prod struct {
	parts []Kernel
}

var _ Kernel = (*Prod)(nil)

func NewProd(kernels ...Kernel) *Prod {
	if len(kernels) < 2 {
		panic("kern: Prod needs at least two kernels")
	}
	parts := make([]Kernel, 0, len(kernels))
	for _, k := range kernels {
		switch k := k.(type) {
		case *Prod:
			parts = append(parts, k.parts...)
		default:
			parts = append(parts, k)
		}
	}
	return &Prod{parts: parts}
}

// Children returns the flattened factors.
func (k *Prod) Children() []Kernel { return k.parts }

func (k *Prod) K(X, X2 mat.Matrix) *mat.Dense {
	out := k.parts[0].K(X, X2)
	for _, part := range k.parts[1:] {
		out.MulElem(out, part.K(X, X2))
	}
	return out
}

func (k *Prod) Kdiag(X mat.Matrix) *mat.VecDense {
	out := k.parts[0].Kdiag(X)
	for _, part := range k.parts[1:] {
		out.MulElemVec(out, part.Kdiag(X))
	}
	return out
}

func (k *Prod) InputDim() int { return combinationInputDim(k.parts) }

// Dims of a combination is nil: the children select their own columns.
func (k *Prod) Dims() Dims { return nil }

func (k *Prod) Equal(other Kernel) bool {
	o, ok := other.(*Prod)
	if !ok {
		return false
	}
	return childrenEqual(k.parts, o.parts)
}

// OnSeparateDims reports whether every pair of children acts on
// provably disjoint input columns.
func (k *Prod) OnSeparateDims() bool { return onSeparateDims(k.parts) }
