package kern

import (
	"gonum.org/v1/gonum/mat"
)

// Add sums its child kernels. Children of nested Adds are flattened
// into one level.
type Add struct {
	parts []Kernel
}

var _ Kernel = (*Add)(nil)

func NewAdd(kernels ...Kernel) *Add {
	if len(kernels) < 2 {
		panic("kern: Add needs at least two kernels")
	}
	parts := make([]Kernel, 0, len(kernels))
	for _, k := range kernels {
		switch k := k.(type) {
		case *Add:
			parts = append(parts, k.parts...)
		default:
			parts = append(parts, k)
		}
	}
	return &Add{parts: parts}
}

// Children returns the flattened summands.
func (k *Add) Children() []Kernel { return k.parts }

func (k *Add) K(X, X2 mat.Matrix) *mat.Dense {
	out := k.parts[0].K(X, X2)
	for _, part := range k.parts[1:] {
		out.Add(out, part.K(X, X2))
	}
	return out
}

func (k *Add) Kdiag(X mat.Matrix) *mat.VecDense {
	out := k.parts[0].Kdiag(X)
	for _, part := range k.parts[1:] {
		out.AddVec(out, part.Kdiag(X))
	}
	return out
}

func (k *Add) InputDim() int { return combinationInputDim(k.parts) }

// Dims of a combination is nil: the children select their own columns.
func (k *Add) Dims() Dims { return nil }

func (k *Add) Equal(other Kernel) bool {
	o, ok := other.(*Add)
	if !ok {
		return false
	}
	return childrenEqual(k.parts, o.parts)
}

// OnSeparateDims reports whether every pair of children acts on
// provably disjoint input columns.
func (k *Add) OnSeparateDims() bool { return onSeparateDims(k.parts) }

// combinationInputDim is the width of input a combination reads: the
// largest column any child touches, plus one.
func combinationInputDim(parts []Kernel) int {
	max := 0
	for _, part := range parts {
		span := part.InputDim()
		if d := part.Dims(); d != nil {
			span = d.Span()
		}
		if span > max {
			max = span
		}
	}
	return max
}

func childrenEqual(a, b []Kernel) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func onSeparateDims(parts []Kernel) bool {
	for i := range parts {
		for j := i + 1; j < len(parts); j++ {
			if !parts[i].Dims().Disjoint(parts[j].Dims()) {
				return false
			}
		}
	}
	return true
}
