package expect

import (
	"github.com/dzuwhf/gopsi/features"
	"github.com/dzuwhf/gopsi/kern"
	"github.com/dzuwhf/gopsi/means"
	"github.com/dzuwhf/gopsi/quadrature"
)

// Kind identifies the runtime variant of one slot of a dispatch key.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindRBF
	KindLinearKernel
	KindAddKernel
	KindProdKernel
	KindZeroMean
	KindConstantMean
	KindLinearMean
	KindIdentityMean
	KindInducingPoints
	KindFunc
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "-"
	case KindRBF:
		return "rbf"
	case KindLinearKernel:
		return "linear"
	case KindAddKernel:
		return "add"
	case KindProdKernel:
		return "prod"
	case KindZeroMean:
		return "zero-mean"
	case KindConstantMean:
		return "constant-mean"
	case KindLinearMean:
		return "linear-mean"
	case KindIdentityMean:
		return "identity-mean"
	case KindInducingPoints:
		return "inducing-points"
	case KindFunc:
		return "func"
	}
	return "unknown"
}

// Operand is one integrand of an expectation: a kernel, a kernel paired
// with an inducing feature, a mean function, or a plain function. The
// zero Operand is absent.
type Operand struct {
	kernel kern.Kernel
	mean   means.MeanFunction
	fn     quadrature.Func
	fnDim  int
	feat   *features.InducingPoints
}

// Kern wraps a bare kernel; its expectation is E[k(x, x)].
func Kern(k kern.Kernel) Operand {
	if k == nil {
		panic("expect: nil kernel")
	}
	return Operand{kernel: k}
}

// KernFeat wraps a kernel evaluated against inducing points; its
// expectation is E[k(x, Z)].
func KernFeat(k kern.Kernel, f *features.InducingPoints) Operand {
	if k == nil || f == nil {
		panic("expect: nil kernel or feature")
	}
	return Operand{kernel: k, feat: f}
}

// MeanFn wraps a mean function; its expectation is E[m(x)].
func MeanFn(m means.MeanFunction) Operand {
	if m == nil {
		panic("expect: nil mean function")
	}
	return Operand{mean: m}
}

// Fn wraps an arbitrary function with the given output width. It is
// always integrated by quadrature.
func Fn(f quadrature.Func, outDim int) Operand {
	if f == nil {
		panic("expect: nil function")
	}
	if outDim < 1 {
		panic("expect: function output width must be positive")
	}
	return Operand{fn: f, fnDim: outDim}
}

// IsAbsent reports whether the operand is the zero Operand.
func (o Operand) IsAbsent() bool {
	return o.kernel == nil && o.mean == nil && o.fn == nil
}

func objKind(o Operand) Kind {
	switch {
	case o.fn != nil:
		return KindFunc
	case o.mean != nil:
		switch o.mean.(type) {
		case *means.Zero:
			return KindZeroMean
		case *means.Constant:
			return KindConstantMean
		case *means.Linear:
			return KindLinearMean
		case *means.Identity:
			return KindIdentityMean
		}
		return KindUnknown
	case o.kernel != nil:
		switch o.kernel.(type) {
		case *kern.RBF:
			return KindRBF
		case *kern.Linear:
			return KindLinearKernel
		case *kern.Add:
			return KindAddKernel
		case *kern.Prod:
			return KindProdKernel
		}
		return KindUnknown
	}
	return KindAbsent
}

func featKind(o Operand) Kind {
	if o.feat != nil {
		return KindInducingPoints
	}
	return KindAbsent
}

// Key is a dispatch key: the kinds of (obj1, feat1, obj2, feat2).
type Key struct {
	Obj1, Feat1, Obj2, Feat2 Kind
}

func keyOf(op1, op2 Operand) Key {
	return Key{
		Obj1:  objKind(op1),
		Feat1: featKind(op1),
		Obj2:  objKind(op2),
		Feat2: featKind(op2),
	}
}

func (k Key) String() string {
	return "(" + k.Obj1.String() + ", " + k.Feat1.String() + ", " +
		k.Obj2.String() + ", " + k.Feat2.String() + ")"
}
