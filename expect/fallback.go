package expect

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
	"github.com/dzuwhf/gopsi/means"
	"github.com/dzuwhf/gopsi/quadrature"
)

type evalFn struct {
	f     quadrature.Func
	width int
	// bare-kernel diagonals produce a rank 1 result when integrated
	// alone
	scalar bool
}

// checkCompositeInput validates kernel input widths recursively so that
// shape errors surface as errors before any kernel evaluation panics.
func checkCompositeInput(k kern.Kernel, p *gauss.Gaussian) error {
	switch k := k.(type) {
	case *kern.Add:
		for _, child := range k.Children() {
			if err := checkCompositeInput(child, p); err != nil {
				return err
			}
		}
		return nil
	case *kern.Prod:
		for _, child := range k.Children() {
			if err := checkCompositeInput(child, p); err != nil {
				return err
			}
		}
		return nil
	}
	return checkKernelInput(k, p, nil)
}

func evalOperand(op Operand, p *gauss.Gaussian) (evalFn, error) {
	switch {
	case op.fn != nil:
		return evalFn{f: op.fn, width: op.fnDim}, nil
	case op.kernel != nil:
		if op.feat != nil && op.feat.Dim() != p.Dim() {
			return evalFn{}, fmt.Errorf("%w: %d-dim inducing points with %d input columns",
				ErrShapeMismatch, op.feat.Dim(), p.Dim())
		}
		if err := checkCompositeInput(op.kernel, p); err != nil {
			return evalFn{}, err
		}
		if op.feat != nil {
			k, f := op.kernel, op.feat
			fn := func(x *mat.Dense) (*mat.Dense, error) {
				kuf := f.Kuf(k, x)
				r, _ := x.Dims()
				out := mat.NewDense(r, f.Len(), nil)
				out.Copy(kuf.T())
				return out, nil
			}
			return evalFn{f: fn, width: f.Len()}, nil
		}
		k := op.kernel
		fn := func(x *mat.Dense) (*mat.Dense, error) {
			kd := k.Kdiag(x)
			return mat.NewDense(kd.Len(), 1, kd.RawVector().Data), nil
		}
		return evalFn{f: fn, width: 1, scalar: true}, nil
	case op.mean != nil:
		m := op.mean
		if _, _, err := means.Coefficients(m, p.Dim()); err != nil && !errors.Is(err, means.ErrNotAffine) {
			return evalFn{}, err
		}
		width := m.OutputDim(p.Dim())
		fn := func(x *mat.Dense) (*mat.Dense, error) {
			return m.Eval(x), nil
		}
		return evalFn{f: fn, width: width}, nil
	}
	return evalFn{}, fmt.Errorf("%w: empty operand", ErrUnsupportedOperand)
}

// quadFallback integrates the operands with Gauss-Hermite quadrature.
// For a pair, the integrand is the flattened outer product of the two
// output rows.
func quadFallback(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	e1, err := evalOperand(op1, p)
	if err != nil {
		return nil, err
	}
	if op2.IsAbsent() {
		out, err := quadrature.MVNormal(e1.f, p, cfg.order)
		if err != nil {
			return nil, err
		}
		n, k := out.Dims()
		if k != e1.width {
			return nil, fmt.Errorf("%w: operand declared width %d, produced %d", ErrShapeMismatch, e1.width, k)
		}
		if e1.scalar {
			res := newResult1(n)
			copy(res.data, out.RawMatrix().Data)
			return res, nil
		}
		res := newResult2(n, k)
		copy(res.data, out.RawMatrix().Data)
		return res, nil
	}

	e2, err := evalOperand(op2, p)
	if err != nil {
		return nil, err
	}
	combined := func(x *mat.Dense) (*mat.Dense, error) {
		y1, err := e1.f(x)
		if err != nil {
			return nil, err
		}
		y2, err := e2.f(x)
		if err != nil {
			return nil, err
		}
		r, k1 := y1.Dims()
		r2, k2 := y2.Dims()
		if r2 != r {
			return nil, fmt.Errorf("%w: operand rows disagree: %d and %d", ErrShapeMismatch, r, r2)
		}
		out := mat.NewDense(r, k1*k2, nil)
		for i := 0; i < r; i++ {
			row1 := y1.RawRowView(i)
			row2 := y2.RawRowView(i)
			dst := out.RawRowView(i)
			for a := 0; a < k1; a++ {
				for b := 0; b < k2; b++ {
					dst[a*k2+b] = row1[a] * row2[b]
				}
			}
		}
		return out, nil
	}
	raw, err := quadrature.MVNormal(combined, p, cfg.order)
	if err != nil {
		return nil, err
	}
	n, w := raw.Dims()
	if w != e1.width*e2.width {
		return nil, fmt.Errorf("%w: operands declared width %dx%d, produced %d", ErrShapeMismatch, e1.width, e2.width, w)
	}
	res := newResult3(n, e1.width, e2.width)
	copy(res.data, raw.RawMatrix().Data)
	return res, nil
}
