package expect

import (
	"fmt"

	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
)

// Expectations are linear, so a sum kernel distributes over its
// children whatever the second operand is.
func addRecurse(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	k := op1.kernel.(*kern.Add)
	var total *Result
	for _, child := range k.Children() {
		r, err := compute(p, Operand{kernel: child, feat: op1.feat}, op2, cfg)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = r
			continue
		}
		if err := total.addInPlace(r); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// addAdd expands E[ka(x, Z) kb(x, Z)ᵀ] for two sum kernels into
// pairwise cross terms. Children on provably disjoint dimensions of a
// diagonal distribution factorize into a product of first moments;
// other pairs dispatch as their own cross-expectation.
func addAdd(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	k1 := op1.kernel.(*kern.Add)
	k2 := op2.kernel.(*kern.Add)
	if !op1.feat.Equal(op2.feat) {
		return nil, fmt.Errorf("%w: sum-kernel second moment needs identical inducing points", ErrNoClosedForm)
	}
	f := op1.feat
	var total *Result
	for _, c1 := range k1.Children() {
		for _, c2 := range k2.Children() {
			var r *Result
			var err error
			if p.IsDiagonal() && c1.Dims().Disjoint(c2.Dims()) {
				// Independent marginals: the cross term is the
				// outer product of the two first moments.
				var e1, e2 *Result
				e1, err = compute(p, Operand{kernel: c1, feat: f}, Operand{}, cfg)
				if err != nil {
					return nil, err
				}
				e2, err = compute(p, Operand{kernel: c2, feat: f}, Operand{}, cfg)
				if err != nil {
					return nil, err
				}
				r, err = outer(e1, e2)
			} else {
				r, err = compute(p, Operand{kernel: c1, feat: f}, Operand{kernel: c2, feat: f}, cfg)
			}
			if err != nil {
				return nil, err
			}
			if total == nil {
				total = r
				continue
			}
			if err := total.addInPlace(r); err != nil {
				return nil, err
			}
		}
	}
	return total, nil
}

// Product kernels factorize only when the children act on disjoint
// dimensions of an independent (diagonal) input distribution. Both
// preconditions are structural: violating them is an error, not a
// fallback.
func prodRecurse(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	k := op1.kernel.(*kern.Prod)
	if !k.OnSeparateDims() {
		return nil, fmt.Errorf("%w: children overlap", ErrProdSeparateDims)
	}
	if !p.IsDiagonal() {
		return nil, fmt.Errorf("%w: product-kernel expectation", ErrCovNotDiagonal)
	}
	var total *Result
	for _, child := range k.Children() {
		r, err := compute(p, Operand{kernel: child, feat: op1.feat}, op2, cfg)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = r
			continue
		}
		if err := total.mulInPlace(r); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// prodProd computes E[k(x, Z) k(x, Z)ᵀ] for one shared product kernel
// by multiplying the per-child second moments. Mismatched operands and
// overlapping children decline to quadrature; a full covariance is an
// error as in the first-moment case.
func prodProd(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	k1 := op1.kernel.(*kern.Prod)
	k2 := op2.kernel.(*kern.Prod)
	if !op1.feat.Equal(op2.feat) {
		return nil, fmt.Errorf("%w: product-kernel second moment needs identical inducing points", ErrNoClosedForm)
	}
	if !k1.Equal(k2) {
		return nil, fmt.Errorf("%w: product-kernel second moment needs identical kernels", ErrNoClosedForm)
	}
	if !k1.OnSeparateDims() {
		return nil, fmt.Errorf("%w: children overlap", ErrNoClosedForm)
	}
	if !p.IsDiagonal() {
		return nil, fmt.Errorf("%w: product-kernel expectation", ErrCovNotDiagonal)
	}
	f := op1.feat
	var total *Result
	for _, child := range k1.Children() {
		co := Operand{kernel: child, feat: f}
		r, err := compute(p, co, co, cfg)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = r
			continue
		}
		if err := total.mulInPlace(r); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// swapOperands serves E[b(x) a(x)ᵀ] as the transpose of E[a(x) b(x)ᵀ].
func swapOperands(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	res, err := compute(p, op2, op1, cfg)
	if err != nil {
		return nil, err
	}
	return res.transposed(), nil
}
