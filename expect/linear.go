package expect

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
)

// E[k(x, x)] for the dot-product kernel is exact:
// sum_d σ_d² (cov_dd + μ_d²).
func psi0Linear(p *gauss.Gaussian, op1, _ Operand, _ *config) (*Result, error) {
	k := op1.kernel.(*kern.Linear)
	if err := checkKernelInput(k, p, nil); err != nil {
		return nil, err
	}
	ps, _ := restrict(k, p, nil)
	n, d := ps.Len(), ps.Dim()
	vs := k.Variances()
	res := newResult1(n)
	for i := 0; i < n; i++ {
		mu := ps.MeanRow(i)
		cov := ps.CovAt(i)
		s := 0.0
		for a := 0; a < d; a++ {
			s += vs[a] * (cov.At(a, a) + mu[a]*mu[a])
		}
		res.data[i] = s
	}
	return res, nil
}

// E[k(x, Z)] for the dot-product kernel is k(μ, Z).
func psi1Linear(p *gauss.Gaussian, op1, _ Operand, _ *config) (*Result, error) {
	k := op1.kernel.(*kern.Linear)
	if err := checkKernelInput(k, p, op1.feat); err != nil {
		return nil, err
	}
	ps, z := restrict(k, p, op1.feat)
	n, d, m := ps.Len(), ps.Dim(), op1.feat.Len()
	vs := k.Variances()
	res := newResult2(n, m)
	for i := 0; i < n; i++ {
		mu := ps.MeanRow(i)
		row := res.row(i)
		for j := 0; j < m; j++ {
			s := 0.0
			for a := 0; a < d; a++ {
				s += vs[a] * mu[a] * z.At(j, a)
			}
			row[j] = s
		}
	}
	return res, nil
}

// psi2Linear computes E[k(x, Z) k(x, Z)ᵀ] for one shared linear kernel:
//
//	res = Z diag(σ²) (cov + μμᵀ) diag(σ²) Zᵀ
func psi2Linear(p *gauss.Gaussian, op1, op2 Operand, _ *config) (*Result, error) {
	k1 := op1.kernel.(*kern.Linear)
	k2 := op2.kernel.(*kern.Linear)
	if !op1.feat.Equal(op2.feat) {
		return nil, fmt.Errorf("%w: second-moment expectation needs identical inducing points", ErrNoClosedForm)
	}
	if !k1.Equal(k2) {
		return nil, fmt.Errorf("%w: second-moment expectation needs identical kernels", ErrNoClosedForm)
	}
	if err := checkKernelInput(k1, p, op1.feat); err != nil {
		return nil, err
	}
	ps, z := restrict(k1, p, op1.feat)
	n, d, m := ps.Len(), ps.Dim(), op1.feat.Len()
	vs := k1.Variances()

	res := newResult3(n, m, m)
	e2 := mat.NewDense(d, d, nil)
	var zb, out mat.Dense
	for i := 0; i < n; i++ {
		mu := ps.MeanRow(i)
		cov := ps.CovAt(i)
		// e2 = diag(σ²) (cov + μμᵀ) diag(σ²)
		for a := 0; a < d; a++ {
			for b := 0; b < d; b++ {
				e2.Set(a, b, vs[a]*(cov.At(a, b)+mu[a]*mu[b])*vs[b])
			}
		}
		zb.Mul(z, e2)
		out.Mul(&zb, z.T())
		res.MatView(i).Copy(&out)
	}
	return res, nil
}
