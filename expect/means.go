package expect

import (
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/means"
)

// E[m(x)] of an affine mean is the mean evaluated at μ.
func meanFirstMoment(p *gauss.Gaussian, op1, _ Operand, _ *config) (*Result, error) {
	if _, _, err := means.Coefficients(op1.mean, p.Dim()); err != nil {
		return nil, err
	}
	return resultFromDense(op1.mean.Eval(p.Mean())), nil
}

// linLinMoment computes E[m1(x) m2(x)ᵀ] for two affine means
// m_i(x) = A_iᵀx + b_i:
//
//	E[m1 m2ᵀ] = A1ᵀ (cov + μμᵀ) A2 + A1ᵀμ b2ᵀ + b1 μᵀA2 + b1 b2ᵀ
func linLinMoment(p *gauss.Gaussian, op1, op2 Operand, _ *config) (*Result, error) {
	d := p.Dim()
	a1, b1, err := means.Coefficients(op1.mean, d)
	if err != nil {
		return nil, err
	}
	a2, b2, err := means.Coefficients(op2.mean, d)
	if err != nil {
		return nil, err
	}
	n := p.Len()
	q1, q2 := len(b1), len(b2)

	res := newResult3(n, q1, q2)
	e2 := mat.NewDense(d, d, nil)
	u1 := mat.NewVecDense(q1, nil)
	u2 := mat.NewVecDense(q2, nil)
	var t1, t2 mat.Dense
	for i := 0; i < n; i++ {
		mu := p.MeanRow(i)
		cov := p.CovAt(i)
		for a := 0; a < d; a++ {
			for b := 0; b < d; b++ {
				e2.Set(a, b, cov.At(a, b)+mu[a]*mu[b])
			}
		}
		t1.Mul(a1.T(), e2)
		t2.Mul(&t1, a2)
		muv := mat.NewVecDense(d, mu)
		u1.MulVec(a1.T(), muv)
		u2.MulVec(a2.T(), muv)
		dst := res.row(i)
		for x := 0; x < q1; x++ {
			for y := 0; y < q2; y++ {
				dst[x*q2+y] = t2.At(x, y) + u1.AtVec(x)*b2[y] + b1[x]*u2.AtVec(y) + b1[x]*b2[y]
			}
		}
	}
	return res, nil
}

// E[m1(x) m2(x)ᵀ] of two constants is their outer product, repeated per
// point.
func constConstMoment(p *gauss.Gaussian, op1, op2 Operand, _ *config) (*Result, error) {
	e1 := resultFromDense(op1.mean.Eval(p.Mean()))
	e2 := resultFromDense(op2.mean.Eval(p.Mean()))
	return outer(e1, e2)
}

// E[c m2(x)ᵀ] for constant c factors out of the expectation.
func constMeanMoment(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	e1 := resultFromDense(op1.mean.Eval(p.Mean()))
	e2, err := compute(p, op2, Operand{}, cfg)
	if err != nil {
		return nil, err
	}
	return outer(e1, e2)
}

// E[m1(x) cᵀ] is the transpose of the constant-first moment.
func meanConstMoment(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	res, err := constMeanMoment(p, op2, op1, cfg)
	if err != nil {
		return nil, err
	}
	return res.transposed(), nil
}

func resultFromDense(m *mat.Dense) *Result {
	n, q := m.Dims()
	res := newResult2(n, q)
	for i := 0; i < n; i++ {
		copy(res.row(i), m.RawRowView(i))
	}
	return res
}
