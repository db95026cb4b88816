package expect

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/features"
	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
	"github.com/dzuwhf/gopsi/means"
	"github.com/dzuwhf/gopsi/utils"
)

// checkKernelInput verifies that the distribution, the kernel and the
// feature agree on the input dimension before any slicing.
func checkKernelInput(k kern.Kernel, p *gauss.Gaussian, f *features.InducingPoints) error {
	d := p.Dim()
	if f != nil && f.Dim() != d {
		return fmt.Errorf("%w: %d-dim inducing points with %d input columns", ErrShapeMismatch, f.Dim(), d)
	}
	dims := k.Dims()
	if dims == nil {
		if k.InputDim() != d {
			return fmt.Errorf("%w: kernel takes %d columns, data has %d", ErrShapeMismatch, k.InputDim(), d)
		}
		return nil
	}
	if dims.Span() > d {
		return fmt.Errorf("%w: kernel active dims reach column %d, data has %d", ErrShapeMismatch, dims.Span()-1, d)
	}
	return nil
}

// restrict slices p and the feature locations down to the kernel's
// active dims.
func restrict(k kern.Kernel, p *gauss.Gaussian, f *features.InducingPoints) (*gauss.Gaussian, *mat.Dense) {
	dims := k.Dims()
	var z *mat.Dense
	if f != nil {
		z = f.Z()
		if dims != nil {
			m := f.Len()
			zs := mat.NewDense(m, len(dims), nil)
			for i := 0; i < m; i++ {
				for j, idx := range dims {
					zs.Set(i, j, z.At(i, idx))
				}
			}
			z = zs
		}
	}
	return p.Restrict(dims), z
}

// E[k(x, x)] of a stationary kernel does not depend on the input
// distribution beyond the batch size, so this is Kdiag at the mean.
func psi0RBF(p *gauss.Gaussian, op1, _ Operand, _ *config) (*Result, error) {
	k := op1.kernel.(*kern.RBF)
	if err := checkKernelInput(k, p, nil); err != nil {
		return nil, err
	}
	kd := k.Kdiag(p.Mean())
	res := newResult1(p.Len())
	copy(res.data, kd.RawVector().Data)
	return res, nil
}

// psi1RBF computes E[k(x, Z)] columnwise.
//
//	scale = cov + diag(ls²)
//	E[k(x, z)] = σ² exp(-½ (z-μ)ᵀ scale⁻¹ (z-μ)) / sqrt(det(scale) / Π ls²)
func psi1RBF(p *gauss.Gaussian, op1, _ Operand, _ *config) (*Result, error) {
	k := op1.kernel.(*kern.RBF)
	if err := checkKernelInput(k, p, op1.feat); err != nil {
		return nil, err
	}
	ps, z := restrict(k, p, op1.feat)
	n, d, m := ps.Len(), ps.Dim(), op1.feat.Len()
	ls := k.Lengthscales()
	sumLogLs := 0.0
	for _, l := range ls {
		sumLogLs += math.Log(l)
	}

	res := newResult2(n, m)
	scale := mat.NewSymDense(d, nil)
	l := mat.NewTriDense(d, mat.Lower, nil)
	v := mat.NewDense(d, m, nil)
	var chol mat.Cholesky
	for i := 0; i < n; i++ {
		cov := ps.CovAt(i)
		mu := ps.MeanRow(i)
		// scale = cov + diag(ls²)
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				val := cov.At(a, b)
				if a == b {
					val += ls[a] * ls[a]
				}
				scale.SetSym(a, b, val)
			}
		}
		if !chol.Factorize(scale) {
			return nil, fmt.Errorf("expect: point %d: scale matrix: %w", i, utils.ErrNotPSD)
		}
		chol.LTo(l)
		// v = L⁻¹ (Zᵀ - μ)
		for a := 0; a < d; a++ {
			for j := 0; j < m; j++ {
				v.Set(a, j, z.At(j, a)-mu[a])
			}
		}
		if err := utils.SolveTri(l, v); err != nil {
			return nil, fmt.Errorf("expect: point %d: %w", i, err)
		}
		// ½ log(det(scale) / Π ls²)
		halfLogDet := 0.5*chol.LogDet() - sumLogLs
		row := res.row(i)
		for j := 0; j < m; j++ {
			q := 0.0
			for a := 0; a < d; a++ {
				val := v.At(a, j)
				q += val * val
			}
			row[j] = -0.5*q - halfLogDet
		}
	}
	vek.Exp_Inplace(res.data)
	vek.MulNumber_Inplace(res.data, k.Variance())
	return res, nil
}

// exKxzRBF computes E[k(x, Z) xᵀ], one M x D block per point.
//
//	scale = cov + diag(ls²)
//	E[k(x, z) x] = E[k(x, z)] (cov scale⁻¹ (z-μ) + μ)
func exKxzRBF(p *gauss.Gaussian, k *kern.RBF, f *features.InducingPoints) (*Result, error) {
	if k.Dims() != nil {
		return nil, fmt.Errorf("%w: kernel active dims in a mean cross-expectation", ErrNoClosedForm)
	}
	if err := checkKernelInput(k, p, f); err != nil {
		return nil, err
	}
	n, d, m := p.Len(), p.Dim(), f.Len()
	z := f.Z()
	ls := k.Lengthscales()
	sumLogLs2 := 0.0
	for _, l := range ls {
		sumLogLs2 += 2 * math.Log(l)
	}

	res := newResult3(n, m, d)
	scale := mat.NewSymDense(d, nil)
	l := mat.NewTriDense(d, mat.Lower, nil)
	v := mat.NewDense(d, m, nil)
	s := mat.NewDense(d, m, nil)
	var chol mat.Cholesky
	for i := 0; i < n; i++ {
		cov := p.CovAt(i)
		mu := p.MeanRow(i)
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				val := cov.At(a, b)
				if a == b {
					val += ls[a] * ls[a]
				}
				scale.SetSym(a, b, val)
			}
		}
		if !chol.Factorize(scale) {
			return nil, fmt.Errorf("expect: point %d: scale matrix: %w", i, utils.ErrNotPSD)
		}
		chol.LTo(l)
		// det(I + diag(ls⁻²) cov)^{-1/2}
		detFactor := math.Exp(-0.5 * (chol.LogDet() - sumLogLs2))
		for a := 0; a < d; a++ {
			for j := 0; j < m; j++ {
				v.Set(a, j, z.At(j, a)-mu[a])
			}
		}
		// s = scale⁻¹ (Zᵀ - μ) = L⁻ᵀ L⁻¹ (Zᵀ - μ)
		s.Copy(v)
		if err := utils.SolveTri(l, s); err != nil {
			return nil, fmt.Errorf("expect: point %d: %w", i, err)
		}
		if err := utils.SolveTriTrans(l, s); err != nil {
			return nil, fmt.Errorf("expect: point %d: %w", i, err)
		}
		block := res.row(i)
		for j := 0; j < m; j++ {
			q := 0.0
			for a := 0; a < d; a++ {
				q += s.At(a, j) * v.At(a, j)
			}
			w := k.Variance() * detFactor * math.Exp(-0.5*q)
			dst := block[j*d : (j+1)*d]
			for a := 0; a < d; a++ {
				acc := 0.0
				for b := 0; b < d; b++ {
					acc += cov.At(a, b) * s.At(b, j)
				}
				dst[a] = w * (acc + mu[a])
			}
		}
	}
	return res, nil
}

func rbfIdentityMean(p *gauss.Gaussian, op1, op2 Operand, _ *config) (*Result, error) {
	k := op1.kernel.(*kern.RBF)
	im := op2.mean.(*means.Identity)
	if im.OutputDim(p.Dim()) != p.Dim() {
		return nil, fmt.Errorf("%w: identity mean of dim %d with %d input columns",
			ErrShapeMismatch, im.OutputDim(p.Dim()), p.Dim())
	}
	return exKxzRBF(p, k, op1.feat)
}

// E[k(x, Z) m(x)ᵀ] for an affine m(x) = Aᵀx + b reduces to the identity
// integral and Psi1.
func rbfLinearMean(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	k := op1.kernel.(*kern.RBF)
	a, b, err := means.Coefficients(op2.mean, p.Dim())
	if err != nil {
		return nil, err
	}
	ex, err := exKxzRBF(p, k, op1.feat)
	if err != nil {
		return nil, err
	}
	ek, err := compute(p, Operand{kernel: k, feat: op1.feat}, Operand{}, cfg)
	if err != nil {
		return nil, err
	}
	n, m, d := ex.n, ex.k1, ex.k2
	q := len(b)
	res := newResult3(n, m, q)
	for i := 0; i < n; i++ {
		block := ex.row(i)
		dst := res.row(i)
		for j := 0; j < m; j++ {
			exRow := block[j*d : (j+1)*d]
			ekv := ek.At(i, j)
			for c := 0; c < q; c++ {
				acc := ekv * b[c]
				for dd := 0; dd < d; dd++ {
					acc += exRow[dd] * a.At(dd, c)
				}
				dst[j*q+c] = acc
			}
		}
	}
	return res, nil
}

// E[k(x, Z) m(x)ᵀ] for a constant m is Psi1 scaled by the constant.
func rbfConstantMean(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	k := op1.kernel.(*kern.RBF)
	c := op2.mean.Eval(p.Mean())
	ek, err := compute(p, Operand{kernel: k, feat: op1.feat}, Operand{}, cfg)
	if err != nil {
		return nil, err
	}
	n, m := ek.n, ek.k1
	_, q := c.Dims()
	res := newResult3(n, m, q)
	for i := 0; i < n; i++ {
		crow := c.RawRowView(i)
		dst := res.row(i)
		for j := 0; j < m; j++ {
			ekv := ek.At(i, j)
			for cc := 0; cc < q; cc++ {
				dst[j*q+cc] = ekv * crow[cc]
			}
		}
	}
	return res, nil
}

// E[k_rbf(x, Z) k_lin(x, Z)ᵀ]. The linear factor is affine in x, so the
// cross-expectation is the identity-mean integral contracted with the
// inducing points. Declines configurations the reduction does not
// cover.
func rbfLinearKernel(p *gauss.Gaussian, op1, op2 Operand, _ *config) (*Result, error) {
	rbf := op1.kernel.(*kern.RBF)
	lin := op2.kernel.(*kern.Linear)
	if !op1.feat.Equal(op2.feat) {
		return nil, fmt.Errorf("%w: rbf-linear cross-expectation needs identical inducing points", ErrNoClosedForm)
	}
	if lin.ARD() {
		return nil, fmt.Errorf("%w: rbf-linear cross-expectation with per-dimension linear variances", ErrNoClosedForm)
	}
	if rbf.Dims() != nil || lin.Dims() != nil {
		return nil, fmt.Errorf("%w: rbf-linear cross-expectation with active dims", ErrNoClosedForm)
	}
	if lin.InputDim() != p.Dim() {
		return nil, fmt.Errorf("%w: linear kernel takes %d columns, data has %d", ErrShapeMismatch, lin.InputDim(), p.Dim())
	}
	ex, err := exKxzRBF(p, rbf, op1.feat)
	if err != nil {
		return nil, err
	}
	z := op1.feat.Z()
	variance := lin.Variances()[0]
	n, m := ex.n, ex.k1
	res := newResult3(n, m, m)
	var tmp mat.Dense
	for i := 0; i < n; i++ {
		// res_i = σ_lin² E[k(x, Z) xᵀ] Zᵀ
		tmp.Mul(ex.MatView(i), z.T())
		tmp.Scale(variance, &tmp)
		dst := res.MatView(i)
		dst.Copy(&tmp)
	}
	return res, nil
}

// psi2RBF computes E[k(x, Z) k(x, Z)ᵀ] for one shared RBF kernel.
//
//	C = cov + ½ diag(ls²)
//	E[k(x, z_a) k(x, z_b)] = σ⁴ K°(z_a, z_b)
//	    exp(-½ (m̄-μ)ᵀ C⁻¹ (m̄-μ)) / sqrt(det(C) / Π(ls²/2))
//
// with m̄ = (z_a + z_b)/2 and K°(z_a, z_b) = exp(-¼ |z_a - z_b|²/ls²).
func psi2RBF(p *gauss.Gaussian, op1, op2 Operand, _ *config) (*Result, error) {
	k1 := op1.kernel.(*kern.RBF)
	k2 := op2.kernel.(*kern.RBF)
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
	ls := k1.Lengthscales()
	sumLogHalfLs2 := 0.0
	for _, l := range ls {
		sumLogHalfLs2 += math.Log(0.5 * l * l)
	}
	variance2 := k1.Variance() * k1.Variance()

	// K°(z_a, z_b) is shared by every point.
	kmm := mat.NewDense(m, m, nil)
	for a := 0; a < m; a++ {
		za := z.RawRowView(a)
		for b := a; b < m; b++ {
			zb := z.RawRowView(b)
			s := 0.0
			for dd := 0; dd < d; dd++ {
				diff := (za[dd] - zb[dd]) / ls[dd]
				s += diff * diff
			}
			val := math.Exp(-0.25 * s)
			kmm.Set(a, b, val)
			kmm.Set(b, a, val)
		}
	}

	res := newResult3(n, m, m)
	c := mat.NewSymDense(d, nil)
	l := mat.NewTriDense(d, mat.Lower, nil)
	v := mat.NewDense(d, m*m, nil)
	var chol mat.Cholesky
	for i := 0; i < n; i++ {
		cov := ps.CovAt(i)
		mu := ps.MeanRow(i)
		// C = cov + ½ diag(ls²)
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				val := cov.At(a, b)
				if a == b {
					val += 0.5 * ls[a] * ls[a]
				}
				c.SetSym(a, b, val)
			}
		}
		if !chol.Factorize(c) {
			return nil, fmt.Errorf("expect: point %d: scale matrix: %w", i, utils.ErrNotPSD)
		}
		detFactor := math.Exp(-0.5 * (chol.LogDet() - sumLogHalfLs2))
		// columns of v: (z_a + z_b)/2 - μ
		for a := 0; a < m; a++ {
			za := z.RawRowView(a)
			for b := 0; b < m; b++ {
				zb := z.RawRowView(b)
				col := a*m + b
				for dd := 0; dd < d; dd++ {
					v.Set(dd, col, 0.5*(za[dd]+zb[dd])-mu[dd])
				}
			}
		}
		chol.LTo(l)
		if err := utils.SolveTri(l, v); err != nil {
			return nil, fmt.Errorf("expect: point %d: %w", i, err)
		}
		dst := res.row(i)
		for a := 0; a < m; a++ {
			for b := 0; b < m; b++ {
				col := a*m + b
				q := 0.0
				for dd := 0; dd < d; dd++ {
					val := v.At(dd, col)
					q += val * val
				}
				dst[col] = variance2 * kmm.At(a, b) * math.Exp(-0.5*q) * detFactor
			}
		}
	}
	return res, nil
}
