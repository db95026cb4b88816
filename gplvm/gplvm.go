// Package gplvm evaluates the evidence lower bound of a Bayesian
// GP-LVM with a Gaussian likelihood. The latent posterior is a diagonal
// Gaussian per data point; the bound collapses the latent inputs into
// the psi statistics and a set of triangular solves against the
// inducing-point covariance.
package gplvm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/expect"
	"github.com/dzuwhf/gopsi/features"
	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
	"github.com/dzuwhf/gopsi/utils"
)

// ErrShapeMismatch is returned by New when the data matrices disagree
// on their dimensions.
var ErrShapeMismatch = errors.New("gplvm: shape mismatch")

// jitter keeps the inducing-point covariance factorizable.
const jitter = 1e-6

// Model is a Bayesian GP-LVM: observations y (N x R), a diagonal
// Gaussian posterior over the latent inputs (means and variances, both
// N x Q), a kernel on the latent space and M inducing points (M x Q).
type Model struct {
	y      *mat.Dense
	xMean  *mat.Dense
	xVar   *mat.Dense
	kernel kern.Kernel
	feat   *features.InducingPoints
	noise  float64
}

// New validates the shapes and returns a model. The noise variance is
// the variance of the Gaussian likelihood.
func New(xMean, xVar, y *mat.Dense, k kern.Kernel, z *mat.Dense, noiseVariance float64) (*Model, error) {
	if xMean == nil || xVar == nil || y == nil || z == nil {
		return nil, fmt.Errorf("%w: nil data matrix", ErrShapeMismatch)
	}
	if k == nil {
		return nil, errors.New("gplvm: nil kernel")
	}
	n, q := xMean.Dims()
	if vn, vq := xVar.Dims(); vn != n || vq != q {
		return nil, fmt.Errorf("%w: latent means are %dx%d but variances are %dx%d", ErrShapeMismatch, n, q, vn, vq)
	}
	if yn, _ := y.Dims(); yn != n {
		return nil, fmt.Errorf("%w: %d latent points but %d observation rows", ErrShapeMismatch, n, yn)
	}
	if _, zq := z.Dims(); zq != q {
		return nil, fmt.Errorf("%w: inducing points have %d columns, latents have %d", ErrShapeMismatch, zq, q)
	}
	if dims := k.Dims(); dims == nil {
		if k.InputDim() != q {
			return nil, fmt.Errorf("%w: kernel takes %d columns, latents have %d", ErrShapeMismatch, k.InputDim(), q)
		}
	} else if dims.Span() > q {
		return nil, fmt.Errorf("%w: kernel active dims reach column %d, latents have %d", ErrShapeMismatch, dims.Span()-1, q)
	}
	if noiseVariance <= 0 {
		return nil, fmt.Errorf("gplvm: noise variance must be positive, got %v", noiseVariance)
	}
	for i := 0; i < n; i++ {
		for _, v := range xVar.RawRowView(i) {
			if v <= 0 {
				return nil, fmt.Errorf("gplvm: latent variances must be positive, got %v at row %d", v, i)
			}
		}
	}
	return &Model{
		y:      y,
		xMean:  xMean,
		xVar:   xVar,
		kernel: k,
		feat:   features.NewInducingPoints(z),
		noise:  noiseVariance,
	}, nil
}

// Bound returns the evidence lower bound on the log marginal
// likelihood. Options are forwarded to the psi-statistic expectations,
// so kernels without closed forms integrate by quadrature.
func (m *Model) Bound(opts ...expect.Option) (float64, error) {
	p, err := gauss.NewDiagonal(m.xMean, m.xVar)
	if err != nil {
		return 0, err
	}
	n, r := m.y.Dims()
	q := p.Dim()
	mm := m.feat.Len()

	psi0v, err := expect.Psi0(p, m.kernel, opts...)
	if err != nil {
		return 0, err
	}
	psi1, err := expect.Psi1(p, m.kernel, m.feat, opts...)
	if err != nil {
		return 0, err
	}
	psi2r, err := expect.Psi2(p, m.kernel, m.feat, opts...)
	if err != nil {
		return 0, err
	}
	psi0 := mat.Sum(psi0v)
	psi2 := mat.NewDense(mm, mm, nil)
	for i := 0; i < n; i++ {
		psi2.Add(psi2, psi2r.MatView(i))
	}

	// Kuu = K(Z, Z) + jitter I
	kuu := m.kernel.K(m.feat.Z(), nil)
	sym := mat.NewSymDense(mm, nil)
	for i := 0; i < mm; i++ {
		for j := i; j < mm; j++ {
			v := kuu.At(i, j)
			if i == j {
				v += jitter
			}
			sym.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return 0, fmt.Errorf("gplvm: inducing covariance: %w", utils.ErrNotPSD)
	}
	l := mat.NewTriDense(mm, mat.Lower, nil)
	chol.LTo(l)

	sigma := math.Sqrt(m.noise)

	// A = L⁻¹ Ψ1ᵀ / σ
	a := mat.NewDense(mm, n, nil)
	a.Copy(psi1.T())
	if err := utils.SolveTri(l, a); err != nil {
		return 0, err
	}
	a.Scale(1/sigma, a)

	// AAT = L⁻¹ Ψ2 L⁻ᵀ / σ²
	tmp := mat.NewDense(mm, mm, nil)
	tmp.Copy(psi2)
	if err := utils.SolveTri(l, tmp); err != nil {
		return 0, err
	}
	aat := mat.NewDense(mm, mm, nil)
	aat.Copy(tmp.T())
	if err := utils.SolveTri(l, aat); err != nil {
		return 0, err
	}
	aat.Scale(1/m.noise, aat)

	// B = AAT + I
	bSym := mat.NewSymDense(mm, nil)
	for i := 0; i < mm; i++ {
		for j := i; j < mm; j++ {
			v := aat.At(i, j)
			if i == j {
				v += 1
			}
			bSym.SetSym(i, j, v)
		}
	}
	var cholB mat.Cholesky
	if !cholB.Factorize(bSym) {
		return 0, fmt.Errorf("gplvm: collapsed covariance: %w", utils.ErrNotPSD)
	}
	lb := mat.NewTriDense(mm, mat.Lower, nil)
	cholB.LTo(lb)

	// c = LB⁻¹ A Y / σ
	c := mat.NewDense(mm, r, nil)
	c.Mul(a, m.y)
	if err := utils.SolveTri(lb, c); err != nil {
		return 0, err
	}
	c.Scale(1/sigma, c)

	sumLogDiagLB := 0.0
	for i := 0; i < mm; i++ {
		sumLogDiagLB += math.Log(lb.At(i, i))
	}
	yNorm := mat.Norm(m.y, 2)
	cNorm := mat.Norm(c, 2)

	bound := -0.5 * float64(n*r) * math.Log(2*math.Pi*m.noise)
	bound -= float64(r) * sumLogDiagLB
	bound -= 0.5 * yNorm * yNorm / m.noise
	bound += 0.5 * cNorm * cNorm
	bound -= 0.5 * float64(r) * (psi0/m.noise - mat.Trace(aat))

	// KL[q(X) || N(0, I)]
	kl := -0.5 * float64(n*q)
	for i := 0; i < n; i++ {
		mu := m.xMean.RawRowView(i)
		vr := m.xVar.RawRowView(i)
		for j := 0; j < q; j++ {
			kl += 0.5*(mu[j]*mu[j]+vr[j]) - 0.5*math.Log(vr[j])
		}
	}
	return bound - kl, nil
}
