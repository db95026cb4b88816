package gplvm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/expect"
	"github.com/dzuwhf/gopsi/features"
	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
)

func testData() (xMean, xVar, y, z *mat.Dense) {
	xMean = mat.NewDense(4, 2, []float64{
		0.1, -0.3,
		0.5, 0.2,
		-0.4, 0.6,
		0.3, -0.1,
	})
	xVar = mat.NewDense(4, 2, []float64{
		0.2, 0.3,
		0.1, 0.4,
		0.3, 0.2,
		0.25, 0.15,
	})
	y = mat.NewDense(4, 3, []float64{
		0.8, -0.2, 0.3,
		-0.5, 0.4, 0.1,
		0.2, 0.7, -0.6,
		-0.1, -0.3, 0.5,
	})
	z = mat.NewDense(3, 2, []float64{
		0.0, 0.0,
		0.5, -0.5,
		-0.5, 0.5,
	})
	return xMean, xVar, y, z
}

func TestNewValidation(t *testing.T) {
	xMean, xVar, y, z := testData()
	k := kern.NewRBF(2, 1.0, 1.0)

	_, err := New(nil, xVar, y, k, z, 0.1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(xMean, mat.NewDense(4, 1, nil), y, k, z, 0.1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(xMean, xVar, mat.NewDense(3, 3, nil), k, z, 0.1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(xMean, xVar, y, k, mat.NewDense(3, 3, nil), 0.1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(xMean, xVar, y, kern.NewRBF(3, 1.0, 1.0), z, 0.1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(xMean, xVar, y, nil, z, 0.1)
	assert.Error(t, err)

	_, err = New(xMean, xVar, y, k, z, 0)
	assert.Error(t, err)

	bad := mat.DenseCopyOf(xVar)
	bad.Set(2, 1, 0)
	_, err = New(xMean, bad, y, k, z, 0.1)
	assert.Error(t, err)
}

// The bound computed through Cholesky factors and triangular solves
// must agree with a longhand evaluation through explicit inverses and
// determinants.
func TestBoundMatchesDirectComputation(t *testing.T) {
	xMean, xVar, y, z := testData()
	k := kern.NewRBF(2, 1.0, 1.0)
	noise := 0.1

	model, err := New(xMean, xVar, y, k, z, noise)
	require.NoError(t, err)
	got, err := model.Bound()
	require.NoError(t, err)

	p, err := gauss.NewDiagonal(xMean, xVar)
	require.NoError(t, err)
	f := features.NewInducingPoints(z)
	psi0v, err := expect.Psi0(p, k)
	require.NoError(t, err)
	psi1, err := expect.Psi1(p, k, f)
	require.NoError(t, err)
	psi2r, err := expect.Psi2(p, k, f)
	require.NoError(t, err)

	n, r := y.Dims()
	mm, _ := z.Dims()
	psi0 := mat.Sum(psi0v)
	psi2 := mat.NewDense(mm, mm, nil)
	for i := 0; i < n; i++ {
		psi2.Add(psi2, psi2r.MatView(i))
	}

	kuu := k.K(z, nil)
	for i := 0; i < mm; i++ {
		kuu.Set(i, i, kuu.At(i, i)+1e-6)
	}
	// G = Kuu + Ψ2/σ², so that B = L⁻¹ G L⁻ᵀ.
	g := mat.NewDense(mm, mm, nil)
	g.Scale(1/noise, psi2)
	g.Add(g, kuu)

	var invKuu, invG mat.Dense
	require.NoError(t, invKuu.Inverse(kuu))
	require.NoError(t, invG.Inverse(g))

	// tr(AAT) = tr(Kuu⁻¹ Ψ2)/σ²
	var kp mat.Dense
	kp.Mul(&invKuu, psi2)
	trAAT := mat.Trace(&kp) / noise

	// ‖c‖² = tr(Yᵀ Ψ1 G⁻¹ Ψ1ᵀ Y)/σ⁴
	var py, gy mat.Dense
	py.Mul(psi1.T(), y)
	gy.Mul(&invG, &py)
	c2 := 0.0
	for i := 0; i < mm; i++ {
		for j := 0; j < r; j++ {
			c2 += py.At(i, j) * gy.At(i, j)
		}
	}
	c2 /= noise * noise

	yNorm := mat.Norm(y, 2)
	want := -0.5 * float64(n*r) * math.Log(2*math.Pi*noise)
	want -= 0.5 * float64(r) * (math.Log(mat.Det(g)) - math.Log(mat.Det(kuu)))
	want -= 0.5 * yNorm * yNorm / noise
	want += 0.5 * c2
	want -= 0.5 * float64(r) * (psi0/noise - trAAT)

	_, q := xMean.Dims()
	kl := -0.5 * float64(n*q)
	for i := 0; i < n; i++ {
		for j := 0; j < q; j++ {
			mu, v := xMean.At(i, j), xVar.At(i, j)
			kl += 0.5*(mu*mu+v) - 0.5*math.Log(v)
		}
	}
	want -= kl

	assert.InDelta(t, want, got, 1e-8)
}

// Far too much likelihood noise must cost the bound.
func TestBoundNoisePenalty(t *testing.T) {
	xMean, xVar, y, z := testData()
	k := kern.NewRBF(2, 1.0, 1.0)

	snug, err := New(xMean, xVar, y, k, z, 1.0)
	require.NoError(t, err)
	loose, err := New(xMean, xVar, y, k, z, 1e6)
	require.NoError(t, err)

	bs, err := snug.Bound()
	require.NoError(t, err)
	bl, err := loose.Bound()
	require.NoError(t, err)
	assert.False(t, math.IsNaN(bs) || math.IsInf(bs, 0))
	assert.False(t, math.IsNaN(bl) || math.IsInf(bl, 0))
	assert.Greater(t, bs, bl)
}

// Kernels without closed-form psi statistics integrate by quadrature
// inside the bound.
func TestBoundQuadratureKernel(t *testing.T) {
	xMean, xVar, y, z := testData()
	k := kern.NewMatern32(2, 1.0, 1.0)

	model, err := New(xMean, xVar, y, k, z, 0.1)
	require.NoError(t, err)
	b, err := model.Bound(expect.WithQuadratureOrder(12))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(b) || math.IsInf(b, 0))
}
