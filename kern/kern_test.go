package kern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRBFK(t *testing.T) {
	k := NewRBF(1, 1.0, 1.0)
	x := mat1(0)
	z := mat1(1)

	kxz := k.K(x, z)
	assert.InDelta(t, math.Exp(-0.5), kxz.At(0, 0), 1e-12)

	kxx := k.K(x, nil)
	assert.InDelta(t, 1.0, kxx.At(0, 0), 1e-12)
}

func TestRBFARDK(t *testing.T) {
	k := NewRBFARD(2, 2.0, []float64{1, 2})
	x := matRows([][]float64{{0, 0}})
	z := matRows([][]float64{{1, 2}})

	// exp(-0.5 * (1/1 + 4/4)) = exp(-1)
	kxz := k.K(x, z)
	assert.InDelta(t, 2.0*math.Exp(-1), kxz.At(0, 0), 1e-12)
}

func TestRBFKdiagIsVariance(t *testing.T) {
	k := NewRBF(3, 1.7, 0.5)
	x := matRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	diag := k.Kdiag(x)
	assert.Equal(t, 2, diag.Len())
	assert.InDelta(t, 1.7, diag.AtVec(0), 1e-12)
	assert.InDelta(t, 1.7, diag.AtVec(1), 1e-12)
}

func TestLinearK(t *testing.T) {
	k := NewLinear(2, 0.5)
	x := matRows([][]float64{{1, 2}})
	z := matRows([][]float64{{3, 4}})

	kxz := k.K(x, z)
	assert.InDelta(t, 5.5, kxz.At(0, 0), 1e-12)

	diag := k.Kdiag(x)
	assert.InDelta(t, 2.5, diag.AtVec(0), 1e-12)

	// X2 == nil must not scale the right side twice.
	kxx := k.K(x, nil)
	assert.InDelta(t, 2.5, kxx.At(0, 0), 1e-12)
}

func TestLinearARDK(t *testing.T) {
	k := NewLinearARD(2, []float64{1, 10})
	x := matRows([][]float64{{1, 1}})
	z := matRows([][]float64{{2, 3}})
	assert.InDelta(t, 1*2+10*3, k.K(x, z).At(0, 0), 1e-12)
}

func TestMatern12K(t *testing.T) {
	k := NewMatern12(1, 2.0, 2.0)
	x := mat1(0)
	z := mat1(1)

	kxz := k.K(x, z)
	assert.InDelta(t, 2.0*math.Exp(-0.5), kxz.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, k.K(x, nil).At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, k.Kdiag(z).AtVec(0), 1e-12)
}

func TestMatern32K(t *testing.T) {
	k := NewMatern32(2, 1.0, 1.0)
	x := matRows([][]float64{{0, 0}})
	z := matRows([][]float64{{3, 4}})

	// r = 5, so k = (1 + 5 sqrt(3)) exp(-5 sqrt(3)).
	sr := 5 * math.Sqrt(3)
	kxz := k.K(x, z)
	assert.InDelta(t, (1+sr)*math.Exp(-sr), kxz.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, k.Kdiag(x).AtVec(0), 1e-12)
}

func TestConstantK(t *testing.T) {
	k := NewConstant(1, 0.7)
	x := mat1(0, 5)
	z := mat1(-3)

	kxz := k.K(x, z)
	r, c := kxz.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.InDelta(t, 0.7, kxz.At(0, 0), 1e-12)
	assert.InDelta(t, 0.7, kxz.At(1, 0), 1e-12)
	assert.InDelta(t, 0.7, k.Kdiag(x).AtVec(1), 1e-12)
}

func TestActiveDimsSliceColumns(t *testing.T) {
	full := matRows([][]float64{{1, 99, 2}, {3, -99, 4}})
	sliced := matRows([][]float64{{1, 2}, {3, 4}})

	k := NewRBFARD(2, 1.0, []float64{1, 2}, WithDims(Dims{0, 2}))
	plain := NewRBFARD(2, 1.0, []float64{1, 2})

	got := k.K(full, nil)
	want := plain.K(sliced, nil)
	assert.True(t, matApproxEqual(got, want, 1e-12))
}

func TestAddFlattensAndSums(t *testing.T) {
	a := NewRBF(1, 1.0, 1.0)
	b := NewLinear(1, 2.0)
	c := NewRBF(1, 0.5, 2.0)

	k := NewAdd(NewAdd(a, b), c)
	assert.Len(t, k.Children(), 3)

	x := mat1(1)
	z := mat1(2)
	want := a.K(x, z).At(0, 0) + b.K(x, z).At(0, 0) + c.K(x, z).At(0, 0)
	assert.InDelta(t, want, k.K(x, z).At(0, 0), 1e-12)

	wantDiag := a.Kdiag(x).AtVec(0) + b.Kdiag(x).AtVec(0) + c.Kdiag(x).AtVec(0)
	assert.InDelta(t, wantDiag, k.Kdiag(x).AtVec(0), 1e-12)
}

func TestProdMultiplies(t *testing.T) {
	a := NewRBF(1, 1.0, 1.0, WithDims(Dims{0}))
	b := NewLinear(1, 2.0, WithDims(Dims{1}))
	k := NewProd(a, b)

	x := matRows([][]float64{{0, 1}})
	z := matRows([][]float64{{1, 3}})
	want := a.K(x, z).At(0, 0) * b.K(x, z).At(0, 0)
	assert.InDelta(t, want, k.K(x, z).At(0, 0), 1e-12)
	assert.True(t, k.OnSeparateDims())
	assert.Equal(t, 2, k.InputDim())
}

func TestOnSeparateDims(t *testing.T) {
	a := NewRBF(1, 1.0, 1.0, WithDims(Dims{0}))
	b := NewRBF(1, 1.0, 1.0, WithDims(Dims{1}))
	overlapping := NewRBF(1, 1.0, 1.0, WithDims(Dims{0}))
	unrestricted := NewRBF(2, 1.0, 1.0)

	assert.True(t, NewProd(a, b).OnSeparateDims())
	assert.False(t, NewProd(a, overlapping).OnSeparateDims())
	// nil dims overlap everything.
	assert.False(t, NewProd(a, unrestricted).OnSeparateDims())
}

func TestKernelEqual(t *testing.T) {
	assert.True(t, NewRBF(1, 1, 1).Equal(NewRBF(1, 1, 1)))
	assert.False(t, NewRBF(1, 1, 1).Equal(NewRBF(1, 2, 1)))
	assert.False(t, NewRBF(1, 1, 1).Equal(NewRBF(1, 1, 2)))
	assert.False(t, NewRBF(1, 1, 1).Equal(NewRBFARD(1, 1, []float64{1})))
	assert.False(t, NewRBF(1, 1, 1).Equal(NewLinear(1, 1)))
	assert.True(t, NewMatern12(1, 1, 1).Equal(NewMatern12(1, 1, 1)))
	assert.False(t, NewMatern12(1, 1, 1).Equal(NewMatern32(1, 1, 1)))
	assert.True(t, NewConstant(2, 0.5).Equal(NewConstant(2, 0.5)))
	assert.False(t, NewConstant(2, 0.5).Equal(NewConstant(2, 0.6)))
	assert.False(t, NewRBF(1, 1, 1, WithDims(Dims{0})).Equal(NewRBF(1, 1, 1)))

	assert.True(t, NewLinearARD(2, []float64{1, 2}).Equal(NewLinearARD(2, []float64{1, 2})))
	assert.False(t, NewLinearARD(2, []float64{1, 2}).Equal(NewLinearARD(2, []float64{1, 3})))

	a := NewRBF(1, 1, 1)
	b := NewLinear(1, 1)
	assert.True(t, NewAdd(a, b).Equal(NewAdd(a, b)))
	assert.False(t, NewAdd(a, b).Equal(NewAdd(b, a)))
	assert.False(t, NewAdd(a, b).Equal(NewProd(a, b)))
}

func TestDimsHelpers(t *testing.T) {
	assert.Equal(t, Dims{1, 2, 3}, Range(1, 4))
	assert.True(t, Dims{0, 1, 2}.Contiguous())
	assert.False(t, Dims{0, 2}.Contiguous())
	assert.True(t, Dims{0, 1}.Disjoint(Dims{2, 3}))
	assert.False(t, Dims{0, 1}.Disjoint(Dims{1, 2}))
	assert.False(t, Dims(nil).Disjoint(Dims{0}))
	assert.Equal(t, 3, Dims{0, 2}.Span())
	assert.Equal(t, 0, Dims(nil).Span())
}

func TestConstructorPanics(t *testing.T) {
	assert.Panics(t, func() { NewRBF(0, 1, 1) })
	assert.Panics(t, func() { NewRBF(1, -1, 1) })
	assert.Panics(t, func() { NewRBF(1, 1, 0) })
	assert.Panics(t, func() { NewRBFARD(2, 1, []float64{1}) })
	assert.Panics(t, func() { NewLinear(1, -0.5) })
	assert.Panics(t, func() { NewLinearARD(1, []float64{1, 2}) })
	assert.Panics(t, func() { NewMatern12(1, 1, 0) })
	assert.Panics(t, func() { NewMatern32(0, 1, 1) })
	assert.Panics(t, func() { NewConstant(1, -1) })
	assert.Panics(t, func() { NewRBF(2, 1, 1, WithDims(Dims{0})) })
	assert.Panics(t, func() { NewRBF(2, 1, 1, WithDims(Dims{1, 0})) })
	assert.Panics(t, func() { NewAdd(NewRBF(1, 1, 1)) })
}
