package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/kern"
)

func TestInducingPointsShape(t *testing.T) {
	f := NewInducingPoints(mat.NewDense(3, 2, nil))
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 2, f.Dim())
	assert.Panics(t, func() { NewInducingPoints(nil) })
}

func TestKuf(t *testing.T) {
	f := NewInducingPoints(mat.NewDense(2, 1, []float64{0, 1}))
	k := kern.NewRBF(1, 1.0, 1.0)
	x := mat.NewDense(1, 1, []float64{0})

	kuf := f.Kuf(k, x)
	m, r := kuf.Dims()
	assert.Equal(t, 2, m)
	assert.Equal(t, 1, r)
	assert.InDelta(t, 1.0, kuf.At(0, 0), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), kuf.At(1, 0), 1e-12)
}

func TestEqual(t *testing.T) {
	a := NewInducingPoints(mat.NewDense(1, 1, []float64{0}))
	b := NewInducingPoints(mat.NewDense(1, 1, []float64{0}))
	c := NewInducingPoints(mat.NewDense(1, 1, []float64{1}))

	assert.True(t, a.Equal(a))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
