package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func mat1(vals ...float64) *mat.Dense {
	return mat.NewDense(len(vals), 1, vals)
}

func matRows(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	m := mat.NewDense(r, c, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

func matApproxEqual(a, b mat.Matrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if math.Abs(a.At(i, j)-b.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}
