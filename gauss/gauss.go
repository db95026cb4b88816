// Package gauss holds batches of Gaussian input distributions, one
// D-dimensional Gaussian per data point. Expectations of kernel and
// mean-function quantities are taken under these distributions.
package gauss

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when means and covariances disagree on
// the batch size or the input dimension.
var ErrShapeMismatch = errors.New("gauss: shape mismatch")

// Gaussian is a batch of N independent Gaussians over R^D. The
// covariance is stored either as one full D x D matrix per point or,
// for diagonal posteriors, as an N x D matrix of per-dimension
// variances. Accessors return views of internal state; callers must
// not mutate them.
type Gaussian struct {
	mu   *mat.Dense      // N x D
	covs []*mat.SymDense // full representation, len N
	vars *mat.Dense      // diagonal representation, N x D
}

// NewGaussian builds a batch with one full covariance matrix per mean row.
func NewGaussian(mu *mat.Dense, covs []*mat.SymDense) (*Gaussian, error) {
	if mu == nil {
		return nil, fmt.Errorf("%w: nil mean", ErrShapeMismatch)
	}
	n, d := mu.Dims()
	if len(covs) != n {
		return nil, fmt.Errorf("%w: %d mean rows but %d covariance matrices", ErrShapeMismatch, n, len(covs))
	}
	for i, c := range covs {
		if c == nil {
			return nil, fmt.Errorf("%w: nil covariance at sample %d", ErrShapeMismatch, i)
		}
		if r, _ := c.Dims(); r != d {
			return nil, fmt.Errorf("%w: covariance %d is %dx%d, want %dx%d", ErrShapeMismatch, i, r, r, d, d)
		}
	}
	return &Gaussian{mu: mu, covs: covs}, nil
}

// NewDiagonal builds a batch with diagonal covariances given as an
// N x D matrix of variances.
func NewDiagonal(mu, vars *mat.Dense) (*Gaussian, error) {
	if mu == nil || vars == nil {
		return nil, fmt.Errorf("%w: nil mean or variances", ErrShapeMismatch)
	}
	n, d := mu.Dims()
	vn, vd := vars.Dims()
	if vn != n || vd != d {
		return nil, fmt.Errorf("%w: mean is %dx%d but variances are %dx%d", ErrShapeMismatch, n, d, vn, vd)
	}
	return &Gaussian{mu: mu, vars: vars}, nil
}

// Len returns the number of points in the batch.
func (g *Gaussian) Len() int {
	n, _ := g.mu.Dims()
	return n
}

// Dim returns the input dimension D.
func (g *Gaussian) Dim() int {
	_, d := g.mu.Dims()
	return d
}

// IsDiagonal reports whether the covariances are stored as per-dimension
// variances.
func (g *Gaussian) IsDiagonal() bool { return g.vars != nil }

// Mean returns the N x D matrix of means.
func (g *Gaussian) Mean() *mat.Dense { return g.mu }

// MeanRow returns the mean of point n.
func (g *Gaussian) MeanRow(n int) []float64 { return g.mu.RawRowView(n) }

// CovAt returns the covariance of point n, materializing a full matrix
// for diagonal batches.
func (g *Gaussian) CovAt(n int) *mat.SymDense {
	if g.vars == nil {
		return g.covs[n]
	}
	d := g.Dim()
	c := mat.NewSymDense(d, nil)
	row := g.vars.RawRowView(n)
	for i := 0; i < d; i++ {
		c.SetSym(i, i, row[i])
	}
	return c
}

// VarsRow returns the variances of point n. Only valid for diagonal
// batches.
func (g *Gaussian) VarsRow(n int) []float64 {
	if g.vars == nil {
		panic("gauss: VarsRow on a full-covariance batch")
	}
	return g.vars.RawRowView(n)
}

// Restrict returns the marginal distribution over the given input
// dimensions. A nil dims returns the receiver unchanged.
func (g *Gaussian) Restrict(dims []int) *Gaussian {
	if dims == nil {
		return g
	}
	n, d := g.Len(), len(dims)
	mu := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		row := g.mu.RawRowView(i)
		for j, idx := range dims {
			mu.Set(i, j, row[idx])
		}
	}
	if g.vars != nil {
		vars := mat.NewDense(n, d, nil)
		for i := 0; i < n; i++ {
			row := g.vars.RawRowView(i)
			for j, idx := range dims {
				vars.Set(i, j, row[idx])
			}
		}
		return &Gaussian{mu: mu, vars: vars}
	}
	covs := make([]*mat.SymDense, n)
	for i := 0; i < n; i++ {
		src := g.covs[i]
		c := mat.NewSymDense(d, nil)
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				c.SetSym(a, b, src.At(dims[a], dims[b]))
			}
		}
		covs[i] = c
	}
	return &Gaussian{mu: mu, covs: covs}
}
