// Package quadrature integrates functions against multivariate Gaussian
// densities with tensor-product Gauss-Hermite rules. It is the fallback
// for every expectation without a closed form.
package quadrature

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/utils"
)

// DefaultOrder is the number of Gauss-Hermite points per input
// dimension.
const DefaultOrder = 20

// maxNodes caps the tensor grid; order^dim grows quickly with the input
// dimension.
const maxNodes = 1 << 22

var (
	ErrBadOrder     = errors.New("quadrature: order and dim must be positive")
	ErrTooManyNodes = errors.New("quadrature: node grid too large")
)

// Rule holds the nodes (P x dim) and weights (P) of a tensor-product
// Gauss-Hermite rule. The Gaussian normalization pi^{-dim/2} is folded
// into the weights, so for a standard normal x the estimate of E[f(x)]
// is sum_i w_i f(sqrt(2) x_i). Rules are shared: callers must not
// mutate them.
type Rule struct {
	Nodes   *mat.Dense
	Weights []float64
}

type ruleKey struct {
	order, dim int
}

var cache *lru.Cache[ruleKey, *Rule]

func init() {
	c, err := lru.New[ruleKey, *Rule](16)
	if err != nil {
		panic(err)
	}
	cache = c
}

// Hermite returns the tensor-product Gauss-Hermite rule with the given
// number of points per dimension.
func Hermite(order, dim int) (*Rule, error) {
	if order < 1 || dim < 1 {
		return nil, fmt.Errorf("%w: order %d, dim %d", ErrBadOrder, order, dim)
	}
	total := 1
	for i := 0; i < dim; i++ {
		total *= order
		if total > maxNodes {
			return nil, fmt.Errorf("%w: %d points per dim in %d dims", ErrTooManyNodes, order, dim)
		}
	}
	key := ruleKey{order: order, dim: dim}
	if r, ok := cache.Get(key); ok {
		return r, nil
	}

	x := make([]float64, order)
	w := make([]float64, order)
	quad.Hermite{}.FixedLocations(x, w, math.Inf(-1), math.Inf(1))

	nodes := mat.NewDense(total, dim, nil)
	weights := make([]float64, total)
	idx := make([]int, dim)
	for i := 0; i < total; i++ {
		wi := 1.0
		for j := 0; j < dim; j++ {
			nodes.Set(i, j, x[idx[j]])
			wi *= w[idx[j]]
		}
		weights[i] = wi
		for j := dim - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < order {
				break
			}
			idx[j] = 0
		}
	}
	vek.MulNumber_Inplace(weights, math.Pow(math.Pi, -float64(dim)/2))

	r := &Rule{Nodes: nodes, Weights: weights}
	cache.Add(key, r)
	return r, nil
}

// Func evaluates a batch of inputs, one per row, and returns one output
// row per input row.
type Func func(X *mat.Dense) (*mat.Dense, error)

// MVNormal estimates E[f(x)] for x distributed as each Gaussian in the
// batch. The result is N x K where K is the output width of f. Sampling
// points for point n are mu_n + sqrt(2) B_n xi with B_n a square root of
// the covariance, so degenerate covariances collapse onto the mean.
func MVNormal(f Func, p *gauss.Gaussian, order int) (*mat.Dense, error) {
	if p == nil {
		return nil, errors.New("quadrature: nil distribution")
	}
	rule, err := Hermite(order, p.Dim())
	if err != nil {
		return nil, err
	}
	pts, dim := rule.Nodes.Dims()
	wv := mat.NewVecDense(pts, rule.Weights)

	var out *mat.Dense
	x := mat.NewDense(pts, dim, nil)
	var acc mat.VecDense
	for n := 0; n < p.Len(); n++ {
		root, err := utils.PSDRoot(p.CovAt(n))
		if err != nil {
			return nil, fmt.Errorf("quadrature: point %d: %w", n, err)
		}
		x.Mul(rule.Nodes, root.T())
		x.Scale(math.Sqrt2, x)
		mu := p.MeanRow(n)
		for r := 0; r < pts; r++ {
			vek.Add_Inplace(x.RawRowView(r), mu)
		}

		fx, err := f(x)
		if err != nil {
			return nil, err
		}
		rows, k := fx.Dims()
		if rows != pts {
			return nil, fmt.Errorf("quadrature: eval returned %d rows for %d nodes", rows, pts)
		}
		if out == nil {
			out = mat.NewDense(p.Len(), k, nil)
		} else if _, kk := out.Dims(); kk != k {
			return nil, fmt.Errorf("quadrature: eval width changed from %d to %d", kk, k)
		}
		acc.MulVec(fx.T(), wv)
		copy(out.RawRowView(n), acc.RawVector().Data)
	}
	return out, nil
}
