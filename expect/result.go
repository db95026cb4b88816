package expect

import (
	"fmt"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// Result is a batch of expectation values, one entry per input point.
// Rank 1 results hold one scalar per point, rank 2 one vector of width
// K1, rank 3 one K1 x K2 matrix. Data is stored flat in row-major
// order; views share the backing slice.
type Result struct {
	rank   int
	n      int
	k1, k2 int
	data   []float64
}

func newResult1(n int) *Result {
	return &Result{rank: 1, n: n, k1: 1, k2: 1, data: make([]float64, n)}
}

func newResult2(n, k int) *Result {
	return &Result{rank: 2, n: n, k1: k, k2: 1, data: make([]float64, n*k)}
}

func newResult3(n, k1, k2 int) *Result {
	return &Result{rank: 3, n: n, k1: k1, k2: k2, data: make([]float64, n*k1*k2)}
}

// Rank returns 1, 2 or 3.
func (r *Result) Rank() int { return r.rank }

// Len returns the number of points N.
func (r *Result) Len() int { return r.n }

// Dims returns (N, K1, K2); K1 and K2 are 1 below the corresponding
// rank.
func (r *Result) Dims() (n, k1, k2 int) { return r.n, r.k1, r.k2 }

// Raw returns the backing slice in row-major order.
func (r *Result) Raw() []float64 { return r.data }

// Scalar returns the value for point i of a rank 1 result.
func (r *Result) Scalar(i int) float64 {
	if r.rank != 1 {
		panic(fmt.Sprintf("expect: Scalar on a rank %d result", r.rank))
	}
	return r.data[i]
}

// At returns entry j for point i of a rank 2 result.
func (r *Result) At(i, j int) float64 {
	if r.rank != 2 {
		panic(fmt.Sprintf("expect: At on a rank %d result", r.rank))
	}
	return r.data[i*r.k1+j]
}

// VecView returns the K1 vector for point i of a rank 2 result.
func (r *Result) VecView(i int) *mat.VecDense {
	if r.rank != 2 {
		panic(fmt.Sprintf("expect: VecView on a rank %d result", r.rank))
	}
	return mat.NewVecDense(r.k1, r.row(i))
}

// MatView returns the K1 x K2 matrix for point i of a rank 3 result.
func (r *Result) MatView(i int) *mat.Dense {
	if r.rank != 3 {
		panic(fmt.Sprintf("expect: MatView on a rank %d result", r.rank))
	}
	return mat.NewDense(r.k1, r.k2, r.row(i))
}

// AsVec views a rank 1 result as an N vector.
func (r *Result) AsVec() *mat.VecDense {
	if r.rank != 1 {
		panic(fmt.Sprintf("expect: AsVec on a rank %d result", r.rank))
	}
	return mat.NewVecDense(r.n, r.data)
}

// AsDense views a rank 2 result as an N x K1 matrix.
func (r *Result) AsDense() *mat.Dense {
	if r.rank != 2 {
		panic(fmt.Sprintf("expect: AsDense on a rank %d result", r.rank))
	}
	return mat.NewDense(r.n, r.k1, r.data)
}

// row returns the flat block for point i.
func (r *Result) row(i int) []float64 {
	w := r.k1 * r.k2
	return r.data[i*w : (i+1)*w]
}

// transposed returns a rank 3 result with the per-point matrices
// transposed.
func (r *Result) transposed() *Result {
	if r.rank != 3 {
		panic(fmt.Sprintf("expect: transpose of a rank %d result", r.rank))
	}
	out := newResult3(r.n, r.k2, r.k1)
	for i := 0; i < r.n; i++ {
		src := r.row(i)
		dst := out.row(i)
		for a := 0; a < r.k1; a++ {
			for b := 0; b < r.k2; b++ {
				dst[b*r.k1+a] = src[a*r.k2+b]
			}
		}
	}
	return out
}

func (r *Result) sameShape(o *Result) bool {
	return r.rank == o.rank && r.n == o.n && r.k1 == o.k1 && r.k2 == o.k2
}

func (r *Result) addInPlace(o *Result) error {
	if !r.sameShape(o) {
		return fmt.Errorf("%w: adding rank %d (%d,%d,%d) to rank %d (%d,%d,%d)",
			ErrShapeMismatch, o.rank, o.n, o.k1, o.k2, r.rank, r.n, r.k1, r.k2)
	}
	vek.Add_Inplace(r.data, o.data)
	return nil
}

func (r *Result) mulInPlace(o *Result) error {
	if !r.sameShape(o) {
		return fmt.Errorf("%w: multiplying rank %d (%d,%d,%d) into rank %d (%d,%d,%d)",
			ErrShapeMismatch, o.rank, o.n, o.k1, o.k2, r.rank, r.n, r.k1, r.k2)
	}
	vek.Mul_Inplace(r.data, o.data)
	return nil
}

// outer combines two rank 2 results into a rank 3 result of per-point
// outer products.
func outer(a, b *Result) (*Result, error) {
	if a.rank != 2 || b.rank != 2 || a.n != b.n {
		return nil, fmt.Errorf("%w: outer product of rank %d and rank %d results", ErrShapeMismatch, a.rank, b.rank)
	}
	out := newResult3(a.n, a.k1, b.k1)
	for i := 0; i < a.n; i++ {
		av := a.row(i)
		bv := b.row(i)
		dst := out.row(i)
		for x := 0; x < a.k1; x++ {
			for y := 0; y < b.k1; y++ {
				dst[x*b.k1+y] = av[x] * bv[y]
			}
		}
	}
	return out, nil
}
