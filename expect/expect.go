// Package expect computes analytic expectations of kernel and
// mean-function quantities under Gaussian input distributions. Each
// supported combination of operands is served by a closed-form rule
// looked up by the runtime kinds of the operands; combinations without
// a closed form, and rules that decline a particular configuration,
// fall back to Gauss-Hermite quadrature.
package expect

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/dzuwhf/gopsi/features"
	"github.com/dzuwhf/gopsi/gauss"
	"github.com/dzuwhf/gopsi/kern"
	"github.com/dzuwhf/gopsi/quadrature"
)

var (
	// ErrNoClosedForm marks a rule declining its input. The dispatcher
	// treats any error wrapping it as a signal to integrate by
	// quadrature instead; it never escapes to callers.
	ErrNoClosedForm = errors.New("expect: no closed form")

	// ErrUnsupportedOperand is returned for operand combinations that
	// are structurally invalid rather than merely lacking a rule.
	ErrUnsupportedOperand = errors.New("expect: unsupported operand")

	// ErrCovNotDiagonal is returned when a product-kernel expectation
	// meets a full covariance matrix.
	ErrCovNotDiagonal = errors.New("expect: covariance must be diagonal")

	// ErrProdSeparateDims is returned when a product kernel's children
	// share input dimensions.
	ErrProdSeparateDims = errors.New("expect: product kernel children must act on separate dimensions")

	// ErrShapeMismatch is returned when operand shapes disagree with
	// the input distribution.
	ErrShapeMismatch = errors.New("expect: shape mismatch")
)

type config struct {
	order  int
	logger *zap.Logger
}

// Option adjusts how expectations are computed.
type Option func(*config)

// WithQuadratureOrder sets the number of Gauss-Hermite points per input
// dimension used by fallback integration.
func WithQuadratureOrder(order int) Option {
	return func(c *config) { c.order = order }
}

// WithLogger attaches a logger; fallbacks to quadrature are reported at
// debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{order: quadrature.DefaultOrder, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Expectation computes E[op1(x)] or E[op1(x) op2(x)ᵀ] under each
// Gaussian in p. With op2 absent the result has rank 1 for a bare
// kernel operand and rank 2 otherwise; with op2 present it has rank 3.
func Expectation(p *gauss.Gaussian, op1, op2 Operand, opts ...Option) (*Result, error) {
	if p == nil {
		return nil, errors.New("expect: nil input distribution")
	}
	if op1.IsAbsent() {
		return nil, fmt.Errorf("%w: first operand required", ErrUnsupportedOperand)
	}
	if op2.fn != nil {
		return nil, fmt.Errorf("%w: plain function must be the first operand", ErrUnsupportedOperand)
	}
	return compute(p, op1, op2, newConfig(opts))
}

// compute dispatches on the operand kinds. Rules recurse through it so
// that sub-expectations get their own closed forms or fallbacks.
func compute(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error) {
	key := keyOf(op1, op2)
	if r, ok := table[key]; ok {
		res, err := r.fn(p, op1, op2, cfg)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNoClosedForm) {
			return nil, err
		}
		cfg.logger.Debug("falling back to quadrature",
			zap.String("rule", r.name),
			zap.String("key", key.String()),
			zap.Error(err))
	} else {
		cfg.logger.Debug("no closed form registered, using quadrature",
			zap.String("key", key.String()))
	}
	return quadFallback(p, op1, op2, cfg)
}

// Psi0 returns the N vector E[k(x_n, x_n)].
func Psi0(p *gauss.Gaussian, k kern.Kernel, opts ...Option) (*mat.VecDense, error) {
	res, err := Expectation(p, Kern(k), Operand{}, opts...)
	if err != nil {
		return nil, err
	}
	return res.AsVec(), nil
}

// Psi1 returns the N x M matrix E[k(x_n, Z)].
func Psi1(p *gauss.Gaussian, k kern.Kernel, f *features.InducingPoints, opts ...Option) (*mat.Dense, error) {
	res, err := Expectation(p, KernFeat(k, f), Operand{}, opts...)
	if err != nil {
		return nil, err
	}
	return res.AsDense(), nil
}

// Psi2 returns the rank 3 result E[k(x_n, Z) k(x_n, Z)ᵀ], one M x M
// matrix per point.
func Psi2(p *gauss.Gaussian, k kern.Kernel, f *features.InducingPoints, opts ...Option) (*Result, error) {
	op := KernFeat(k, f)
	return Expectation(p, op, op, opts...)
}
