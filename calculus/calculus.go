// Package calculus implements symbolic differentiation and integration on
// canonical expressions. Differentiation is total; integration returns a
// three-way outcome, since an antiderivative may be proven not to exist in
// elementary terms, or the search may simply give up.
package calculus

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/symgolic/symgolic/expr"
	"github.com/symgolic/symgolic/fn"
)

var logger = slog.With("section", "calculus")

// ErrBudget reports that the integration search hit its step budget before
// reaching a verdict.
var ErrBudget = errors.New("calculus: step budget exhausted")

const defaultBudget = 512

type config struct {
	reg    fn.Registry
	tracer expr.Tracer
	budget int
}

type Option func(*config)

// WithRegistry swaps the function registry consulted for special values,
// derivatives and antiderivatives.
func WithRegistry(r fn.Registry) Option {
	return func(c *config) { c.reg = r }
}

// WithTracer records every rewrite step into t.
func WithTracer(t expr.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithBudget bounds the number of recursive integration attempts.
func WithBudget(n int) Option {
	return func(c *config) { c.budget = n }
}

func newConfig(opts []Option) *config {
	c := &config{reg: fn.Default(), budget: defaultBudget}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) canonOpts() []expr.CanonOption {
	out := []expr.CanonOption{expr.WithCalls(c.reg)}
	if c.tracer != nil {
		out = append(out, expr.WithTracer(c.tracer))
	}
	return out
}

func (c *config) canon(e expr.Expr) expr.Expr {
	return expr.Canon(e, c.canonOpts()...)
}

// Status classifies an integration outcome.
type Status int

const (
	// Elementary means an antiderivative was found.
	Elementary Status = iota
	// ProvenNonElementary means no elementary antiderivative exists.
	ProvenNonElementary
	// Unresolved means the search ended without a verdict either way.
	Unresolved
)

func (s Status) String() string {
	switch s {
	case Elementary:
		return "elementary"
	case ProvenNonElementary:
		return "proven-non-elementary"
	default:
		return "unresolved"
	}
}

// Outcome is the result of Integrate. Antiderivative is set exactly when
// Status is Elementary; Err is set when the verdict was forced by resource
// exhaustion and then wraps ErrBudget.
type Outcome struct {
	Status         Status
	Antiderivative expr.Expr
	Reason         string
	Err            error
}

func elementary(anti expr.Expr) Outcome {
	return Outcome{Status: Elementary, Antiderivative: anti}
}

func nonElementary(reason string) Outcome {
	return Outcome{Status: ProvenNonElementary, Reason: reason}
}

func unresolved(reason string) Outcome {
	return Outcome{Status: Unresolved, Reason: reason}
}

func budgetExhausted() Outcome {
	return Outcome{
		Status: Unresolved,
		Reason: "step budget exhausted",
		Err:    errors.WithStack(ErrBudget),
	}
}
