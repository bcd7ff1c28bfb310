package calculus

import (
	"github.com/symgolic/symgolic/expr"
)

// Derivative differentiates e with respect to v the given number of times
// and returns a canonical result. Subterms with no known rule come back as
// unevaluated expr.Derivative nodes rather than an error, so the function is
// total. order <= 0 returns e canonicalised.
func Derivative(e expr.Expr, v *expr.Symbol, order int, opts ...Option) expr.Expr {
	cfg := newConfig(opts)
	out := cfg.canon(e)
	d := differ{cfg: cfg, v: v}
	for i := 0; i < order; i++ {
		next := cfg.canon(d.diff(out))
		if cfg.tracer != nil && !expr.Equal(next, out) {
			cfg.tracer.Record("differentiate", out, next)
		}
		out = next
	}
	return out
}

type differ struct {
	cfg *config
	v   *expr.Symbol
}

func (d differ) diff(e expr.Expr) expr.Expr {
	if !expr.ContainsSymbol(e, d.v) {
		return expr.Int(0)
	}
	switch ev := e.(type) {
	case *expr.Symbol:
		if ev == d.v {
			return expr.Int(1)
		}
		return expr.Int(0)
	case *expr.Add:
		terms := make([]expr.Expr, len(ev.Operands()))
		for i, op := range ev.Operands() {
			terms[i] = d.diff(op)
		}
		return expr.NewAdd(terms...)
	case *expr.Mul:
		return d.diffMul(ev)
	case *expr.Pow:
		return d.diffPow(ev)
	case *expr.Function:
		return d.diffFunction(ev)
	case *expr.Piecewise:
		cases := make([]expr.PiecewiseCase, len(ev.Cases))
		for i, c := range ev.Cases {
			cases[i] = expr.PiecewiseCase{If: c.If, Then: d.diff(c.Then)}
		}
		var otherwise expr.Expr
		if ev.Otherwise != nil {
			otherwise = d.diff(ev.Otherwise)
		}
		return expr.NewPiecewise(cases, otherwise)
	case *expr.Matrix:
		cells := make([]expr.Expr, len(ev.Cells))
		for i, c := range ev.Cells {
			cells[i] = d.diff(c)
		}
		return expr.NewMatrix(ev.RowsN, ev.ColsN, cells)
	case *expr.Derivative:
		if ev.Var == d.v {
			return expr.NewDerivative(ev.Body, ev.Var, ev.Order+1)
		}
		return expr.NewDerivative(e, d.v, 1)
	case *expr.Integral:
		if ev.Var == d.v {
			return ev.Body
		}
		// differentiation under the integral sign
		return expr.NewIntegral(d.diff(ev.Body), ev.Var)
	case *expr.Sum:
		if ev.Var != d.v && !expr.ContainsSymbol(ev.Lo, d.v) && !expr.ContainsSymbol(ev.Hi, d.v) {
			return expr.NewSum(d.diff(ev.Body), ev.Var, ev.Lo, ev.Hi)
		}
		return expr.NewDerivative(e, d.v, 1)
	default:
		// Relation, Set, Limit, Product, wildcards: no rule
		return expr.NewDerivative(e, d.v, 1)
	}
}

// diffMul applies the generalized product rule. Each term keeps the factors
// in their original positions, which preserves correctness for operands that
// do not commute.
func (d differ) diffMul(m *expr.Mul) expr.Expr {
	ops := m.Operands()
	terms := make([]expr.Expr, 0, len(ops))
	for i := range ops {
		if !expr.ContainsSymbol(ops[i], d.v) {
			continue
		}
		factors := make([]expr.Expr, len(ops))
		copy(factors, ops)
		factors[i] = d.diff(ops[i])
		terms = append(terms, expr.NewMul(factors...))
	}
	return expr.NewAdd(terms...)
}

// diffPow splits on where the variable occurs: the power rule when only the
// base depends on it, the a^u rule when only the exponent does, and the full
// logarithmic rule when both do.
func (d differ) diffPow(p *expr.Pow) expr.Expr {
	baseDep := expr.ContainsSymbol(p.Base, d.v)
	expDep := expr.ContainsSymbol(p.Exp, d.v)
	switch {
	case baseDep && !expDep:
		return expr.Times(
			p.Exp,
			expr.PowOf(p.Base, expr.Sub2(p.Exp, expr.Int(1))),
			d.diff(p.Base),
		)
	case !baseDep && expDep:
		return expr.Times(p, expr.Call("log", p.Base), d.diff(p.Exp))
	default:
		// f^g * (g' log f + g f'/f)
		return expr.Times(p, expr.Plus(
			expr.Times(d.diff(p.Exp), expr.Call("log", p.Base)),
			expr.Div2(expr.Times(p.Exp, d.diff(p.Base)), p.Base),
		))
	}
}

func (d differ) diffFunction(f *expr.Function) expr.Expr {
	entry, ok := d.cfg.reg.Lookup(f.Name)
	if ok && entry.Derivative != nil && len(f.Args) == 1 {
		return expr.Times(entry.Derivative(f.Args), d.diff(f.Args[0]))
	}
	return expr.NewDerivative(f, d.v, 1)
}
