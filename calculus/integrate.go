package calculus

import (
	"fmt"
	"iter"
	"slices"

	"github.com/symgolic/symgolic/calculus/risch"
	"github.com/symgolic/symgolic/expr"
	"github.com/symgolic/symgolic/util"
)

// Integrate searches for an antiderivative of e with respect to v. The
// strategies run in order: direct table forms, linearity, u-substitution,
// integration by parts for logarithmic factors, and finally the tower
// decision procedure, which is the only stage that can prove an integral
// non-elementary. Every recursive attempt spends from a shared step budget;
// exhaustion yields Unresolved wrapping ErrBudget.
func Integrate(e expr.Expr, v *expr.Symbol, opts ...Option) Outcome {
	cfg := newConfig(opts)
	in := &integrator{cfg: cfg, v: v, remaining: cfg.budget}
	out := in.integrate(cfg.canon(e))
	if out.Status == Elementary {
		out.Antiderivative = cfg.canon(out.Antiderivative)
		if cfg.tracer != nil {
			cfg.tracer.Record("integrate", e, out.Antiderivative)
		}
	}
	return out
}

type integrator struct {
	cfg       *config
	v         *expr.Symbol
	remaining int
	subDepth  int
}

func (in *integrator) integrate(e expr.Expr) Outcome {
	if in.remaining <= 0 {
		return budgetExhausted()
	}
	in.remaining--

	if out, ok := in.table(e); ok {
		return out
	}
	if out, ok := in.linearity(e); ok {
		return out
	}
	if out, ok := in.substitution(e); ok {
		return out
	}
	if out, ok := in.parts(e); ok {
		return out
	}
	return in.tower(e)
}

func (in *integrator) diff(e expr.Expr) expr.Expr {
	return in.cfg.canon(differ{cfg: in.cfg, v: in.v}.diff(e))
}

// linearIn reads u as a*v + b with a, b free of v and a non-zero.
func (in *integrator) linearIn(u expr.Expr) (a, b expr.Expr, ok bool) {
	a = in.diff(u)
	if isZeroExpr(a) || expr.ContainsSymbol(a, in.v) {
		return nil, nil, false
	}
	b = in.cfg.canon(expr.Sub2(u, expr.NewMul(a, in.v)))
	if expr.ContainsSymbol(b, in.v) {
		return nil, nil, false
	}
	return a, b, true
}

func isZeroExpr(e expr.Expr) bool {
	n, ok := e.(*expr.Number)
	return ok && n.IsZero()
}

// table handles the shapes with a closed form one rewrite away: constants,
// powers of a linear argument, exponentials with a constant base, and
// registry antiderivatives composed with a linear argument.
func (in *integrator) table(e expr.Expr) (Outcome, bool) {
	if !expr.ContainsSymbol(e, in.v) {
		return elementary(expr.Times(e, in.v)), true
	}
	if e == expr.Expr(in.v) {
		return elementary(expr.Times(expr.Rat(1, 2), expr.PowOf(in.v, expr.Int(2)))), true
	}
	if p, ok := e.(*expr.Pow); ok {
		if out, ok := in.tablePow(p); ok {
			return out, true
		}
	}
	if f, ok := e.(*expr.Function); ok && len(f.Args) == 1 {
		entry, known := in.cfg.reg.Lookup(f.Name)
		if known && entry.Antiderivative != nil {
			if a, _, ok := in.linearIn(f.Args[0]); ok {
				if anti, has := entry.Antiderivative(f.Args[0]); has {
					return elementary(expr.Div2(anti, a)), true
				}
			}
		}
	}
	return Outcome{}, false
}

func (in *integrator) tablePow(p *expr.Pow) (Outcome, bool) {
	baseDep := expr.ContainsSymbol(p.Base, in.v)
	expDep := expr.ContainsSymbol(p.Exp, in.v)
	switch {
	case baseDep && !expDep:
		n, isNum := p.Exp.(*expr.Number)
		if !isNum {
			return Outcome{}, false
		}
		a, _, ok := in.linearIn(p.Base)
		if !ok {
			return Outcome{}, false
		}
		if n.IsMinusOne() {
			return elementary(expr.Div2(expr.Call("log", p.Base), a)), true
		}
		next := n.Add(expr.Int(1))
		return elementary(expr.Div2(
			expr.PowOf(p.Base, next),
			expr.Times(a, next),
		)), true
	case !baseDep && expDep:
		// c^u integrates to c^u / (a log c) for linear u
		a, _, ok := in.linearIn(p.Exp)
		if !ok {
			return Outcome{}, false
		}
		return elementary(expr.Div2(p, expr.Times(a, expr.Call("log", p.Base)))), true
	default:
		return Outcome{}, false
	}
}

// linearity splits sums termwise and hoists factors free of the variable.
// Termwise failure falls through to the later stages on the whole
// expression: verdicts about sums of exponential terms are only sound when
// the terms are judged together.
func (in *integrator) linearity(e expr.Expr) (Outcome, bool) {
	switch ev := e.(type) {
	case *expr.Add:
		terms := make([]expr.Expr, len(ev.Operands()))
		for i, op := range ev.Operands() {
			out := in.integrate(op)
			if out.Status != Elementary {
				if out.Err != nil {
					return out, true
				}
				return Outcome{}, false
			}
			terms[i] = out.Antiderivative
		}
		return elementary(expr.Plus(terms...)), true
	case *expr.Mul:
		var consts, rest []expr.Expr
		for _, op := range ev.Operands() {
			if expr.ContainsSymbol(op, in.v) {
				rest = append(rest, op)
			} else {
				consts = append(consts, op)
			}
		}
		if len(consts) == 0 {
			return Outcome{}, false
		}
		out := in.integrate(in.cfg.canon(expr.NewMul(rest...)))
		switch out.Status {
		case Elementary:
			out.Antiderivative = expr.Times(expr.NewMul(consts...), out.Antiderivative)
			return out, true
		case ProvenNonElementary:
			// scaling by a provably non-zero constant preserves the verdict
			if len(consts) == 1 {
				if n, isNum := consts[0].(*expr.Number); isNum && n.IsExact() && !n.IsZero() {
					return out, true
				}
			}
			return Outcome{}, false
		default:
			if out.Err != nil {
				return out, true
			}
			return Outcome{}, false
		}
	}
	return Outcome{}, false
}

// substitution looks for an inner expression u whose derivative divides the
// integrand, leaving a function of u alone.
func (in *integrator) substitution(e expr.Expr) (Outcome, bool) {
	t := expr.Intern(fmt.Sprintf("@u%d", in.subDepth+1), expr.TagScalar)
	for u := range in.subCandidates(e) {
		du := in.diff(u)
		if isZeroExpr(du) {
			continue
		}
		q := in.cfg.canon(expr.Div2(e, du))
		qt := in.cfg.canon(replaceAll(q, u, t))
		if expr.ContainsSymbol(qt, in.v) || !expr.ContainsSymbol(qt, t) {
			continue
		}
		sub := &integrator{cfg: in.cfg, v: t, remaining: in.remaining, subDepth: in.subDepth + 1}
		out := sub.integrate(qt)
		in.remaining = sub.remaining
		if out.Status == Elementary {
			return elementary(expr.Substitute(out.Antiderivative, t, u)), true
		}
		if out.Err != nil {
			return out, true
		}
	}
	return Outcome{}, false
}

// subCandidates yields inner expressions worth substituting: function
// arguments first, then bases and exponents of powers.
func (in *integrator) subCandidates(e expr.Expr) iter.Seq[expr.Expr] {
	var args, powParts []expr.Expr
	seen := make(map[uint64]bool)
	add := func(list *[]expr.Expr, u expr.Expr) {
		if u.Kind() == expr.KSymbol || u.Kind() == expr.KNumber {
			return
		}
		if !expr.ContainsSymbol(u, in.v) || seen[u.Hash()] {
			return
		}
		seen[u.Hash()] = true
		*list = append(*list, u)
	}
	expr.Walk(e, func(node expr.Expr) bool {
		switch nv := node.(type) {
		case *expr.Function:
			for _, arg := range nv.Args {
				add(&args, arg)
			}
		case *expr.Pow:
			add(&powParts, nv.Base)
			add(&powParts, nv.Exp)
		}
		return true
	})
	return util.ConcatIter(slices.Values(args), slices.Values(powParts))
}

// replaceAll substitutes every occurrence of the subtree target with with.
func replaceAll(e, target, with expr.Expr) expr.Expr {
	return e.Transform(func(node expr.Expr) expr.Expr {
		if expr.Equal(node, target) {
			return with
		}
		return node
	})
}

// logLike names the factors that integration by parts differentiates away.
var logLike = map[string]bool{
	"log": true, "atan": true, "asin": true, "acos": true, "atanh": true,
}

// parts runs integration by parts with u the logarithmic-style factor:
// ∫ u dv = u·V - ∫ V·u'. Powers of logs recurse here with the exponent
// strictly decreasing.
func (in *integrator) parts(e expr.Expr) (Outcome, bool) {
	factors := operandList(e)
	uIdx := -1
	for i, f := range factors {
		if isLogLike(f) && expr.ContainsSymbol(f, in.v) {
			uIdx = i
			break
		}
	}
	if uIdx < 0 {
		return Outcome{}, false
	}
	u := factors[uIdx]
	rest := append(append([]expr.Expr{}, factors[:uIdx]...), factors[uIdx+1:]...)
	dv := in.cfg.canon(expr.NewMul(rest...))

	vOut := in.integrate(dv)
	if vOut.Status != Elementary {
		if vOut.Err != nil {
			return vOut, true
		}
		return Outcome{}, false
	}
	inner := in.integrate(in.cfg.canon(expr.Times(vOut.Antiderivative, in.diff(u))))
	if inner.Status != Elementary {
		if inner.Err != nil {
			return inner, true
		}
		return Outcome{}, false
	}
	return elementary(expr.Sub2(
		expr.Times(u, vOut.Antiderivative),
		inner.Antiderivative,
	)), true
}

func operandList(e expr.Expr) []expr.Expr {
	if e.Kind() == expr.KMul {
		return e.Operands()
	}
	return []expr.Expr{e}
}

func isLogLike(e expr.Expr) bool {
	if f, ok := e.(*expr.Function); ok {
		return logLike[f.Name]
	}
	if p, ok := e.(*expr.Pow); ok {
		n, isNum := p.Exp.(*expr.Number)
		return isNum && n.IsInteger() && n.IsPositive() && isLogLike(p.Base)
	}
	return false
}

// tower hands the whole expression to the exponential-tower decision
// procedure; this is the only stage allowed to conclude ProvenNonElementary.
func (in *integrator) tower(e expr.Expr) Outcome {
	res := risch.Integrate(e, in.v)
	switch res.Status {
	case risch.StatusElementary:
		logger.Debug("tower procedure found an antiderivative")
		return elementary(res.Antiderivative)
	case risch.StatusNonElementary:
		return nonElementary(res.Reason)
	default:
		return unresolved(res.Reason)
	}
}
