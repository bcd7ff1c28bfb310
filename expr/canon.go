package expr

import (
	"log/slog"
	"sort"
)

var canonLogger = slog.With("section", "expr.canon")

// Tracer observes rewrite steps. Implementations must treat every call as
// purely informational: results never depend on a tracer being present.
type Tracer interface {
	Record(description string, before, after Expr)
}

// CallRewriter lets the function registry participate in canonicalisation
// without this package depending on it. RewriteCall receives canonical
// arguments and returns a strictly simpler replacement, or ok=false.
type CallRewriter interface {
	RewriteCall(name string, args []Expr) (Expr, bool)
}

// CanonOption configures a canonicalisation run.
type CanonOption func(*canonCtx)

// WithTracer records (description, before, after) triples for every node the
// canonicaliser rewrites.
func WithTracer(t Tracer) CanonOption {
	return func(c *canonCtx) { c.tracer = t }
}

// WithCalls consults r for function special values while canonicalising.
func WithCalls(r CallRewriter) CanonOption {
	return func(c *canonCtx) { c.calls = r }
}

type canonCtx struct {
	tracer Tracer
	calls  CallRewriter
}

// Canon rewrites e to its unique canonical form. It is total, terminating,
// idempotent and value-preserving; the worst case is a no-op.
func Canon(e Expr, opts ...CanonOption) Expr {
	c := &canonCtx{}
	for _, opt := range opts {
		opt(c)
	}
	return c.rec(e)
}

// CanonTraced is Canon with a step recorder attached.
func CanonTraced(e Expr, t Tracer) Expr { return Canon(e, WithTracer(t)) }

// Canonical constructor shorthands. These build the node and canonicalise in
// one step, which is what rule code wants almost everywhere.

func Plus(ops ...Expr) Expr         { return Canon(NewAdd(ops...)) }
func Times(ops ...Expr) Expr       { return Canon(NewMul(ops...)) }
func PowOf(base, exp Expr) Expr    { return Canon(NewPow(base, exp)) }
func Call(name string, args ...Expr) Expr {
	return Canon(NewFunction(name, args...))
}

// Neg returns the canonical form of -e.
func Neg(e Expr) Expr { return Times(numMinusOne, e) }

// Sub2 returns the canonical form of a - b.
func Sub2(a, b Expr) Expr { return Plus(a, Neg(b)) }

// Div2 returns the canonical form of a * b^-1.
func Div2(a, b Expr) Expr { return Times(a, PowOf(b, numMinusOne)) }

func (c *canonCtx) trace(desc string, before, after Expr) {
	if c.tracer != nil && !Equal(before, after) {
		c.tracer.Record(desc, before, after)
	}
}

func (c *canonCtx) recAll(ops []Expr) []Expr {
	out := make([]Expr, len(ops))
	for i, op := range ops {
		out[i] = c.rec(op)
	}
	return out
}

func (c *canonCtx) rec(e Expr) Expr {
	switch v := e.(type) {
	case *Number, *Symbol, *Wildcard, *SeqWildcard:
		return e
	case *Add:
		out := c.canonAdd(c.recAll(v.ops))
		c.trace("canonicalise sum", e, out)
		return out
	case *Mul:
		out := c.canonMul(c.recAll(v.ops))
		c.trace("canonicalise product", e, out)
		return out
	case *Pow:
		out := c.canonPow(c.rec(v.Base), c.rec(v.Exp))
		c.trace("canonicalise power", e, out)
		return out
	case *Function:
		args := c.recAll(v.Args)
		if c.calls != nil {
			if rewritten, ok := c.calls.RewriteCall(v.Name, args); ok {
				out := c.rec(rewritten)
				c.trace("apply special value of "+v.Name, e, out)
				return out
			}
		}
		return NewFunction(v.Name, args...)
	case *Relation:
		return NewRelation(v.Op, c.rec(v.L), c.rec(v.R))
	case *Piecewise:
		cases := make([]PiecewiseCase, len(v.Cases))
		for i, pc := range v.Cases {
			cases[i] = PiecewiseCase{If: c.rec(pc.If), Then: c.rec(pc.Then)}
		}
		var otherwise Expr
		if v.Otherwise != nil {
			otherwise = c.rec(v.Otherwise)
		}
		return NewPiecewise(cases, otherwise)
	case *Matrix:
		return NewMatrix(v.RowsN, v.ColsN, c.recAll(v.Cells))
	case *Set:
		out := c.canonSet(c.recAll(v.Elems))
		c.trace("canonicalise set", e, out)
		return out
	case *Derivative:
		return NewDerivative(c.rec(v.Body), v.Var, v.Order)
	case *Integral:
		return NewIntegral(c.rec(v.Body), v.Var)
	case *Limit:
		return NewLimit(c.rec(v.Body), v.Var, c.rec(v.To))
	case *Sum:
		return NewSum(c.rec(v.Body), v.Var, c.rec(v.Lo), c.rec(v.Hi))
	case *Product:
		return NewProduct(c.rec(v.Body), v.Var, c.rec(v.Lo), c.rec(v.Hi))
	default:
		canonLogger.Warn("unknown node kind left untouched", "kind", e.Kind())
		return e
	}
}

// splitCoeff splits a canonical term into its numeric coefficient and the
// remaining factor, so that like terms group by the non-numeric part.
func splitCoeff(term Expr) (*Number, Expr) {
	m, ok := term.(*Mul)
	if !ok {
		return numOne, term
	}
	num, ok := m.ops[0].(*Number)
	if !ok {
		return numOne, term
	}
	return num, NewMul(m.ops[1:]...)
}

// canonAdd canonicalises a sum whose operands are already canonical.
func (c *canonCtx) canonAdd(ops []Expr) Expr {
	// flatten: recursion may have exposed nested sums
	flat := make([]Expr, 0, len(ops))
	for _, op := range ops {
		if a, ok := op.(*Add); ok {
			flat = append(flat, a.ops...)
		} else {
			flat = append(flat, op)
		}
	}

	numAccum := numZero
	type group struct {
		rest  Expr
		coeff *Number
	}
	var groups []group
	index := make(map[uint64][]int)

	for _, op := range flat {
		if num, ok := op.(*Number); ok {
			numAccum = numAccum.Add(num)
			continue
		}
		coeff, rest := splitCoeff(op)
		h := rest.Hash()
		found := false
		for _, gi := range index[h] {
			if Equal(groups[gi].rest, rest) {
				groups[gi].coeff = groups[gi].coeff.Add(coeff)
				found = true
				break
			}
		}
		if !found {
			index[h] = append(index[h], len(groups))
			groups = append(groups, group{rest: rest, coeff: coeff})
		}
	}

	terms := make([]Expr, 0, len(groups)+1)
	if !numAccum.IsZero() {
		terms = append(terms, numAccum)
	}
	for _, g := range groups {
		switch {
		case g.coeff.IsZero():
			// eliminated
		case g.coeff.IsOne():
			terms = append(terms, g.rest)
		default:
			terms = append(terms, c.canonMulOfCoeff(g.coeff, g.rest))
		}
	}

	// addition commutes in every supported algebra, so the whole operand
	// list sorts
	sort.SliceStable(terms, func(i, j int) bool { return Compare(terms[i], terms[j]) < 0 })
	return NewAdd(terms...)
}

// canonMulOfCoeff rebuilds coeff*rest keeping the canonical number-first
// operand order without a full re-sort.
func (c *canonCtx) canonMulOfCoeff(coeff *Number, rest Expr) Expr {
	if m, ok := rest.(*Mul); ok {
		ops := make([]Expr, 0, len(m.ops)+1)
		ops = append(ops, coeff)
		ops = append(ops, m.ops...)
		return NewMul(ops...)
	}
	return NewMul(coeff, rest)
}

// splitPow views an operand as base^exp for like-base collection.
func splitPow(op Expr) (base, exp Expr) {
	if p, ok := op.(*Pow); ok {
		return p.Base, p.Exp
	}
	return op, numOne
}

// canonMul canonicalises a product whose operands are already canonical.
// Commuting operands fold, collect and sort; operands that do not commute
// keep their relative order and stay behind the commuting prefix, which is
// exactly the rewrite the scalar commutation rule licenses.
func (c *canonCtx) canonMul(ops []Expr) Expr {
	flat := make([]Expr, 0, len(ops))
	for _, op := range ops {
		if m, ok := op.(*Mul); ok {
			flat = append(flat, m.ops...)
		} else {
			flat = append(flat, op)
		}
	}

	numAccum := numOne
	var commuting []Expr
	var fixed []Expr // non-commuting operands in original order
	for _, op := range flat {
		switch {
		case op.Kind() == KNumber:
			numAccum = numAccum.Mul(op.(*Number))
		case Commutes(op):
			commuting = append(commuting, op)
		default:
			fixed = append(fixed, op)
		}
	}
	if numAccum.IsZero() {
		return numZero
	}

	// collect like bases among the commuting operands: x * x^2 -> x^3
	type group struct {
		base Expr
		exps []Expr
	}
	var groups []group
	index := make(map[uint64][]int)
	for _, op := range commuting {
		base, exp := splitPow(op)
		h := base.Hash()
		found := false
		for _, gi := range index[h] {
			if Equal(groups[gi].base, base) {
				groups[gi].exps = append(groups[gi].exps, exp)
				found = true
				break
			}
		}
		if !found {
			index[h] = append(index[h], len(groups))
			groups = append(groups, group{base: base, exps: []Expr{exp}})
		}
	}

	rebuilt := make([]Expr, 0, len(groups))
	for _, g := range groups {
		var folded Expr
		if len(g.exps) == 1 {
			folded = c.canonPow(g.base, g.exps[0])
		} else {
			folded = c.canonPow(g.base, c.canonAdd(g.exps))
		}
		if num, ok := folded.(*Number); ok {
			numAccum = numAccum.Mul(num)
			continue
		}
		rebuilt = append(rebuilt, folded)
	}
	if numAccum.IsZero() {
		return numZero
	}

	sort.SliceStable(rebuilt, func(i, j int) bool { return Compare(rebuilt[i], rebuilt[j]) < 0 })

	all := make([]Expr, 0, len(rebuilt)+len(fixed)+1)
	if !numAccum.IsOne() || len(rebuilt)+len(fixed) == 0 {
		all = append(all, numAccum)
	}
	all = append(all, rebuilt...)
	all = append(all, fixed...)
	return NewMul(all...)
}

// maxFoldExp bounds exact folding of numeric powers so that canonicalisation
// cannot be tricked into materialising astronomically large integers.
const maxFoldExp = 64

// canonPow canonicalises base^exp for canonical base and exp.
func (c *canonCtx) canonPow(base, exp Expr) Expr {
	baseNum, baseIsNum := base.(*Number)
	expNum, expIsNum := exp.(*Number)

	if expIsNum {
		if expNum.IsZero() {
			if baseIsNum && baseNum.IsZero() {
				return &Pow{Base: base, Exp: exp} // 0^0 stays symbolic
			}
			return numOne
		}
		if expNum.IsOne() {
			return base
		}
	}
	if baseIsNum {
		if baseNum.IsOne() {
			return numOne
		}
		if baseNum.IsZero() {
			if expIsNum && expNum.IsReal() && expNum.Sign() < 0 {
				return &Pow{Base: base, Exp: exp} // division by zero stays symbolic
			}
			if expIsNum && expNum.IsPositive() {
				return numZero
			}
		}
		if expIsNum && expNum.IsInteger() {
			if e, ok := expNum.Int64(); ok && e >= -maxFoldExp && e <= maxFoldExp {
				if folded, err := baseNum.PowInt(e); err == nil {
					return folded
				}
			}
		}
	}
	// (b^a)^n with integer n folds into b^(a*n); the non-integer case is
	// not value-preserving (e.g. (x^2)^(1/2) != x) and is left alone
	if inner, ok := base.(*Pow); ok {
		if expIsNum && expNum.IsInteger() {
			return c.canonPow(inner.Base, c.canonMul([]Expr{inner.Exp, exp}))
		}
	}
	return &Pow{Base: base, Exp: exp}
}

// canonSet sorts and de-duplicates set elements.
func (c *canonCtx) canonSet(elems []Expr) Expr {
	sorted := make([]Expr, len(elems))
	copy(sorted, elems)
	sort.SliceStable(sorted, func(i, j int) bool { return Compare(sorted[i], sorted[j]) < 0 })
	dedup := sorted[:0]
	for i, e := range sorted {
		if i == 0 || !Equal(sorted[i-1], e) {
			dedup = append(dedup, e)
		}
	}
	return NewSet(dedup...)
}
