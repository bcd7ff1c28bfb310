// Package risch decides elementary integrability for integrands living in
// a purely transcendental exponential tower over the Gaussian rationals:
// rational functions of x times exponentials of polynomials in x. sin and
// cos route through their complex exponential form. Anything outside that
// tower (algebraic generators, logarithms of the variable, non-polynomial
// exponents) comes back StatusUnknown rather than a wrong verdict.
package risch

import (
	"log/slog"

	"github.com/symgolic/symgolic/calculus/poly"
	"github.com/symgolic/symgolic/expr"
)

var logger = slog.With("section", "calculus.risch")

type Status int

const (
	StatusElementary Status = iota
	StatusNonElementary
	StatusUnknown
)

type Result struct {
	Status         Status
	Antiderivative expr.Expr
	Reason         string
}

func unknown(reason string) Result {
	return Result{Status: StatusUnknown, Reason: reason}
}

// piece is one additive component constFac * rat * exp(key + c), with the
// exponent's constant term c already folded into constFac as exp(c).
type piece struct {
	constFac      []expr.Expr
	provenNonzero bool
	rat           poly.RatFunc
	key           poly.Poly
}

// Integrate decides ∫e dv for integrands in the exponential tower. The
// integrand is grouped by distinct exponent; the group with zero exponent is
// a plain rational function, and every other group f·exp(g) is elementary
// exactly when the Risch differential equation y' + g'y = f has a rational
// solution, in which case it contributes y·exp(g).
func Integrate(e expr.Expr, v *expr.Symbol) Result {
	e = expr.Canon(rewriteTrig(e))
	e = expand(e)

	pieces, reason := decompose(e, v)
	if reason != "" {
		return unknown(reason)
	}

	groups, order := groupByKey(pieces)
	var parts []expr.Expr
	for _, h := range order {
		g := groups[h]
		res := integrateGroup(g, v)
		switch res.Status {
		case StatusNonElementary:
			return res
		case StatusUnknown:
			return res
		}
		parts = append(parts, res.Antiderivative)
	}
	logger.Debug("tower integration succeeded", "groups", len(order))
	return Result{Status: StatusElementary, Antiderivative: expr.Plus(parts...)}
}

type group struct {
	key    poly.Poly
	pieces []piece
}

func groupByKey(pieces []piece) (map[uint64]*group, []uint64) {
	groups := make(map[uint64]*group)
	var order []uint64
	for _, p := range pieces {
		h := keyHash(p.key)
		g, ok := groups[h]
		if !ok {
			g = &group{key: p.key}
			groups[h] = g
			order = append(order, h)
		}
		g.pieces = append(g.pieces, p)
	}
	return groups, order
}

func keyHash(p poly.Poly) uint64 {
	h := uint64(1469598103934665603)
	for i := 0; i <= p.Degree(); i++ {
		h = (h ^ p.Coeff(i).Hash()) * 1099511628211
	}
	return h
}

func integrateGroup(g *group, v *expr.Symbol) Result {
	if g.key.IsZero() {
		return integrateRationalGroup(g, v)
	}
	if g.key.Degree() < 1 {
		return unknown("degenerate exponent")
	}

	var parts []expr.Expr
	expFactor := expr.Call("exp", g.key.ToExpr(v))
	// the equation is linear in y, so non-existence is only decided for the
	// sum of all pieces sharing a constant factor, never piece by piece
	for _, b := range bucketByConstFac(g.pieces) {
		if b.rhs.IsZero() {
			continue
		}
		y, st := solveRDE(b.rhs, g.key, v)
		if st != StatusElementary {
			if st == StatusNonElementary && b.provenNonzero {
				return Result{Status: StatusNonElementary, Reason: "Risch differential equation has no rational solution"}
			}
			return unknown("Risch differential equation unresolved")
		}
		factors := append(append([]expr.Expr{}, b.factors...), y.ToExpr(v), expFactor)
		parts = append(parts, expr.Times(factors...))
	}
	return Result{Status: StatusElementary, Antiderivative: expr.Plus(parts...)}
}

// rdeBucket is the sum of all pieces of a group that share the same product
// of constant factors.
type rdeBucket struct {
	factors       []expr.Expr
	provenNonzero bool
	rhs           poly.RatFunc
}

func bucketByConstFac(pieces []piece) []*rdeBucket {
	index := make(map[uint64]*rdeBucket)
	var buckets []*rdeBucket
	for _, p := range pieces {
		h := expr.Times(p.constFac...).Hash()
		b, ok := index[h]
		if !ok {
			b = &rdeBucket{factors: p.constFac, provenNonzero: true, rhs: poly.FromPoly(poly.Zero())}
			index[h] = b
			buckets = append(buckets, b)
		}
		b.rhs = b.rhs.Add(p.rat)
		if !p.provenNonzero {
			b.provenNonzero = false
		}
	}
	return buckets
}

func integrateRationalGroup(g *group, v *expr.Symbol) Result {
	merged := poly.FromPoly(poly.Zero())
	var parts []expr.Expr
	for _, p := range g.pieces {
		if len(p.constFac) == 0 {
			merged = merged.Add(p.rat)
			continue
		}
		anti, ok := IntegrateRational(p.rat, v)
		if !ok {
			return unknown("rational part outside the supported factor field")
		}
		factors := append(append([]expr.Expr{}, p.constFac...), anti)
		parts = append(parts, expr.Times(factors...))
	}
	if !merged.IsZero() {
		anti, ok := IntegrateRational(merged, v)
		if !ok {
			return unknown("rational part outside the supported factor field")
		}
		parts = append(parts, anti)
	}
	return Result{Status: StatusElementary, Antiderivative: expr.Plus(parts...)}
}

// decompose splits e into tower pieces. A non-empty reason means the
// integrand is outside the tower this package decides.
func decompose(e expr.Expr, v *expr.Symbol) ([]piece, string) {
	terms := operandsOf(e, expr.KAdd)
	pieces := make([]piece, 0, len(terms))
	for _, term := range terms {
		p := piece{provenNonzero: true, rat: poly.FromPoly(poly.One()), key: poly.Zero()}
		for _, f := range operandsOf(term, expr.KMul) {
			g, mult, isExp := exponentOf(f)
			switch {
			case isExp:
				gp, ok := poly.FromExpr(g, v)
				if !ok {
					return nil, "non-polynomial exponent"
				}
				p.key = p.key.Add(gp.Scale(expr.Int(mult)))
			case !expr.ContainsSymbol(f, v):
				if n, isNum := f.(*expr.Number); isNum && n.IsExact() {
					p.rat = p.rat.Mul(poly.FromPoly(poly.Const(n)))
					continue
				}
				p.constFac = append(p.constFac, f)
				if !factorProvenNonzero(f) {
					p.provenNonzero = false
				}
			default:
				r, ok := poly.RatFromExpr(f, v)
				if !ok {
					return nil, "generator outside the exponential tower"
				}
				p.rat = p.rat.Mul(r)
			}
		}
		// move the exponent's constant term into the constant factors
		if c0 := p.key.Coeff(0); !c0.IsZero() {
			p.constFac = append(p.constFac, expr.Call("exp", c0))
			p.key = p.key.Sub(poly.Const(c0))
		}
		pieces = append(pieces, p)
	}
	return pieces, ""
}

// exponentOf recognises exp(g) and exp(g)^n factors.
func exponentOf(f expr.Expr) (g expr.Expr, mult int64, ok bool) {
	if call, isCall := f.(*expr.Function); isCall && call.Name == "exp" && len(call.Args) == 1 {
		return call.Args[0], 1, true
	}
	pw, isPow := f.(*expr.Pow)
	if !isPow {
		return nil, 0, false
	}
	call, isCall := pw.Base.(*expr.Function)
	if !isCall || call.Name != "exp" || len(call.Args) != 1 {
		return nil, 0, false
	}
	n, isNum := pw.Exp.(*expr.Number)
	if !isNum || !n.IsInteger() {
		return nil, 0, false
	}
	i, fits := n.Int64()
	if !fits {
		return nil, 0, false
	}
	return call.Args[0], i, true
}

func factorProvenNonzero(f expr.Expr) bool {
	switch fv := f.(type) {
	case *expr.Number:
		return fv.IsExact() && !fv.IsZero()
	case *expr.Function:
		return fv.Name == "exp" && len(fv.Args) == 1
	default:
		return false
	}
}

func operandsOf(e expr.Expr, kind expr.Kind) []expr.Expr {
	if e.Kind() == kind {
		return e.Operands()
	}
	return []expr.Expr{e}
}

// rewriteTrig replaces sin and cos with their complex exponential forms so
// the tower machinery sees a single generator family.
func rewriteTrig(e expr.Expr) expr.Expr {
	i := expr.ImagUnit()
	negI := i.Neg()
	half := expr.Rat(1, 2)
	return e.Transform(func(node expr.Expr) expr.Expr {
		call, ok := node.(*expr.Function)
		if !ok || len(call.Args) != 1 {
			return node
		}
		u := call.Args[0]
		eiu := expr.NewFunction("exp", expr.NewMul(i, u))
		emiu := expr.NewFunction("exp", expr.NewMul(negI, u))
		switch call.Name {
		case "sin":
			// (e^{iu} - e^{-iu}) / 2i
			return expr.NewAdd(
				expr.NewMul(negI.Mul(half), eiu),
				expr.NewMul(i.Mul(half), emiu),
			)
		case "cos":
			return expr.NewAdd(
				expr.NewMul(half, eiu),
				expr.NewMul(half, emiu),
			)
		default:
			return node
		}
	})
}

const expandNodeLimit = 2048

// expand distributes products and small integer powers over sums so that
// decompose sees a flat sum of monomial-shaped terms. Inputs that would blow
// past the node limit are returned unchanged.
func expand(e expr.Expr) expr.Expr {
	out := expandExpr(e)
	if expr.NodeCount(out) > expandNodeLimit {
		return expr.Canon(e)
	}
	return expr.Canon(out)
}

func expandExpr(e expr.Expr) expr.Expr {
	switch ev := e.(type) {
	case *expr.Add:
		terms := make([]expr.Expr, len(ev.Operands()))
		for i, op := range ev.Operands() {
			terms[i] = expandExpr(op)
		}
		return expr.NewAdd(terms...)
	case *expr.Mul:
		acc := []expr.Expr{expr.Int(1)}
		for _, op := range ev.Operands() {
			acc = distribute(acc, operandsOf(expandExpr(op), expr.KAdd))
			if len(acc) > expandNodeLimit {
				return e
			}
		}
		return expr.NewAdd(acc...)
	case *expr.Pow:
		n, isNum := ev.Exp.(*expr.Number)
		if !isNum || !n.IsInteger() || !n.IsPositive() {
			return e
		}
		k, fits := n.Int64()
		if !fits || k > 16 {
			return e
		}
		base := expandExpr(ev.Base)
		if base.Kind() != expr.KAdd {
			return expr.NewPow(base, ev.Exp)
		}
		acc := []expr.Expr{expr.Int(1)}
		for j := int64(0); j < k; j++ {
			acc = distribute(acc, operandsOf(base, expr.KAdd))
			if len(acc) > expandNodeLimit {
				return e
			}
		}
		return expr.NewAdd(acc...)
	default:
		return e
	}
}

func distribute(terms []expr.Expr, factors []expr.Expr) []expr.Expr {
	out := make([]expr.Expr, 0, len(terms)*len(factors))
	for _, t := range terms {
		for _, f := range factors {
			out = append(out, expr.NewMul(t, f))
		}
	}
	return out
}
