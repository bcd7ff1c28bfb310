package risch

import (
	"math/big"

	"github.com/symgolic/symgolic/calculus/poly"
	"github.com/symgolic/symgolic/expr"
)

// IntegrateRational integrates a rational function of v. The polynomial part
// integrates termwise, Hermite reduction strips repeated denominator factors
// into a rational part, and the remaining simple poles become logs and
// arctangents when the squarefree denominator factors over the rationals
// into linear pieces and at most quadratics with a rational discriminant
// root. ok is false when the denominator resists that factor field; a
// rational function always has an elementary integral, so there is no
// non-elementary verdict here.
func IntegrateRational(f poly.RatFunc, v *expr.Symbol) (expr.Expr, bool) {
	var parts []expr.Expr

	quo, rem, err := f.Num.DivMod(f.Den)
	if err != nil {
		return nil, false
	}
	if !quo.IsZero() {
		parts = append(parts, integratePoly(quo, v))
	}
	if rem.IsZero() {
		return expr.Plus(parts...), true
	}

	ratPart, a, dstar, ok := hermite(rem, f.Den)
	if !ok {
		return nil, false
	}
	if !ratPart.IsZero() {
		parts = append(parts, ratPart.ToExpr(v))
	}
	if !a.IsZero() {
		// keep the fraction proper before splitting into residues
		q, r, err := a.DivMod(dstar)
		if err != nil {
			return nil, false
		}
		if !q.IsZero() {
			parts = append(parts, integratePoly(q, v))
		}
		if !r.IsZero() {
			logs, ok := logPart(r, dstar, v)
			if !ok {
				return nil, false
			}
			parts = append(parts, logs)
		}
	}
	return expr.Plus(parts...), true
}

func integratePoly(p poly.Poly, v *expr.Symbol) expr.Expr {
	terms := make([]expr.Expr, 0, p.Degree()+1)
	for i := 0; i <= p.Degree(); i++ {
		c := p.Coeff(i)
		if c.IsZero() {
			continue
		}
		coeff, err := c.Div(expr.Int(int64(i + 1)))
		if err != nil {
			continue
		}
		terms = append(terms, expr.Times(coeff, expr.PowOf(v, expr.Int(int64(i+1)))))
	}
	return expr.Plus(terms...)
}

// hermite reduces a/d, deg a < deg d, to ratPart + ∫ a2/dstar with dstar
// squarefree: each repeated factor V^m loses one multiplicity per step by
// solving for the numerator of the new -P/((m-1)V^{m-1}) term modulo V.
func hermite(a, d poly.Poly) (ratPart poly.RatFunc, a2, dstar poly.Poly, ok bool) {
	ratPart = poly.FromPoly(poly.Zero())

	// normalise to a monic denominator
	lead := d.Lead()
	if !lead.IsOne() {
		inv, err := lead.Inv()
		if err != nil {
			return ratPart, poly.Zero(), poly.Zero(), false
		}
		a = a.Scale(inv)
		d = d.Monic()
	}

	for {
		factors := poly.SquarefreeFactors(d)
		var vFac poly.Poly
		m := 0
		for _, f := range factors {
			if f.Snd > 1 {
				vFac, m = f.Fst, f.Snd
				break
			}
		}
		if m == 0 {
			return ratPart, a, d, true
		}

		u, r, err := d.DivMod(vFac.Pow(m))
		if err != nil || !r.IsZero() {
			return ratPart, poly.Zero(), poly.Zero(), false
		}
		// w = (m-1) * u * V'; coprime to V since V is squarefree
		w := u.Mul(vFac.Derivative()).Scale(expr.Int(int64(m - 1)))
		g, s, _ := poly.ExtGCD(w, vFac)
		if !g.IsOne() {
			return ratPart, poly.Zero(), poly.Zero(), false
		}
		_, p, err := a.Neg().Mul(s).DivMod(vFac)
		if err != nil {
			return ratPart, poly.Zero(), poly.Zero(), false
		}

		vPow := vFac.Pow(m - 1)
		term, built := poly.Rat(p, vPow)
		if !built {
			return ratPart, poly.Zero(), poly.Zero(), false
		}
		ratPart = ratPart.Add(term)

		// next numerator: (a + (m-1) P U V')/V - P' U over U V^{m-1}
		num := a.Add(p.Mul(w))
		q, r, err := num.DivMod(vFac)
		if err != nil || !r.IsZero() {
			return ratPart, poly.Zero(), poly.Zero(), false
		}
		a = q.Sub(p.Derivative().Mul(u))
		d = u.Mul(vPow)
	}
}

// logPart integrates a/d with d monic squarefree and deg a < deg d. Rational
// roots of d peel off as residue*log(v - root); a leftover quadratic with a
// rational square root of its (negated) discriminant yields a log plus an
// arctangent. Anything deeper is out of scope.
func logPart(a, d poly.Poly, v *expr.Symbol) (expr.Expr, bool) {
	if d.IsConst() {
		return expr.Int(0), a.IsZero()
	}

	roots, residual, ok := rationalRoots(d)
	if !ok {
		// complex coefficients: a single linear factor still works
		if d.Degree() == 1 {
			return linearLog(a, d, v)
		}
		return nil, false
	}

	var dens []poly.Poly
	for _, r := range roots {
		dens = append(dens, poly.New(r.Neg(), expr.Int(1)))
	}
	if !residual.IsConst() {
		if residual.Degree() != 2 {
			return nil, false
		}
		dens = append(dens, residual)
	}

	_, nums, ok := poly.PartialFractions(a, dens)
	if !ok {
		return nil, false
	}

	var parts []expr.Expr
	for i, r := range roots {
		residue := nums[i].Coeff(0)
		if residue.IsZero() {
			continue
		}
		parts = append(parts, expr.Times(residue, expr.Call("log", expr.Sub2(v, r))))
	}
	if !residual.IsConst() {
		qTerm, ok := quadraticLog(nums[len(nums)-1], residual, v)
		if !ok {
			return nil, false
		}
		parts = append(parts, qTerm)
	}
	return expr.Plus(parts...), true
}

// linearLog integrates a/(c1*v + c0) directly.
func linearLog(a, d poly.Poly, v *expr.Symbol) (expr.Expr, bool) {
	if !a.IsConst() {
		return nil, false
	}
	residue, err := a.Coeff(0).Div(d.Coeff(1))
	if err != nil {
		return nil, false
	}
	return expr.Times(residue, expr.Call("log", d.ToExpr(v))), true
}

// quadraticLog integrates (alpha*v + beta)/(v^2 + p*v + q) where the
// denominator is monic, squarefree and has no rational roots:
//
//	alpha/2 * log(v^2+p*v+q) + (beta - alpha*p/2) * (2/s) * atan((2v+p)/s)
//
// with s = sqrt(4q - p^2), which must come out rational.
func quadraticLog(num, den poly.Poly, v *expr.Symbol) (expr.Expr, bool) {
	p := den.Coeff(1)
	q := den.Coeff(0)
	alpha := num.Coeff(1)
	beta := num.Coeff(0)
	if !p.IsReal() || !q.IsReal() || !alpha.IsReal() || !beta.IsReal() {
		return nil, false
	}

	var parts []expr.Expr
	if !alpha.IsZero() {
		half := alpha.Mul(expr.Rat(1, 2))
		parts = append(parts, expr.Times(half, expr.Call("log", den.ToExpr(v))))
	}

	// residue of the atan component
	atanCoeff := beta.Sub(alpha.Mul(p).Mul(expr.Rat(1, 2)))
	if atanCoeff.IsZero() {
		return expr.Plus(parts...), true
	}
	disc := expr.Int(4).Mul(q).Sub(p.Mul(p))
	s, ok := ratSqrt(disc)
	if !ok {
		return nil, false
	}
	scale, err := atanCoeff.Mul(expr.Int(2)).Div(s)
	if err != nil {
		return nil, false
	}
	arg := expr.Div2(expr.Plus(expr.Times(expr.Int(2), v), p), s)
	parts = append(parts, expr.Times(scale, expr.Call("atan", arg)))
	return expr.Plus(parts...), true
}

// ratSqrt returns the exact positive square root of a positive rational, or
// ok=false when none exists.
func ratSqrt(n *expr.Number) (*expr.Number, bool) {
	if !n.IsPositive() {
		return nil, false
	}
	num, den, ok := n.RatParts()
	if !ok {
		return nil, false
	}
	sn := new(big.Int).Sqrt(num)
	sd := new(big.Int).Sqrt(den)
	if new(big.Int).Mul(sn, sn).Cmp(num) != 0 || new(big.Int).Mul(sd, sd).Cmp(den) != 0 {
		return nil, false
	}
	return expr.FromRat(new(big.Rat).SetFrac(sn, sd)), true
}

const divisorBound = 1 << 20

// rationalRoots strips the rational roots of a real-rational polynomial and
// returns them with the deflated remainder. ok is false when the
// coefficients are not all real rationals; a constant or lead coefficient
// too large to factor simply means fewer roots are found, never a wrong
// answer.
func rationalRoots(p poly.Poly) (roots []*expr.Number, residual poly.Poly, ok bool) {
	for i := 0; i <= p.Degree(); i++ {
		c := p.Coeff(i)
		if !c.IsReal() || !c.IsExact() {
			return nil, p, false
		}
	}

	for p.Degree() >= 1 && p.Coeff(0).IsZero() {
		roots = append(roots, expr.Int(0))
		q, _, err := p.DivMod(poly.X())
		if err != nil {
			return roots, p, true
		}
		p = q
	}

	for p.Degree() >= 1 {
		root, found := findRationalRoot(p)
		if !found {
			break
		}
		roots = append(roots, root)
		q, _, err := p.DivMod(poly.New(root.Neg(), expr.Int(1)))
		if err != nil {
			break
		}
		p = q
	}
	return roots, p, true
}

func findRationalRoot(p poly.Poly) (*expr.Number, bool) {
	// clear denominators to get integer coefficients
	lcm := big.NewInt(1)
	for i := 0; i <= p.Degree(); i++ {
		_, den, ok := p.Coeff(i).RatParts()
		if !ok {
			return nil, false
		}
		g := new(big.Int).GCD(nil, nil, lcm, den)
		lcm.Div(new(big.Int).Mul(lcm, den), g)
	}

	constDivs, ok := smallDivisors(intCoeff(p, 0, lcm))
	if !ok {
		return nil, false
	}
	leadDivs, ok := smallDivisors(intCoeff(p, p.Degree(), lcm))
	if !ok {
		return nil, false
	}
	for _, num := range constDivs {
		for _, den := range leadDivs {
			cand := expr.FromRat(new(big.Rat).SetFrac(big.NewInt(num), big.NewInt(den)))
			if p.Eval(cand).IsZero() {
				return cand, true
			}
			if p.Eval(cand.Neg()).IsZero() {
				return cand.Neg(), true
			}
		}
	}
	return nil, false
}

func intCoeff(p poly.Poly, i int, lcm *big.Int) *big.Int {
	num, den, ok := p.Coeff(i).RatParts()
	if !ok {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(num, new(big.Int).Div(lcm, den))
	return scaled.Abs(scaled)
}

// smallDivisors enumerates the positive divisors of |n|, refusing inputs too
// large to factor by trial division.
func smallDivisors(n *big.Int) ([]int64, bool) {
	if n.Sign() == 0 {
		return nil, false
	}
	if !n.IsInt64() {
		return nil, false
	}
	v := n.Int64()
	if v < 0 {
		v = -v
	}
	if v > divisorBound {
		return nil, false
	}
	var divs []int64
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			divs = append(divs, d)
			if d != v/d {
				divs = append(divs, v/d)
			}
		}
	}
	return divs, true
}
