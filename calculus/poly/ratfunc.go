package poly

import (
	"github.com/symgolic/symgolic/expr"
)

// RatFunc is a rational function Num/Den in reduced form: the two parts are
// coprime and Den is monic and non-zero.
type RatFunc struct {
	Num, Den Poly
}

// Rat reduces num/den. A zero denominator yields ok=false.
func Rat(num, den Poly) (RatFunc, bool) {
	if den.IsZero() {
		return RatFunc{}, false
	}
	g := GCD(num, den)
	if !g.IsConst() {
		num, _, _ = num.DivMod(g)
		den, _, _ = den.DivMod(g)
	}
	lead := den.Lead()
	if !lead.IsOne() {
		inv, err := lead.Inv()
		if err != nil {
			return RatFunc{}, false
		}
		num = num.Scale(inv)
		den = den.Scale(inv)
	}
	return RatFunc{Num: num, Den: den}, true
}

func FromPoly(p Poly) RatFunc { return RatFunc{Num: p, Den: One()} }

func (r RatFunc) IsZero() bool { return r.Num.IsZero() }

func (r RatFunc) IsPoly() bool { return r.Den.IsOne() }

func (r RatFunc) Add(o RatFunc) RatFunc {
	out, _ := Rat(r.Num.Mul(o.Den).Add(o.Num.Mul(r.Den)), r.Den.Mul(o.Den))
	return out
}

func (r RatFunc) Sub(o RatFunc) RatFunc { return r.Add(o.Neg()) }

func (r RatFunc) Neg() RatFunc { return RatFunc{Num: r.Num.Neg(), Den: r.Den} }

func (r RatFunc) Mul(o RatFunc) RatFunc {
	out, _ := Rat(r.Num.Mul(o.Num), r.Den.Mul(o.Den))
	return out
}

func (r RatFunc) Inv() (RatFunc, bool) {
	return Rat(r.Den, r.Num)
}

func (r RatFunc) Div(o RatFunc) (RatFunc, bool) {
	if o.IsZero() {
		return RatFunc{}, false
	}
	return Rat(r.Num.Mul(o.Den), r.Den.Mul(o.Num))
}

// Derivative applies the quotient rule and re-reduces.
func (r RatFunc) Derivative() RatFunc {
	num := r.Num.Derivative().Mul(r.Den).Sub(r.Num.Mul(r.Den.Derivative()))
	out, _ := Rat(num, r.Den.Mul(r.Den))
	return out
}

func (r RatFunc) Equal(o RatFunc) bool {
	return r.Num.Equal(o.Num) && r.Den.Equal(o.Den)
}

// FromExpr reads e as a polynomial in v with exact numeric coefficients.
// Any other free symbol, inexact number, or non-polynomial shape gives
// ok=false.
func FromExpr(e expr.Expr, v *expr.Symbol) (Poly, bool) {
	r, ok := RatFromExpr(e, v)
	if !ok || !r.IsPoly() {
		return Zero(), false
	}
	return r.Num, true
}

// RatFromExpr reads e as a rational function of v. Negative integer powers
// are allowed; anything outside the field of exact rational functions in v
// gives ok=false.
func RatFromExpr(e expr.Expr, v *expr.Symbol) (RatFunc, bool) {
	switch ev := e.(type) {
	case *expr.Number:
		if !ev.IsExact() {
			return RatFunc{}, false
		}
		return FromPoly(Const(ev)), true
	case *expr.Symbol:
		if ev == v {
			return FromPoly(X()), true
		}
		return RatFunc{}, false
	case *expr.Add:
		acc := FromPoly(Zero())
		for _, op := range ev.Operands() {
			r, ok := RatFromExpr(op, v)
			if !ok {
				return RatFunc{}, false
			}
			acc = acc.Add(r)
		}
		return acc, true
	case *expr.Mul:
		acc := FromPoly(One())
		for _, op := range ev.Operands() {
			r, ok := RatFromExpr(op, v)
			if !ok {
				return RatFunc{}, false
			}
			acc = acc.Mul(r)
		}
		return acc, true
	case *expr.Pow:
		n, ok := intExponent(ev.Exp)
		if !ok {
			return RatFunc{}, false
		}
		base, ok := RatFromExpr(ev.Base, v)
		if !ok {
			return RatFunc{}, false
		}
		if n < 0 {
			inv, ok := base.Inv()
			if !ok {
				return RatFunc{}, false
			}
			base, n = inv, -n
		}
		out := FromPoly(One())
		for ; n > 0; n >>= 1 {
			if n&1 == 1 {
				out = out.Mul(base)
			}
			base = base.Mul(base)
		}
		return out, true
	default:
		return RatFunc{}, false
	}
}

func intExponent(e expr.Expr) (int64, bool) {
	n, ok := e.(*expr.Number)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	i, ok := n.Int64()
	if !ok || i > 512 || i < -512 {
		return 0, false
	}
	return i, true
}

// ToExpr renders p as a canonical expression in v.
func (p Poly) ToExpr(v *expr.Symbol) expr.Expr {
	if p.IsZero() {
		return expr.Int(0)
	}
	terms := make([]expr.Expr, 0, len(p.coeffs))
	for i, c := range p.coeffs {
		if c.IsZero() {
			continue
		}
		switch i {
		case 0:
			terms = append(terms, c)
		default:
			terms = append(terms, expr.Times(c, expr.PowOf(v, expr.Int(int64(i)))))
		}
	}
	return expr.Plus(terms...)
}

func (r RatFunc) ToExpr(v *expr.Symbol) expr.Expr {
	if r.Den.IsOne() {
		return r.Num.ToExpr(v)
	}
	return expr.Div2(r.Num.ToExpr(v), r.Den.ToExpr(v))
}
