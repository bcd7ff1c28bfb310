package poly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symgolic/symgolic/expr"
)

func intPoly(coeffs ...int64) Poly {
	ns := make([]*expr.Number, len(coeffs))
	for i, c := range coeffs {
		ns[i] = expr.Int(c)
	}
	return New(ns...)
}

func TestArithmetic(t *testing.T) {
	p := intPoly(1, 2) // 1 + 2x
	q := intPoly(0, 0, 3)

	assert.Equal(t, 1, p.Degree())
	assert.Equal(t, -1, Zero().Degree())
	assert.True(t, p.Add(q).Equal(intPoly(1, 2, 3)))
	assert.True(t, p.Sub(p).IsZero())
	assert.True(t, p.Mul(p).Equal(intPoly(1, 4, 4)))
	assert.True(t, p.Pow(0).IsOne())
	assert.True(t, p.Pow(2).Equal(p.Mul(p)))
}

func TestTrimTrailingZeros(t *testing.T) {
	p := New(expr.Int(1), expr.Int(0), expr.Int(0))
	assert.Equal(t, 0, p.Degree())

	diff := intPoly(1, 0, 2).Sub(intPoly(0, 0, 2))
	assert.Equal(t, 0, diff.Degree())
}

func TestDerivativeAndEval(t *testing.T) {
	p := intPoly(5, 0, 3) // 5 + 3x^2
	assert.True(t, p.Derivative().Equal(intPoly(0, 6)))
	assert.True(t, p.Eval(expr.Int(2)).Equal(expr.Int(17)))
	assert.True(t, p.Eval(expr.Rat(1, 2)).Equal(expr.Rat(23, 4)))
}

func TestDivMod(t *testing.T) {
	p := intPoly(-1, 0, 0, 1) // x^3 - 1
	q := intPoly(-1, 1)       // x - 1

	quo, rem, err := p.DivMod(q)
	require.NoError(t, err)
	assert.True(t, rem.IsZero())
	assert.True(t, quo.Equal(intPoly(1, 1, 1)))

	// p = q*quo + rem holds for a non-exact division too
	p = intPoly(1, 1, 1)
	q = intPoly(0, 2)
	quo, rem, err = p.DivMod(q)
	require.NoError(t, err)
	assert.True(t, q.Mul(quo).Add(rem).Equal(p))
	assert.Less(t, rem.Degree(), q.Degree())

	_, _, err = p.DivMod(Zero())
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestGCD(t *testing.T) {
	a := intPoly(-1, 0, 1) // (x-1)(x+1)
	b := intPoly(-1, 1)

	assert.True(t, GCD(a, b).Equal(b))
	assert.True(t, GCD(a, intPoly(7)).IsOne(), "coprime inputs give the monic unit")

	g, s, tt := ExtGCD(a, b)
	assert.True(t, s.Mul(a).Add(tt.Mul(b)).Equal(g), "Bezout identity")
}

func TestSquarefree(t *testing.T) {
	// (x+2) * (x-1)^2
	p := intPoly(2, 1).Mul(intPoly(-1, 1).Pow(2))

	factors := SquarefreeFactors(p)
	require.Len(t, factors, 2)
	assert.True(t, factors[0].Fst.Equal(intPoly(2, 1)))
	assert.Equal(t, 1, factors[0].Snd)
	assert.True(t, factors[1].Fst.Equal(intPoly(-1, 1)))
	assert.Equal(t, 2, factors[1].Snd)

	recomposed := One()
	for _, f := range factors {
		recomposed = recomposed.Mul(f.Fst.Pow(f.Snd))
	}
	assert.True(t, recomposed.Equal(p.Monic()))
}

func TestFromExpr(t *testing.T) {
	x := expr.Var("x")
	e := expr.PowOf(expr.Plus(x, expr.Int(1)), expr.Int(2))

	p, ok := FromExpr(e, x)
	require.True(t, ok)
	assert.True(t, p.Equal(intPoly(1, 2, 1)))

	_, ok = FromExpr(expr.Call("sin", x), x)
	assert.False(t, ok)
	_, ok = FromExpr(expr.Plus(x, expr.Var("y")), x)
	assert.False(t, ok, "a second symbol is outside the coefficient field")
}

func TestRatFromExpr(t *testing.T) {
	x := expr.Var("x")
	e := expr.Div2(expr.Int(1), expr.Plus(expr.Times(x, x), expr.Int(-1)))

	r, ok := RatFromExpr(e, x)
	require.True(t, ok)
	assert.True(t, r.Num.Equal(intPoly(1)))
	assert.True(t, r.Den.Equal(intPoly(-1, 0, 1)))

	back, ok := RatFromExpr(r.ToExpr(x), x)
	require.True(t, ok)
	assert.True(t, back.Equal(r))
}

func TestRatReduces(t *testing.T) {
	// (x^2 - 1) / (2x - 2) reduces to (x+1)/2
	r, ok := Rat(intPoly(-1, 0, 1), intPoly(-2, 2))
	require.True(t, ok)
	assert.True(t, r.Den.IsOne())
	assert.True(t, r.Num.Equal(New(expr.Rat(1, 2), expr.Rat(1, 2))))

	_, ok = Rat(One(), Zero())
	assert.False(t, ok)
}

func TestRatDerivative(t *testing.T) {
	// d/dx 1/x = -1/x^2
	r, ok := Rat(One(), X())
	require.True(t, ok)
	d := r.Derivative()
	assert.True(t, d.Num.Equal(intPoly(-1)))
	assert.True(t, d.Den.Equal(intPoly(0, 0, 1)))
}

func TestContentPrimitive(t *testing.T) {
	p := New(expr.Rat(2, 3), expr.Rat(4, 3))
	c, prim := p.Primitive()
	assert.True(t, c.Equal(expr.Rat(2, 3)))
	assert.True(t, prim.Equal(intPoly(1, 2)))
	assert.True(t, prim.Scale(c).Equal(p))

	c, _ = intPoly(2, -4).Primitive()
	assert.True(t, c.Equal(expr.Int(-2)), "content carries the leading sign")
}

func TestPartialFractions(t *testing.T) {
	d1 := intPoly(-1, 1) // x - 1
	d2 := intPoly(1, 1)  // x + 1

	// 2x / (x^2 - 1) = 1/(x-1) + 1/(x+1)
	polyPart, nums, ok := PartialFractions(intPoly(0, 2), []Poly{d1, d2})
	require.True(t, ok)
	assert.True(t, polyPart.IsZero())
	require.Len(t, nums, 2)
	assert.True(t, nums[0].Equal(One()))
	assert.True(t, nums[1].Equal(One()))

	_, _, ok = PartialFractions(One(), []Poly{d1, d1})
	assert.False(t, ok, "shared factors must be rejected")
}

func TestSolveLinear(t *testing.T) {
	num := func(i int64) *expr.Number { return expr.Int(i) }

	// x + y = 3, x - y = 1
	x, ok := SolveLinear(
		[][]*expr.Number{{num(1), num(1)}, {num(1), num(-1)}},
		[]*expr.Number{num(3), num(1)},
	)
	require.True(t, ok)
	assert.True(t, x[0].Equal(num(2)))
	assert.True(t, x[1].Equal(num(1)))

	// inconsistent
	_, ok = SolveLinear(
		[][]*expr.Number{{num(1), num(1)}, {num(2), num(2)}},
		[]*expr.Number{num(1), num(3)},
	)
	assert.False(t, ok)

	// underdetermined
	_, ok = SolveLinear(
		[][]*expr.Number{{num(1), num(1)}},
		[]*expr.Number{num(1)},
	)
	assert.False(t, ok)
}
