package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonIdempotent(t *testing.T) {
	x, y := Var("x"), Var("y")
	for _, e := range []Expr{
		Plus(x, y, Int(3)),
		Times(Int(2), x, PowOf(y, Int(2))),
		Sub2(PowOf(x, x), Call("sin", x)),
		Plus(x, Times(Rat(1, 2), y), Call("exp", Times(x, y))),
	} {
		assert.True(t, Equal(e, Canon(e)), "canon of %s changed it", e)
	}
}

func TestCanonOperandOrderIrrelevant(t *testing.T) {
	x, y, z := Var("x"), Var("y"), Var("z")
	assert.True(t, Equal(Plus(x, y, z), Plus(z, y, x)))
	assert.True(t, Equal(Times(x, Int(2), y), Times(y, x, Int(2))))
	assert.True(t, Equal(
		Plus(Times(x, y), Times(y, x)),
		Times(Int(2), x, y),
	))
}

func TestCanonCollectsLikeTerms(t *testing.T) {
	x, y := Var("x"), Var("y")
	for name, tc := range map[string]struct{ got, want Expr }{
		"triple":        {Plus(x, x, x), Times(Int(3), x)},
		"cancel":        {Plus(x, Neg(x)), Int(0)},
		"coeff merge":   {Plus(Times(Int(2), x), Times(Int(5), x)), Times(Int(7), x)},
		"mixed":         {Plus(x, y, x, Int(1), Int(2)), Plus(Times(Int(2), x), y, Int(3))},
		"rational":      {Plus(Times(Rat(1, 2), x), Times(Rat(1, 3), x)), Times(Rat(5, 6), x)},
		"nested flat":   {Plus(Plus(x, y), Plus(x, y)), Plus(Times(Int(2), x), Times(Int(2), y))},
		"zero dropped":  {Plus(x, Int(0)), x},
		"empty sum":     {Plus(), Int(0)},
		"empty product": {Times(), Int(1)},
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, Equal(tc.got, tc.want), "got %s want %s", tc.got, tc.want)
		})
	}
}

func TestCanonCollectsLikeFactors(t *testing.T) {
	x := Var("x")
	assert.True(t, Equal(Times(x, x), PowOf(x, Int(2))))
	assert.True(t, Equal(Times(x, PowOf(x, Int(2))), PowOf(x, Int(3))))
	assert.True(t, Equal(Times(x, PowOf(x, Int(-1))), Int(1)))
	assert.True(t, Equal(Times(Int(0), x), Int(0)))
	assert.True(t, Equal(Times(Int(1), x), x))
	assert.True(t, Equal(
		Times(Call("exp", x), Call("exp", x)),
		PowOf(Call("exp", x), Int(2)),
	))
}

func TestCanonPowRules(t *testing.T) {
	x := Var("x")
	assert.True(t, Equal(PowOf(x, Int(1)), x))
	assert.True(t, Equal(PowOf(x, Int(0)), Int(1)))
	assert.True(t, Equal(PowOf(Int(1), x), Int(1)))
	assert.True(t, Equal(PowOf(Int(2), Int(10)), Int(1024)))
	assert.True(t, Equal(PowOf(Int(4), Int(-1)), Rat(1, 4)))
	assert.True(t, Equal(PowOf(PowOf(x, Int(2)), Int(3)), PowOf(x, Int(6))))

	zz := PowOf(Int(0), Int(0))
	p, ok := zz.(*Pow)
	require.True(t, ok, "0^0 stays symbolic, got %s", zz)
	assert.True(t, Equal(p.Base, Int(0)))

	inv0 := PowOf(Int(0), Int(-1))
	_, ok = inv0.(*Pow)
	assert.True(t, ok, "0^-1 stays symbolic, got %s", inv0)

	// huge exponents are not folded eagerly
	big := PowOf(Int(2), Int(1000))
	_, ok = big.(*Pow)
	assert.True(t, ok, "got %s", big)

	// fractional exponents of power bases are left alone
	sq := PowOf(PowOf(x, Int(2)), Rat(1, 2))
	_, ok = sq.(*Pow)
	require.True(t, ok)
	assert.False(t, Equal(sq, x))
}

func TestCanonNonCommutativeProduct(t *testing.T) {
	a := Intern("A", TagMatrix)
	b := Intern("B", TagMatrix)
	ab := Times(a, b)
	ba := Times(b, a)
	assert.False(t, Equal(ab, ba), "matrix products keep operand order")

	// scalar coefficients still hoist to the front
	got := Times(a, Int(2), b)
	m, ok := got.(*Mul)
	require.True(t, ok)
	require.Len(t, m.ops, 3)
	assert.True(t, Equal(m.ops[0], Int(2)))
	assert.True(t, Equal(m.ops[1], a))
	assert.True(t, Equal(m.ops[2], b))
}

func TestCanonSetDedup(t *testing.T) {
	x, y := Var("x"), Var("y")
	got := Canon(NewSet(y, x, y, Int(2), Int(2)))
	s, ok := got.(*Set)
	require.True(t, ok)
	require.Len(t, s.Elems, 3)
	assert.True(t, Equal(s.Elems[0], Int(2)), "numbers sort first")
}

func TestCanonNumericFold(t *testing.T) {
	assert.True(t, Equal(Plus(Int(1), Int(2), Int(3)), Int(6)))
	assert.True(t, Equal(Times(Int(2), Rat(3, 4)), Rat(3, 2)))
	assert.True(t, Equal(Div2(Int(1), Int(3)), Rat(1, 3)))
	assert.True(t, Equal(Sub2(Int(5), Int(5)), Int(0)))
}

func TestCompareTotalOrder(t *testing.T) {
	x, y := Var("x"), Var("y")
	es := []Expr{Int(1), x, y, Plus(x, y), Times(Int(2), x), PowOf(x, Int(2)), Call("sin", x)}
	for i, a := range es {
		assert.Zero(t, Compare(a, a))
		for _, b := range es[i+1:] {
			ca, cb := Compare(a, b), Compare(b, a)
			assert.Equal(t, -cb, ca, "antisymmetry for %s vs %s", a, b)
			assert.NotZero(t, ca, "distinct forms must not tie: %s vs %s", a, b)
		}
	}
	assert.Negative(t, Compare(Int(5), x), "numbers order before symbols")
}

func TestEqualAgreesWithHash(t *testing.T) {
	x, y := Var("x"), Var("y")
	a := Plus(x, y, Int(1))
	b := Plus(Int(1), y, x)
	require.True(t, Equal(a, b))
	assert.Equal(t, a.Hash(), b.Hash())
}
