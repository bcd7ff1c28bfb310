package fn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgolic/symgolic/expr"
)

func env(pairs ...any) map[*expr.Symbol]*expr.Number {
	m := make(map[*expr.Symbol]*expr.Number, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(*expr.Symbol)] = pairs[i+1].(*expr.Number)
	}
	return m
}

func TestEvalArithmetic(t *testing.T) {
	reg := Default()
	x, y := expr.Var("x"), expr.Var("y")
	bindings := env(x, expr.Int(3), y, expr.Rat(1, 2))

	for name, tc := range map[string]struct {
		e    expr.Expr
		want *expr.Number
	}{
		"number":   {expr.Int(7), expr.Int(7)},
		"symbol":   {x, expr.Int(3)},
		"sum":      {expr.NewAdd(x, y, expr.Int(1)), expr.Rat(9, 2)},
		"product":  {expr.NewMul(x, y), expr.Rat(3, 2)},
		"power":    {expr.NewPow(x, expr.Int(2)), expr.Int(9)},
		"inverse":  {expr.NewPow(x, expr.Int(-1)), expr.Rat(1, 3)},
		"rational": {expr.Div2(x, expr.Int(6)), expr.Rat(1, 2)},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := reg.Eval(tc.e, bindings)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
		})
	}
}

func TestEvalFunctions(t *testing.T) {
	reg := Default()
	x := expr.Var("x")

	got, err := reg.Eval(expr.NewFunction("exp", x), env(x, expr.Int(0)))
	require.NoError(t, err)
	assert.True(t, got.IsOne())

	got, err = reg.Eval(expr.NewFunction("sin", x), env(x, expr.Real(math.Pi/2)))
	require.NoError(t, err)
	assert.InDelta(t, 1, got.Float64(), 1e-12)

	got, err = reg.Eval(expr.NewFunction("abs", x), env(x, expr.Int(-4)))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.Int(4)))
}

func TestEvalErrors(t *testing.T) {
	reg := Default()
	x := expr.Var("x")

	_, err := reg.Eval(x, nil)
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = reg.Eval(expr.NewFunction("weierstrass", x), env(x, expr.Int(1)))
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = reg.Eval(expr.NewFunction("log", x), env(x, expr.Int(-1)))
	assert.ErrorIs(t, err, ErrDomain)

	_, err = reg.Eval(expr.NewFunction("asin", x), env(x, expr.Int(2)))
	assert.ErrorIs(t, err, ErrDomain)

	_, err = reg.Eval(expr.NewWildcard("a"), nil)
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestEvalPiecewise(t *testing.T) {
	reg := Default()
	x := expr.Var("x")
	abs := expr.NewPiecewise([]expr.PiecewiseCase{
		{If: expr.NewRelation(expr.RelGe, x, expr.Int(0)), Then: x},
	}, expr.Neg(x))

	got, err := reg.Eval(abs, env(x, expr.Int(5)))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.Int(5)))

	got, err = reg.Eval(abs, env(x, expr.Int(-5)))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.Int(5)))

	noCase := expr.NewPiecewise([]expr.PiecewiseCase{
		{If: expr.NewRelation(expr.RelLt, x, expr.Int(0)), Then: x},
	}, nil)
	_, err = reg.Eval(noCase, env(x, expr.Int(1)))
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestCanonPreservesValue(t *testing.T) {
	reg := Default()
	x, y := expr.Var("x"), expr.Var("y")
	bindings := env(x, expr.Rat(3, 7), y, expr.Int(-2))

	for _, e := range []expr.Expr{
		expr.NewAdd(x, x, x, y),
		expr.NewMul(expr.NewAdd(x, y), expr.NewAdd(x, expr.Neg(y))),
		expr.NewPow(expr.NewAdd(x, expr.Int(1)), expr.Int(3)),
		expr.NewMul(x, expr.NewPow(x, expr.Int(-1)), y),
		expr.NewAdd(expr.NewMul(expr.Int(2), x), expr.NewMul(x, expr.Int(3))),
	} {
		raw, err := reg.Eval(e, bindings)
		require.NoError(t, err, "%s", e)
		folded, err := reg.Eval(expr.Canon(e), bindings)
		require.NoError(t, err, "%s", e)
		assert.True(t, raw.Equal(folded), "%s: %s vs %s", e, raw, folded)
	}
}

func TestEvalIterated(t *testing.T) {
	reg := Default()
	k := expr.Var("k")

	got, err := reg.Eval(expr.NewSum(expr.NewPow(k, expr.Int(2)), k, expr.Int(1), expr.Int(4)), nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.Int(30)))

	got, err = reg.Eval(expr.NewProduct(k, k, expr.Int(1), expr.Int(5)), nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.Int(120)))

	// an empty range yields the unit
	got, err = reg.Eval(expr.NewSum(k, k, expr.Int(3), expr.Int(2)), nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = reg.Eval(expr.NewSum(k, k, expr.Rat(1, 2), expr.Int(2)), nil)
	assert.ErrorIs(t, err, ErrNotNumeric)
}
