package fn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgolic/symgolic/expr"
)

func TestDefaultRegistryLookup(t *testing.T) {
	reg := Default()
	for _, name := range []string{"sin", "cos", "tan", "exp", "log", "sqrt", "atan", "abs"} {
		e, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, e.Name)
		assert.Equal(t, 1, e.Arity)
	}
	_, ok := reg.Lookup("gamma")
	assert.False(t, ok)

	assert.Contains(t, reg.Names(), "sin")
	assert.IsIncreasing(t, reg.Names())
}

func TestWithReturnsExtendedCopy(t *testing.T) {
	base := Default()
	ext := base.With(Entry{Name: "sinc", Arity: 1})

	_, ok := ext.Lookup("sinc")
	assert.True(t, ok)
	_, ok = base.Lookup("sinc")
	assert.False(t, ok, "the original registry is untouched")

	// overriding an entry shadows the builtin
	ext = base.With(Entry{Name: "sin", Arity: 2})
	e, ok := ext.Lookup("sin")
	require.True(t, ok)
	assert.Equal(t, 2, e.Arity)
}

func TestRewriteCallSpecialRules(t *testing.T) {
	reg := Default()
	x := expr.Var("x")
	for name, tc := range map[string]struct {
		call string
		args []expr.Expr
		want expr.Expr
	}{
		"sin zero":      {"sin", []expr.Expr{expr.Int(0)}, expr.Int(0)},
		"cos zero":      {"cos", []expr.Expr{expr.Int(0)}, expr.Int(1)},
		"exp zero":      {"exp", []expr.Expr{expr.Int(0)}, expr.Int(1)},
		"log one":       {"log", []expr.Expr{expr.Int(1)}, expr.Int(0)},
		"log of exp":    {"log", []expr.Expr{expr.Call("exp", x)}, x},
		"exp of log":    {"exp", []expr.Expr{expr.Call("log", x)}, x},
		"sin of asin":   {"sin", []expr.Expr{expr.Call("asin", x)}, x},
		"sqrt is power": {"sqrt", []expr.Expr{x}, expr.PowOf(x, expr.Rat(1, 2))},
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := reg.RewriteCall(tc.call, tc.args)
			require.True(t, ok)
			assert.True(t, expr.Equal(got, tc.want), "got %s want %s", got, tc.want)
		})
	}

	_, ok := reg.RewriteCall("sin", []expr.Expr{x})
	assert.False(t, ok, "sin(x) has no special form")
	_, ok = reg.RewriteCall("sin", []expr.Expr{x, x})
	assert.False(t, ok, "arity mismatch is not rewritten")
	_, ok = reg.RewriteCall("nosuch", []expr.Expr{x})
	assert.False(t, ok)
}

func TestCanonAppliesSpecialRules(t *testing.T) {
	x := expr.Var("x")
	e := expr.Canon(
		expr.NewFunction("sqrt", expr.NewFunction("exp", expr.NewFunction("log", x))),
		expr.WithCalls(Default()),
	)
	assert.True(t, expr.Equal(e, expr.PowOf(x, expr.Rat(1, 2))))
}

func TestDerivativeEntries(t *testing.T) {
	reg := Default()
	x := expr.Var("x")
	for call, want := range map[string]expr.Expr{
		"sin": expr.Call("cos", x),
		"cos": expr.Neg(expr.Call("sin", x)),
		"exp": expr.Call("exp", x),
		"log": expr.PowOf(x, expr.Int(-1)),
	} {
		e, ok := reg.Lookup(call)
		require.True(t, ok, call)
		require.NotNil(t, e.Derivative, call)
		got := expr.Canon(e.Derivative([]expr.Expr{x}))
		assert.True(t, expr.Equal(got, want), "%s: got %s want %s", call, got, want)
	}
}

func TestAntiderivativeEntries(t *testing.T) {
	reg := Default()
	x := expr.Var("x")
	for call, want := range map[string]expr.Expr{
		"sin": expr.Neg(expr.Call("cos", x)),
		"cos": expr.Call("sin", x),
		"exp": expr.Call("exp", x),
		"log": expr.Sub2(expr.Times(x, expr.Call("log", x)), x),
	} {
		e, ok := reg.Lookup(call)
		require.True(t, ok, call)
		require.NotNil(t, e.Antiderivative, call)
		got, ok := e.Antiderivative(x)
		require.True(t, ok, call)
		assert.True(t, expr.Equal(expr.Canon(got), expr.Canon(want)), call)
	}
}
