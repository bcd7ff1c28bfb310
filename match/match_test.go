package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symgolic/symgolic/expr"
)

func w(name string) *expr.Wildcard     { return Any(name) }
func sw(name string) *expr.SeqWildcard { return Seq(name) }
func numeric(name string) *expr.Wildcard {
	return AnyThat(name, func(e expr.Expr) bool {
		return e.Kind() == expr.KNumber
	})
}

func TestMatchFunctionArgs(t *testing.T) {
	x := expr.Var("x")
	pattern := expr.Call("f", w("a"), w("b"))
	target := expr.Call("f", expr.Int(3), x)

	s, ok := Match(pattern, target)
	require.True(t, ok)
	a, ok := s.Lookup("a")
	require.True(t, ok)
	assert.True(t, expr.Equal(a, expr.Int(3)))
	b, ok := s.Lookup("b")
	require.True(t, ok)
	assert.True(t, expr.Equal(b, x))
}

func TestMatchRepeatedWildcard(t *testing.T) {
	x := expr.Var("x")
	y := expr.Var("y")
	pattern := expr.Call("f", w("a"), w("a"))

	_, ok := Match(pattern, expr.Call("f", x, x))
	assert.True(t, ok, "same binding twice should unify")

	_, ok = Match(pattern, expr.Call("f", x, y))
	assert.False(t, ok, "conflicting bindings should fail")
}

func TestMatchStructuralMismatch(t *testing.T) {
	x := expr.Var("x")
	for name, tc := range map[string]struct {
		pattern, target expr.Expr
	}{
		"function name":  {expr.Call("f", w("a")), expr.Call("g", x)},
		"function arity": {expr.Call("f", w("a")), expr.Call("f", x, x)},
		"number":         {expr.Int(2), expr.Int(3)},
		"kind":           {expr.PowOf(w("a"), expr.Int(2)), expr.Plus(x, expr.Int(2))},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := Match(tc.pattern, tc.target)
			assert.False(t, ok)
		})
	}
}

func TestMatchCommutativeAdd(t *testing.T) {
	x := expr.Var("x")
	pattern := expr.Plus(w("a"), expr.Int(2))
	target := expr.Plus(expr.Int(2), x)

	s, ok := Match(pattern, target)
	require.True(t, ok)
	a, _ := s.Lookup("a")
	assert.True(t, expr.Equal(a, x))
}

func TestMatchPredicateWildcard(t *testing.T) {
	x := expr.Var("x")
	pattern := expr.Times(numeric("c"), w("rest"))

	s, ok := Match(pattern, expr.Times(expr.Int(3), x))
	require.True(t, ok)
	c, _ := s.Lookup("c")
	assert.True(t, expr.Equal(c, expr.Int(3)))

	_, ok = Match(expr.Call("f", numeric("c")), expr.Call("f", x))
	assert.False(t, ok, "predicate should reject a symbol")
}

func TestMatchSeqWildcardAbsorbsRest(t *testing.T) {
	x := expr.Var("x")
	y := expr.Var("y")
	pattern := expr.Plus(w("a"), sw("rest"))
	target := expr.Plus(x, y, expr.Int(1))

	found := false
	for s := range MatchAll(pattern, target) {
		a, _ := s.Lookup("a")
		rest, _ := s.Lookup("rest")
		if expr.Equal(a, x) {
			found = true
			assert.True(t, expr.Equal(rest, expr.Plus(y, expr.Int(1))))
		}
		assert.True(t, expr.Equal(expr.Plus(a, rest), target), "bindings must reassemble the target")
	}
	assert.True(t, found)
}

func TestMatchSeqWildcardEmptyRun(t *testing.T) {
	x := expr.Var("x")

	s, ok := Match(expr.Times(w("a"), sw("rest")), x)
	require.True(t, ok)
	rest, _ := s.Lookup("rest")
	assert.True(t, expr.Equal(rest, expr.Int(1)), "empty product run binds the unit")

	s, ok = Match(expr.Plus(w("a"), sw("rest")), x)
	require.True(t, ok)
	rest, _ = s.Lookup("rest")
	assert.True(t, expr.Equal(rest, expr.Int(0)), "empty sum run binds zero")
}

func TestMatchSiblingOperandsOfSameShape(t *testing.T) {
	x, y := expr.Var("x"), expr.Var("y")

	// both summands are f over a sum of a symbol and a literal, and only the
	// second can satisfy the pattern; rejecting the first must not carry over
	pattern := expr.NewAdd(expr.Call("f", expr.NewAdd(w("c"), expr.Int(2))), sw("rest"))
	target := expr.Plus(
		expr.Call("f", expr.Plus(x, expr.Int(1))),
		expr.Call("f", expr.Plus(y, expr.Int(2))),
	)

	s, ok := Match(pattern, target)
	require.True(t, ok)
	c, ok := s.Lookup("c")
	require.True(t, ok)
	assert.True(t, expr.Equal(c, y))
	rest, ok := s.Lookup("rest")
	require.True(t, ok)
	assert.True(t, expr.Equal(rest, expr.Call("f", expr.Plus(x, expr.Int(1)))))
}

func TestMatchAllEnumeratesPartitions(t *testing.T) {
	x := expr.Var("x")
	y := expr.Var("y")
	pattern := expr.Plus(w("a"), w("b"))
	target := expr.Plus(x, y)

	var n int
	for range MatchAll(pattern, target) {
		n++
	}
	assert.Equal(t, 2, n, "a and b should swap over the two operands")
}

func TestMatchAllIsRestartable(t *testing.T) {
	x := expr.Var("x")
	seq := MatchAll(expr.Plus(w("a"), w("b")), expr.Plus(x, expr.Int(1)))

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, count(), count())
}

func TestMatchAllEarlyStop(t *testing.T) {
	x := expr.Var("x")
	y := expr.Var("y")
	n := 0
	for range MatchAll(expr.Plus(w("a"), w("b")), expr.Plus(x, y)) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestMatchOrderedProduct(t *testing.T) {
	a := expr.Intern("A", expr.TagMatrix)
	b := expr.Intern("B", expr.TagMatrix)

	_, ok := Match(expr.Times(a, b), expr.Times(b, a))
	assert.False(t, ok, "matrix factors must not commute")

	s, ok := Match(expr.Times(sw("pre"), b), expr.Times(a, b))
	require.True(t, ok)
	pre, _ := s.Lookup("pre")
	assert.True(t, expr.Equal(pre, a))
}

func TestSubstApplyRoundTrip(t *testing.T) {
	x := expr.Var("x")
	pattern := expr.Plus(expr.Times(w("a"), x), w("b"))
	target := expr.Plus(expr.Times(expr.Int(3), x), expr.Int(5))

	s, ok := Match(pattern, target)
	require.True(t, ok)
	assert.True(t, expr.Equal(s.Apply(pattern), target))
}

func TestSubstBindConflict(t *testing.T) {
	s := NewSubst()
	s, ok := s.Bind("a", expr.Int(1))
	require.True(t, ok)
	_, ok = s.Bind("a", expr.Int(2))
	assert.False(t, ok)
	s2, ok := s.Bind("a", expr.Int(1))
	require.True(t, ok)
	assert.Equal(t, 1, s2.Len())
}
