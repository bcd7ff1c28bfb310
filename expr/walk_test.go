package expr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIdentity(t *testing.T) {
	assert.Same(t, Var("q1"), Var("q1"))
	assert.Same(t, Intern("q1", TagMatrix), Intern("q1", TagMatrix))
	assert.NotSame(t, Var("q1"), Intern("q1", TagMatrix), "tags distinguish symbols")
	assert.Equal(t, Var("q1").Hash(), Var("q1").Hash())
}

func TestInternConcurrent(t *testing.T) {
	const workers = 16
	out := make([]*Symbol, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = Var("race")
		}()
	}
	wg.Wait()
	for _, s := range out[1:] {
		assert.Same(t, out[0], s)
	}
}

func TestWalkVisitsDepthFirst(t *testing.T) {
	x, y := Var("x"), Var("y")
	e := NewAdd(x, NewMul(y, Int(2)))
	var kinds []Kind
	Walk(e, func(n Expr) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	assert.Equal(t, []Kind{KAdd, KSymbol, KMul, KSymbol, KNumber}, kinds)

	// returning false prunes the subtree
	var count int
	Walk(e, func(n Expr) bool {
		count++
		return n.Kind() != KMul
	})
	assert.Equal(t, 3, count)
}

func TestFreeSymbolsRespectBinders(t *testing.T) {
	x, k, n := Var("x"), Var("k"), Var("n")
	sum := NewSum(Times(k, x), k, Int(1), n)

	free := FreeSymbols(sum)
	assert.True(t, free.Contains(x))
	assert.True(t, free.Contains(n))
	assert.False(t, free.Contains(k), "the summation index is bound")

	assert.Equal(t, []string{"n", "x"}, FreeSymbolNames(sum))
	assert.True(t, ContainsSymbol(sum, x))
	assert.False(t, ContainsSymbol(sum, k))
}

func TestSubstitute(t *testing.T) {
	x, y := Var("x"), Var("y")
	for name, tc := range map[string]struct{ got, want Expr }{
		"simple":    {Substitute(Plus(x, Int(1)), x, y), Plus(y, Int(1))},
		"canon":     {Substitute(Plus(x, y), x, y), Times(Int(2), y)},
		"numeric":   {Substitute(PowOf(x, Int(2)), x, Int(3)), Int(9)},
		"in call":   {Substitute(Call("sin", x), x, y), Call("sin", y)},
		"absent":    {Substitute(Call("sin", y), x, Int(0)), Call("sin", y)},
		"pow both":  {Substitute(PowOf(x, x), x, Int(2)), Int(4)},
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, Equal(tc.got, tc.want), "got %s want %s", tc.got, tc.want)
		})
	}
}

func TestSubstituteSkipsShadowedBinder(t *testing.T) {
	x, k := Var("x"), Var("k")
	sum := NewSum(Times(k, x), k, Int(1), Int(3))
	got := Substitute(sum, k, Int(7))
	s, ok := got.(*Sum)
	require.True(t, ok)
	assert.True(t, Equal(s.Body, Times(k, x)), "bound occurrences stay put")

	got = Substitute(sum, x, Int(2))
	s, ok = got.(*Sum)
	require.True(t, ok)
	assert.True(t, Equal(s.Body, Times(Int(2), k)))
}

func TestSubstituteReachesBinderBounds(t *testing.T) {
	x, k, n := Var("x"), Var("k"), Var("n")

	// the binder shadows its body only; an occurrence in a bound is free
	sum := NewSum(Times(k, x), k, Int(1), Times(Int(2), k))
	got := Substitute(sum, k, Int(3))
	s, ok := got.(*Sum)
	require.True(t, ok)
	assert.True(t, Equal(s.Body, Times(k, x)))
	assert.True(t, Equal(s.Hi, Int(6)))

	lim := NewLimit(PowOf(n, Int(2)), n, n)
	got = Substitute(lim, n, Int(5))
	l, ok := got.(*Limit)
	require.True(t, ok)
	assert.True(t, Equal(l.Body, PowOf(n, Int(2))))
	assert.True(t, Equal(l.To, Int(5)))
}

func TestNodeCount(t *testing.T) {
	x := Var("x")
	assert.Equal(t, 1, NodeCount(x))
	assert.Equal(t, 5, NodeCount(NewAdd(x, NewMul(x, Int(2)))))
}
