package expr

import (
	"sort"

	hset "github.com/hashicorp/go-set/v3"
	xtset "github.com/xtgo/set"

	"github.com/symgolic/symgolic/util"
)

// Walk visits e and every descendant in depth-first order. Returning false
// from visit stops descending into the current node's children.
func Walk(e Expr, visit func(Expr) bool) {
	if !visit(e) {
		return
	}
	for _, op := range e.Operands() {
		Walk(op, visit)
	}
}

// boundVar returns the binder introduced by a node, or nil. Limit, Sum and
// Product bind their variable; Derivative and Integral reference theirs.
func boundVar(e Expr) *Symbol {
	switch v := e.(type) {
	case *Limit:
		return v.Var
	case *Sum:
		return v.Var
	case *Product:
		return v.Var
	default:
		return nil
	}
}

// FreeSymbols collects the symbols occurring free in e.
func FreeSymbols(e Expr) *hset.Set[*Symbol] {
	out := hset.New[*Symbol](4)
	collectFree(e, out, nil)
	return out
}

func collectFree(e Expr, out *hset.Set[*Symbol], bound []*Symbol) {
	if s, ok := e.(*Symbol); ok {
		for _, b := range bound {
			if b == s {
				return
			}
		}
		out.Insert(s)
		return
	}
	if b := boundVar(e); b != nil {
		bound = append(bound, b)
	}
	for _, op := range e.Operands() {
		collectFree(op, out, bound)
	}
}

// FreeSymbolNames returns the sorted, de-duplicated names of the free symbols
// of e. Distinct tags may share a name, hence the de-dup step.
func FreeSymbolNames(e Expr) []string {
	var names sort.StringSlice
	for name := range util.MapIter(FreeSymbols(e).Items(), (*Symbol).Name) {
		names = append(names, name)
	}
	sort.Sort(names)
	n := xtset.Uniq(names)
	return names[:n]
}

// ContainsSymbol reports whether s occurs free in e.
func ContainsSymbol(e Expr, s *Symbol) bool {
	return FreeSymbols(e).Contains(s)
}

// Substitute replaces every free occurrence of s in e with with, bottom-up,
// and canonicalises the result.
func Substitute(e Expr, s *Symbol, with Expr) Expr {
	return Canon(substituteRaw(e, s, with))
}

func substituteRaw(e Expr, s *Symbol, with Expr) Expr {
	if e == Expr(s) {
		return with
	}
	switch v := e.(type) {
	case *Number, *Symbol, *Wildcard, *SeqWildcard:
		return e
	case *Add:
		return NewAdd(substituteAll(v.ops, s, with)...)
	case *Mul:
		return NewMul(substituteAll(v.ops, s, with)...)
	case *Pow:
		return NewPow(substituteRaw(v.Base, s, with), substituteRaw(v.Exp, s, with))
	case *Function:
		return NewFunction(v.Name, substituteAll(v.Args, s, with)...)
	case *Relation:
		return NewRelation(v.Op, substituteRaw(v.L, s, with), substituteRaw(v.R, s, with))
	case *Piecewise:
		cases := make([]PiecewiseCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = PiecewiseCase{If: substituteRaw(c.If, s, with), Then: substituteRaw(c.Then, s, with)}
		}
		var otherwise Expr
		if v.Otherwise != nil {
			otherwise = substituteRaw(v.Otherwise, s, with)
		}
		return NewPiecewise(cases, otherwise)
	case *Matrix:
		return NewMatrix(v.RowsN, v.ColsN, substituteAll(v.Cells, s, with))
	case *Set:
		return NewSet(substituteAll(v.Elems, s, with)...)
	case *Derivative:
		return NewDerivative(substituteRaw(v.Body, s, with), v.Var, v.Order)
	case *Integral:
		return NewIntegral(substituteRaw(v.Body, s, with), v.Var)
	// binders shadow s in their body only; bounds sit outside the scope
	case *Limit:
		return NewLimit(substituteBody(v.Body, v.Var, s, with), v.Var, substituteRaw(v.To, s, with))
	case *Sum:
		return NewSum(substituteBody(v.Body, v.Var, s, with), v.Var, substituteRaw(v.Lo, s, with), substituteRaw(v.Hi, s, with))
	case *Product:
		return NewProduct(substituteBody(v.Body, v.Var, s, with), v.Var, substituteRaw(v.Lo, s, with), substituteRaw(v.Hi, s, with))
	default:
		return e
	}
}

func substituteBody(body Expr, binder, s *Symbol, with Expr) Expr {
	if binder == s {
		return body
	}
	return substituteRaw(body, s, with)
}

func substituteAll(ops []Expr, s *Symbol, with Expr) []Expr {
	out := make([]Expr, len(ops))
	for i, op := range ops {
		out[i] = substituteRaw(op, s, with)
	}
	return out
}

// NodeCount returns the number of nodes in the tree, used by recursion
// budgets to bound work on pathological inputs.
func NodeCount(e Expr) int {
	count := 0
	Walk(e, func(Expr) bool {
		count++
		return true
	})
	return count
}
