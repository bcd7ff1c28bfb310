package expr

import (
	"cmp"
	"strings"
)

// kindRank positions each variant in the canonical operand order: numbers
// first, then symbols, then compounds. The exact order is arbitrary but must
// be total and stable, since canonical trees are compared structurally.
func kindRank(k Kind) int {
	switch k {
	case KNumber:
		return 0
	case KSymbol:
		return 1
	case KPow:
		return 2
	case KFunction:
		return 3
	case KMul:
		return 4
	case KAdd:
		return 5
	default:
		return 6 + int(k)
	}
}

// Compare is a total order over expression shapes. It agrees with Equal:
// Compare(a, b) == 0 exactly when the trees are structurally identical.
func Compare(a, b Expr) int {
	if a == b {
		return 0
	}
	if c := cmp.Compare(kindRank(a.Kind()), kindRank(b.Kind())); c != 0 {
		return c
	}
	switch x := a.(type) {
	case *Number:
		y := b.(*Number)
		if c := x.Cmp(y); c != 0 {
			return c
		}
		// exact before inexact so that value ties still order totally
		return cmp.Compare(boolRank(!x.IsExact()), boolRank(!y.IsExact()))
	case *Symbol:
		y := b.(*Symbol)
		if c := cmp.Compare(x.tag, y.tag); c != 0 {
			return c
		}
		return strings.Compare(x.name, y.name)
	case *Pow:
		y := b.(*Pow)
		if c := Compare(x.Base, y.Base); c != 0 {
			return c
		}
		return Compare(x.Exp, y.Exp)
	case *Function:
		y := b.(*Function)
		if c := strings.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		return compareOperands(x.Args, y.Args)
	case *Relation:
		y := b.(*Relation)
		if c := cmp.Compare(x.Op, y.Op); c != 0 {
			return c
		}
		return compareOperands(a.Operands(), b.Operands())
	case *Matrix:
		y := b.(*Matrix)
		if c := cmp.Compare(x.RowsN, y.RowsN); c != 0 {
			return c
		}
		if c := cmp.Compare(x.ColsN, y.ColsN); c != 0 {
			return c
		}
		return compareOperands(x.Cells, y.Cells)
	case *Derivative:
		y := b.(*Derivative)
		if c := cmp.Compare(x.Order, y.Order); c != 0 {
			return c
		}
		return compareOperands(a.Operands(), b.Operands())
	case *Wildcard:
		return strings.Compare(x.Name, b.(*Wildcard).Name)
	case *SeqWildcard:
		return strings.Compare(x.Name, b.(*SeqWildcard).Name)
	default:
		return compareOperands(a.Operands(), b.Operands())
	}
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func compareOperands(a, b []Expr) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	for i := range a {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports structural identity of two trees.
func Equal(a, b Expr) bool {
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return Compare(a, b) == 0
}
