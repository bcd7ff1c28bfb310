package risch

import (
	"github.com/symgolic/symgolic/calculus/poly"
	"github.com/symgolic/symgolic/expr"
)

// solveRDE decides y' + g'·y = f for rational y, with g a non-constant
// polynomial. ∫ f·exp(g) is elementary exactly when a rational solution
// exists, and then equals y·exp(g).
//
// Any pole of y of order k at a place where g' is finite forces a pole of
// order k+1 in y', so the denominator of y is pinned to the denominator of f
// with every multiplicity lowered by one, and the degree of the numerator is
// pinned by comparing leading terms. That turns the equation into a finite
// linear system over the exact coefficient field: no solution there means no
// rational solution at all, which is what licenses the non-elementary
// verdict.
func solveRDE(f poly.RatFunc, g poly.Poly, v *expr.Symbol) (poly.RatFunc, Status) {
	if f.IsZero() {
		return poly.FromPoly(poly.Zero()), StatusElementary
	}
	gp := g.Derivative()
	if gp.IsZero() {
		return poly.RatFunc{}, StatusUnknown
	}

	a := f.Num
	d := f.Den

	// candidate denominator: every factor of den(f) with multiplicity
	// lowered by one; s is the squarefree part
	e := poly.One()
	s := poly.One()
	for _, fac := range poly.SquarefreeFactors(d) {
		s = s.Mul(fac.Fst)
		if fac.Snd > 1 {
			e = e.Mul(fac.Fst.Pow(fac.Snd - 1))
		}
	}

	degY := a.Degree() - s.Degree() - gp.Degree()
	if degY < 0 {
		return poly.RatFunc{}, StatusNonElementary
	}

	// with y = Y/e the equation becomes  p1·Y' + p2·Y = a·e  where
	// p1 = s·e and p2 = s·e·g' - s·e'
	p1 := s.Mul(e)
	p2 := s.Mul(e).Mul(gp).Sub(s.Mul(e.Derivative()))
	rhs := a.Mul(e)

	cols := degY + 1
	maxDeg := rhs.Degree()
	colPolys := make([]poly.Poly, cols)
	for j := 0; j < cols; j++ {
		cj := p2.Mul(poly.Monomial(expr.Int(1), j))
		if j > 0 {
			cj = cj.Add(p1.Mul(poly.Monomial(expr.Int(int64(j)), j-1)))
		}
		colPolys[j] = cj
		if cj.Degree() > maxDeg {
			maxDeg = cj.Degree()
		}
	}

	rows := maxDeg + 1
	matrix := make([][]*expr.Number, rows)
	b := make([]*expr.Number, rows)
	for k := 0; k < rows; k++ {
		row := make([]*expr.Number, cols)
		for j := 0; j < cols; j++ {
			row[j] = colPolys[j].Coeff(k)
		}
		matrix[k] = row
		b[k] = rhs.Coeff(k)
	}

	sol, ok := poly.SolveLinear(matrix, b)
	if !ok {
		return poly.RatFunc{}, StatusNonElementary
	}
	y, built := poly.Rat(poly.New(sol...), e)
	if !built {
		return poly.RatFunc{}, StatusUnknown
	}

	// confirm the candidate actually solves the equation
	gpRat := poly.FromPoly(gp)
	if !y.Derivative().Add(y.Mul(gpRat)).Equal(f) {
		return poly.RatFunc{}, StatusUnknown
	}
	return y, StatusElementary
}
