// Package poly implements dense univariate polynomials and rational
// functions over exact numbers. Coefficients may be rational or Gaussian
// rational; every coefficient is a field element, so euclidean division,
// GCDs and squarefree decomposition are all exact.
package poly

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/symgolic/symgolic/expr"
	"github.com/symgolic/symgolic/util"
)

var ErrDivisionByZero = errors.New("poly: division by zero polynomial")

// Poly is an immutable polynomial in one indeterminate. coeffs[i] holds the
// coefficient of x^i; the slice carries no trailing zeros, and the zero
// polynomial has an empty slice.
type Poly struct {
	coeffs []*expr.Number
}

func trim(coeffs []*expr.Number) Poly {
	n := len(coeffs)
	for n > 0 && coeffs[n-1].IsZero() {
		n--
	}
	return Poly{coeffs: coeffs[:n]}
}

// New builds a polynomial from coefficients in ascending degree order.
func New(coeffs ...*expr.Number) Poly {
	cp := make([]*expr.Number, len(coeffs))
	copy(cp, coeffs)
	return trim(cp)
}

func Zero() Poly { return Poly{} }

func One() Poly { return New(expr.Int(1)) }

// X is the identity polynomial.
func X() Poly { return New(expr.Int(0), expr.Int(1)) }

func Const(c *expr.Number) Poly { return New(c) }

// Monomial returns c*x^deg.
func Monomial(c *expr.Number, deg int) Poly {
	coeffs := make([]*expr.Number, deg+1)
	for i := range coeffs {
		coeffs[i] = expr.Int(0)
	}
	coeffs[deg] = c
	return trim(coeffs)
}

func (p Poly) IsZero() bool { return len(p.coeffs) == 0 }

// Degree returns -1 for the zero polynomial.
func (p Poly) Degree() int { return len(p.coeffs) - 1 }

func (p Poly) Coeff(i int) *expr.Number {
	if i < 0 || i >= len(p.coeffs) {
		return expr.Int(0)
	}
	return p.coeffs[i]
}

func (p Poly) Lead() *expr.Number {
	if p.IsZero() {
		return expr.Int(0)
	}
	return p.coeffs[len(p.coeffs)-1]
}

func (p Poly) IsConst() bool { return len(p.coeffs) <= 1 }

func (p Poly) IsOne() bool {
	return len(p.coeffs) == 1 && p.coeffs[0].IsOne()
}

func (p Poly) Equal(q Poly) bool {
	if len(p.coeffs) != len(q.coeffs) {
		return false
	}
	for i := range p.coeffs {
		if !p.coeffs[i].Equal(q.coeffs[i]) {
			return false
		}
	}
	return true
}

func (p Poly) Add(q Poly) Poly {
	n := max(len(p.coeffs), len(q.coeffs))
	out := make([]*expr.Number, n)
	for i := range out {
		out[i] = p.Coeff(i).Add(q.Coeff(i))
	}
	return trim(out)
}

func (p Poly) Sub(q Poly) Poly { return p.Add(q.Neg()) }

func (p Poly) Neg() Poly {
	out := make([]*expr.Number, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = c.Neg()
	}
	return Poly{coeffs: out}
}

func (p Poly) Mul(q Poly) Poly {
	if p.IsZero() || q.IsZero() {
		return Zero()
	}
	out := make([]*expr.Number, len(p.coeffs)+len(q.coeffs)-1)
	for i := range out {
		out[i] = expr.Int(0)
	}
	for i, a := range p.coeffs {
		for j, b := range q.coeffs {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return trim(out)
}

func (p Poly) Scale(c *expr.Number) Poly {
	if c.IsZero() {
		return Zero()
	}
	out := make([]*expr.Number, len(p.coeffs))
	for i, a := range p.coeffs {
		out[i] = a.Mul(c)
	}
	return trim(out)
}

// Pow raises p to a non-negative power by repeated squaring.
func (p Poly) Pow(n int) Poly {
	out := One()
	base := p
	for n > 0 {
		if n&1 == 1 {
			out = out.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return out
}

func (p Poly) Derivative() Poly {
	if len(p.coeffs) <= 1 {
		return Zero()
	}
	out := make([]*expr.Number, len(p.coeffs)-1)
	for i := 1; i < len(p.coeffs); i++ {
		out[i-1] = p.coeffs[i].Mul(expr.Int(int64(i)))
	}
	return trim(out)
}

// Eval computes p(at) by Horner's rule.
func (p Poly) Eval(at *expr.Number) *expr.Number {
	acc := expr.Int(0)
	for c := range util.Reverse(p.coeffs) {
		acc = acc.Mul(at).Add(c)
	}
	return acc
}

// DivMod divides p by q over the coefficient field, returning quotient and
// remainder with deg(rem) < deg(q).
func (p Poly) DivMod(q Poly) (quo, rem Poly, err error) {
	if q.IsZero() {
		return Zero(), Zero(), ErrDivisionByZero
	}
	leadInv, err := q.Lead().Inv()
	if err != nil {
		return Zero(), Zero(), err
	}
	rem = p
	dq := q.Degree()
	var quoCoeffs []*expr.Number
	if rem.Degree() >= dq {
		quoCoeffs = make([]*expr.Number, rem.Degree()-dq+1)
		for i := range quoCoeffs {
			quoCoeffs[i] = expr.Int(0)
		}
	}
	for !rem.IsZero() && rem.Degree() >= dq {
		shift := rem.Degree() - dq
		c := rem.Lead().Mul(leadInv)
		quoCoeffs[shift] = c
		rem = rem.Sub(q.Mul(Monomial(c, shift)))
	}
	return trim(quoCoeffs), rem, nil
}

// Monic divides p by its leading coefficient. Monic of zero is zero.
func (p Poly) Monic() Poly {
	if p.IsZero() || p.Lead().IsOne() {
		return p
	}
	inv, err := p.Lead().Inv()
	if err != nil {
		return p
	}
	return p.Scale(inv)
}

// GCD returns the monic greatest common divisor.
func GCD(a, b Poly) Poly {
	for !b.IsZero() {
		_, r, err := a.DivMod(b)
		if err != nil {
			return a.Monic()
		}
		a, b = b, r
	}
	return a.Monic()
}

// ExtGCD returns monic g along with s, t satisfying s*a + t*b = g.
func ExtGCD(a, b Poly) (g, s, t Poly) {
	r0, r1 := a, b
	s0, s1 := One(), Zero()
	t0, t1 := Zero(), One()
	for !r1.IsZero() {
		q, r, err := r0.DivMod(r1)
		if err != nil {
			break
		}
		r0, r1 = r1, r
		s0, s1 = s1, s0.Sub(q.Mul(s1))
		t0, t1 = t1, t0.Sub(q.Mul(t1))
	}
	if r0.IsZero() {
		return Zero(), Zero(), Zero()
	}
	inv, err := r0.Lead().Inv()
	if err != nil {
		return r0, s0, t0
	}
	c := Const(inv)
	return r0.Mul(c), s0.Mul(c), t0.Mul(c)
}

// SquarefreeFactors performs Yun's decomposition: the product of
// factor^multiplicity over the result reconstructs p.Monic(), and every
// factor is squarefree and pairwise coprime. Multiplicities come out
// strictly increasing.
func SquarefreeFactors(p Poly) []util.Pair[Poly, int] {
	var out []util.Pair[Poly, int]
	p = p.Monic()
	if p.IsConst() {
		return out
	}
	dp := p.Derivative()
	a := GCD(p, dp)
	b, _, err := p.DivMod(a)
	if err != nil {
		return out
	}
	c, _, err := dp.DivMod(a)
	if err != nil {
		return out
	}
	d := c.Sub(b.Derivative())
	for i := 1; !b.IsConst(); i++ {
		f := GCD(b, d)
		if !f.IsConst() {
			out = append(out, util.NewPair(f, i))
		}
		b, _, err = b.DivMod(f)
		if err != nil {
			return out
		}
		c, _, err = d.DivMod(f)
		if err != nil {
			return out
		}
		d = c.Sub(b.Derivative())
	}
	return out
}

// Content is the gcd of the rational coefficients, carrying the sign of the
// leading coefficient. Content of zero is zero. Complex coefficients fall
// back to a unit content.
func (p Poly) Content() *expr.Number {
	if p.IsZero() {
		return expr.Int(0)
	}
	acc := expr.Int(0)
	for _, c := range p.coeffs {
		if !c.IsReal() || !c.IsExact() {
			return expr.Int(1)
		}
		acc = ratGCD(acc, c)
	}
	if p.Lead().IsNegative() {
		acc = acc.Neg()
	}
	return acc
}

// Primitive returns content and p divided by it, so that
// content * primitive == p.
func (p Poly) Primitive() (*expr.Number, Poly) {
	c := p.Content()
	if c.IsZero() || c.IsOne() {
		return c, p
	}
	inv, err := c.Inv()
	if err != nil {
		return expr.Int(1), p
	}
	return c, p.Scale(inv)
}

// ratGCD extends the integer gcd to rationals: gcd(a/b, c/d) is
// gcd(a*d, c*b)/(b*d) reduced, the largest rational dividing both into
// integers.
func ratGCD(a, b *expr.Number) *expr.Number {
	if a.IsZero() {
		if b.IsNegative() {
			return b.Neg()
		}
		return b
	}
	if b.IsZero() {
		if a.IsNegative() {
			return a.Neg()
		}
		return a
	}
	an, ad, ok := a.RatParts()
	if !ok {
		return expr.Int(1)
	}
	bn, bd, ok := b.RatParts()
	if !ok {
		return expr.Int(1)
	}
	x := new(big.Int).Abs(new(big.Int).Mul(an, bd))
	y := new(big.Int).Abs(new(big.Int).Mul(bn, ad))
	num := new(big.Int).GCD(nil, nil, x, y)
	den := new(big.Int).Mul(ad, bd)
	return expr.FromRat(new(big.Rat).SetFrac(num, den))
}

// PartialFractions splits num/(d1*d2*...*dn) into numerators over the given
// pairwise-coprime denominators, plus a polynomial part. ok is false when the
// denominators share a factor.
func PartialFractions(num Poly, dens []Poly) (polyPart Poly, numerators []Poly, ok bool) {
	den := One()
	for _, d := range dens {
		den = den.Mul(d)
	}
	polyPart, rem, err := num.DivMod(den)
	if err != nil {
		return Zero(), nil, false
	}
	numerators = make([]Poly, len(dens))
	for i, d := range dens {
		rest := One()
		for j, o := range dens {
			if j != i {
				rest = rest.Mul(o)
			}
		}
		// s inverts rest modulo d, so (rem*s) mod d is the numerator
		// of the d-term
		g, s, _ := ExtGCD(rest, d)
		if !g.IsOne() {
			return Zero(), nil, false
		}
		_, ni, err := rem.Mul(s).DivMod(d)
		if err != nil {
			return Zero(), nil, false
		}
		numerators[i] = ni
	}
	return polyPart, numerators, true
}

func (p Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	var terms []string
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		c := p.coeffs[i]
		if c.IsZero() {
			continue
		}
		switch i {
		case 0:
			terms = append(terms, c.String())
		case 1:
			terms = append(terms, c.String()+"*x")
		default:
			terms = append(terms, c.String()+"*x^"+itoa(i))
		}
	}
	return strings.Join(terms, " + ")
}

func itoa(i int) string {
	return expr.Int(int64(i)).String()
}
