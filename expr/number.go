package expr

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// ErrDivisionByZero is returned by Number.Div and friends when the divisor is
// exactly zero.
var ErrDivisionByZero = errors.New("division by zero")

// NumKind discriminates the value stored inside a Number.
//
// The exact kinds form a promotion ladder SmallInt -> BigInt -> Rational ->
// Complex. Float sits outside the ladder: any arithmetic touching a Float
// produces a Float (or a Complex with Float parts), and folding such values is
// no longer exact.
type NumKind uint8

const (
	SmallInt NumKind = iota
	BigInt
	Rational
	Float
	Complex
)

func (k NumKind) String() string {
	switch k {
	case SmallInt:
		return "smallint"
	case BigInt:
		return "bigint"
	case Rational:
		return "rational"
	case Float:
		return "float"
	case Complex:
		return "complex"
	default:
		panic("invalid NumKind: " + strconv.Itoa(int(k)))
	}
}

// Number is an exact numeric value. It is immutable: all arithmetic returns
// fresh values and never mutates receivers or arguments.
//
// Representation invariants, maintained by every constructor:
//   - BigInt is only used for values outside the int64 range
//   - Rational is always in lowest terms with a positive denominator and a
//     non-unit denominator (integral rationals demote to an integer kind)
//   - Complex always has a non-zero imaginary part (otherwise it demotes to
//     its real part), and its parts are real Numbers
//
// Because of these invariants, value-equal Numbers always have the same kind,
// which keeps Equal and Hash cheap.
type Number struct {
	kind NumKind
	i    int64
	b    *big.Int
	r    *big.Rat
	f    float64
	re   *Number
	im   *Number
}

var (
	numZero     = &Number{kind: SmallInt, i: 0}
	numOne      = &Number{kind: SmallInt, i: 1}
	numMinusOne = &Number{kind: SmallInt, i: -1}
)

// Int builds a Number from a native integer.
func Int(i int64) *Number {
	switch i {
	case 0:
		return numZero
	case 1:
		return numOne
	case -1:
		return numMinusOne
	}
	return &Number{kind: SmallInt, i: i}
}

// FromBig builds a Number from a big integer, demoting to SmallInt when the
// value fits.
func FromBig(b *big.Int) *Number {
	if b.IsInt64() {
		return Int(b.Int64())
	}
	return &Number{kind: BigInt, b: new(big.Int).Set(b)}
}

// Rat builds the exact rational p/q. It panics on q == 0, mirroring the
// behaviour of big.NewRat.
func Rat(p, q int64) *Number {
	return FromRat(big.NewRat(p, q))
}

// FromRat builds a Number from a big rational, demoting integral values.
func FromRat(r *big.Rat) *Number {
	if r.IsInt() {
		return FromBig(r.Num())
	}
	return &Number{kind: Rational, r: new(big.Rat).Set(r)}
}

// Real builds an inexact floating-point Number.
func Real(f float64) *Number {
	return &Number{kind: Float, f: f}
}

// ComplexOf builds re + im*i from two real Numbers, demoting to the real part
// when im is zero.
func ComplexOf(re, im *Number) *Number {
	if re.kind == Complex || im.kind == Complex {
		// (a+bi) + (c+di)i = (a-d) + (b+c)i
		a, b := re.Re(), re.Im()
		c, d := im.Re(), im.Im()
		return ComplexOf(a.Sub(d), b.Add(c))
	}
	if im.IsZero() {
		return re
	}
	return &Number{kind: Complex, re: re, im: im}
}

// ImagUnit returns the imaginary unit i.
func ImagUnit() *Number { return ComplexOf(numZero, numOne) }

// Re returns the real part (the value itself for real kinds).
func (n *Number) Re() *Number {
	if n.kind == Complex {
		return n.re
	}
	return n
}

// Im returns the imaginary part (zero for real kinds).
func (n *Number) Im() *Number {
	if n.kind == Complex {
		return n.im
	}
	return numZero
}

func (n *Number) NumKind() NumKind { return n.kind }

// IsExact reports whether no Float participates in the value.
func (n *Number) IsExact() bool {
	switch n.kind {
	case Float:
		return false
	case Complex:
		return n.re.IsExact() && n.im.IsExact()
	default:
		return true
	}
}

// IsReal reports whether the value has no imaginary part.
func (n *Number) IsReal() bool { return n.kind != Complex }

func (n *Number) IsZero() bool {
	switch n.kind {
	case SmallInt:
		return n.i == 0
	case Float:
		return n.f == 0
	case Complex:
		return false // a complex Number has a non-zero imaginary part
	default:
		return false // BigInt and Rational never hold small values
	}
}

func (n *Number) IsOne() bool      { return n.kind == SmallInt && n.i == 1 || n.kind == Float && n.f == 1 }
func (n *Number) IsMinusOne() bool { return n.kind == SmallInt && n.i == -1 || n.kind == Float && n.f == -1 }

// IsInteger reports whether the value is an exact integer.
func (n *Number) IsInteger() bool { return n.kind == SmallInt || n.kind == BigInt }

// Int64 returns the value as an int64 when it is a small exact integer.
func (n *Number) Int64() (int64, bool) {
	if n.kind == SmallInt {
		return n.i, true
	}
	return 0, false
}

// asRat returns the exact rational value of a finite real Number.
// Floats convert exactly (every finite float is a binary rational).
// The second return is false for NaN and infinities.
func (n *Number) asRat() (*big.Rat, bool) {
	switch n.kind {
	case SmallInt:
		return new(big.Rat).SetInt64(n.i), true
	case BigInt:
		return new(big.Rat).SetInt(n.b), true
	case Rational:
		return n.r, true
	case Float:
		r := new(big.Rat).SetFloat64(n.f)
		if r == nil {
			return nil, false
		}
		return r, true
	default:
		return nil, false
	}
}

// RatParts exposes a real exact value as a reduced numerator/denominator
// pair. ok is false for floats and complex values. The returned ints are
// fresh copies.
func (n *Number) RatParts() (num, den *big.Int, ok bool) {
	if !n.IsExact() || !n.IsReal() {
		return nil, nil, false
	}
	r, ok := n.asRat()
	if !ok {
		return nil, nil, false
	}
	return new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom()), true
}

// Float64 returns the closest float64 to the value's real part.
func (n *Number) Float64() float64 {
	switch n.kind {
	case SmallInt:
		return float64(n.i)
	case BigInt:
		f, _ := new(big.Float).SetInt(n.b).Float64()
		return f
	case Rational:
		f, _ := n.r.Float64()
		return f
	case Float:
		return n.f
	default:
		return n.re.Float64()
	}
}

// Complex128 returns the closest complex128 to the value.
func (n *Number) Complex128() complex128 {
	if n.kind == Complex {
		return complex(n.re.Float64(), n.im.Float64())
	}
	return complex(n.Float64(), 0)
}

// Sign returns -1, 0, or 1 for real values; it panics on Complex.
func (n *Number) Sign() int {
	switch n.kind {
	case SmallInt:
		switch {
		case n.i > 0:
			return 1
		case n.i < 0:
			return -1
		default:
			return 0
		}
	case BigInt:
		return n.b.Sign()
	case Rational:
		return n.r.Sign()
	case Float:
		switch {
		case n.f > 0:
			return 1
		case n.f < 0:
			return -1
		default:
			return 0
		}
	default:
		panic("Sign on complex number")
	}
}

func (n *Number) IsPositive() bool { return n.IsReal() && n.Sign() > 0 }
func (n *Number) IsNegative() bool { return n.IsReal() && n.Sign() < 0 }

func (n *Number) hasFloat() bool { return !n.IsExact() }

// Add returns n + o.
func (n *Number) Add(o *Number) *Number {
	if n.kind == Complex || o.kind == Complex {
		return ComplexOf(n.Re().Add(o.Re()), n.Im().Add(o.Im()))
	}
	if n.kind == Float || o.kind == Float {
		return Real(n.Float64() + o.Float64())
	}
	if n.kind == SmallInt && o.kind == SmallInt {
		sum := n.i + o.i
		if (n.i > 0 && o.i > 0 && sum < 0) || (n.i < 0 && o.i < 0 && sum >= 0) {
			return FromBig(new(big.Int).Add(big.NewInt(n.i), big.NewInt(o.i)))
		}
		return Int(sum)
	}
	a, _ := n.asRat()
	b, _ := o.asRat()
	return FromRat(new(big.Rat).Add(a, b))
}

// Sub returns n - o.
func (n *Number) Sub(o *Number) *Number { return n.Add(o.Neg()) }

// Neg returns -n.
func (n *Number) Neg() *Number {
	switch n.kind {
	case SmallInt:
		if n.i == math.MinInt64 {
			return FromBig(new(big.Int).Neg(big.NewInt(n.i)))
		}
		return Int(-n.i)
	case BigInt:
		return FromBig(new(big.Int).Neg(n.b))
	case Rational:
		return FromRat(new(big.Rat).Neg(n.r))
	case Float:
		return Real(-n.f)
	default:
		return ComplexOf(n.re.Neg(), n.im.Neg())
	}
}

// Mul returns n * o.
func (n *Number) Mul(o *Number) *Number {
	if n.kind == Complex || o.kind == Complex {
		a, b := n.Re(), n.Im()
		c, d := o.Re(), o.Im()
		return ComplexOf(a.Mul(c).Sub(b.Mul(d)), a.Mul(d).Add(b.Mul(c)))
	}
	if n.kind == Float || o.kind == Float {
		return Real(n.Float64() * o.Float64())
	}
	a, _ := n.asRat()
	b, _ := o.asRat()
	return FromRat(new(big.Rat).Mul(a, b))
}

// Inv returns 1/n, or ErrDivisionByZero when n is zero.
func (n *Number) Inv() (*Number, error) {
	if n.IsZero() {
		return nil, errors.WithStack(ErrDivisionByZero)
	}
	switch n.kind {
	case Float:
		return Real(1 / n.f), nil
	case Complex:
		// 1/(a+bi) = (a-bi)/(a^2+b^2)
		a, b := n.re, n.im
		d := a.Mul(a).Add(b.Mul(b))
		dInv, err := d.Inv()
		if err != nil {
			return nil, err
		}
		return ComplexOf(a.Mul(dInv), b.Neg().Mul(dInv)), nil
	default:
		r, _ := n.asRat()
		return FromRat(new(big.Rat).Inv(r)), nil
	}
}

// Div returns n / o, or ErrDivisionByZero when o is zero.
func (n *Number) Div(o *Number) (*Number, error) {
	inv, err := o.Inv()
	if err != nil {
		return nil, err
	}
	return n.Mul(inv), nil
}

// PowInt returns n^e for an integer exponent. Negative exponents of zero
// return ErrDivisionByZero; 0^0 is taken to be 1, matching exact folding of
// the power rule edge cases elsewhere in the canonicalizer.
func (n *Number) PowInt(e int64) (*Number, error) {
	if e == 0 {
		return numOne, nil
	}
	if n.IsZero() {
		if e < 0 {
			return nil, errors.WithStack(ErrDivisionByZero)
		}
		return numZero, nil
	}
	if e < 0 {
		inv, err := n.Inv()
		if err != nil {
			return nil, err
		}
		return inv.PowInt(-e)
	}
	if n.kind == Float {
		return Real(math.Pow(n.f, float64(e))), nil
	}
	if n.kind == Complex {
		// exponentiation by squaring over exact complex parts
		acc := numOne
		base := n
		for e > 0 {
			if e&1 == 1 {
				acc = acc.Mul(base)
			}
			base = base.Mul(base)
			e >>= 1
		}
		return acc, nil
	}
	r, _ := n.asRat()
	exp := big.NewInt(e)
	num := new(big.Int).Exp(r.Num(), exp, nil)
	den := new(big.Int).Exp(r.Denom(), exp, nil)
	return FromRat(new(big.Rat).SetFrac(num, den)), nil
}

// Cmp compares two Numbers under a total order. Real values compare by value;
// a complex value orders by real part, then imaginary part. The order is only
// meaningful mathematically on the real line, but it is total, which is what
// the canonical operand sort needs.
func (n *Number) Cmp(o *Number) int {
	if n.kind == Complex || o.kind == Complex {
		if c := n.Re().Cmp(o.Re()); c != 0 {
			return c
		}
		return n.Im().Cmp(o.Im())
	}
	a, aOK := n.asRat()
	b, bOK := o.asRat()
	if aOK && bOK {
		return a.Cmp(b)
	}
	// NaN or infinities: order by float comparison with NaN last.
	x, y := n.Float64(), o.Float64()
	switch {
	case x == y || (math.IsNaN(x) && math.IsNaN(y)):
		return 0
	case math.IsNaN(x):
		return 1
	case math.IsNaN(y):
		return -1
	case x < y:
		return -1
	default:
		return 1
	}
}

// Equal reports value equality between Numbers of the same exactness: exact
// kinds compare by exact value, Floats compare bit-for-bit, and a Float is
// never equal to its exact twin (1.0 and 1 are distinct canonical atoms, the
// way cue's number lattice keeps int and float apart).
func (n *Number) Equal(o *Number) bool {
	if n == o {
		return true
	}
	if n.kind == Complex || o.kind == Complex {
		return n.kind == o.kind && n.re.Equal(o.re) && n.im.Equal(o.im)
	}
	if (n.kind == Float) != (o.kind == Float) {
		return false
	}
	if n.kind == Float {
		return math.Float64bits(n.f) == math.Float64bits(o.f)
	}
	return n.Cmp(o) == 0
}

func (n *Number) String() string {
	switch n.kind {
	case SmallInt:
		return strconv.FormatInt(n.i, 10)
	case BigInt:
		return n.b.String()
	case Rational:
		return n.r.RatString()
	case Float:
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	default:
		re, im := n.re, n.im
		imPart := ""
		switch {
		case im.IsOne():
			imPart = "i"
		case im.IsMinusOne():
			imPart = "-i"
		default:
			imPart = im.String() + "*i"
		}
		if re.IsZero() {
			return imPart
		}
		if im.IsReal() && im.Sign() > 0 {
			return re.String() + "+" + imPart
		}
		return re.String() + imPart
	}
}

// Hash folds the exact value into a 64-bit digest. Value-equal Numbers hash
// equally because the representation invariants make their String forms agree.
func (n *Number) Hash() uint64 {
	h := fnv.New64a()
	switch n.kind {
	case Float:
		// distinguish inexact values from their exact twins
		_, _ = fmt.Fprintf(h, "f%x", math.Float64bits(n.f))
	case Complex:
		_, _ = fmt.Fprintf(h, "c%x,%x", n.re.Hash(), n.im.Hash())
	default:
		_, _ = h.Write([]byte(n.String()))
	}
	return h.Sum64()
}
