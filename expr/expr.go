package expr

import (
	"encoding/binary"
	"hash/fnv"
	"strconv"
	"strings"
)

var (
	_ Expr = (*Number)(nil)
	_ Expr = (*Symbol)(nil)
	_ Expr = (*Add)(nil)
	_ Expr = (*Mul)(nil)
	_ Expr = (*Pow)(nil)
	_ Expr = (*Function)(nil)
	_ Expr = (*Relation)(nil)
	_ Expr = (*Piecewise)(nil)
	_ Expr = (*Matrix)(nil)
	_ Expr = (*Set)(nil)
	_ Expr = (*Derivative)(nil)
	_ Expr = (*Integral)(nil)
	_ Expr = (*Limit)(nil)
	_ Expr = (*Sum)(nil)
	_ Expr = (*Product)(nil)
	_ Expr = (*Wildcard)(nil)
	_ Expr = (*SeqWildcard)(nil)
)

// Kind discriminates expression variants.
type Kind uint8

const (
	KNumber Kind = iota
	KSymbol
	KAdd
	KMul
	KPow
	KFunction
	KRelation
	KPiecewise
	KMatrix
	KSet
	KDerivative
	KIntegral
	KLimit
	KSum
	KProduct
	KWildcard
	KSeqWildcard
)

func (k Kind) String() string {
	switch k {
	case KNumber:
		return "number"
	case KSymbol:
		return "symbol"
	case KAdd:
		return "add"
	case KMul:
		return "mul"
	case KPow:
		return "pow"
	case KFunction:
		return "function"
	case KRelation:
		return "relation"
	case KPiecewise:
		return "piecewise"
	case KMatrix:
		return "matrix"
	case KSet:
		return "set"
	case KDerivative:
		return "derivative"
	case KIntegral:
		return "integral"
	case KLimit:
		return "limit"
	case KSum:
		return "sum"
	case KProduct:
		return "product"
	case KWildcard:
		return "wildcard"
	case KSeqWildcard:
		return "sequence wildcard"
	default:
		panic("invalid Kind: " + strconv.Itoa(int(k)))
	}
}

// Expr is the base for all expression nodes.
//
// The following nodes are supported:
//
//	Number:      exact numeric value
//	Symbol:      interned identifier
//	Add:         n-ary sum
//	Mul:         n-ary product
//	Pow:         base^exponent
//	Function:    named function application
//	Relation:    binary relation between two expressions
//	Piecewise:   guarded alternatives
//	Matrix:      rows x cols grid of expressions
//	Set:         finite collection of expressions
//	Derivative:  unevaluated derivative marker
//	Integral:    unevaluated integral marker
//	Limit:       unevaluated limit marker
//	Sum:         bounded symbolic summation
//	Product:     bounded symbolic product
//	Wildcard:    pattern placeholder for exactly one expression
//	SeqWildcard: pattern placeholder for zero or more operands
//
// Nodes are immutable once built and may share structure freely; structurally
// identical nodes are interchangeable everywhere.
type Expr interface {
	Kind() Kind
	// Operands returns the direct children in a fixed order. Callers must
	// not mutate the returned slice.
	Operands() []Expr

	// Transform should, in order:
	//   - call Transform(f) on child expressions (copying them)
	//   - copy this node with the transformed children
	//   - call f on the copy
	// In practice this rewrites the whole tree bottom-up and returns the
	// result, leaving the receiver untouched.
	Transform(f func(Expr) Expr) Expr

	Hash() uint64
	String() string
}

func hashNode(kind Kind, parts ...uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	_, _ = h.Write([]byte{byte(kind)})
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func hashAll(kind Kind, ops []Expr) uint64 {
	parts := make([]uint64, len(ops))
	for i, op := range ops {
		parts[i] = op.Hash()
	}
	return hashNode(kind, parts...)
}

func transformAll(ops []Expr, f func(Expr) Expr) []Expr {
	out := make([]Expr, len(ops))
	for i, op := range ops {
		out[i] = op.Transform(f)
	}
	return out
}

// --- Number and Symbol as nodes ---

func (n *Number) Kind() Kind                       { return KNumber }
func (n *Number) Operands() []Expr                 { return nil }
func (n *Number) Transform(f func(Expr) Expr) Expr { return f(n) }
func (s *Symbol) Kind() Kind                       { return KSymbol }
func (s *Symbol) Operands() []Expr                 { return nil }
func (s *Symbol) Transform(f func(Expr) Expr) Expr { return f(s) }

// --- Add ---

// Add is an n-ary sum. Its operands are never themselves Add nodes: the
// constructor flattens, so the nesting invariant holds for every tree, not
// only canonical ones.
type Add struct {
	ops []Expr
}

// NewAdd builds a flattened sum without canonicalising. Zero operands yield
// the number 0 and a single operand is returned as-is.
func NewAdd(ops ...Expr) Expr {
	flat := make([]Expr, 0, len(ops))
	for _, op := range ops {
		if a, ok := op.(*Add); ok {
			flat = append(flat, a.ops...)
		} else {
			flat = append(flat, op)
		}
	}
	switch len(flat) {
	case 0:
		return numZero
	case 1:
		return flat[0]
	}
	return &Add{ops: flat}
}

func (a *Add) Kind() Kind       { return KAdd }
func (a *Add) Operands() []Expr { return a.ops }
func (a *Add) Hash() uint64     { return hashAll(KAdd, a.ops) }
func (a *Add) Transform(f func(Expr) Expr) Expr {
	return f(NewAdd(transformAll(a.ops, f)...))
}
func (a *Add) String() string {
	parts := make([]string, len(a.ops))
	for i, op := range a.ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, " + ")
}

// --- Mul ---

// Mul is an n-ary product. Operand order is significant whenever any operand
// fails to commute. Like Add, the constructor flattens nested products.
type Mul struct {
	ops []Expr
}

// NewMul builds a flattened product without canonicalising. Zero operands
// yield the number 1 and a single operand is returned as-is.
func NewMul(ops ...Expr) Expr {
	flat := make([]Expr, 0, len(ops))
	for _, op := range ops {
		if m, ok := op.(*Mul); ok {
			flat = append(flat, m.ops...)
		} else {
			flat = append(flat, op)
		}
	}
	switch len(flat) {
	case 0:
		return numOne
	case 1:
		return flat[0]
	}
	return &Mul{ops: flat}
}

func (m *Mul) Kind() Kind       { return KMul }
func (m *Mul) Operands() []Expr { return m.ops }
func (m *Mul) Hash() uint64     { return hashAll(KMul, m.ops) }
func (m *Mul) Transform(f func(Expr) Expr) Expr {
	return f(NewMul(transformAll(m.ops, f)...))
}
func (m *Mul) String() string {
	parts := make([]string, len(m.ops))
	for i, op := range m.ops {
		if op.Kind() == KAdd {
			parts[i] = "(" + op.String() + ")"
		} else {
			parts[i] = op.String()
		}
	}
	return strings.Join(parts, "*")
}

// --- Pow ---

type Pow struct {
	Base Expr
	Exp  Expr
}

func NewPow(base, exp Expr) *Pow { return &Pow{Base: base, Exp: exp} }

func (p *Pow) Kind() Kind       { return KPow }
func (p *Pow) Operands() []Expr { return []Expr{p.Base, p.Exp} }
func (p *Pow) Hash() uint64     { return hashNode(KPow, p.Base.Hash(), p.Exp.Hash()) }
func (p *Pow) Transform(f func(Expr) Expr) Expr {
	return f(NewPow(p.Base.Transform(f), p.Exp.Transform(f)))
}
func (p *Pow) String() string {
	base := p.Base.String()
	switch p.Base.Kind() {
	case KAdd, KMul, KPow:
		base = "(" + base + ")"
	case KNumber:
		if num, _ := p.Base.(*Number); num.IsReal() && num.Sign() < 0 || !num.IsReal() {
			base = "(" + base + ")"
		}
	}
	exp := p.Exp.String()
	switch p.Exp.Kind() {
	case KAdd, KMul, KPow:
		exp = "(" + exp + ")"
	case KNumber:
		if num, _ := p.Exp.(*Number); !num.IsReal() || num.Sign() < 0 || !num.IsInteger() {
			exp = "(" + exp + ")"
		}
	}
	return base + "^" + exp
}

// --- Function ---

type Function struct {
	Name string
	Args []Expr
}

func NewFunction(name string, args ...Expr) *Function {
	return &Function{Name: name, Args: args}
}

func (fn *Function) Kind() Kind       { return KFunction }
func (fn *Function) Operands() []Expr { return fn.Args }
func (fn *Function) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fn.Name))
	return hashNode(KFunction, h.Sum64(), hashAll(KFunction, fn.Args))
}
func (fn *Function) Transform(f func(Expr) Expr) Expr {
	return f(NewFunction(fn.Name, transformAll(fn.Args, f)...))
}
func (fn *Function) String() string {
	parts := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		parts[i] = a.String()
	}
	return fn.Name + "(" + strings.Join(parts, ", ") + ")"
}

// --- Relation ---

type RelOp uint8

const (
	RelEq RelOp = iota
	RelNe
	RelLt
	RelLe
	RelGt
	RelGe
)

func (op RelOp) String() string {
	switch op {
	case RelEq:
		return "="
	case RelNe:
		return "!="
	case RelLt:
		return "<"
	case RelLe:
		return "<="
	case RelGt:
		return ">"
	case RelGe:
		return ">="
	default:
		return "?"
	}
}

type Relation struct {
	Op RelOp
	L  Expr
	R  Expr
}

func NewRelation(op RelOp, l, r Expr) *Relation { return &Relation{Op: op, L: l, R: r} }

func (r *Relation) Kind() Kind       { return KRelation }
func (r *Relation) Operands() []Expr { return []Expr{r.L, r.R} }
func (r *Relation) Hash() uint64 {
	return hashNode(KRelation, uint64(r.Op), r.L.Hash(), r.R.Hash())
}
func (r *Relation) Transform(f func(Expr) Expr) Expr {
	return f(NewRelation(r.Op, r.L.Transform(f), r.R.Transform(f)))
}
func (r *Relation) String() string {
	return r.L.String() + " " + r.Op.String() + " " + r.R.String()
}

// --- Piecewise ---

type PiecewiseCase struct {
	If   Expr
	Then Expr
}

// Piecewise selects the first case whose guard holds; Otherwise may be nil.
type Piecewise struct {
	Cases     []PiecewiseCase
	Otherwise Expr
}

func NewPiecewise(cases []PiecewiseCase, otherwise Expr) *Piecewise {
	return &Piecewise{Cases: cases, Otherwise: otherwise}
}

func (p *Piecewise) Kind() Kind { return KPiecewise }
func (p *Piecewise) Operands() []Expr {
	ops := make([]Expr, 0, 2*len(p.Cases)+1)
	for _, c := range p.Cases {
		ops = append(ops, c.If, c.Then)
	}
	if p.Otherwise != nil {
		ops = append(ops, p.Otherwise)
	}
	return ops
}
func (p *Piecewise) Hash() uint64 { return hashAll(KPiecewise, p.Operands()) }
func (p *Piecewise) Transform(f func(Expr) Expr) Expr {
	cases := make([]PiecewiseCase, len(p.Cases))
	for i, c := range p.Cases {
		cases[i] = PiecewiseCase{If: c.If.Transform(f), Then: c.Then.Transform(f)}
	}
	var otherwise Expr
	if p.Otherwise != nil {
		otherwise = p.Otherwise.Transform(f)
	}
	return f(NewPiecewise(cases, otherwise))
}
func (p *Piecewise) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, c := range p.Cases {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(c.Then.String())
		sb.WriteString(" if ")
		sb.WriteString(c.If.String())
	}
	if p.Otherwise != nil {
		sb.WriteString("; ")
		sb.WriteString(p.Otherwise.String())
		sb.WriteString(" otherwise")
	}
	sb.WriteString("}")
	return sb.String()
}

// --- Matrix ---

// Matrix is a rows x cols grid stored row-major. It never commutes in a
// product regardless of its cells.
type Matrix struct {
	RowsN int
	ColsN int
	Cells []Expr
}

func NewMatrix(rows, cols int, cells []Expr) *Matrix {
	if len(cells) != rows*cols {
		panic("expr: NewMatrix needs rows*cols cells, got " + strconv.Itoa(len(cells)))
	}
	return &Matrix{RowsN: rows, ColsN: cols, Cells: cells}
}

func (m *Matrix) Kind() Kind       { return KMatrix }
func (m *Matrix) Operands() []Expr { return m.Cells }
func (m *Matrix) At(i, j int) Expr { return m.Cells[i*m.ColsN+j] }
func (m *Matrix) Hash() uint64 {
	return hashNode(KMatrix, uint64(m.RowsN), uint64(m.ColsN), hashAll(KMatrix, m.Cells))
}
func (m *Matrix) Transform(f func(Expr) Expr) Expr {
	return f(NewMatrix(m.RowsN, m.ColsN, transformAll(m.Cells, f)))
}
func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.RowsN; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.ColsN; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.At(i, j).String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

// --- Set ---

// Set is a finite collection; canonical form sorts and de-duplicates elements.
type Set struct {
	Elems []Expr
}

func NewSet(elems ...Expr) *Set { return &Set{Elems: elems} }

func (s *Set) Kind() Kind       { return KSet }
func (s *Set) Operands() []Expr { return s.Elems }
func (s *Set) Hash() uint64     { return hashAll(KSet, s.Elems) }
func (s *Set) Transform(f func(Expr) Expr) Expr {
	return f(NewSet(transformAll(s.Elems, f)...))
}
func (s *Set) String() string {
	parts := make([]string, len(s.Elems))
	for i, e := range s.Elems {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// --- Derivative ---

// Derivative is the unevaluated marker d^Order/dVar^Order of Body, produced
// when no differentiation rule applies.
type Derivative struct {
	Body  Expr
	Var   *Symbol
	Order int
}

func NewDerivative(body Expr, v *Symbol, order int) *Derivative {
	return &Derivative{Body: body, Var: v, Order: order}
}

func (d *Derivative) Kind() Kind       { return KDerivative }
func (d *Derivative) Operands() []Expr { return []Expr{d.Body, d.Var} }
func (d *Derivative) Hash() uint64 {
	return hashNode(KDerivative, d.Body.Hash(), d.Var.Hash(), uint64(d.Order))
}
func (d *Derivative) Transform(f func(Expr) Expr) Expr {
	return f(NewDerivative(d.Body.Transform(f), d.Var, d.Order))
}
func (d *Derivative) String() string {
	if d.Order == 1 {
		return "Derivative(" + d.Body.String() + ", " + d.Var.String() + ")"
	}
	return "Derivative(" + d.Body.String() + ", " + d.Var.String() + ", " + strconv.Itoa(d.Order) + ")"
}

// --- Integral ---

// Integral is the unevaluated marker for an antiderivative of Body in Var.
type Integral struct {
	Body Expr
	Var  *Symbol
}

func NewIntegral(body Expr, v *Symbol) *Integral { return &Integral{Body: body, Var: v} }

func (in *Integral) Kind() Kind       { return KIntegral }
func (in *Integral) Operands() []Expr { return []Expr{in.Body, in.Var} }
func (in *Integral) Hash() uint64     { return hashNode(KIntegral, in.Body.Hash(), in.Var.Hash()) }
func (in *Integral) Transform(f func(Expr) Expr) Expr {
	return f(NewIntegral(in.Body.Transform(f), in.Var))
}
func (in *Integral) String() string {
	return "Integral(" + in.Body.String() + ", " + in.Var.String() + ")"
}

// --- Limit ---

// Limit is lim_{Var -> To} Body. Var is a binder: it is not free in the node.
type Limit struct {
	Body Expr
	Var  *Symbol
	To   Expr
}

func NewLimit(body Expr, v *Symbol, to Expr) *Limit { return &Limit{Body: body, Var: v, To: to} }

func (l *Limit) Kind() Kind       { return KLimit }
func (l *Limit) Operands() []Expr { return []Expr{l.Body, l.Var, l.To} }
func (l *Limit) Hash() uint64     { return hashNode(KLimit, l.Body.Hash(), l.Var.Hash(), l.To.Hash()) }
func (l *Limit) Transform(f func(Expr) Expr) Expr {
	return f(NewLimit(l.Body.Transform(f), l.Var, l.To.Transform(f)))
}
func (l *Limit) String() string {
	return "Limit(" + l.Body.String() + ", " + l.Var.String() + " -> " + l.To.String() + ")"
}

// --- Sum ---

// Sum is the bounded summation of Body over the binder Var from Lo to Hi.
type Sum struct {
	Body Expr
	Var  *Symbol
	Lo   Expr
	Hi   Expr
}

func NewSum(body Expr, v *Symbol, lo, hi Expr) *Sum {
	return &Sum{Body: body, Var: v, Lo: lo, Hi: hi}
}

func (s *Sum) Kind() Kind       { return KSum }
func (s *Sum) Operands() []Expr { return []Expr{s.Body, s.Var, s.Lo, s.Hi} }
func (s *Sum) Hash() uint64 {
	return hashNode(KSum, s.Body.Hash(), s.Var.Hash(), s.Lo.Hash(), s.Hi.Hash())
}
func (s *Sum) Transform(f func(Expr) Expr) Expr {
	return f(NewSum(s.Body.Transform(f), s.Var, s.Lo.Transform(f), s.Hi.Transform(f)))
}
func (s *Sum) String() string {
	return "Sum(" + s.Body.String() + ", " + s.Var.String() + ", " + s.Lo.String() + ", " + s.Hi.String() + ")"
}

// --- Product ---

// Product is the bounded product of Body over the binder Var from Lo to Hi.
type Product struct {
	Body Expr
	Var  *Symbol
	Lo   Expr
	Hi   Expr
}

func NewProduct(body Expr, v *Symbol, lo, hi Expr) *Product {
	return &Product{Body: body, Var: v, Lo: lo, Hi: hi}
}

func (p *Product) Kind() Kind       { return KProduct }
func (p *Product) Operands() []Expr { return []Expr{p.Body, p.Var, p.Lo, p.Hi} }
func (p *Product) Hash() uint64 {
	return hashNode(KProduct, p.Body.Hash(), p.Var.Hash(), p.Lo.Hash(), p.Hi.Hash())
}
func (p *Product) Transform(f func(Expr) Expr) Expr {
	return f(NewProduct(p.Body.Transform(f), p.Var, p.Lo.Transform(f), p.Hi.Transform(f)))
}
func (p *Product) String() string {
	return "Product(" + p.Body.String() + ", " + p.Var.String() + ", " + p.Lo.String() + ", " + p.Hi.String() + ")"
}

// --- Wildcards ---

// Wildcard matches exactly one expression during pattern matching. A non-nil
// Pred restricts what the wildcard may bind to. Two wildcards are the same
// node when their names agree; the predicate does not take part in identity.
type Wildcard struct {
	Name string
	Pred func(Expr) bool
}

func NewWildcard(name string) *Wildcard { return &Wildcard{Name: name} }

// NewWildcardThat builds a predicate-constrained wildcard.
func NewWildcardThat(name string, pred func(Expr) bool) *Wildcard {
	return &Wildcard{Name: name, Pred: pred}
}

func (w *Wildcard) Kind() Kind                       { return KWildcard }
func (w *Wildcard) Operands() []Expr                 { return nil }
func (w *Wildcard) Transform(f func(Expr) Expr) Expr { return f(w) }
func (w *Wildcard) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(w.Name))
	return hashNode(KWildcard, h.Sum64())
}
func (w *Wildcard) String() string { return w.Name + "_" }

// SeqWildcard matches zero or more operands of an enclosing Add, Mul or
// Function argument list.
type SeqWildcard struct {
	Name string
}

func NewSeqWildcard(name string) *SeqWildcard { return &SeqWildcard{Name: name} }

func (w *SeqWildcard) Kind() Kind                       { return KSeqWildcard }
func (w *SeqWildcard) Operands() []Expr                 { return nil }
func (w *SeqWildcard) Transform(f func(Expr) Expr) Expr { return f(w) }
func (w *SeqWildcard) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(w.Name))
	return hashNode(KSeqWildcard, h.Sum64())
}
func (w *SeqWildcard) String() string { return w.Name + "__" }

// Commutes reports whether an expression may be reordered freely inside a
// product. Numbers and scalar symbols commute; matrices, operators and
// quaternions do not, and a compound commutes only when all its parts do.
func Commutes(e Expr) bool {
	switch v := e.(type) {
	case *Number:
		return true
	case *Symbol:
		return v.Commutes()
	case *Matrix:
		return false
	default:
		for _, op := range e.Operands() {
			if !Commutes(op) {
				return false
			}
		}
		return true
	}
}
