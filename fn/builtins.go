package fn

import (
	"math"

	"github.com/pkg/errors"
	"github.com/symgolic/symgolic/expr"
)

// builtinEntries is the static table behind Default. The derivative rules
// are expressed in terms of the raw argument; the differentiation engine
// multiplies in the chain factor itself.
func builtinEntries() []Entry {
	one := expr.Int(1)
	two := expr.Int(2)
	half := expr.Rat(1, 2)
	minusOne := expr.Int(-1)

	return []Entry{
		{
			Name:  "sin",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if isZero(args[0]) {
					return expr.Int(0), true
				}
				if inner, ok := innerCall(args[0], "asin"); ok {
					return inner, true
				}
				return nil, false
			},
			Derivative:     func(args []expr.Expr) expr.Expr { return expr.Call("cos", args[0]) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) { return expr.Neg(expr.Call("cos", u)), true },
			Eval:           unaryEval("sin", math.Sin, nil),
		},
		{
			Name:  "cos",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if isZero(args[0]) {
					return expr.Int(1), true
				}
				if inner, ok := innerCall(args[0], "acos"); ok {
					return inner, true
				}
				return nil, false
			},
			Derivative:     func(args []expr.Expr) expr.Expr { return expr.Neg(expr.Call("sin", args[0])) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) { return expr.Call("sin", u), true },
			Eval:           unaryEval("cos", math.Cos, nil),
		},
		{
			Name:  "tan",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if isZero(args[0]) {
					return expr.Int(0), true
				}
				if inner, ok := innerCall(args[0], "atan"); ok {
					return inner, true
				}
				return nil, false
			},
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.Plus(one, expr.PowOf(expr.Call("tan", args[0]), two))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Neg(expr.Call("log", expr.Call("cos", u))), true
			},
			Eval: unaryEval("tan", math.Tan, nil),
		},
		{
			Name:  "cot",
			Arity: 1,
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.Neg(expr.Plus(one, expr.PowOf(expr.Call("cot", args[0]), two)))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Call("log", expr.Call("sin", u)), true
			},
			Eval: unaryEval("cot", func(x float64) float64 { return 1 / math.Tan(x) }, nil),
		},
		{
			Name:  "sec",
			Arity: 1,
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.Times(expr.Call("sec", args[0]), expr.Call("tan", args[0]))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Call("log", expr.Plus(expr.Call("sec", u), expr.Call("tan", u))), true
			},
			Eval: unaryEval("sec", func(x float64) float64 { return 1 / math.Cos(x) }, nil),
		},
		{
			Name:  "csc",
			Arity: 1,
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.Neg(expr.Times(expr.Call("csc", args[0]), expr.Call("cot", args[0])))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Neg(expr.Call("log", expr.Plus(expr.Call("csc", u), expr.Call("cot", u)))), true
			},
			Eval: unaryEval("csc", func(x float64) float64 { return 1 / math.Sin(x) }, nil),
		},
		{
			Name:  "exp",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if isZero(args[0]) {
					return expr.Int(1), true
				}
				if inner, ok := innerCall(args[0], "log"); ok {
					return inner, true
				}
				return nil, false
			},
			Derivative:     func(args []expr.Expr) expr.Expr { return expr.Call("exp", args[0]) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) { return expr.Call("exp", u), true },
			Eval:           unaryEval("exp", math.Exp, nil),
		},
		{
			Name:  "log",
			Arity: 1,
			Domain: func(args []*expr.Number) error {
				if !args[0].IsReal() || args[0].Sign() <= 0 {
					return errors.Wrap(ErrDomain, "log of a non-positive value")
				}
				return nil
			},
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if isOne(args[0]) {
					return expr.Int(0), true
				}
				if inner, ok := innerCall(args[0], "exp"); ok {
					return inner, true
				}
				return nil, false
			},
			Derivative: func(args []expr.Expr) expr.Expr { return expr.PowOf(args[0], minusOne) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Sub2(expr.Times(u, expr.Call("log", u)), u), true
			},
			Eval: unaryEval("log", math.Log, func(x float64) error {
				if x <= 0 {
					return errors.Wrap(ErrDomain, "log of a non-positive value")
				}
				return nil
			}),
		},
		{
			Name:  "sqrt",
			Arity: 1,
			// sqrt is sugar for the half power; canonical form has no
			// sqrt nodes at all
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				return expr.PowOf(args[0], half), true
			},
			Eval: unaryEval("sqrt", math.Sqrt, func(x float64) error {
				if x < 0 {
					return errors.Wrap(ErrDomain, "sqrt of a negative value")
				}
				return nil
			}),
		},
		{
			Name:  "asin",
			Arity: 1,
			Domain: func(args []*expr.Number) error {
				return requireUnitInterval("asin", args[0])
			},
			Special: zeroToZero,
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.PowOf(expr.Sub2(one, expr.PowOf(args[0], two)), expr.Rat(-1, 2))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				root := expr.PowOf(expr.Sub2(one, expr.PowOf(u, two)), half)
				return expr.Plus(expr.Times(u, expr.Call("asin", u)), root), true
			},
			Eval: unaryEval("asin", math.Asin, unitIntervalCheck("asin")),
		},
		{
			Name:  "acos",
			Arity: 1,
			Domain: func(args []*expr.Number) error {
				return requireUnitInterval("acos", args[0])
			},
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.Neg(expr.PowOf(expr.Sub2(one, expr.PowOf(args[0], two)), expr.Rat(-1, 2)))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				root := expr.PowOf(expr.Sub2(one, expr.PowOf(u, two)), half)
				return expr.Sub2(expr.Times(u, expr.Call("acos", u)), root), true
			},
			Eval: unaryEval("acos", math.Acos, unitIntervalCheck("acos")),
		},
		{
			Name:    "atan",
			Arity:   1,
			Special: zeroToZero,
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.PowOf(expr.Plus(one, expr.PowOf(args[0], two)), minusOne)
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				logPart := expr.Times(half, expr.Call("log", expr.Plus(one, expr.PowOf(u, two))))
				return expr.Sub2(expr.Times(u, expr.Call("atan", u)), logPart), true
			},
			Eval: unaryEval("atan", math.Atan, nil),
		},
		{
			Name:           "sinh",
			Arity:          1,
			Special:        zeroToZero,
			Derivative:     func(args []expr.Expr) expr.Expr { return expr.Call("cosh", args[0]) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) { return expr.Call("cosh", u), true },
			Eval:           unaryEval("sinh", math.Sinh, nil),
		},
		{
			Name:  "cosh",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if isZero(args[0]) {
					return expr.Int(1), true
				}
				return nil, false
			},
			Derivative:     func(args []expr.Expr) expr.Expr { return expr.Call("sinh", args[0]) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) { return expr.Call("sinh", u), true },
			Eval:           unaryEval("cosh", math.Cosh, nil),
		},
		{
			Name:    "tanh",
			Arity:   1,
			Special: zeroToZero,
			Derivative: func(args []expr.Expr) expr.Expr {
				return expr.Sub2(one, expr.PowOf(expr.Call("tanh", args[0]), two))
			},
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Call("log", expr.Call("cosh", u)), true
			},
			Eval: unaryEval("tanh", math.Tanh, nil),
		},
		{
			Name:  "abs",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if num, ok := args[0].(*expr.Number); ok && num.IsReal() {
					if num.Sign() < 0 {
						return num.Neg(), true
					}
					return num, true
				}
				// |c*u| = |c|*|u| for a negative numeric coefficient
				if m, ok := args[0].(*expr.Mul); ok {
					if num, ok := m.Operands()[0].(*expr.Number); ok && num.IsReal() && num.Sign() < 0 {
						rest := expr.Times(m.Operands()[1:]...)
						return expr.Times(num.Neg(), expr.Call("abs", rest)), true
					}
				}
				return nil, false
			},
			Derivative: func(args []expr.Expr) expr.Expr { return expr.Call("sign", args[0]) },
			Antiderivative: func(u expr.Expr) (expr.Expr, bool) {
				return expr.Times(half, u, expr.Call("abs", u)), true
			},
			Eval: exactUnaryEval("abs", func(n *expr.Number) (*expr.Number, error) {
				if !n.IsReal() {
					return nil, errors.Wrap(ErrDomain, "abs of a complex value")
				}
				if n.Sign() < 0 {
					return n.Neg(), nil
				}
				return n, nil
			}),
		},
		{
			Name:  "sign",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if num, ok := args[0].(*expr.Number); ok && num.IsReal() {
					return expr.Int(int64(num.Sign())), true
				}
				return nil, false
			},
			// zero almost everywhere; the jump at 0 has no pointwise rule
			Derivative: func(args []expr.Expr) expr.Expr { return expr.Int(0) },
			Eval: exactUnaryEval("sign", func(n *expr.Number) (*expr.Number, error) {
				if !n.IsReal() {
					return nil, errors.Wrap(ErrDomain, "sign of a complex value")
				}
				return expr.Int(int64(n.Sign())), nil
			}),
		},
		{
			Name:  "floor",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if num, ok := args[0].(*expr.Number); ok && num.IsInteger() {
					return num, true
				}
				return nil, false
			},
			Derivative: func(args []expr.Expr) expr.Expr { return expr.Int(0) },
			Eval:       unaryEval("floor", math.Floor, nil),
		},
		{
			Name:  "ceil",
			Arity: 1,
			Special: func(args []expr.Expr) (expr.Expr, bool) {
				if num, ok := args[0].(*expr.Number); ok && num.IsInteger() {
					return num, true
				}
				return nil, false
			},
			Derivative: func(args []expr.Expr) expr.Expr { return expr.Int(0) },
			Eval:       unaryEval("ceil", math.Ceil, nil),
		},
	}
}

func isZero(e expr.Expr) bool {
	num, ok := e.(*expr.Number)
	return ok && num.IsZero()
}

func isOne(e expr.Expr) bool {
	num, ok := e.(*expr.Number)
	return ok && num.IsOne()
}

// innerCall matches f(name)(u) compositions: it returns u when e is an
// application of name.
func innerCall(e expr.Expr, name string) (expr.Expr, bool) {
	call, ok := e.(*expr.Function)
	if !ok || call.Name != name || len(call.Args) != 1 {
		return nil, false
	}
	return call.Args[0], true
}

// zeroToZero is the shared special rule for odd functions: f(0) = 0.
func zeroToZero(args []expr.Expr) (expr.Expr, bool) {
	if isZero(args[0]) {
		return expr.Int(0), true
	}
	return nil, false
}

func requireUnitInterval(name string, n *expr.Number) error {
	if !n.IsReal() || n.Cmp(expr.Int(-1)) < 0 || n.Cmp(expr.Int(1)) > 0 {
		return errors.Wrapf(ErrDomain, "%s outside [-1, 1]", name)
	}
	return nil
}

func unitIntervalCheck(name string) func(float64) error {
	return func(x float64) error {
		if x < -1 || x > 1 {
			return errors.Wrapf(ErrDomain, "%s outside [-1, 1]", name)
		}
		return nil
	}
}

// unaryEval adapts a float64 function into a numeric evaluator. The optional
// check runs before the call and reports domain violations.
func unaryEval(name string, f func(float64) float64, check func(float64) error) func([]*expr.Number) (*expr.Number, error) {
	return func(args []*expr.Number) (*expr.Number, error) {
		if len(args) != 1 {
			return nil, errors.Errorf("%s expects 1 argument, got %d", name, len(args))
		}
		if !args[0].IsReal() {
			return nil, errors.Wrapf(ErrDomain, "%s of a complex value", name)
		}
		x := args[0].Float64()
		if check != nil {
			if err := check(x); err != nil {
				return nil, err
			}
		}
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, errors.Wrapf(ErrDomain, "%s(%v) is not finite", name, x)
		}
		return expr.Real(y), nil
	}
}

// exactUnaryEval is like unaryEval for functions that stay exact on exact
// inputs (abs, sign).
func exactUnaryEval(name string, f func(*expr.Number) (*expr.Number, error)) func([]*expr.Number) (*expr.Number, error) {
	return func(args []*expr.Number) (*expr.Number, error) {
		if len(args) != 1 {
			return nil, errors.Errorf("%s expects 1 argument, got %d", name, len(args))
		}
		return f(args[0])
	}
}
