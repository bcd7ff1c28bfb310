package fn

import (
	"math"

	"github.com/pkg/errors"
	"github.com/symgolic/symgolic/expr"
)

// ErrNotNumeric is returned when an expression cannot be reduced to a Number
// under the given bindings.
var ErrNotNumeric = errors.New("expression is not numeric under the given bindings")

// Eval reduces e to a Number, substituting free symbols from env. It is the
// strict numeric path: domain violations surface as errors wrapping
// ErrDomain instead of falling back to symbolic forms.
func (r Registry) Eval(e expr.Expr, env map[*expr.Symbol]*expr.Number) (*expr.Number, error) {
	switch v := e.(type) {
	case *expr.Number:
		return v, nil
	case *expr.Symbol:
		if n, ok := env[v]; ok {
			return n, nil
		}
		return nil, errors.Wrapf(ErrNotNumeric, "unbound symbol %s", v.Name())
	case *expr.Add:
		acc := expr.Int(0)
		for _, op := range v.Operands() {
			n, err := r.Eval(op, env)
			if err != nil {
				return nil, err
			}
			acc = acc.Add(n)
		}
		return acc, nil
	case *expr.Mul:
		acc := expr.Int(1)
		for _, op := range v.Operands() {
			n, err := r.Eval(op, env)
			if err != nil {
				return nil, err
			}
			acc = acc.Mul(n)
		}
		return acc, nil
	case *expr.Pow:
		base, err := r.Eval(v.Base, env)
		if err != nil {
			return nil, err
		}
		exp, err := r.Eval(v.Exp, env)
		if err != nil {
			return nil, err
		}
		return evalPow(base, exp)
	case *expr.Function:
		entry, ok := r.Lookup(v.Name)
		if !ok || entry.Eval == nil {
			return nil, errors.Wrapf(ErrUnknownFunction, "%s", v.Name)
		}
		args := make([]*expr.Number, len(v.Args))
		for i, a := range v.Args {
			n, err := r.Eval(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = n
		}
		if entry.Domain != nil {
			if err := entry.Domain(args); err != nil {
				return nil, err
			}
		}
		return entry.Eval(args)
	case *expr.Piecewise:
		for _, c := range v.Cases {
			holds, err := r.evalGuard(c.If, env)
			if err != nil {
				return nil, err
			}
			if holds {
				return r.Eval(c.Then, env)
			}
		}
		if v.Otherwise != nil {
			return r.Eval(v.Otherwise, env)
		}
		return nil, errors.Wrap(ErrNotNumeric, "no piecewise case holds")
	case *expr.Sum:
		return r.evalIterated(v.Body, v.Var, v.Lo, v.Hi, env, expr.Int(0), (*expr.Number).Add)
	case *expr.Product:
		return r.evalIterated(v.Body, v.Var, v.Lo, v.Hi, env, expr.Int(1), (*expr.Number).Mul)
	default:
		return nil, errors.Wrapf(ErrNotNumeric, "cannot evaluate a %s node", e.Kind())
	}
}

func (r Registry) evalGuard(guard expr.Expr, env map[*expr.Symbol]*expr.Number) (bool, error) {
	rel, ok := guard.(*expr.Relation)
	if !ok {
		return false, errors.Wrapf(ErrNotNumeric, "piecewise guard is a %s, not a relation", guard.Kind())
	}
	l, err := r.Eval(rel.L, env)
	if err != nil {
		return false, err
	}
	rt, err := r.Eval(rel.R, env)
	if err != nil {
		return false, err
	}
	c := l.Cmp(rt)
	switch rel.Op {
	case expr.RelEq:
		return c == 0, nil
	case expr.RelNe:
		return c != 0, nil
	case expr.RelLt:
		return c < 0, nil
	case expr.RelLe:
		return c <= 0, nil
	case expr.RelGt:
		return c > 0, nil
	case expr.RelGe:
		return c >= 0, nil
	default:
		return false, errors.Errorf("unknown relation operator %v", rel.Op)
	}
}

// evalIterated folds Body over integer bounds, for Sum and Product nodes.
func (r Registry) evalIterated(body expr.Expr, v *expr.Symbol, lo, hi expr.Expr, env map[*expr.Symbol]*expr.Number, unit *expr.Number, combine func(*expr.Number, *expr.Number) *expr.Number) (*expr.Number, error) {
	loN, err := r.Eval(lo, env)
	if err != nil {
		return nil, err
	}
	hiN, err := r.Eval(hi, env)
	if err != nil {
		return nil, err
	}
	from, okLo := loN.Int64()
	to, okHi := hiN.Int64()
	if !okLo || !okHi {
		return nil, errors.Wrap(ErrNotNumeric, "iteration bounds are not small integers")
	}
	inner := make(map[*expr.Symbol]*expr.Number, len(env)+1)
	for k, val := range env {
		inner[k] = val
	}
	acc := unit
	for i := from; i <= to; i++ {
		inner[v] = expr.Int(i)
		n, err := r.Eval(body, inner)
		if err != nil {
			return nil, err
		}
		acc = combine(acc, n)
	}
	return acc, nil
}

// evalPow folds base^exp numerically: exact for integer exponents, floating
// otherwise.
func evalPow(base, exp *expr.Number) (*expr.Number, error) {
	if exp.IsInteger() {
		if e, ok := exp.Int64(); ok {
			return base.PowInt(e)
		}
	}
	if !base.IsReal() || !exp.IsReal() {
		return nil, errors.Wrap(ErrDomain, "non-integer power of a complex value")
	}
	y := math.Pow(base.Float64(), exp.Float64())
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return nil, errors.Wrapf(ErrDomain, "%s^%s is not finite", base, exp)
	}
	return expr.Real(y), nil
}
