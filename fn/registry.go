// Package fn holds the function intelligence registry: per-function metadata
// (domain predicate, special values, derivative and antiderivative rules,
// numeric evaluator) consulted by the canonicaliser, the differentiation
// engine and the integrator.
//
// A Registry is immutable once built. The default registry is constructed
// exactly once and shared by reference; extension produces a new Registry
// instead of mutating shared state.
package fn

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/symgolic/symgolic/expr"
	xtset "github.com/xtgo/set"
)

// ErrDomain marks an argument outside a function's declared domain. It is
// surfaced by strict numeric evaluation; the symbolic path recovers by
// leaving the application unevaluated instead.
var ErrDomain = errors.New("argument outside function domain")

// ErrUnknownFunction is returned when evaluating a function the registry has
// no entry for.
var ErrUnknownFunction = errors.New("unknown function")

// Entry is the immutable capability record for one function name.
//
// All rule fields are optional; a nil field simply means the engines fall
// back to their generic behaviour (unevaluated derivative nodes, Unresolved
// integrals, symbolic forms instead of numeric values).
type Entry struct {
	Name  string
	Arity int

	// Domain returns nil when args are inside the function's domain.
	Domain func(args []*expr.Number) error

	// Special rewrites an application with canonical arguments to a
	// strictly simpler exact form: special values (sin(0) -> 0) and
	// inverse compositions (log(exp(u)) -> u).
	Special func(args []expr.Expr) (expr.Expr, bool)

	// Derivative returns d f(args)/d(args[0]) before the chain rule is
	// applied by the caller.
	Derivative func(args []expr.Expr) expr.Expr

	// Antiderivative returns F with dF/du = f(u) for the function applied
	// directly to the integration variable u.
	Antiderivative func(u expr.Expr) (expr.Expr, bool)

	// Eval evaluates the function numerically. Domain violations must be
	// reported through an error wrapping ErrDomain.
	Eval func(args []*expr.Number) (*expr.Number, error)
}

// Registry maps function names to their entries. The zero value is an empty
// registry. Registries are values: copying one is cheap and safe because the
// underlying map is never mutated after construction.
type Registry struct {
	entries map[string]Entry
}

// New builds a registry from entries. Later duplicates win, which is what
// extension-over-defaults wants.
func New(entries ...Entry) Registry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return Registry{entries: m}
}

// With returns a copy of r with e registered, leaving r untouched.
func (r Registry) With(e Entry) Registry {
	m := make(map[string]Entry, len(r.entries)+1)
	for k, v := range r.entries {
		m[k] = v
	}
	m[e.Name] = e
	return Registry{entries: m}
}

// Lookup returns the entry for name.
func (r Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the sorted, de-duplicated registered names.
func (r Registry) Names() []string {
	var names sort.StringSlice
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Sort(names)
	return names[:xtset.Uniq(names)]
}

// RewriteCall implements expr.CallRewriter using each entry's Special rule.
func (r Registry) RewriteCall(name string, args []expr.Expr) (expr.Expr, bool) {
	e, ok := r.entries[name]
	if !ok || e.Special == nil {
		return nil, false
	}
	if e.Arity > 0 && len(args) != e.Arity {
		return nil, false
	}
	return e.Special(args)
}

var (
	defaultOnce     sync.Once
	defaultRegistry Registry
)

// Default returns the process-wide builtin registry, built on first use and
// shared by all callers afterwards.
func Default() Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(builtinEntries()...)
	})
	return defaultRegistry
}
