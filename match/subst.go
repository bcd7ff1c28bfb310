// Package match implements associative-commutative pattern matching of
// expression trees containing wildcards. Matching either fails cleanly or
// produces a substitution binding every wildcard of the pattern; partial
// bindings never escape.
package match

import (
	"sort"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/symgolic/symgolic/expr"
)

// Subst maps wildcard names to the sub-expressions they bound. It is a
// persistent map: Bind returns a new Subst sharing structure with the old
// one, which is what the backtracking search needs to stay cheap.
type Subst struct {
	m *immutable.Map[string, expr.Expr]
}

// NewSubst returns the empty substitution.
func NewSubst() Subst {
	return Subst{m: immutable.NewMap[string, expr.Expr](nil)}
}

// Bind associates name with e. A name bound earlier in the same attempt must
// bind to a structurally identical expression; anything else fails the whole
// attempt, never rebinds.
func (s Subst) Bind(name string, e expr.Expr) (Subst, bool) {
	if prev, ok := s.m.Get(name); ok {
		if !expr.Equal(prev, e) {
			return Subst{}, false
		}
		return s, true
	}
	return Subst{m: s.m.Set(name, e)}, true
}

// Lookup returns the binding for name.
func (s Subst) Lookup(name string) (expr.Expr, bool) {
	if s.m == nil {
		return nil, false
	}
	return s.m.Get(name)
}

// Len returns the number of bound wildcards.
func (s Subst) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Names returns the bound wildcard names, sorted.
func (s Subst) Names() []string {
	if s.m == nil {
		return nil
	}
	names := make([]string, 0, s.m.Len())
	it := s.m.Iterator()
	for !it.Done() {
		name, _, _ := it.Next()
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply substitutes every bound wildcard occurring in pattern and
// canonicalises the result. Sequence bindings splice into their enclosing
// sum or product through the flattening constructors.
func (s Subst) Apply(pattern expr.Expr) expr.Expr {
	out := pattern.Transform(func(e expr.Expr) expr.Expr {
		switch v := e.(type) {
		case *expr.Wildcard:
			if bound, ok := s.Lookup(v.Name); ok {
				return bound
			}
		case *expr.SeqWildcard:
			if bound, ok := s.Lookup(v.Name); ok {
				return bound
			}
		}
		return e
	})
	return expr.Canon(out)
}

// fingerprint folds the bindings into an order-independent digest, used to
// key memoised match failures.
func (s Subst) fingerprint() uint64 {
	if s.m == nil {
		return 0
	}
	var acc uint64
	it := s.m.Iterator()
	for !it.Done() {
		name, bound, _ := it.Next()
		pair := expr.NewWildcard(name).Hash()*31 + bound.Hash()
		acc ^= pair * 0x9e3779b97f4a7c15
	}
	return acc
}

func (s Subst) String() string {
	names := s.Names()
	parts := make([]string, len(names))
	for i, name := range names {
		bound, _ := s.Lookup(name)
		parts[i] = name + ": " + bound.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
