package match

import (
	"encoding/binary"
	"hash/fnv"
	"iter"

	hset "github.com/hashicorp/go-set/v3"
	"github.com/symgolic/symgolic/expr"
)

// Pattern constructor shorthands. Any matches one operand, Seq a run of zero
// or more operands of an Add or Mul, AnyThat one operand passing pred.

func Any(name string) *expr.Wildcard { return expr.NewWildcard(name) }

func AnyThat(name string, pred func(expr.Expr) bool) *expr.Wildcard {
	return expr.NewWildcardThat(name, pred)
}

func Seq(name string) *expr.SeqWildcard { return expr.NewSeqWildcard(name) }

// Match unifies pattern against target and returns the first substitution
// found in canonical-sorted partition order, or ok=false. Failure is an
// expected outcome, not an error.
func Match(pattern, target expr.Expr) (Subst, bool) {
	for s := range MatchAll(pattern, target) {
		return s, true
	}
	return Subst{}, false
}

// MatchAll lazily enumerates every substitution unifying pattern with target
// under the algebra of the enclosing operators: operands of commutative Add
// and Mul nodes match as multisets, so distinct partitions yield distinct
// substitutions. The sequence is finite, bounded by the number of operand
// partitions, and restartable: ranging over it twice replays it.
func MatchAll(pattern, target expr.Expr) iter.Seq[Subst] {
	p := expr.Canon(pattern)
	t := expr.Canon(target)
	return func(yield func(Subst) bool) {
		mc := &matcher{failed: hset.New[uint64](16)}
		for s := range mc.match(p, t, NewSubst()) {
			if !yield(s) {
				return
			}
		}
	}
}

// matcher carries the memo of partial AC states that are known to fail, so
// the partition search never re-explores a rejected branch.
type matcher struct {
	failed *hset.Set[uint64]
}

func (mc *matcher) match(p, t expr.Expr, s Subst) iter.Seq[Subst] {
	return func(yield func(Subst) bool) {
		switch pv := p.(type) {
		case *expr.Wildcard:
			if pv.Pred != nil && !pv.Pred(t) {
				return
			}
			if s2, ok := s.Bind(pv.Name, t); ok {
				yield(s2)
			}
		case *expr.SeqWildcard:
			// outside an operand list a sequence wildcard degenerates
			// to a single wildcard over the whole target
			if s2, ok := s.Bind(pv.Name, t); ok {
				yield(s2)
			}
		case *expr.Number:
			if tv, ok := t.(*expr.Number); ok && pv.Equal(tv) {
				yield(s)
			}
		case *expr.Symbol:
			if p == t {
				yield(s)
			}
		case *expr.Pow:
			tv, ok := t.(*expr.Pow)
			if !ok {
				return
			}
			for s1 := range mc.match(pv.Base, tv.Base, s) {
				for s2 := range mc.match(pv.Exp, tv.Exp, s1) {
					if !yield(s2) {
						return
					}
				}
			}
		case *expr.Function:
			tv, ok := t.(*expr.Function)
			if !ok || tv.Name != pv.Name || len(tv.Args) != len(pv.Args) {
				return
			}
			mc.matchSlice(pv.Args, tv.Args, s)(yield)
		case *expr.Add:
			// addition commutes in every supported algebra
			mc.matchAC(expr.KAdd, pv.Operands(), operandsOf(t, expr.KAdd), s)(yield)
		case *expr.Mul:
			targs := operandsOf(t, expr.KMul)
			if expr.Commutes(p) && expr.Commutes(t) {
				mc.matchAC(expr.KMul, pv.Operands(), targs, s)(yield)
			} else {
				mc.matchOrdered(expr.KMul, pv.Operands(), targs, s)(yield)
			}
		case *expr.Relation:
			tv, ok := t.(*expr.Relation)
			if !ok || tv.Op != pv.Op {
				return
			}
			mc.matchSlice(pv.Operands(), tv.Operands(), s)(yield)
		case *expr.Set:
			tv, ok := t.(*expr.Set)
			if !ok {
				return
			}
			mc.matchAC(expr.KSet, pv.Operands(), tv.Operands(), s)(yield)
		case *expr.Derivative:
			tv, ok := t.(*expr.Derivative)
			if !ok || tv.Var != pv.Var || tv.Order != pv.Order {
				return
			}
			mc.match(pv.Body, tv.Body, s)(yield)
		case *expr.Matrix:
			tv, ok := t.(*expr.Matrix)
			if !ok || tv.RowsN != pv.RowsN || tv.ColsN != pv.ColsN {
				return
			}
			mc.matchSlice(pv.Cells, tv.Cells, s)(yield)
		default:
			// remaining node kinds match structurally, operand by operand
			if t.Kind() != p.Kind() || len(t.Operands()) != len(p.Operands()) {
				return
			}
			mc.matchSlice(p.Operands(), t.Operands(), s)(yield)
		}
	}
}

// matchSlice chains pairwise matches over two equal-length operand lists.
func (mc *matcher) matchSlice(pats, targs []expr.Expr, s Subst) iter.Seq[Subst] {
	return func(yield func(Subst) bool) {
		if len(pats) != len(targs) {
			return
		}
		var rec func(i int, s Subst) bool
		rec = func(i int, s Subst) bool {
			if i == len(pats) {
				return yield(s)
			}
			for s2 := range mc.match(pats[i], targs[i], s) {
				if !rec(i+1, s2) {
					return false
				}
			}
			return true
		}
		rec(0, s)
	}
}

// operandsOf views t as an operand list of an Add or Mul: a node of the same
// kind contributes its operands, anything else is a singleton list. This is
// what lets the pattern a_*rest__ match a lone factor with rest empty.
func operandsOf(t expr.Expr, kind expr.Kind) []expr.Expr {
	if t.Kind() == kind {
		return t.Operands()
	}
	return []expr.Expr{t}
}

func rebuildOperands(kind expr.Kind, ops []expr.Expr) expr.Expr {
	if kind == expr.KAdd {
		return expr.NewAdd(ops...)
	}
	return expr.NewMul(ops...)
}

// quickCompatible rejects obviously impossible operand pairings before the
// search commits to them.
func quickCompatible(p, t expr.Expr) bool {
	switch p.(type) {
	case *expr.Wildcard, *expr.SeqWildcard, *expr.Add, *expr.Mul:
		return true
	default:
		return p.Kind() == t.Kind()
	}
}

// matchAC unifies pattern operands against target operands as multisets.
// Fixed pattern operands claim target operands in every compatible way;
// sequence wildcards then absorb whatever remains. States proven not to
// produce any substitution are memoised and skipped on re-entry.
func (mc *matcher) matchAC(kind expr.Kind, pats, targs []expr.Expr, s Subst) iter.Seq[Subst] {
	var fixed []expr.Expr
	var seqs []*expr.SeqWildcard
	for _, p := range pats {
		if sw, ok := p.(*expr.SeqWildcard); ok {
			seqs = append(seqs, sw)
		} else {
			fixed = append(fixed, p)
		}
	}
	return func(yield func(Subst) bool) {
		if len(fixed) > len(targs) {
			return
		}
		if len(seqs) == 0 && len(fixed) != len(targs) {
			return
		}
		scope := acScopeKey(kind, fixed, targs)
		used := make([]bool, len(targs))

		// rec returns (continue, produced): continue is false when the
		// consumer stopped, produced reports whether any substitution
		// came out of this state.
		var rec func(i int, s Subst) (bool, bool)
		rec = func(i int, s Subst) (bool, bool) {
			if i == len(fixed) {
				var rest []expr.Expr
				for j, u := range used {
					if !u {
						rest = append(rest, targs[j])
					}
				}
				return mc.assignSeqs(kind, seqs, rest, s, yield)
			}
			key := acStateKey(scope, i, used, s)
			if mc.failed.Contains(key) {
				return true, false
			}
			produced := false
			for j := range targs {
				if used[j] || !quickCompatible(fixed[i], targs[j]) {
					continue
				}
				stopped := false
				for s2 := range mc.match(fixed[i], targs[j], s) {
					used[j] = true
					cont, prod := rec(i+1, s2)
					used[j] = false
					if prod {
						produced = true
					}
					if !cont {
						stopped = true
						break
					}
				}
				if stopped {
					return false, produced
				}
			}
			if !produced {
				mc.failed.Insert(key)
			}
			return true, produced
		}
		rec(0, s)
	}
}

// assignSeqs distributes the leftover operands over the sequence wildcards.
// No wildcard means the leftovers must be empty; a single wildcard takes all
// of them; several wildcards enumerate every bucket assignment lazily.
func (mc *matcher) assignSeqs(kind expr.Kind, seqs []*expr.SeqWildcard, rest []expr.Expr, s Subst, yield func(Subst) bool) (bool, bool) {
	if len(seqs) == 0 {
		if len(rest) > 0 {
			return true, false
		}
		return yield(s), true
	}
	if len(seqs) == 1 {
		s2, ok := s.Bind(seqs[0].Name, rebuildOperands(kind, rest))
		if !ok {
			return true, false
		}
		return yield(s2), true
	}
	buckets := make([][]expr.Expr, len(seqs))
	produced := false
	var distribute func(i int) bool
	distribute = func(i int) bool {
		if i == len(rest) {
			s2 := s
			ok := true
			for b, seq := range seqs {
				s2, ok = s2.Bind(seq.Name, rebuildOperands(kind, buckets[b]))
				if !ok {
					return true
				}
			}
			produced = true
			return yield(s2)
		}
		for b := range buckets {
			buckets[b] = append(buckets[b], rest[i])
			cont := distribute(i + 1)
			buckets[b] = buckets[b][:len(buckets[b])-1]
			if !cont {
				return false
			}
		}
		return true
	}
	cont := distribute(0)
	return cont, produced
}

// acScopeKey identifies one matchAC invocation by the pattern operands and
// target operands it is working on. Without it a failure memoised while
// matching one node would poison a sibling node of the same shape.
func acScopeKey(kind expr.Kind, fixed, targs []expr.Expr) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	_, _ = h.Write([]byte{byte(kind)})
	for _, p := range fixed {
		binary.LittleEndian.PutUint64(buf[:], p.Hash())
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Write([]byte{0xff})
	for _, t := range targs {
		binary.LittleEndian.PutUint64(buf[:], t.Hash())
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func acStateKey(scope uint64, i int, used []bool, s Subst) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], scope)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte{byte(i)})
	for _, u := range used {
		if u {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	binary.LittleEndian.PutUint64(buf[:], s.fingerprint())
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// matchOrdered unifies operand lists positionally, used when any product
// operand fails to commute. Sequence wildcards bind contiguous runs.
func (mc *matcher) matchOrdered(kind expr.Kind, pats, targs []expr.Expr, s Subst) iter.Seq[Subst] {
	return func(yield func(Subst) bool) {
		var rec func(i, j int, s Subst) bool
		rec = func(i, j int, s Subst) bool {
			if i == len(pats) {
				if j == len(targs) {
					return yield(s)
				}
				return true
			}
			if seq, ok := pats[i].(*expr.SeqWildcard); ok {
				for l := 0; l <= len(targs)-j; l++ {
					s2, ok := s.Bind(seq.Name, rebuildOperands(kind, targs[j:j+l]))
					if !ok {
						continue
					}
					if !rec(i+1, j+l, s2) {
						return false
					}
				}
				return true
			}
			if j >= len(targs) {
				return true
			}
			for s2 := range mc.match(pats[i], targs[j], s) {
				if !rec(i+1, j+1, s2) {
					return false
				}
			}
			return true
		}
		rec(0, 0, s)
	}
}
