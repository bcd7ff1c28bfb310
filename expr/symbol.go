package expr

import (
	"hash/fnv"
	"sync"
)

// Tag classifies what algebra a symbol lives in. Only Scalar symbols commute
// inside a product; the canonicaliser never reorders the others relative to
// each other.
type Tag uint8

const (
	TagScalar Tag = iota
	TagMatrix
	TagOperator
	TagQuaternion
)

func (t Tag) String() string {
	switch t {
	case TagScalar:
		return "scalar"
	case TagMatrix:
		return "matrix"
	case TagOperator:
		return "operator"
	case TagQuaternion:
		return "quaternion"
	default:
		return "tag(?)"
	}
}

// Symbol is an interned identifier. Two symbols with the same name and tag are
// the same pointer, so equality is pointer identity and Hash is precomputed.
type Symbol struct {
	name string
	tag  Tag
	hash uint64
}

type symbolKey struct {
	name string
	tag  Tag
}

var internTable = struct {
	sync.Mutex
	m map[symbolKey]*Symbol
}{m: make(map[symbolKey]*Symbol)}

// Intern returns the unique Symbol for (name, tag). Safe for concurrent use:
// concurrent callers interning the same pair always receive the same pointer.
func Intern(name string, tag Tag) *Symbol {
	key := symbolKey{name: name, tag: tag}
	internTable.Lock()
	defer internTable.Unlock()
	if s, ok := internTable.m[key]; ok {
		return s
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte{byte(tag), ':'})
	_, _ = h.Write([]byte(name))
	s := &Symbol{name: name, tag: tag, hash: h.Sum64()}
	internTable.m[key] = s
	return s
}

// Var interns a commuting scalar symbol, the common case.
func Var(name string) *Symbol { return Intern(name, TagScalar) }

func (s *Symbol) Name() string { return s.name }
func (s *Symbol) Tag() Tag     { return s.tag }

// Commutes reports whether a product may reorder this symbol freely.
func (s *Symbol) Commutes() bool { return s.tag == TagScalar }

func (s *Symbol) String() string { return s.name }
func (s *Symbol) Hash() uint64   { return s.hash }
