package term

import (
	"fmt"
	"iter"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Substitution maps variables to terms. Bindings are scoped: Push saves the
// current bindings and Pop restores them, undoing every Set and Delete in between.
//
// Bound values and variables are protected in the Store until the scope that
// bound them is popped or the Substitution is cleared.
// A Substitution is not safe for concurrent use.
type Substitution struct {
	store    *Store
	bindings *immutable.Map[uint64, binding]
	frames   []frame
	// held are the terms protected by the outermost scope
	held []*Term
}

type binding struct {
	variable, value *Term
}

type frame struct {
	saved *immutable.Map[uint64, binding]
	held  []*Term
}

// idHasher hashes term IDs, which are unique within a Store
type idHasher struct{}

func (idHasher) Hash(key uint64) uint32  { return uint32(key ^ key>>32) }
func (idHasher) Equal(a, b uint64) bool { return a == b }

func NewSubstitution(store *Store) *Substitution {
	return &Substitution{
		store:    store,
		bindings: immutable.NewMap[uint64, binding](idHasher{}),
	}
}

func (s *Substitution) Store() *Store { return s.store }

// Get returns the term v is bound to
func (s *Substitution) Get(v *Term) (*Term, bool) {
	if s.bindings.Len() == 0 {
		return nil, false
	}
	b, ok := s.bindings.Get(v.id)
	if !ok {
		return nil, false
	}
	return b.value, true
}

// Apply returns the term v is bound to, or v itself when it is unbound
func (s *Substitution) Apply(v *Term) *Term {
	if value, ok := s.Get(v); ok {
		return value
	}
	return v
}

// Set binds the variable v to value in the current scope
func (s *Substitution) Set(v, value *Term) {
	if v.kind != KindVariable {
		panic(fmt.Sprintf("substitution key '%v' is a %v, not a variable", v, v.kind))
	}
	if value == nil {
		panic(fmt.Sprintf("binding variable '%v' to nil", v))
	}
	s.store.Protect(v)
	s.store.Protect(value)
	if n := len(s.frames); n > 0 {
		s.frames[n-1].held = append(s.frames[n-1].held, v, value)
	} else {
		s.held = append(s.held, v, value)
	}
	s.bindings = s.bindings.Set(v.id, binding{variable: v, value: value})
}

// Delete removes the binding of v in the current scope
func (s *Substitution) Delete(v *Term) {
	s.bindings = s.bindings.Delete(v.id)
}

// Push opens a new scope
func (s *Substitution) Push() {
	s.frames = append(s.frames, frame{saved: s.bindings})
}

// Pop closes the innermost scope, restoring the bindings that were in place when it was opened
func (s *Substitution) Pop() {
	n := len(s.frames)
	if n == 0 {
		panic("Pop without matching Push")
	}
	top := s.frames[n-1]
	s.frames = s.frames[:n-1]
	s.bindings = top.saved
	for _, t := range top.held {
		s.store.Release(t)
	}
}

// Depth is the number of open scopes
func (s *Substitution) Depth() int { return len(s.frames) }

// Clear removes every binding and closes every scope
func (s *Substitution) Clear() {
	for len(s.frames) > 0 {
		s.Pop()
	}
	for _, t := range s.held {
		s.store.Release(t)
	}
	s.held = nil
	s.bindings = immutable.NewMap[uint64, binding](idHasher{})
}

func (s *Substitution) Len() int     { return s.bindings.Len() }
func (s *Substitution) Empty() bool  { return s.bindings.Len() == 0 }

// All yields every binding, in no particular order
func (s *Substitution) All() iter.Seq2[*Term, *Term] {
	return func(yield func(*Term, *Term) bool) {
		it := s.bindings.Iterator()
		for !it.Done() {
			_, b, _ := it.Next()
			if !yield(b.variable, b.value) {
				return
			}
		}
	}
}

// Captures reports whether binding v would interfere with s: v is
// in the domain of s, or occurs free in one of its values
func (s *Substitution) Captures(v *Term) bool {
	if s.bindings.Len() == 0 {
		return false
	}
	if _, ok := s.bindings.Get(v.id); ok {
		return true
	}
	for _, value := range s.All() {
		if OccursFree(v, value) {
			return true
		}
	}
	return false
}

func (s *Substitution) String() string {
	sb := &strings.Builder{}
	sb.WriteString("[")
	first := true
	for v, value := range s.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(Show(v))
		sb.WriteString(" := ")
		sb.WriteString(Show(value))
	}
	sb.WriteString("]")
	return sb.String()
}
