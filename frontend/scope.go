package frontend

import (
	"maps"

	"github.com/cottand/trs/term"
	"github.com/cottand/trs/util"
)

// Scope tells the term reader which identifiers are variables (and of which
// sort) and the arity of function symbols that are used without being called
type Scope struct {
	variables map[string]term.Sort
	// functions are declared arities
	functions map[string]int
	// seen are the arities function symbols were called with
	seen map[string]util.MSet[int]
}

func NewScope() *Scope {
	return &Scope{
		variables: make(map[string]term.Sort),
		functions: make(map[string]int),
		seen:      make(map[string]util.MSet[int]),
	}
}

// DeclareVariable makes name read as a variable of the given sort
func (s *Scope) DeclareVariable(name string, sort term.Sort) {
	s.variables[name] = sort
}

// DeclareFunction makes name, when not called, read as the symbol of the given arity
func (s *Scope) DeclareFunction(name string, arity int) {
	s.functions[name] = arity
}

func (s *Scope) Variable(name string) (term.Sort, bool) {
	sort, ok := s.variables[name]
	return sort, ok
}

// arity is the arity of name used as a value: the declared one, else the only
// one it was called with, else zero
func (s *Scope) arity(name string) int {
	if arity, ok := s.functions[name]; ok {
		return arity
	}
	if seen, ok := s.seen[name]; ok && seen.Len() == 1 {
		return util.Sorted(seen)[0]
	}
	return 0
}

func (s *Scope) called(name string, arity int) {
	if _, ok := s.seen[name]; !ok {
		s.seen[name] = util.NewEmptySet[int]()
	}
	s.seen[name].Add(arity)
}

// with returns a copy of s where vars shadow the variables of s
func (s *Scope) with(vars []*term.Term) *Scope {
	inner := &Scope{
		variables: maps.Clone(s.variables),
		functions: s.functions,
		seen:      s.seen,
	}
	for _, v := range vars {
		inner.variables[v.Name()] = v.Sort()
	}
	return inner
}
