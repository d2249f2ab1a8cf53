package rewrite

import (
	"fmt"
	"slices"

	"github.com/cottand/trs/term"
)

// assignment binds a rule variable to the term it matched
type assignment struct {
	variable, value *term.Term
	// normal is set when value is known to be in normal form
	normal bool
}

type matcher struct {
	assignments []assignment
}

func (m *matcher) reset() {
	m.assignments = m.assignments[:0]
}

func (m *matcher) lookup(v *term.Term) (assignment, bool) {
	for _, a := range m.assignments {
		if a.variable == v {
			return a, true
		}
	}
	return assignment{}, false
}

// matchArguments matches the leading arguments of a term against patterns, using the
// normal form of an argument where it was computed and the raw argument otherwise
func (m *matcher) matchArguments(args, rewritten, patterns []*term.Term) bool {
	for i, pattern := range patterns {
		arg, normal := args[i], false
		if rewritten[i] != nil {
			arg, normal = rewritten[i], true
		}
		if !m.match(arg, pattern, normal) {
			return false
		}
	}
	return true
}

// match extends m so that pattern instantiated by m is t
func (m *matcher) match(t, pattern *term.Term, normal bool) bool {
	switch pattern.Kind() {
	case term.KindSymbol:
		return t == pattern
	case term.KindVariable:
		if a, ok := m.lookup(pattern); ok {
			return a.value == t
		}
		m.assignments = append(m.assignments, assignment{variable: pattern, value: t, normal: normal})
		return true
	case term.KindApplication:
		if !t.IsApplication() || t.Arity() != pattern.Arity() {
			return false
		}
		// a pattern application only meets arguments that were evaluated first
		if !m.match(t.Head(), pattern.Head(), true) {
			return false
		}
		for i, p := range pattern.Args() {
			if !m.match(t.Arg(i), p, true) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("%v '%v' used as a pattern", pattern.Kind(), pattern))
	}
}

// binds reports whether a variable m assigns occurs free in t
func (m *matcher) binds(t *term.Term) bool {
	free := term.FreeVariables(t)
	if free.Empty() {
		return false
	}
	for _, a := range m.assignments {
		if free.Contains(a.variable) {
			return true
		}
	}
	return false
}

// substValues instantiates t with the assignments of m. Values known to be
// in normal form are marked, so that rewriting the instance skips them.
// Bound variables of t that clash with an assigned variable, or with a
// variable free in an assigned value, are renamed first.
func (r *Rewriter) substValues(m *matcher, t *term.Term) *term.Term {
	if !m.binds(t) {
		return t
	}
	switch t.Kind() {
	case term.KindVariable:
		a, _ := m.lookup(t)
		if a.normal {
			return r.store.Normalised(a.value)
		}
		return a.value
	case term.KindApplication:
		args := make([]*term.Term, t.Arity())
		for i, arg := range t.Args() {
			args[i] = r.substValues(m, arg)
		}
		return r.store.Apply(r.substValues(m, t.Head()), args...)
	case term.KindAbstraction:
		vars, body := r.renameClashing(m, t.Vars(), t.Body())
		return r.store.Abstract(t.Binder(), vars, r.substValues(m, body))
	case term.KindWhere:
		assignments := make([]term.Assignment, 0, t.NumAssignments())
		var whereVars []*term.Term
		for v, value := range t.Assignments() {
			whereVars = append(whereVars, v)
			assignments = append(assignments, term.Assignment{Var: v, Value: r.substValues(m, value)})
		}
		vars, body := r.renameClashing(m, whereVars, t.Body())
		for i, v := range vars {
			assignments[i].Var = v
		}
		return r.store.Where(r.substValues(m, body), assignments...)
	default:
		panic(fmt.Sprintf("cannot instantiate term of kind %v", t.Kind()))
	}
}

// renameClashing renames the variables of vars bound over body that m assigns
// or that occur free in a value of m
func (r *Rewriter) renameClashing(m *matcher, vars []*term.Term, body *term.Term) ([]*term.Term, *term.Term) {
	var renaming map[*term.Term]*term.Term
	newVars := vars
	for i, v := range vars {
		if !m.clashes(v) {
			continue
		}
		if renaming == nil {
			renaming = make(map[*term.Term]*term.Term, len(vars))
			newVars = slices.Clone(vars)
		}
		fresh := r.fresh.Variable(r.store, v)
		renaming[v] = fresh
		newVars[i] = fresh
	}
	if renaming == nil {
		return vars, body
	}
	return newVars, r.store.Replace(body, renaming, r.fresh)
}

func (m *matcher) clashes(v *term.Term) bool {
	for _, a := range m.assignments {
		if a.variable == v || term.OccursFree(v, a.value) {
			return true
		}
	}
	return false
}
