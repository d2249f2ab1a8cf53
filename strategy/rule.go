package strategy

import (
	"github.com/cottand/trs/term"
)

// Rule is an Equation prepared for matching against the flattened
// arguments of a (possibly curried) application of its head symbol
type Rule struct {
	Equation
	Head *term.Symbol
	// Patterns are the arguments of all application levels of the left-hand side,
	// innermost level first
	Patterns []*term.Term
	// Levels are the number of arguments of each application level of the left-hand side
	Levels []int
	// Needs are the argument positions that must be in normal form before
	// the rule can be matched, in increasing order
	Needs        []int
	NumVariables int
	// trivialCondition is set when the condition is absent or syntactically true
	trivialCondition bool
}

func (r *Rule) Arity() int { return len(r.Patterns) }

// TrivialCondition reports whether the condition need not be evaluated
func (r *Rule) TrivialCondition() bool { return r.trivialCondition }

// FitsLevels reports whether the application levels of the left-hand side
// are a prefix of levels, the application levels of a term
func (r *Rule) FitsLevels(levels []int) bool {
	if len(r.Levels) > len(levels) {
		return false
	}
	for i, n := range r.Levels {
		if levels[i] != n {
			return false
		}
	}
	return true
}

func compileRule(store *term.Store, e Equation) *Rule {
	patterns, levels := term.Flatten(e.Lhs, nil, nil)
	r := &Rule{
		Equation:         e,
		Head:             term.NestedHead(e.Lhs).Symbol(),
		Patterns:         patterns,
		Levels:           levels,
		NumVariables:     term.FreeVariables(e.Lhs).Size(),
		trivialCondition: e.Condition == nil || e.Condition == store.True(),
	}

	occurrences := make(map[*term.Term]int, r.NumVariables)
	for _, p := range patterns {
		countOccurrences(p, occurrences)
	}
	for i, p := range patterns {
		// a variable that occurs once matches anything, so its argument can stay unevaluated
		if p.IsVariable() && occurrences[p] == 1 {
			continue
		}
		r.Needs = append(r.Needs, i)
	}
	return r
}

func countOccurrences(pattern *term.Term, into map[*term.Term]int) {
	switch pattern.Kind() {
	case term.KindVariable:
		into[pattern]++
	case term.KindApplication:
		countOccurrences(pattern.Head(), into)
		for _, arg := range pattern.Args() {
			countOccurrences(arg, into)
		}
	}
}
