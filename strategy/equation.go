package strategy

import (
	"cmp"
	"slices"

	"github.com/cottand/trs/rwerr"
	"github.com/cottand/trs/term"
	"github.com/hashicorp/go-set/v3"
)

// Equation is the conditional rewrite rule `Condition -> Lhs = Rhs`
type Equation struct {
	// Name is optional and only used in diagnostics
	Name string
	Lhs  *term.Term
	// Condition may be nil, which stands for true
	Condition *term.Term
	Rhs       *term.Term
}

// Identity names the equation in diagnostics
func (e Equation) Identity() string {
	if e.Name != "" {
		return e.Name
	}
	if e.Lhs == nil {
		return "<equation without lhs>"
	}
	return e.Lhs.String()
}

func (e Equation) String() string {
	s := e.Lhs.String() + " = " + e.Rhs.String()
	if e.Condition != nil {
		s = e.Condition.String() + " -> " + s
	}
	if e.Name != "" {
		s = e.Name + ": " + s
	}
	return s
}

// Check returns why e cannot be used as a rewrite rule, or nil when it can
func Check(e Equation) rwerr.RuleError {
	name := e.Identity()
	if e.Lhs == nil {
		return rwerr.New(rwerr.NewMissingSide{EqName: name, Side: "left-hand side"})
	}
	if e.Rhs == nil {
		return rwerr.New(rwerr.NewMissingSide{EqName: name, Side: "right-hand side"})
	}
	if term.HasMarker(e.Lhs) || term.HasMarker(e.Rhs) || e.Condition != nil && term.HasMarker(e.Condition) {
		return rwerr.New(rwerr.NewMarkerInEquation{EqName: name})
	}
	if head := term.NestedHead(e.Lhs); !head.IsSymbol() {
		return rwerr.New(rwerr.NewHeadNotSymbol{EqName: name, Head: head})
	}
	if binder := findBinder(e.Lhs); binder != nil {
		return rwerr.New(rwerr.NewBinderInPattern{EqName: name, Pattern: binder})
	}
	lhsVars := term.FreeVariables(e.Lhs)
	bound := set.New[*term.Term](lhsVars.Size())
	bound.InsertSet(lhsVars)
	if e.Condition != nil {
		if v := firstMissing(term.FreeVariables(e.Condition), lhsVars); v != nil {
			return rwerr.New(rwerr.NewUnboundConditionVariable{EqName: name, Var: v})
		}
		bound.InsertSet(term.FreeVariables(e.Condition))
	}
	if v := firstMissing(term.FreeVariables(e.Rhs), bound); v != nil {
		return rwerr.New(rwerr.NewUnboundRhsVariable{EqName: name, Var: v})
	}
	return nil
}

// findBinder returns an abstraction or where clause inside pattern, if any
func findBinder(pattern *term.Term) *term.Term {
	switch pattern.Kind() {
	case term.KindSymbol, term.KindVariable:
		return nil
	case term.KindApplication:
		if found := findBinder(pattern.Head()); found != nil {
			return found
		}
		for _, arg := range pattern.Args() {
			if found := findBinder(arg); found != nil {
				return found
			}
		}
		return nil
	default:
		return pattern
	}
}

// firstMissing returns the variable of vars that is not in allowed with the
// smallest name, so that diagnostics do not depend on set iteration order
func firstMissing(vars, allowed *set.Set[*term.Term]) *term.Term {
	var missing []*term.Term
	for v := range vars.Items() {
		if !allowed.Contains(v) {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return slices.MinFunc(missing, func(a, b *term.Term) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.Sort(), b.Sort()))
	})
}
