package term

import (
	"github.com/hashicorp/go-set/v3"
)

var noVariables = set.New[*Term](0)

// FreeVariables returns the variables occurring free in t.
// The result is cached on t and shared, so it must not be modified.
func FreeVariables(t *Term) *set.Set[*Term] {
	if cached := t.free.Load(); cached != nil {
		return cached
	}
	free := computeFree(t)
	// a concurrent computation may have won, both results are equal
	t.free.CompareAndSwap(nil, free)
	return t.free.Load()
}

func computeFree(t *Term) *set.Set[*Term] {
	switch t.kind {
	case KindSymbol:
		return noVariables
	case KindVariable:
		return set.From([]*Term{t})
	case KindNormalised:
		return FreeVariables(t.head)
	case KindApplication:
		headFree := FreeVariables(t.head)
		if allClosed(t.args) {
			return headFree
		}
		free := set.New[*Term](headFree.Size())
		free.InsertSet(headFree)
		for _, a := range t.args {
			free.InsertSet(FreeVariables(a))
		}
		return free
	case KindAbstraction:
		bodyFree := FreeVariables(t.head)
		if bodyFree.Empty() {
			return noVariables
		}
		free := set.New[*Term](bodyFree.Size())
		for v := range bodyFree.Items() {
			if !containsTerm(t.vars, v) {
				free.Insert(v)
			}
		}
		return free
	case KindWhere:
		free := set.New[*Term](0)
		for v := range FreeVariables(t.head).Items() {
			if !containsTerm(t.vars, v) {
				free.Insert(v)
			}
		}
		for _, value := range t.args {
			free.InsertSet(FreeVariables(value))
		}
		return free
	default:
		panic("unexpected term kind " + t.kind.String())
	}
}

func allClosed(ts []*Term) bool {
	for _, t := range ts {
		if !FreeVariables(t).Empty() {
			return false
		}
	}
	return true
}

func containsTerm(ts []*Term, t *Term) bool {
	for _, candidate := range ts {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsClosed reports whether t has no free variables
func IsClosed(t *Term) bool {
	return FreeVariables(t).Empty()
}

// OccursFree reports whether the variable v occurs free in t
func OccursFree(v, t *Term) bool {
	return FreeVariables(t).Contains(v)
}

// HasMarker reports whether a KindNormalised marker occurs anywhere in t
func HasMarker(t *Term) bool {
	return t.marked
}
