package term

import "slices"

// Replace substitutes m[v] for every free occurrence of a variable v in t.
// Bound variables of t that occur free in a substituted value are renamed
// with fresh, both in the binder and in its body, so that no value is captured.
func (s *Store) Replace(t *Term, m map[*Term]*Term, fresh *Fresher) *Term {
	if len(m) == 0 {
		return t
	}
	r := replacer{store: s, m: m, fresh: fresh, cache: make(map[*Term]*Term)}
	return r.replace(t)
}

type replacer struct {
	store *Store
	m     map[*Term]*Term
	fresh *Fresher
	cache map[*Term]*Term
}

// touches reports whether some variable of the domain of r.m occurs free in t
func (r *replacer) touches(t *Term) bool {
	free := FreeVariables(t)
	if free.Size() < len(r.m) {
		for v := range free.Items() {
			if _, ok := r.m[v]; ok {
				return true
			}
		}
		return false
	}
	for v := range r.m {
		if free.Contains(v) {
			return true
		}
	}
	return false
}

func (r *replacer) replace(t *Term) *Term {
	if !r.touches(t) {
		return t
	}
	if done, ok := r.cache[t]; ok {
		return done
	}
	var result *Term
	switch t.kind {
	case KindVariable:
		result = r.m[t]
	case KindNormalised:
		result = r.store.Normalised(r.replace(t.head))
	case KindApplication:
		args := make([]*Term, len(t.args))
		for i, a := range t.args {
			args[i] = r.replace(a)
		}
		result = r.store.Apply(r.replace(t.head), args...)
	case KindAbstraction:
		vars, body := r.underBinder(t.vars, t.head)
		result = r.store.Abstract(t.binder, vars, body)
	case KindWhere:
		vars, body := r.underBinder(t.vars, t.head)
		assignments := make([]Assignment, len(vars))
		for i, v := range vars {
			assignments[i] = Assignment{Var: v, Value: r.replace(t.args[i])}
		}
		result = r.store.Where(body, assignments...)
	default:
		panic("unexpected term kind " + t.kind.String())
	}
	r.cache[t] = result
	return result
}

func (r *replacer) underBinder(vars []*Term, body *Term) ([]*Term, *Term) {
	inner := make(map[*Term]*Term, len(r.m))
	for v, value := range r.m {
		if !slices.Contains(vars, v) {
			inner[v] = value
		}
	}
	newVars, cloned := vars, false
	for i, v := range vars {
		captured := false
		for _, value := range inner {
			if OccursFree(v, value) {
				captured = true
				break
			}
		}
		if !captured {
			continue
		}
		if !cloned {
			newVars, cloned = slices.Clone(vars), true
		}
		renamed := r.fresh.Variable(r.store, v)
		newVars[i] = renamed
		inner[v] = renamed
	}
	if len(inner) == 0 {
		return newVars, body
	}
	sub := replacer{store: r.store, m: inner, fresh: r.fresh, cache: make(map[*Term]*Term)}
	return newVars, sub.replace(body)
}

// Strip removes every KindNormalised marker from t
func (s *Store) Strip(t *Term) *Term {
	if !HasMarker(t) {
		return t
	}
	return s.strip(t, make(map[*Term]*Term))
}

func (s *Store) strip(t *Term, cache map[*Term]*Term) *Term {
	if done, ok := cache[t]; ok {
		return done
	}
	var result *Term
	switch t.kind {
	case KindSymbol, KindVariable:
		result = t
	case KindNormalised:
		result = s.strip(t.head, cache)
	case KindApplication:
		args := make([]*Term, len(t.args))
		for i, a := range t.args {
			args[i] = s.strip(a, cache)
		}
		result = s.Apply(s.strip(t.head, cache), args...)
	case KindAbstraction:
		result = s.Abstract(t.binder, t.vars, s.strip(t.head, cache))
	case KindWhere:
		assignments := make([]Assignment, len(t.vars))
		for i, v := range t.vars {
			assignments[i] = Assignment{Var: v, Value: s.strip(t.args[i], cache)}
		}
		result = s.Where(s.strip(t.head, cache), assignments...)
	default:
		panic("unexpected term kind " + t.kind.String())
	}
	cache[t] = result
	return result
}
