package term

import "slices"

// NestedHead returns the head of a (possibly curried) application f(a)(b)...,
// or t itself when t is not an application
func NestedHead(t *Term) *Term {
	for t.kind == KindApplication {
		t = t.head
	}
	return t
}

// NestedArity is the number of arguments of t across all application levels,
// so f(a, b)(c) has nested arity 3
func NestedArity(t *Term) int {
	n := 0
	for ; t.kind == KindApplication; t = t.head {
		n += len(t.args)
	}
	return n
}

// Flatten appends the arguments of all application levels of t to args, innermost
// level first, and the number of arguments of each level to levels.
// For f(a, b)(c) it appends [a b c] and [2 1].
func Flatten(t *Term, args []*Term, levels []int) ([]*Term, []int) {
	depth, count := 0, 0
	for h := t; h.kind == KindApplication; h = h.head {
		depth++
		count += len(h.args)
	}
	levelStart := len(levels)
	levels = slices.Grow(levels, depth)[:levelStart+depth]
	argStart := len(args)
	args = slices.Grow(args, count)[:argStart+count]

	level, pos := levelStart+depth, argStart+count
	for h := t; h.kind == KindApplication; h = h.head {
		level--
		pos -= len(h.args)
		levels[level] = len(h.args)
		copy(args[pos:], h.args)
	}
	return args, levels
}

// Unflatten rebuilds head(args[0:levels[0]])(...)... and is the inverse of Flatten
func (s *Store) Unflatten(head *Term, args []*Term, levels []int) *Term {
	result := head
	i := 0
	for _, n := range levels {
		result = s.Apply(result, args[i:i+n]...)
		i += n
	}
	if i != len(args) {
		panic("argument levels do not add up to the number of arguments")
	}
	return result
}
