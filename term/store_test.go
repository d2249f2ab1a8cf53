package term

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(threadSafe bool) *Store {
	return NewStore(Settings{ThreadSafe: threadSafe})
}

func TestIdentitySharing(t *testing.T) {
	s := newTestStore(false)
	f := s.Op("f", 2)
	a, b := s.Const("a"), s.Const("b")

	assert.Same(t, s.Apply(f, a, b), s.Apply(f, a, b))
	assert.NotSame(t, s.Apply(f, a, b), s.Apply(f, b, a))
	assert.Same(t, s.Symbol("f", 2), s.Symbol("f", 2))
	assert.NotSame(t, s.Symbol("f", 2), s.Symbol("f", 1))
	assert.Same(t, s.Var("x", NatSort), s.Var("x", NatSort))
	assert.NotSame(t, s.Var("x", NatSort), s.Var("x", BoolSort))

	x := s.Var("x", NatSort)
	assert.Same(t, s.Lambda([]*Term{x}, x), s.Lambda([]*Term{x}, x))
	assert.NotSame(t, s.Lambda([]*Term{x}, x), s.Forall([]*Term{x}, x))
	assert.Same(t, s.Normalised(a), s.Normalised(s.Normalised(a)))
}

func TestApplyContract(t *testing.T) {
	s := newTestStore(false)
	f := s.Op("f", 2)
	a := s.Const("a")

	testCases := []struct {
		name  string
		build func()
	}{
		{"wrong arity", func() { s.Apply(f, a) }},
		{"no arguments", func() { s.Apply(s.Var("g", "")) }},
		{"nil argument", func() { s.Apply(f, a, nil) }},
		{"non-variable binder", func() { s.Lambda([]*Term{a}, a) }},
		{"variable bound twice", func() { s.Lambda([]*Term{s.Var("x", ""), s.Var("x", "")}, a) }},
		{"argument out of range", func() { s.Apply(f, a, a).Arg(2) }},
		{"head of a symbol", func() { a.Head() }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Panics(t, tc.build)
		})
	}
}

func TestCollect(t *testing.T) {
	s := newTestStore(false)
	before := s.Size()

	kept := s.Apply(s.Op("f", 1), s.Const("a"))
	s.Protect(kept)
	dropped := s.Apply(s.Op("g", 1), s.Const("b"))

	collected := s.Collect()
	assert.Equal(t, 3, collected, "g(b), g and b should be collected")
	assert.True(t, s.Alive(kept))
	assert.True(t, s.Alive(kept.Arg(0)))
	assert.False(t, s.Alive(dropped))
	assert.Equal(t, before+3, s.Size())
	assert.True(t, s.Alive(s.True()))

	s.Release(kept)
	s.Collect()
	assert.False(t, s.Alive(kept))
	assert.Equal(t, before, s.Size())
	assert.Equal(t, 2, s.SymbolCount(), "only true and false remain")
}

func TestCollectRecyclesSymbolIndices(t *testing.T) {
	s := newTestStore(false)
	g := s.Symbol("g", 1)
	idx := g.Index()
	s.Collect()

	_, ok := s.SymbolAt(idx)
	assert.False(t, ok)
	h := s.Symbol("h", 3)
	assert.Equal(t, idx, h.Index())

	// g is interned again on demand
	gTerm := s.Func(g)
	assert.Equal(t, "g", gTerm.Name())
	assert.NotSame(t, g, gTerm.Symbol())
}

func TestReleaseUnderflowPanics(t *testing.T) {
	s := newTestStore(false)
	a := s.Const("a")
	assert.Panics(t, func() { s.Release(a) })
}

func TestMaybeCollect(t *testing.T) {
	s := NewStore(Settings{CollectThreshold: 8})
	assert.Zero(t, s.MaybeCollect())
	for i := range 10 {
		s.Numeral(uint64(i))
	}
	assert.Positive(t, s.MaybeCollect())
	assert.Zero(t, s.MaybeCollect())
}

func TestConcurrentInterning(t *testing.T) {
	s := newTestStore(true)
	const workers = 8
	results := make([]*Term, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plus := s.Op("+", 2)
			results[i] = s.Apply(plus, s.Numeral(20), s.Var("x", NatSort))
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestFlatten(t *testing.T) {
	s := newTestStore(false)
	f := s.Op("f", 2)
	a, b, c := s.Const("a"), s.Const("b"), s.Const("c")
	curried := s.Apply(s.Apply(f, a, b), c)

	args, levels := Flatten(curried, nil, nil)
	assert.Equal(t, []*Term{a, b, c}, args)
	assert.Equal(t, []int{2, 1}, levels)
	assert.Equal(t, 3, NestedArity(curried))
	assert.Same(t, f, NestedHead(curried))
	assert.Same(t, curried, s.Unflatten(f, args, levels))

	args, levels = Flatten(a, nil, nil)
	assert.Empty(t, args)
	assert.Empty(t, levels)
}

func TestFreeVariables(t *testing.T) {
	s := newTestStore(false)
	x, y, z := s.Var("x", ""), s.Var("y", ""), s.Var("z", "")
	f := s.Op("f", 2)

	testCases := []struct {
		name     string
		input    *Term
		expected []*Term
	}{
		{"symbol", s.Const("a"), nil},
		{"application", s.Apply(f, x, y), []*Term{x, y}},
		{"lambda binds", s.Lambda([]*Term{x}, s.Apply(f, x, y)), []*Term{y}},
		{"where binds body only", s.Where(s.Apply(f, x, z), Assignment{Var: x, Value: y}), []*Term{y, z}},
		{"where value sees outer", s.Where(z, Assignment{Var: x, Value: x}), []*Term{x, z}},
		{"marker", s.Normalised(x), []*Term{x}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ElementsMatch(t, tc.expected, FreeVariables(tc.input).Slice())
		})
	}
	assert.True(t, IsClosed(s.Lambda([]*Term{x}, x)))
	assert.True(t, OccursFree(y, s.Lambda([]*Term{x}, y)))
}

func TestReplaceAvoidsCapture(t *testing.T) {
	s := newTestStore(false)
	x, y := s.Var("x", ""), s.Var("y", "")
	// lambda(y, x)[x := y] must not become lambda(y, y)
	replaced := s.Replace(s.Lambda([]*Term{y}, x), map[*Term]*Term{x: y}, NewFresher())

	require.True(t, replaced.IsLambda())
	bound := replaced.Vars()[0]
	assert.NotSame(t, y, bound)
	assert.Same(t, y, replaced.Body())
	assert.Equal(t, "y@0", bound.Name())
}

func TestReplaceRespectsBinders(t *testing.T) {
	s := newTestStore(false)
	x := s.Var("x", "")
	f := s.Op("f", 2)
	a := s.Const("a")
	input := s.Apply(f, x, s.Lambda([]*Term{x}, x))

	assert.Same(t, s.Apply(f, a, s.Lambda([]*Term{x}, x)), s.Replace(input, map[*Term]*Term{x: a}, NewFresher()))
}

func TestStrip(t *testing.T) {
	s := newTestStore(false)
	f := s.Op("f", 1)
	a := s.Const("a")
	marked := s.Apply(f, s.Normalised(a))

	assert.True(t, HasMarker(marked))
	assert.Same(t, s.Apply(f, a), s.Strip(marked))
	assert.False(t, HasMarker(s.Strip(marked)))
}

func TestHasMarker(t *testing.T) {
	s := newTestStore(false)
	x := s.Var("x", "")
	f := s.Op("f", 2)
	a := s.Const("a")
	marker := s.Normalised(a)

	testCases := []struct {
		name     string
		input    *Term
		expected bool
	}{
		{"marker", marker, true},
		{"argument", s.Apply(f, x, marker), true},
		{"lambda body", s.Lambda([]*Term{x}, s.Apply(f, x, marker)), true},
		{"where value", s.Where(x, Assignment{Var: x, Value: marker}), true},
		{"where body", s.Where(s.Apply(f, x, marker), Assignment{Var: x, Value: a}), true},
		{"sibling", s.Apply(f, x, a), false},
		{"quantifier", s.Exists([]*Term{x}, s.Apply(f, x, x)), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, HasMarker(tc.input))
		})
	}

	deep := marker
	for range 1000 {
		deep = s.Apply(f, deep, deep)
	}
	assert.True(t, HasMarker(deep))
	assert.Zero(t, testing.AllocsPerRun(10, func() { HasMarker(deep) }))
}

func TestNumerals(t *testing.T) {
	s := newTestStore(false)
	n, ok := AsNumeral(s.Numeral(6))
	assert.True(t, ok)
	assert.Equal(t, uint64(6), n)

	_, ok = AsNumeral(s.Apply(s.Op("succ", 1), s.Const("a")))
	assert.False(t, ok)
}

func TestFresher(t *testing.T) {
	s := newTestStore(false)
	fresh := NewFresher()
	taken := s.Var("x@0", NatSort)

	v := fresh.Variable(s, s.Var("x@7", NatSort))
	assert.NotSame(t, taken, v)
	assert.Equal(t, "x@1", v.Name())
	assert.Equal(t, NatSort, v.Sort())
	assert.Equal(t, "v@2", fresh.Name(""))
}
