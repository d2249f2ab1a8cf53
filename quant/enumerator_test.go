package quant

import (
	"testing"

	"github.com/cottand/trs/rewrite"
	"github.com/cottand/trs/strategy"
	"github.com/cottand/trs/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const colorSort term.Sort = "Color"

type logic struct {
	s                *term.Store
	b, c             *term.Term
	and, or, not     *term.Term
	pick             *term.Term
	red, green, blue *term.Term
	color, isBlue    *term.Term
	enumerator       *Enumerator
	rewriter         *rewrite.Rewriter
}

// newLogic builds boolean connectives and colors; extra adds equations over the store of l
func newLogic(t *testing.T, extra ...func(l *logic) strategy.Equation) *logic {
	s := term.NewStore(term.Settings{})
	l := &logic{
		s:      s,
		b:      s.Var("b", term.BoolSort),
		c:      s.Var("c", term.BoolSort),
		and:    s.Op("&&", 2),
		or:     s.Op("||", 2),
		not:    s.Op("!", 1),
		pick:   s.Op("pick", 3),
		red:    s.Const("red"),
		green:  s.Const("green"),
		blue:   s.Const("blue"),
		color:  s.Var("k", colorSort),
		isBlue: s.Op("isBlue", 1),
	}
	tt, ff := s.True(), s.False()
	x, y := s.Var("x", term.BoolSort), s.Var("y", term.BoolSort)
	equations := []strategy.Equation{
		{Lhs: s.Apply(l.and, tt, l.b), Rhs: l.b},
		{Lhs: s.Apply(l.and, ff, l.b), Rhs: ff},
		{Lhs: s.Apply(l.or, tt, l.b), Rhs: tt},
		{Lhs: s.Apply(l.or, ff, l.b), Rhs: l.b},
		{Lhs: s.Apply(l.not, tt), Rhs: ff},
		{Lhs: s.Apply(l.not, ff), Rhs: tt},
		{Lhs: s.Apply(l.pick, tt, x, y), Rhs: x},
		{Lhs: s.Apply(l.pick, ff, x, y), Rhs: y},
		{Lhs: s.Apply(l.isBlue, l.blue), Rhs: tt},
		{Lhs: s.Apply(l.isBlue, l.red), Rhs: ff},
		{Lhs: s.Apply(l.isBlue, l.green), Rhs: ff},
	}
	for _, equation := range extra {
		equations = append(equations, equation(l))
	}
	l.enumerator = NewEnumerator(s, map[term.Sort][]*term.Term{colorSort: {l.red, l.green, l.blue}}, nil)
	r, errs := rewrite.New(s, equations, rewrite.Settings{Quantifiers: l.enumerator})
	require.False(t, errs.HasError())
	l.rewriter = r
	return l
}

func TestEnumerator(t *testing.T) {
	l := newLogic(t)
	s := l.s
	vars := func(vs ...*term.Term) []*term.Term { return vs }

	testCases := []struct {
		name     string
		input    *term.Term
		expected *term.Term
	}{
		{
			name:     "excluded middle",
			input:    s.Forall(vars(l.b), s.Apply(l.or, l.b, s.Apply(l.not, l.b))),
			expected: s.True(),
		},
		{
			name:     "exists a false instance",
			input:    s.Exists(vars(l.b), s.Apply(l.not, l.b)),
			expected: s.True(),
		},
		{
			name:     "not every boolean is true",
			input:    s.Forall(vars(l.b), l.b),
			expected: s.False(),
		},
		{
			name:     "residual free variable",
			input:    s.Exists(vars(l.b), s.Apply(l.and, l.b, l.c)),
			expected: l.c,
		},
		{
			name:     "some color is blue",
			input:    s.Exists(vars(l.color), s.Apply(l.isBlue, l.color)),
			expected: s.True(),
		},
		{
			name:     "not every color is blue",
			input:    s.Forall(vars(l.color), s.Apply(l.isBlue, l.color)),
			expected: s.False(),
		},
		{
			name:     "two variables",
			input:    s.Forall(vars(l.b, l.color), s.Apply(l.or, l.b, s.Apply(l.not, l.b))),
			expected: s.True(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sigma := term.NewSubstitution(s)
			assert.Same(t, tc.expected, l.rewriter.Rewrite(tc.input, sigma))
			assert.Equal(t, 0, sigma.Depth())
			assert.True(t, sigma.Empty())
		})
	}
}

func TestEnumeratorCombinesResiduals(t *testing.T) {
	l := newLogic(t)
	s := l.s
	d := s.Var("d", term.BoolSort)
	// b = true gives c, b = false gives d
	body := s.Apply(l.pick, l.b, l.c, d)

	result := l.rewriter.Rewrite(s.Forall([]*term.Term{l.b}, body), nil)
	assert.Same(t, s.Apply(l.and, l.c, d), result)
}

func TestEnumeratorFallsBack(t *testing.T) {
	l := newLogic(t)
	s := l.s
	n := s.Var("n", term.NatSort)
	f := s.Op("f", 1)

	result := l.rewriter.Rewrite(s.Exists([]*term.Term{n}, s.Apply(f, n)), nil)
	assert.Same(t, s.Exists([]*term.Term{n}, s.Apply(f, n)), result)

	l.enumerator.MaxCombinations = 2
	result = l.rewriter.Rewrite(s.Forall([]*term.Term{l.b, l.c}, s.Apply(l.or, l.b, l.c)), nil)
	assert.True(t, result.IsQuantifier(), "got %v", result)
}

func TestEnumeratorUsesSigma(t *testing.T) {
	l := newLogic(t)
	s := l.s
	sigma := term.NewSubstitution(s)
	sigma.Set(l.c, s.False())

	result := l.rewriter.Rewrite(s.Exists([]*term.Term{l.b}, s.Apply(l.and, l.b, l.c)), sigma)
	assert.Same(t, s.False(), result)
}

func TestEnumeratorKeepsNormalForms(t *testing.T) {
	l := newLogic(t, func(l *logic) strategy.Equation {
		s := l.s
		v := s.Var("v", "Thing")
		// h(v, v) = exists k. paint(v, k)
		return strategy.Equation{
			Lhs: s.Apply(s.Op("h", 2), v, v),
			Rhs: s.Exists([]*term.Term{l.color}, s.Apply(s.Op("paint", 2), v, l.color)),
		}
	})
	s := l.s
	tx := s.Var("x", "Thing")
	gx := s.Apply(s.Op("g", 1), tx)
	input := s.Apply(s.Op("h", 2), tx, tx)
	painted := func(color *term.Term) *term.Term { return s.Apply(s.Op("paint", 2), gx, color) }
	expected := s.Apply(l.or, s.Apply(l.or, painted(l.red), painted(l.green)), painted(l.blue))

	t.Run("substitution", func(t *testing.T) {
		sigma := term.NewSubstitution(s)
		sigma.Set(tx, gx)
		result := l.rewriter.Rewrite(input, sigma)
		assert.Same(t, expected, result, "got %v", result)
		assert.Equal(t, 0, sigma.Depth())
	})
	t.Run("where", func(t *testing.T) {
		result := l.rewriter.Rewrite(s.Where(input, term.Assignment{Var: tx, Value: gx}), nil)
		assert.Same(t, expected, result, "got %v", result)
	})
}

func TestEnumeratorClose(t *testing.T) {
	l := newLogic(t)
	s := l.s
	purple := s.Const("purple")
	e := NewEnumerator(s, map[term.Sort][]*term.Term{"Extra": {purple}}, nil)
	s.Collect()
	assert.True(t, s.Alive(purple))
	_, ok := e.Domain("Extra")
	assert.True(t, ok)

	e.Close()
	s.Collect()
	assert.False(t, s.Alive(purple))
}
