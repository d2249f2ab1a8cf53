package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShow(t *testing.T) {
	s := newTestStore(false)
	x, y := s.Var("x", ""), s.Var("y", "")
	plus, times := s.Op("+", 2), s.Op("*", 2)
	minus := s.Op("-", 2)
	neg := s.Op("-", 1)
	f := s.Op("f", 2)

	testCases := []struct {
		input    *Term
		expected string
	}{
		{s.Numeral(3), "3"},
		{s.Apply(plus, x, s.Apply(times, y, s.Numeral(2))), "x + y * 2"},
		{s.Apply(times, s.Apply(plus, x, y), y), "(x + y) * y"},
		{s.Apply(minus, x, s.Apply(minus, y, x)), "x - (y - x)"},
		{s.Apply(minus, s.Apply(minus, x, y), x), "x - y - x"},
		{s.Apply(neg, s.Apply(plus, x, y)), "-(x + y)"},
		{s.Apply(s.Apply(f, x, y), x), "f(x, y)(x)"},
		{s.Apply(s.Op("succ", 1), x), "succ(x)"},
		{s.Lambda([]*Term{x}, s.Apply(plus, x, s.Numeral(1))), "lambda(x, x + 1)"},
		{s.Apply(s.Lambda([]*Term{x}, x), y), "(lambda(x, x))(y)"},
		{s.Exists([]*Term{x, y}, s.Apply(f, x, y)), "exists(x, y, f(x, y))"},
		{s.Where(s.Apply(plus, x, y), Assignment{Var: x, Value: s.Numeral(0)}), "where(x + y, x, 0)"},
		{s.Normalised(x), "x"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, Show(tc.input))
		})
	}
}
