package frontend

import (
	"testing"

	"github.com/cottand/trs/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() *Scope {
	scope := NewScope()
	scope.DeclareVariable("x", term.NatSort)
	scope.DeclareVariable("y", term.NatSort)
	scope.DeclareVariable("b", term.BoolSort)
	return scope
}

func TestParseTerm(t *testing.T) {
	store := term.NewStore(term.Settings{})
	x := store.Var("x", term.NatSort)
	y := store.Var("y", term.NatSort)
	plus := store.Op("+", 2)
	f1 := store.Op("f", 1)

	tests := []struct {
		src      string
		expected *term.Term
	}{
		{"x", x},
		{"c", store.Const("c")},
		{"true", store.True()},
		{"2", store.Numeral(2)},
		{"(x)", x},
		{"x + y", store.Apply(plus, x, y)},
		{"!b", store.Apply(store.Op("!", 1), store.Var("b", term.BoolSort))},
		{"f(x)", store.Apply(f1, x)},
		{"f(x)(y, 0)", store.Apply(store.Apply(f1, x), y, store.Numeral(0))},
		{"lambda(x, x + 1)", store.Lambda([]*term.Term{x}, store.Apply(plus, x, store.Numeral(1)))},
		{"forall(z.(Nat), z)", store.Forall([]*term.Term{store.Var("z", term.NatSort)}, store.Var("z", term.NatSort))},
		{"exists(z.(Bool), z && b)", store.Exists(
			[]*term.Term{store.Var("z", term.BoolSort)},
			store.Apply(store.Op("&&", 2), store.Var("z", term.BoolSort), store.Var("b", term.BoolSort)),
		)},
		{"where(x + y, x, 0)", store.Where(store.Apply(plus, x, y), term.Assignment{Var: x, Value: store.Numeral(0)})},
		{"(lambda(x, x))(y)", store.Apply(store.Lambda([]*term.Term{x}, x), y)},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			got, err := ParseTerm(store, testScope(), test.src)
			require.NoError(t, err)
			assert.Same(t, test.expected, got, "got %v", got)
		})
	}
}

func TestParseTermBinderScopes(t *testing.T) {
	store := term.NewStore(term.Settings{})
	// z is only a variable inside the lambda
	got, err := ParseTerm(store, testScope(), "g(lambda(z.(Nat), z), z)")
	require.NoError(t, err)

	z := store.Var("z", term.NatSort)
	expected := store.Apply(store.Op("g", 2), store.Lambda([]*term.Term{z}, z), store.Const("z"))
	assert.Same(t, expected, got)
}

func TestParseTermWhereValuesUseOuterScope(t *testing.T) {
	store := term.NewStore(term.Settings{})
	got, err := ParseTerm(store, testScope(), "where(z, z.(Nat), z)")
	require.NoError(t, err)

	z := store.Var("z", term.NatSort)
	expected := store.Where(z, term.Assignment{Var: z, Value: store.Const("z")})
	assert.Same(t, expected, got)
}

func TestParseTermSymbolArity(t *testing.T) {
	store := term.NewStore(term.Settings{})
	scope := testScope()
	scope.DeclareFunction("h", 2)

	got, err := ParseTerm(store, scope, "apply(h, x)")
	require.NoError(t, err)
	assert.Same(t, store.Apply(store.Op("apply", 2), store.Op("h", 2), store.Var("x", term.NatSort)), got)

	// after being called with one argument, a bare g is g/1
	got, err = ParseTerm(store, scope, "k(g(x), g)")
	require.NoError(t, err)
	g := store.Op("g", 1)
	assert.Same(t, store.Apply(store.Op("k", 2), store.Apply(g, store.Var("x", term.NatSort)), g), got)
}

func TestParseTermErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "f(x"},
		{"string literal", `f("a")`},
		{"no arguments", "f()"},
		{"bare keyword", "lambda"},
		{"binder without body", "lambda(x)"},
		{"binder over a term", "forall(f(x), x)"},
		{"bound twice", "lambda(x, x, x)"},
		{"where without value", "where(x, x)"},
		{"where assigns twice", "where(x, x, 0, x, 1)"},
		{"unsupported operator", "&x"},
		{"selector", "a.b"},
		{"wrong arity", "(f)(x, y)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := term.NewStore(term.Settings{})
			scope := testScope()
			scope.DeclareFunction("f", 1)
			_, err := ParseTerm(store, scope, test.src)
			assert.Error(t, err)
		})
	}
}

func TestParseTermRoundTrip(t *testing.T) {
	store := term.NewStore(term.Settings{})
	for _, src := range []string{
		"x + y * 2",
		"(x + y) * y",
		"f(x, y)(x)",
		"lambda(x, x + 1)",
		"where(x + y, x, 0)",
	} {
		t.Run(src, func(t *testing.T) {
			parsed, err := ParseTerm(store, testScope(), src)
			require.NoError(t, err)
			again, err := ParseTerm(store, testScope(), term.Show(parsed))
			require.NoError(t, err)
			assert.Same(t, parsed, again)
		})
	}
}
