package frontend

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/cottand/trs/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peanoFile = `
variables:
  x: Nat
  y: Nat
sorts:
  Color: [red, green]
equations:
  - name: plus-zero
    lhs: x + 0
    rhs: x
  - name: plus-succ
    lhs: x + succ(y)
    rhs: succ(x + y)
  - name: guarded
    lhs: half(x)
    condition: even(x)
    rhs: x
eval:
  - term: "2 + 1"
    expect: "3"
  - term: half(y)
`

func TestLoad(t *testing.T) {
	store := term.NewStore(term.Settings{})
	rf, err := Load(store, []byte(peanoFile), LoadSettings{})
	require.NoError(t, err)

	x := store.Var("x", term.NatSort)
	y := store.Var("y", term.NatSort)
	plus := store.Op("+", 2)
	succ := store.Op(term.NumeralSucc, 1)

	require.Len(t, rf.Equations, 3)
	assert.Equal(t, "plus-zero", rf.Equations[0].Name)
	assert.Same(t, store.Apply(plus, x, store.Numeral(0)), rf.Equations[0].Lhs)
	assert.Same(t, x, rf.Equations[0].Rhs)
	assert.Nil(t, rf.Equations[0].Condition)
	assert.Same(t, store.Apply(succ, store.Apply(plus, x, y)), rf.Equations[1].Rhs)
	assert.Same(t, store.Apply(store.Op("even", 1), x), rf.Equations[2].Condition)

	require.Len(t, rf.Evaluations, 2)
	assert.Equal(t, "2 + 1", rf.Evaluations[0].Source)
	assert.Same(t, store.Numeral(3), rf.Evaluations[0].Expect)
	assert.Nil(t, rf.Evaluations[1].Expect)

	assert.Equal(t, []*term.Term{store.Const("red"), store.Const("green")}, rf.Domains["Color"])
	sort, ok := rf.Scope.Variable("y")
	assert.True(t, ok)
	assert.Equal(t, term.NatSort, sort)
}

func TestLoadKeepsMissingSides(t *testing.T) {
	store := term.NewStore(term.Settings{})
	rf, err := Load(store, []byte(`
equations:
  - name: no-rhs
    lhs: f(a)
`), LoadSettings{})
	require.NoError(t, err)
	require.Len(t, rf.Equations, 1)
	assert.Nil(t, rf.Equations[0].Rhs)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"not yaml", "equations: [\n"},
		{"empty variable sort", "variables:\n  x: \"\"\n"},
		{"negative arity", "functions:\n  f: -1\n"},
		{"empty constant", "sorts:\n  Color: [\"\"]\n"},
		{"eval without term", "eval:\n  - expect: a\n"},
		{"bad lhs", "equations:\n  - lhs: f(\n    rhs: a\n"},
		{"bad expect", "eval:\n  - term: a\n    expect: \"b +\"\n"},
		{"redeclared Bool", "sorts:\n  Bool: [yes, no]\n"},
		{"constant is a variable", "variables:\n  red: Color\nsorts:\n  Color: [red]\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := term.NewStore(term.Settings{})
			_, err := Load(store, []byte(test.file), LoadSettings{})
			assert.Error(t, err)
		})
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"rules/peano.yaml": &fstest.MapFile{Data: []byte(peanoFile)},
	}
	store := term.NewStore(term.Settings{})
	rf, err := LoadFS(store, fsys, "rules/peano.yaml", LoadSettings{})
	require.NoError(t, err)
	assert.Len(t, rf.Equations, 3)

	_, err = LoadFS(store, fsys, "rules/missing.yaml", LoadSettings{})
	assert.ErrorContains(t, err, "read rule file")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peano.yaml")
	require.NoError(t, os.WriteFile(path, []byte(peanoFile), 0o644))

	store := term.NewStore(term.Settings{})
	rf, err := LoadFile(store, path, LoadSettings{})
	require.NoError(t, err)
	assert.Len(t, rf.Evaluations, 2)

	_, err = LoadFile(store, filepath.Join(t.TempDir(), "missing.yaml"), LoadSettings{})
	assert.Error(t, err)
}
