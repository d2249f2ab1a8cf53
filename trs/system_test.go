package trs

import (
	"context"
	"testing"

	"github.com/cottand/trs/frontend"
	"github.com/cottand/trs/rwerr"
	"github.com/cottand/trs/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peano = `
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
  - name: bad
    lhs: x
    rhs: y
eval:
  - term: "1 + 1"
    expect: "2"
  - term: "2 + 2"
    expect: "5"
  - term: "0 + 3"
`

func TestNewSystemFromBytes(t *testing.T) {
	sys, err := NewSystemFromBytes([]byte(peano), "peano.yaml", Settings{})
	require.NoError(t, err)
	defer sys.Close()

	require.Equal(t, 1, sys.Errors().Len())
	assert.Equal(t, rwerr.HeadNotSymbol, sys.Errors().Errors()[0].Code())
	assert.Equal(t, "bad", sys.Errors().Errors()[0].Equation())

	nf, err := sys.Eval("2 + 3")
	require.NoError(t, err)
	assert.Same(t, sys.Store.Numeral(5), nf)

	_, err = sys.Eval("2 +")
	assert.Error(t, err)

	values, ok := sys.Enumerator.Domain("Color")
	assert.True(t, ok)
	assert.Len(t, values, 2)
}

func TestLoadSystemErrors(t *testing.T) {
	_, err := NewSystemFromBytes([]byte("variables: [x]"), "broken.yaml", Settings{})
	assert.Error(t, err)
}

func TestSelector(t *testing.T) {
	sys, err := NewSystemFromBytes([]byte(peano), "peano.yaml", Settings{
		Selector: func(e strategy.Equation) bool { return e.Name != "plus-succ" },
	})
	require.NoError(t, err)
	defer sys.Close()

	nf, err := sys.Eval("1 + 0")
	require.NoError(t, err)
	assert.Equal(t, "1", nf.String())
	nf, err = sys.Eval("0 + 1")
	require.NoError(t, err)
	assert.Equal(t, "0 + 1", nf.String())
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		threadSafe bool
		parallel   int
	}{
		{"sequential", false, 1},
		{"parallel", true, 4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sys, err := NewSystemFromBytes([]byte(peano), "peano.yaml", Settings{ThreadSafe: test.threadSafe})
			require.NoError(t, err)
			defer sys.Close()

			results, err := sys.Evaluate(context.Background(), sys.File.Evaluations, test.parallel)
			require.NoError(t, err)
			require.Len(t, results, 3)

			assert.True(t, results[0].Matches())
			assert.Equal(t, "2", results[0].NormalForm.String())

			assert.False(t, results[1].Matches())
			assert.Equal(t, "4", results[1].NormalForm.String())
			assert.Equal(t, "5", results[1].Expected.String())

			assert.True(t, results[2].Matches())
			assert.Nil(t, results[2].Expected)
			assert.Equal(t, "3", results[2].NormalForm.String())
		})
	}
}

func TestEvaluateNeedsThreadSafeStore(t *testing.T) {
	sys, err := NewSystemFromBytes([]byte(peano), "peano.yaml", Settings{})
	require.NoError(t, err)
	defer sys.Close()

	_, err = sys.Evaluate(context.Background(), sys.File.Evaluations, 2)
	assert.Error(t, err)
}

func TestEvaluateCancelled(t *testing.T) {
	sys, err := NewSystemFromBytes([]byte(peano), "peano.yaml", Settings{})
	require.NoError(t, err)
	defer sys.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sys.Evaluate(ctx, sys.File.Evaluations, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormaliseMemoizes(t *testing.T) {
	sys, err := NewSystemFromBytes([]byte(peano), "peano.yaml", Settings{CollectThreshold: 1})
	require.NoError(t, err)
	defer sys.Close()

	ev, err := frontend.ParseEvaluation(sys.Store, sys.File.Scope, frontend.EvalEntry{Term: "3 + 3"})
	require.NoError(t, err)
	first := sys.Normalise(ev.Term)

	// the memoized normal form survives collection
	sys.Store.Collect()
	assert.True(t, sys.Store.Alive(first))
	assert.Same(t, first, sys.Normalise(ev.Term))
	assert.Same(t, sys.Store.Numeral(6), first)
}
