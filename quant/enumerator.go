// Package quant eliminates quantifiers over finite sorts by enumeration
package quant

import (
	"log/slog"
	"slices"

	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/rewrite"
	"github.com/cottand/trs/term"
)

const DefaultMaxCombinations = 1 << 12

// Enumerator instantiates the body of a quantifier with every combination of
// values of its bound variables, when all of them have an enumerable sort.
// forall stops at the first instance that rewrites to false and exists at the
// first that rewrites to true. Quantifiers it cannot enumerate are passed to Fallback.
type Enumerator struct {
	store   *term.Store
	domains map[term.Sort][]*term.Term
	// MaxCombinations bounds the number of instances of a single quantifier
	MaxCombinations int
	Fallback        rewrite.QuantifierEliminator
	logger          *slog.Logger
}

// NewEnumerator enumerates Bool as {true, false} and every sort of domains as
// the given values, which should be normal forms. The values stay protected
// in store until Close.
func NewEnumerator(store *term.Store, domains map[term.Sort][]*term.Term, logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = log.DefaultLogger
	}
	e := &Enumerator{
		store:           store,
		domains:         make(map[term.Sort][]*term.Term, len(domains)+1),
		MaxCombinations: DefaultMaxCombinations,
		Fallback:        rewrite.Residual{},
		logger:          slog.New(term.SlogHandler(logger.Handler())).With("section", "rewrite.quant"),
	}
	e.domains[term.BoolSort] = []*term.Term{store.True(), store.False()}
	for sort, values := range domains {
		e.domains[sort] = slices.Clone(values)
		for _, v := range values {
			store.Protect(v)
		}
	}
	return e
}

// Domain returns the values of sort, or false if sort is not enumerable
func (e *Enumerator) Domain(sort term.Sort) ([]*term.Term, bool) {
	values, ok := e.domains[sort]
	return values, ok && len(values) > 0
}

func (e *Enumerator) Close() {
	for sort, values := range e.domains {
		if sort == term.BoolSort {
			continue
		}
		for _, v := range values {
			e.store.Release(v)
		}
	}
	e.domains = nil
}

func (e *Enumerator) Eliminate(r *rewrite.Rewriter, quantifier *term.Term, sigma *term.Substitution) *term.Term {
	vars := quantifier.Vars()
	domains := make([][]*term.Term, len(vars))
	combinations := 1
	for i, v := range vars {
		values, ok := e.Domain(v.Sort())
		if !ok {
			e.logger.Debug("sort is not enumerable", "variable", v, "sort", string(v.Sort()))
			return e.fallback(r, quantifier, sigma)
		}
		combinations *= len(values)
		if combinations > e.MaxCombinations {
			e.logger.Debug("too many combinations to enumerate", "quantifier", quantifier, "max", e.MaxCombinations)
			return e.fallback(r, quantifier, sigma)
		}
		domains[i] = values
	}

	store := r.Store()
	// absorbing decides the quantifier on its own, neutral instances can be dropped
	absorbing, neutral, connective := store.True(), store.False(), "||"
	if quantifier.Binder() == term.BinderForall {
		absorbing, neutral, connective = store.False(), store.True(), "&&"
	}

	var residuals []*term.Term
	choice := make([]int, len(vars))
	for {
		instance := e.instantiate(r, quantifier.Body(), vars, domains, choice, sigma)
		instancesRewritten.Inc()
		if instance == absorbing {
			return absorbing
		}
		if instance != neutral && !slices.Contains(residuals, instance) {
			residuals = append(residuals, instance)
		}
		if !next(choice, domains) {
			break
		}
	}
	if len(residuals) == 0 {
		return neutral
	}

	// residuals are normal forms under sigma, so they must not be substituted again
	op := store.Op(connective, 2)
	combined := store.Normalised(residuals[0])
	for _, residual := range residuals[1:] {
		combined = store.Apply(op, combined, store.Normalised(residual))
	}
	return r.Rewrite(combined, sigma)
}

func (e *Enumerator) instantiate(r *rewrite.Rewriter, body *term.Term, vars []*term.Term, domains [][]*term.Term, choice []int, sigma *term.Substitution) *term.Term {
	sigma.Push()
	defer sigma.Pop()
	for i, v := range vars {
		sigma.Set(v, domains[i][choice[i]])
	}
	return r.Rewrite(body, sigma)
}

// next advances choice to the next combination, and reports false once all were visited
func next(choice []int, domains [][]*term.Term) bool {
	for i := range choice {
		choice[i]++
		if choice[i] < len(domains[i]) {
			return true
		}
		choice[i] = 0
	}
	return false
}

func (e *Enumerator) fallback(r *rewrite.Rewriter, quantifier *term.Term, sigma *term.Substitution) *term.Term {
	fallbacks.Inc()
	return e.Fallback.Eliminate(r, quantifier, sigma)
}
