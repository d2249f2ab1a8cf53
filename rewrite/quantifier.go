package rewrite

import (
	"github.com/cottand/trs/term"
)

// QuantifierEliminator rewrites forall and exists terms.
//
// Eliminate receives a quantifier whose bound variables are neither bound by sigma
// nor free in any of its values, and returns the normal form of quantifier under sigma.
// The body may hold normal-form markers, so it must be rewritten with r.Rewrite
// rather than inspected directly. Eliminate must leave sigma as it found it.
type QuantifierEliminator interface {
	Eliminate(r *Rewriter, quantifier *term.Term, sigma *term.Substitution) *term.Term
}

// Residual eliminates nothing: it normalises the body and keeps the quantifier
// over those variables that still occur in it.
type Residual struct{}

func (Residual) Eliminate(r *Rewriter, quantifier *term.Term, sigma *term.Substitution) *term.Term {
	body := r.Rewrite(quantifier.Body(), sigma)
	return Requantify(r.store, quantifier.Binder(), quantifier.Vars(), body)
}

// Requantify binds those vars that occur free in body, and returns
// body itself when none does
func Requantify(store *term.Store, binder term.Binder, vars []*term.Term, body *term.Term) *term.Term {
	free := term.FreeVariables(body)
	var kept []*term.Term
	for _, v := range vars {
		if free.Contains(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return body
	}
	return store.Abstract(binder, kept, body)
}
