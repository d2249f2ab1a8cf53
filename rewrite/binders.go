package rewrite

import (
	"fmt"

	"github.com/cottand/trs/term"
)

// betaReduce rewrites the body of lambda with its variables bound to the normal forms of args
func (r *Rewriter) betaReduce(lambda *term.Term, args []*term.Term, sigma *term.Substitution) *term.Term {
	vars := lambda.Vars()
	if len(vars) != len(args) {
		panic(fmt.Sprintf("'%v' binds %d variables but is applied to %d arguments", lambda, len(vars), len(args)))
	}
	// arguments are rewritten in the ambient scope, before any of them is bound
	values := make([]*term.Term, len(args))
	for i, arg := range args {
		values[i] = r.rewriteAux(arg, sigma)
	}
	betaReductions.Inc()
	sigma.Push()
	defer sigma.Pop()
	for i, v := range vars {
		sigma.Set(v, values[i])
	}
	return r.rewriteAux(lambda.Body(), sigma)
}

// rewriteWhere rewrites every assigned value in the ambient scope, then the body
// with those values bound, shadowing outer bindings of the same variables
func (r *Rewriter) rewriteWhere(t *term.Term, sigma *term.Substitution) *term.Term {
	values := make([]*term.Term, 0, t.NumAssignments())
	for _, value := range t.Assignments() {
		values = append(values, r.rewriteAux(value, sigma))
	}
	sigma.Push()
	defer sigma.Pop()
	i := 0
	for v := range t.Assignments() {
		sigma.Set(v, values[i])
		i++
	}
	return r.rewriteAux(t.Body(), sigma)
}

// rewriteLambda normalises the body of a lambda that is not applied to anything
func (r *Rewriter) rewriteLambda(t *term.Term, sigma *term.Substitution) *term.Term {
	vars, renamed := r.renameCaptured(t.Vars(), sigma)
	if len(renamed) == 0 {
		return r.store.Lambda(vars, r.rewriteAux(t.Body(), sigma))
	}
	sigma.Push()
	defer sigma.Pop()
	for v, fresh := range renamed {
		sigma.Set(v, fresh)
	}
	return r.store.Lambda(vars, r.rewriteAux(t.Body(), sigma))
}

// rewriteQuantifier renames the bound variables sigma captures and hands the
// quantifier to the QuantifierEliminator. Normal-form markers in the body are kept,
// so the eliminator does not substitute the values they wrap a second time.
func (r *Rewriter) rewriteQuantifier(t *term.Term, sigma *term.Substitution) *term.Term {
	body := t.Body()
	vars, renamed := r.renameCaptured(t.Vars(), sigma)
	if len(renamed) > 0 {
		body = r.store.Replace(body, renamed, r.fresh)
	}
	quantifierHandOffs.WithLabelValues(t.Binder().String()).Inc()
	return r.quantifiers.Eliminate(r, r.store.Abstract(t.Binder(), vars, body), sigma)
}

// renameCaptured replaces every variable of vars that sigma binds, or that occurs
// free in a value of sigma, with a fresh variable of the same sort
func (r *Rewriter) renameCaptured(vars []*term.Term, sigma *term.Substitution) ([]*term.Term, map[*term.Term]*term.Term) {
	var renamed map[*term.Term]*term.Term
	newVars := vars
	for i, v := range vars {
		if !sigma.Captures(v) {
			continue
		}
		if renamed == nil {
			renamed = make(map[*term.Term]*term.Term, len(vars))
			newVars = append([]*term.Term(nil), vars...)
		}
		fresh := r.fresh.Variable(r.store, v)
		renamed[v] = fresh
		newVars[i] = fresh
	}
	return newVars, renamed
}
