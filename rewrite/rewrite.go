package rewrite

// when adding term kinds, rewriteAux must handle them

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/rwerr"
	"github.com/cottand/trs/strategy"
	"github.com/cottand/trs/term"
)

type Settings struct {
	// Selector restricts which equations are compiled. Nil selects all of them.
	Selector func(strategy.Equation) bool
	// Logger receives warnings about rejected equations. Nil means log.DefaultLogger.
	Logger *slog.Logger
	// Quantifiers eliminates forall and exists. Nil means Residual.
	Quantifiers QuantifierEliminator
	// Fresh supplies names for renamed bound variables. Nil means a new Fresher.
	Fresh *term.Fresher
}

// Rewriter brings terms to normal form with an innermost strategy per function symbol.
// A Rewriter is read-only once built, and may be shared between goroutines
// as long as each goroutine uses its own Substitution.
type Rewriter struct {
	store       *term.Store
	strategies  *strategy.Strategies
	quantifiers QuantifierEliminator
	fresh       *term.Fresher
	logger      *slog.Logger
}

// New compiles equations into a Rewriter. Malformed equations are left out and
// reported in the returned Errors, which does not make the Rewriter unusable.
func New(store *term.Store, equations []strategy.Equation, settings Settings) (*Rewriter, *rwerr.Errors) {
	logger := settings.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	r := &Rewriter{
		store:       store,
		quantifiers: settings.Quantifiers,
		fresh:       settings.Fresh,
		logger:      slog.New(term.SlogHandler(logger.Handler())).With("section", "rewrite"),
	}
	if r.quantifiers == nil {
		r.quantifiers = Residual{}
	}
	if r.fresh == nil {
		r.fresh = term.NewFresher()
	}

	selected := equations
	if settings.Selector != nil {
		selected = make([]strategy.Equation, 0, len(equations))
		for _, e := range equations {
			if settings.Selector(e) {
				selected = append(selected, e)
			} else {
				r.logger.Debug("equation not selected", "equation", e.Identity())
			}
		}
	}
	var errs *rwerr.Errors
	r.strategies, errs = strategy.Build(store, selected, logger)
	return r, errs
}

func (r *Rewriter) Store() *term.Store                { return r.store }
func (r *Rewriter) Strategies() *strategy.Strategies { return r.strategies }
func (r *Rewriter) Fresh() *term.Fresher             { return r.fresh }

// Close releases the equations held by r. The Rewriter must not be used afterwards.
func (r *Rewriter) Close() {
	r.strategies.Release()
}

// Rewrite returns the normal form of t, where the free variables of t that sigma
// binds are replaced by their (already normal) values. A nil sigma binds nothing.
//
// Rewrite does not detect non-termination.
func (r *Rewriter) Rewrite(t *term.Term, sigma *term.Substitution) *term.Term {
	if sigma == nil {
		sigma = term.NewSubstitution(r.store)
	}
	start := time.Now()
	rewriteCalls.Inc()
	result := r.rewriteAux(t, sigma)
	// a quantifier eliminator may hand back markers it did not rewrite away
	result = r.store.Strip(result)
	rewriteDuration.Observe(time.Since(start).Seconds())
	return result
}

func (r *Rewriter) rewriteAux(t *term.Term, sigma *term.Substitution) *term.Term {
	switch t.Kind() {
	case term.KindNormalised:
		return t.Inner()
	case term.KindVariable:
		return sigma.Apply(t)
	case term.KindSymbol:
		return r.rewriteConstant(t, sigma)
	case term.KindApplication:
		return r.rewriteApplication(t, sigma)
	case term.KindWhere:
		return r.rewriteWhere(t, sigma)
	case term.KindAbstraction:
		if t.IsLambda() {
			return r.rewriteLambda(t, sigma)
		}
		return r.rewriteQuantifier(t, sigma)
	default:
		panic(fmt.Sprintf("cannot rewrite term of kind %v", t.Kind()))
	}
}

func (r *Rewriter) rewriteApplication(t *term.Term, sigma *term.Substitution) *term.Term {
	if head := term.NestedHead(t); head.IsSymbol() {
		return r.rewriteFunctionSymbol(head.Symbol(), t, sigma)
	}

	head := r.rewriteAux(t.Head(), sigma)
	switch nested := term.NestedHead(head); {
	case nested.IsSymbol():
		return r.rewriteFunctionSymbol(nested.Symbol(), r.store.Apply(r.markArguments(head), t.Args()...), sigma)
	case nested.IsVariable():
		args := make([]*term.Term, t.Arity())
		for i, arg := range t.Args() {
			args[i] = r.rewriteAux(arg, sigma)
		}
		return r.store.Apply(head, args...)
	case head.IsLambda():
		return r.betaReduce(head, t.Args(), sigma)
	case head.IsQuantifier():
		panic(fmt.Sprintf("quantifier '%v' applied to arguments in '%v'", head, t))
	default:
		panic(fmt.Sprintf("head '%v' of '%v' rewrote to a %v", t.Head(), t, head.Kind()))
	}
}

// markArguments marks every argument of the normal form head, across all
// application levels, so that a strategy does not rewrite them again
func (r *Rewriter) markArguments(head *term.Term) *term.Term {
	if !head.IsApplication() {
		return head
	}
	args, levels := term.Flatten(head, nil, nil)
	for i, arg := range args {
		args[i] = r.store.Normalised(arg)
	}
	return r.store.Unflatten(term.NestedHead(head), args, levels)
}

// inlineArgs is the number of arguments a rewrite of an application handles without allocating
const inlineArgs = 8

// rewriteFunctionSymbol runs the strategy of op on t, which is op or a (possibly
// curried) application with nested head op
func (r *Rewriter) rewriteFunctionSymbol(op *term.Symbol, t *term.Term, sigma *term.Substitution) *term.Term {
	var argBuf, rewrittenBuf [inlineArgs]*term.Term
	var levelBuf [inlineArgs]int
	args, levels := term.Flatten(t, argBuf[:0], levelBuf[:0])
	arity := len(args)
	// rewritten[i] is the normal form of args[i], or nil when it was not needed yet
	var rewritten []*term.Term
	if arity > inlineArgs {
		rewritten = make([]*term.Term, arity)
	} else {
		rewritten = rewrittenBuf[:arity]
	}
	for i, arg := range args {
		if arg.Kind() == term.KindNormalised {
			rewritten[i] = arg.Inner()
		}
	}

	if strat := r.strategies.For(op); strat != nil {
		var assignmentBuf [inlineArgs]assignment
		m := matcher{assignments: assignmentBuf[:0]}
		if strat.NumVariables > inlineArgs {
			m.assignments = make([]assignment, 0, strat.NumVariables)
		}
	program:
		for _, step := range strat.Steps {
			switch step.Kind {
			case strategy.StepEval:
				k := step.Position
				if k >= arity {
					// every remaining rule has a higher arity than t
					break program
				}
				if rewritten[k] == nil {
					rewritten[k] = r.rewriteAux(args[k], sigma)
				}
			case strategy.StepTry:
				rule := step.Rule
				if rule.Arity() > arity {
					break program
				}
				if !rule.FitsLevels(levels) {
					continue
				}
				m.reset()
				if !m.matchArguments(args, rewritten, rule.Patterns) {
					continue
				}
				if !rule.TrivialCondition() && r.rewriteAux(r.substValues(&m, rule.Condition), sigma) != r.store.True() {
					continue
				}
				ruleApplications.WithLabelValues(op.Name()).Inc()
				r.logger.Debug("applying rule", "rule", rule.Identity(), "term", t)

				result := r.substValues(&m, rule.Rhs)
				if rule.Arity() < arity {
					result = r.reapply(result, args[rule.Arity():], rewritten[rule.Arity():], levels[len(rule.Levels):])
				}
				return r.rewriteAux(result, sigma)
			}
		}
	}

	// no rule applies, so t is in normal form once its arguments are
	for i, arg := range args {
		if rewritten[i] == nil {
			rewritten[i] = r.rewriteAux(arg, sigma)
		}
	}
	return r.store.Unflatten(r.store.Func(op), rewritten, levels)
}

// reapply applies result to the argument levels a rule did not consume.
// Arguments already in normal form are marked as such.
func (r *Rewriter) reapply(result *term.Term, args, rewritten []*term.Term, levels []int) *term.Term {
	rest := make([]*term.Term, len(args))
	for i, arg := range args {
		if rewritten[i] != nil {
			rest[i] = r.store.Normalised(rewritten[i])
		} else {
			rest[i] = arg
		}
	}
	return r.store.Unflatten(result, rest, levels)
}

// rewriteConstant tries the rules without arguments of op, in program order
func (r *Rewriter) rewriteConstant(op *term.Term, sigma *term.Substitution) *term.Term {
	strat := r.strategies.For(op.Symbol())
	if strat == nil {
		return op
	}
	for _, step := range strat.Steps {
		if step.Kind != strategy.StepTry || step.Rule.Arity() > 0 {
			break
		}
		rule := step.Rule
		if rule.TrivialCondition() || r.rewriteAux(rule.Condition, sigma) == r.store.True() {
			ruleApplications.WithLabelValues(op.Name()).Inc()
			r.logger.Debug("applying rule", "rule", rule.Identity(), "term", op)
			return r.rewriteAux(rule.Rhs, sigma)
		}
	}
	return op
}
