package strategy

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/rwerr"
	"github.com/cottand/trs/term"
	"github.com/cottand/trs/util"
)

type StepKind uint8

const (
	_ StepKind = iota
	// StepEval brings the argument at Position to normal form
	StepEval
	// StepTry attempts to apply Rule
	StepTry
)

type Step struct {
	Kind     StepKind
	Position int
	Rule     *Rule
}

func Eval(position int) Step { return Step{Kind: StepEval, Position: position} }
func Try(rule *Rule) Step    { return Step{Kind: StepTry, Rule: rule} }

func (s Step) String() string {
	switch s.Kind {
	case StepEval:
		return fmt.Sprintf("eval %d", s.Position)
	case StepTry:
		return "try " + s.Rule.Equation.String()
	default:
		return "invalid step"
	}
}

// Strategy is the program the rewriter runs for applications of Symbol:
// rules are tried in order, and arguments are brought to normal form
// by Eval steps before the first rule that needs them.
type Strategy struct {
	Symbol *term.Symbol
	Steps  []Step
	// NumVariables is the largest number of distinct variables in a left-hand side of the program
	NumVariables int
}

func (s *Strategy) String() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%v (%d variables):", s.Symbol, s.NumVariables)
	for _, step := range s.Steps {
		sb.WriteString("\n  ")
		sb.WriteString(step.String())
	}
	return sb.String()
}

// Rules yields the rules of s in the order they are tried
func (s *Strategy) Rules() iter.Seq[*Rule] {
	return func(yield func(*Rule) bool) {
		for _, step := range s.Steps {
			if step.Kind == StepTry && !yield(step.Rule) {
				return
			}
		}
	}
}

// Verify checks that every rule comes after Eval steps for all the positions it needs,
// that no position is evaluated twice, and that rules are ordered by arity
func (s *Strategy) Verify() error {
	evaluated := util.NewEmptySet[int]()
	arity := 0
	for i, step := range s.Steps {
		switch step.Kind {
		case StepEval:
			if evaluated.Contains(step.Position) {
				return fmt.Errorf("step %d of %v evaluates position %d a second time", i, s.Symbol, step.Position)
			}
			evaluated.Add(step.Position)
		case StepTry:
			if step.Rule.Arity() < arity {
				return fmt.Errorf("step %d of %v tries a rule of arity %d after one of arity %d", i, s.Symbol, step.Rule.Arity(), arity)
			}
			arity = step.Rule.Arity()
			for _, needed := range step.Rule.Needs {
				if !evaluated.Contains(needed) {
					return fmt.Errorf("step %d of %v tries %v before evaluating position %d", i, s.Symbol, step.Rule.Identity(), needed)
				}
			}
		default:
			return fmt.Errorf("step %d of %v is invalid", i, s.Symbol)
		}
	}
	return nil
}

// Strategies holds the Strategy of every symbol that heads some accepted equation.
// It is read-only once built and may be shared between goroutines.
type Strategies struct {
	store *term.Store
	// bySymbol is indexed by term.Symbol.Index
	bySymbol []*Strategy
	ordered  []*Strategy
}

// For returns the Strategy of sym, or nil when no equation has sym as its head
func (s *Strategies) For(sym *term.Symbol) *Strategy {
	idx := int(sym.Index())
	if idx >= len(s.bySymbol) {
		return nil
	}
	if strat := s.bySymbol[idx]; strat != nil && strat.Symbol == sym {
		return strat
	}
	return nil
}

// All yields every Strategy, ordered by symbol name and arity
func (s *Strategies) All() iter.Seq[*Strategy] {
	return slices.Values(s.ordered)
}

func (s *Strategies) Len() int { return len(s.ordered) }

// Release unprotects the equations the Strategies were built from.
// The Strategies must not be used afterwards.
func (s *Strategies) Release() {
	for _, strat := range s.ordered {
		for rule := range strat.Rules() {
			releaseEquation(s.store, rule.Equation)
		}
	}
	s.bySymbol, s.ordered = nil, nil
}

func protectEquation(store *term.Store, e Equation) {
	store.Protect(e.Lhs)
	store.Protect(e.Rhs)
	if e.Condition != nil {
		store.Protect(e.Condition)
	}
}

func releaseEquation(store *term.Store, e Equation) {
	store.Release(e.Lhs)
	store.Release(e.Rhs)
	if e.Condition != nil {
		store.Release(e.Condition)
	}
}

// Build compiles equations into one Strategy per head symbol.
//
// Equations that fail Check are logged at Warn on logger, reported in the
// returned Errors and left out, so the Strategies stay usable.
// The terms of accepted equations are protected in store until Release.
func Build(store *term.Store, equations []Equation, logger *slog.Logger) (*Strategies, *rwerr.Errors) {
	if logger == nil {
		logger = log.DefaultLogger
	}
	logger = slog.New(term.SlogHandler(logger.Handler())).With("section", "strategy")

	var errs *rwerr.Errors
	groups := make(map[*term.Symbol][]*Rule)
	var heads []*term.Symbol
	for _, e := range equations {
		if err := Check(e); err != nil {
			logger.Warn("rejected equation", "equation", err.Equation(), "code", err.Code().String(), "reason", err.Error())
			equationsRejected.WithLabelValues(err.Code().String()).Inc()
			errs = errs.With(err)
			continue
		}
		protectEquation(store, e)
		rule := compileRule(store, e)
		if _, ok := groups[rule.Head]; !ok {
			heads = append(heads, rule.Head)
		}
		groups[rule.Head] = append(groups[rule.Head], rule)
	}

	slices.SortFunc(heads, func(a, b *term.Symbol) int {
		if c := strings.Compare(a.Name(), b.Name()); c != 0 {
			return c
		}
		return a.Arity() - b.Arity()
	})
	result := &Strategies{store: store, bySymbol: make([]*Strategy, store.MaxSymbolIndex())}
	for _, head := range heads {
		strat := buildStrategy(head, groups[head])
		if int(head.Index()) >= len(result.bySymbol) {
			result.bySymbol = append(result.bySymbol, make([]*Strategy, int(head.Index())+1-len(result.bySymbol))...)
		}
		result.bySymbol[head.Index()] = strat
		result.ordered = append(result.ordered, strat)
		strategiesBuilt.Inc()
		logger.Debug("built strategy", "symbol", head, "rules", len(groups[head]), "program", strat.String())
	}
	return result, errs
}

// buildStrategy orders rules by arity, keeping declaration order among equal
// arities. Within a group of equal arity it repeatedly emits every rule whose
// needed positions are evaluated, in declaration order, and otherwise evaluates the
// position needed by most pending rules, preferring the lowest position on ties.
func buildStrategy(head *term.Symbol, rules []*Rule) *Strategy {
	rules = slices.Clone(rules)
	slices.SortStableFunc(rules, func(a, b *Rule) int {
		return a.Arity() - b.Arity()
	})

	strat := &Strategy{Symbol: head}
	evaluated := util.NewEmptySet[int]()
	for start := 0; start < len(rules); {
		end := start
		for end < len(rules) && rules[end].Arity() == rules[start].Arity() {
			end++
		}
		pending := slices.Clone(rules[start:end])
		for len(pending) > 0 {
			remaining := pending[:0]
			for _, r := range pending {
				if ready(r, evaluated) {
					strat.Steps = append(strat.Steps, Try(r))
					strat.NumVariables = max(strat.NumVariables, r.NumVariables)
				} else {
					remaining = append(remaining, r)
				}
			}
			pending = remaining
			if len(pending) == 0 {
				break
			}
			position := mostNeeded(pending, evaluated)
			evaluated.Add(position)
			strat.Steps = append(strat.Steps, Eval(position))
		}
		start = end
	}
	return strat
}

func ready(r *Rule, evaluated util.MSet[int]) bool {
	for _, position := range r.Needs {
		if !evaluated.Contains(position) {
			return false
		}
	}
	return true
}

func mostNeeded(pending []*Rule, evaluated util.MSet[int]) int {
	counts := make(map[int]int)
	for _, r := range pending {
		for _, position := range r.Needs {
			if !evaluated.Contains(position) {
				counts[position]++
			}
		}
	}
	best, bestCount := -1, 0
	for position, count := range counts {
		if count > bestCount || count == bestCount && position < best {
			best, bestCount = position, count
		}
	}
	if best < 0 {
		panic("no pending rule needs an unevaluated position")
	}
	return best
}
