package trs

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"
	"testing/fstest"

	"github.com/cottand/trs/frontend"
	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/quant"
	"github.com/cottand/trs/rewrite"
	"github.com/cottand/trs/rwerr"
	"github.com/cottand/trs/strategy"
	"github.com/cottand/trs/term"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var systemLogger = log.DefaultLogger.With("section", "system")

type Settings struct {
	// ThreadSafe must be set to evaluate with more than one goroutine
	ThreadSafe       bool
	CollectThreshold int
	Logger           *slog.Logger
	// Selector restricts which equations of the rule file are used
	Selector func(strategy.Equation) bool
	// MaxCombinations bounds quantifier enumeration. Zero means quant.DefaultMaxCombinations.
	MaxCombinations int
}

// System is a rule file loaded into its own term.Store, with the rewriter built
// from its equations
type System struct {
	Store      *term.Store
	File       *frontend.RuleFile
	Rewriter   *rewrite.Rewriter
	Enumerator *quant.Enumerator

	errors *rwerr.Errors
	logger *slog.Logger

	// normalForms memoizes Normalise
	mu          sync.Mutex
	normalForms *term.Table
}

// Result is the normal form of one evaluation
type Result struct {
	Evaluation frontend.Evaluation
	NormalForm *term.Term
	// Expected is the normal form of Evaluation.Expect, nil if there is none
	Expected *term.Term
}

// Matches reports whether the normal form is the expected one, if any was given
func (r Result) Matches() bool {
	return r.Expected == nil || r.Expected == r.NormalForm
}

// LoadSystem reads the rule file at path inside fsys and builds its rewriter.
// Malformed equations do not make loading fail: they are left out and listed by Errors.
func LoadSystem(fsys fs.FS, path string, settings Settings) (*System, error) {
	logger := settings.Logger
	if logger == nil {
		logger = systemLogger
	}
	store := term.NewStore(term.Settings{
		ThreadSafe:       settings.ThreadSafe,
		CollectThreshold: settings.CollectThreshold,
		Logger:           logger,
	})
	file, err := frontend.LoadFS(store, fsys, path, frontend.LoadSettings{Logger: logger})
	if err != nil {
		return nil, err
	}

	sys := &System{
		Store:       store,
		File:        file,
		logger:      logger,
		normalForms: term.NewTable(store, len(file.Evaluations)),
	}
	for _, ev := range file.Evaluations {
		store.Protect(ev.Term)
		if ev.Expect != nil {
			store.Protect(ev.Expect)
		}
	}

	sys.Enumerator = quant.NewEnumerator(store, file.Domains, logger)
	if settings.MaxCombinations > 0 {
		sys.Enumerator.MaxCombinations = settings.MaxCombinations
	}
	sys.Rewriter, sys.errors = rewrite.New(store, file.Equations, rewrite.Settings{
		Selector:    settings.Selector,
		Logger:      logger,
		Quantifiers: sys.Enumerator,
	})
	if sys.errors.HasError() {
		logger.Warn("some equations were rejected", "path", path, "errors", sys.errors)
	}
	return sys, nil
}

// NewSystemFromBytes loads a rule file held in memory
func NewSystemFromBytes(data []byte, name string, settings Settings) (*System, error) {
	fsys := fstest.MapFS{
		name: &fstest.MapFile{Data: data},
	}
	return LoadSystem(fsys, name, settings)
}

// Errors lists the equations that were rejected when building the rewriter
func (s *System) Errors() *rwerr.Errors {
	return s.errors
}

// Parse reads src with the variables and sorts of the rule file.
// Parse must not be called concurrently.
func (s *System) Parse(src string) (*term.Term, error) {
	return frontend.ParseTerm(s.Store, s.File.Scope, src)
}

// Normalise rewrites t with an empty substitution, reusing the normal form of
// terms that were already normalised. It may be called concurrently if the
// System is thread-safe.
func (s *System) Normalise(t *term.Term) *term.Term {
	s.mu.Lock()
	nf, ok := s.normalForms.Get(t)
	s.mu.Unlock()
	if ok {
		return nf
	}
	nf = s.Rewriter.Rewrite(t, term.NewSubstitution(s.Store))
	s.mu.Lock()
	s.normalForms.Put(t, nf)
	s.mu.Unlock()
	return nf
}

// Eval parses src and returns its normal form
func (s *System) Eval(src string) (*term.Term, error) {
	t, err := s.Parse(src)
	if err != nil {
		return nil, err
	}
	return s.Normalise(t), nil
}

// Evaluate normalises every evaluation with up to parallel goroutines.
// Results are in the order of evaluations. Unused terms are collected
// once every evaluation is done.
func (s *System) Evaluate(ctx context.Context, evaluations []frontend.Evaluation, parallel int) ([]Result, error) {
	if parallel > 1 && !s.Store.ThreadSafe() {
		return nil, errors.Errorf("evaluating with %d goroutines needs a thread-safe store", parallel)
	}
	if parallel < 1 {
		parallel = 1
	}
	results := make([]Result, len(evaluations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, ev := range evaluations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := Result{Evaluation: ev, NormalForm: s.Normalise(ev.Term)}
			if ev.Expect != nil {
				result.Expected = s.Normalise(ev.Expect)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if collected := s.Store.MaybeCollect(); collected > 0 {
		s.logger.Debug("collected terms", "count", collected, "live", s.Store.Size())
	}
	return results, nil
}

// Close releases every term held by s
func (s *System) Close() {
	s.mu.Lock()
	s.normalForms.Clear()
	s.mu.Unlock()
	for _, ev := range s.File.Evaluations {
		s.Store.Release(ev.Term)
		if ev.Expect != nil {
			s.Store.Release(ev.Expect)
		}
	}
	s.Rewriter.Close()
	s.Enumerator.Close()
}
