package frontend

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/strategy"
	"github.com/cottand/trs/term"
	"github.com/cottand/trs/util"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var fileValidate *validator.Validate

func init() {
	fileValidate = validator.New()
}

// File is the YAML layout of a rule file
type File struct {
	// Sorts lists the constants of each finite sort
	Sorts map[string][]string `yaml:"sorts" validate:"dive,keys,required,endkeys,dive,required"`
	// Functions declares the arity of symbols that are used without being called
	Functions map[string]int `yaml:"functions" validate:"dive,keys,required,endkeys,gte=0"`
	// Variables maps each variable name to its sort
	Variables map[string]string `yaml:"variables" validate:"dive,keys,required,endkeys,required"`
	Equations []EquationEntry    `yaml:"equations" validate:"dive"`
	Eval      []EvalEntry        `yaml:"eval" validate:"dive"`
}

// EquationEntry is one equation of a rule file. Missing sides are reported when
// the rewriter is built, together with the other malformed equations.
type EquationEntry struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition"`
	Lhs       string `yaml:"lhs"`
	Rhs       string `yaml:"rhs"`
}

// EvalEntry is a term to rewrite, and optionally the normal form it should have
type EvalEntry struct {
	Term   string `yaml:"term" validate:"required"`
	Expect string `yaml:"expect"`
}

func (f *File) Validate() error {
	return fileValidate.Struct(f)
}

type LoadSettings struct {
	Logger *slog.Logger
}

// Evaluation is a parsed EvalEntry. Expect is nil when no normal form was given.
type Evaluation struct {
	Source string
	Term   *term.Term
	Expect *term.Term
}

// RuleFile is a rule file read into a term.Store
type RuleFile struct {
	Scope *Scope
	// Domains are the constants of each finite sort, in declaration order
	Domains     map[term.Sort][]*term.Term
	Equations   []strategy.Equation
	Evaluations []Evaluation
}

// LoadFile reads and parses the rule file at path
func LoadFile(store *term.Store, path string, settings LoadSettings) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read rule file")
	}
	rf, err := Load(store, data, settings)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return rf, nil
}

// LoadFS reads and parses the rule file at path inside fsys
func LoadFS(store *term.Store, fsys fs.FS, path string, settings LoadSettings) (*RuleFile, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrap(err, "read rule file")
	}
	rf, err := Load(store, data, settings)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return rf, nil
}

// Load parses the YAML rule file in data, interning its terms in store
func Load(store *term.Store, data []byte, settings LoadSettings) (*RuleFile, error) {
	logger := settings.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	logger = slog.New(term.SlogHandler(logger.Handler())).With("section", "frontend")

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "decode rule file")
	}
	if err := file.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rule file")
	}

	scope := NewScope()
	for name, arity := range file.Functions {
		scope.DeclareFunction(name, arity)
	}
	for name, sort := range file.Variables {
		scope.DeclareVariable(name, term.Sort(sort))
	}

	rf := &RuleFile{
		Scope:   scope,
		Domains: make(map[term.Sort][]*term.Term, len(file.Sorts)),
	}
	for _, sort := range util.SortedKeys(file.Sorts) {
		if term.Sort(sort) == term.BoolSort {
			return nil, errors.Errorf("sort %s is built in and cannot be redeclared", sort)
		}
		constants := file.Sorts[sort]
		domain := make([]*term.Term, 0, len(constants))
		for _, name := range constants {
			if _, isVar := scope.Variable(name); isVar {
				return nil, errors.Errorf("constant %s of sort %s is also declared as a variable", name, sort)
			}
			domain = append(domain, store.Const(name))
		}
		rf.Domains[term.Sort(sort)] = domain
	}

	for i, entry := range file.Equations {
		eq, err := parseEquation(store, scope, entry)
		if err != nil {
			return nil, errors.Wrapf(err, "equation %d", i)
		}
		logger.Debug("read equation", "equation", eq.String())
		rf.Equations = append(rf.Equations, eq)
	}

	for i, entry := range file.Eval {
		ev, err := ParseEvaluation(store, scope, entry)
		if err != nil {
			return nil, errors.Wrapf(err, "eval %d", i)
		}
		rf.Evaluations = append(rf.Evaluations, ev)
	}

	logger.Info("loaded rule file",
		"sorts", len(rf.Domains),
		"equations", len(rf.Equations),
		"evaluations", len(rf.Evaluations))
	return rf, nil
}

// ParseEvaluation parses the term of entry and, if present, its expected normal form
func ParseEvaluation(store *term.Store, scope *Scope, entry EvalEntry) (Evaluation, error) {
	t, err := ParseTerm(store, scope, entry.Term)
	if err != nil {
		return Evaluation{}, err
	}
	ev := Evaluation{Source: entry.Term, Term: t}
	if strings.TrimSpace(entry.Expect) != "" {
		ev.Expect, err = ParseTerm(store, scope, entry.Expect)
		if err != nil {
			return Evaluation{}, errors.Wrap(err, "expected normal form")
		}
	}
	return ev, nil
}

func parseEquation(store *term.Store, scope *Scope, entry EquationEntry) (strategy.Equation, error) {
	eq := strategy.Equation{Name: entry.Name}
	sides := []struct {
		src  string
		dest **term.Term
		side string
	}{
		{entry.Lhs, &eq.Lhs, "lhs"},
		{entry.Condition, &eq.Condition, "condition"},
		{entry.Rhs, &eq.Rhs, "rhs"},
	}
	for _, s := range sides {
		if strings.TrimSpace(s.src) == "" {
			continue
		}
		t, err := ParseTerm(store, scope, s.src)
		if err != nil {
			return strategy.Equation{}, fmt.Errorf("%s of %s: %w", s.side, eq.Identity(), err)
		}
		*s.dest = t
	}
	return eq, nil
}
