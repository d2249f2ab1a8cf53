package rwerr

import (
	"fmt"
	"github.com/cottand/trs/term"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that raised them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None          ErrCode = iota
	HeadNotSymbol ErrCode = iota
	BinderInPattern
	UnboundConditionVariable
	UnboundRhsVariable
	MarkerInEquation
	MissingSide
)

func (c ErrCode) String() string {
	switch c {
	case HeadNotSymbol:
		return "head-not-symbol"
	case BinderInPattern:
		return "binder-in-pattern"
	case UnboundConditionVariable:
		return "unbound-condition-variable"
	case UnboundRhsVariable:
		return "unbound-rhs-variable"
	case MarkerInEquation:
		return "marker-in-equation"
	case MissingSide:
		return "missing-side"
	default:
		return "unclassified"
	}
}

// RuleError is a malformed-rule diagnostic: the equation it refers to
// is excluded from the rewriter, which otherwise stays usable
type RuleError interface {
	Error() string
	Code() ErrCode
	// Equation identifies the rejected equation, usually by name and left-hand side
	Equation() string

	withStack([]byte) RuleError
	getStack() []byte
}

func FormatWithCode(e RuleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s: %s", stack, e.Code(), e.Equation(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s: %s", e.Code(), e.Equation(), e.Error())
}

func New[E RuleError](err E) RuleError {
	return err.withStack(debug.Stack())
}

// Errors collects the diagnostics of one or more strategy builds. A nil *Errors is empty.
// The same diagnostic for the same equation is only kept once, so that an equation
// listed twice, or checked by two merged builds, is reported once.
type Errors struct {
	errs []RuleError
}

func sameDiagnostic(a, b RuleError) bool {
	return a.Code() == b.Code() && a.Equation() == b.Equation() && a.Error() == b.Error()
}

func (r *Errors) With(err ...RuleError) *Errors {
	if r == nil {
		r = &Errors{}
	}
	for _, e := range err {
		if !slices.ContainsFunc(r.errs, func(seen RuleError) bool { return sameDiagnostic(seen, e) }) {
			r.errs = append(r.errs, e)
		}
	}
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

// Errors lists the diagnostics in the order they were reported
func (r *Errors) Errors() []RuleError {
	if r == nil {
		return nil
	}
	return r.errs
}

// Equations lists the rejected equations, each once, in the order of their first diagnostic
func (r *Errors) Equations() []string {
	if r == nil {
		return nil
	}
	var names []string
	for _, e := range r.errs {
		if !slices.Contains(names, e.Equation()) {
			names = append(names, e.Equation())
		}
	}
	return names
}

// For returns the diagnostics of the equation identified by equation
func (r *Errors) For(equation string) []RuleError {
	var found []RuleError
	for _, e := range r.Errors() {
		if e.Equation() == equation {
			found = append(found, e)
		}
	}
	return found
}

func (r *Errors) HasError() bool {
	return r.Len() > 0
}

func (r *Errors) Len() int {
	if r == nil {
		return 0
	}
	return len(r.errs)
}

// LogValue groups the diagnostics under the equation they reject
func (r *Errors) LogValue() slog.Value {
	var attrs []slog.Attr
	for _, equation := range r.Equations() {
		var msgs []string
		for _, e := range r.For(equation) {
			msgs = append(msgs, FormatWithCode(e))
		}
		attrs = append(attrs, slog.Any(equation, msgs))
	}
	return slog.GroupValue(attrs...)
}

type Unclassified struct {
	From   error
	EqName string
	stack  []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) Equation() string { return e.EqName }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}

type NewHeadNotSymbol struct {
	EqName string
	Head   *term.Term
	stack  []byte
}

func (e NewHeadNotSymbol) Error() string {
	return fmt.Sprintf("left-hand side must be headed by a function symbol, found %v '%v'", e.Head.Kind(), e.Head)
}
func (e NewHeadNotSymbol) Code() ErrCode    { return HeadNotSymbol }
func (e NewHeadNotSymbol) Equation() string { return e.EqName }
func (e NewHeadNotSymbol) getStack() []byte { return e.stack }
func (e NewHeadNotSymbol) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}

type NewBinderInPattern struct {
	EqName  string
	Pattern *term.Term
	stack   []byte
}

func (e NewBinderInPattern) Error() string {
	return fmt.Sprintf("left-hand side may only contain symbols, variables and applications, found %v '%v'", e.Pattern.Kind(), e.Pattern)
}
func (e NewBinderInPattern) Code() ErrCode    { return BinderInPattern }
func (e NewBinderInPattern) Equation() string { return e.EqName }
func (e NewBinderInPattern) getStack() []byte { return e.stack }
func (e NewBinderInPattern) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}

type NewUnboundConditionVariable struct {
	EqName string
	Var    *term.Term
	stack  []byte
}

func (e NewUnboundConditionVariable) Error() string {
	return fmt.Sprintf("condition uses variable '%v' which does not occur in the left-hand side", e.Var)
}
func (e NewUnboundConditionVariable) Code() ErrCode    { return UnboundConditionVariable }
func (e NewUnboundConditionVariable) Equation() string { return e.EqName }
func (e NewUnboundConditionVariable) getStack() []byte { return e.stack }
func (e NewUnboundConditionVariable) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}

type NewUnboundRhsVariable struct {
	EqName string
	Var    *term.Term
	stack  []byte
}

func (e NewUnboundRhsVariable) Error() string {
	return fmt.Sprintf("right-hand side uses variable '%v' which is bound by neither the left-hand side nor the condition", e.Var)
}
func (e NewUnboundRhsVariable) Code() ErrCode    { return UnboundRhsVariable }
func (e NewUnboundRhsVariable) Equation() string { return e.EqName }
func (e NewUnboundRhsVariable) getStack() []byte { return e.stack }
func (e NewUnboundRhsVariable) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}

type NewMarkerInEquation struct {
	EqName string
	stack  []byte
}

func (e NewMarkerInEquation) Error() string {
	return "equation contains an engine-internal normal form marker"
}
func (e NewMarkerInEquation) Code() ErrCode    { return MarkerInEquation }
func (e NewMarkerInEquation) Equation() string { return e.EqName }
func (e NewMarkerInEquation) getStack() []byte { return e.stack }
func (e NewMarkerInEquation) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}

type NewMissingSide struct {
	EqName string
	Side   string
	stack  []byte
}

func (e NewMissingSide) Error() string {
	return fmt.Sprintf("equation has no %s", e.Side)
}
func (e NewMissingSide) Code() ErrCode    { return MissingSide }
func (e NewMissingSide) Equation() string { return e.EqName }
func (e NewMissingSide) getStack() []byte { return e.stack }
func (e NewMissingSide) withStack(stack []byte) RuleError {
	e.stack = stack
	return e
}
