package term

// when adding kinds here, you should add them to the switch cases in:
// - term:store.go/sameNode and computeHash
// - term:free.go/computeFree
// - term:show.go/showWalker
// - rewrite:rewrite.go/rewriteAux

import (
	"fmt"
	"github.com/hashicorp/go-set/v3"
	"iter"
	"sync/atomic"
)

type Kind uint8

const (
	_ Kind = iota
	KindSymbol
	KindVariable
	KindApplication
	KindAbstraction
	KindWhere
	// KindNormalised wraps a term the rewriter has already brought to normal form.
	// It is internal to the rewriter and never part of a rewrite result.
	KindNormalised
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "function symbol"
	case KindVariable:
		return "variable"
	case KindApplication:
		return "application"
	case KindAbstraction:
		return "abstraction"
	case KindWhere:
		return "where clause"
	case KindNormalised:
		return "normal form marker"
	default:
		return "invalid"
	}
}

type Binder uint8

const (
	_ Binder = iota
	BinderLambda
	BinderForall
	BinderExists
)

func (b Binder) String() string {
	switch b {
	case BinderLambda:
		return "lambda"
	case BinderForall:
		return "forall"
	case BinderExists:
		return "exists"
	default:
		return "invalid"
	}
}

// Sort is the name of the sort of a variable
type Sort string

// Term is an immutable, interned expression node.
// Two terms obtained from the same Store are equal iff they are the same pointer.
type Term struct {
	kind   Kind
	binder Binder
	id     uint64
	hash   uint64
	// refs counts explicit protections plus live parents
	refs atomic.Int64
	dead bool

	symbol *Symbol // KindSymbol
	name   string  // KindVariable
	sort   Sort    // KindVariable

	// head is the applied term for KindApplication, the body for
	// KindAbstraction and KindWhere, and the wrapped term for KindNormalised
	head *Term
	// args are the arguments of a KindApplication and the assigned values of a KindWhere
	args []*Term
	// vars are the bound variables of a KindAbstraction and the assigned variables of a KindWhere
	vars []*Term

	free atomic.Pointer[set.Set[*Term]]
	// marked is set when a KindNormalised node occurs in t, t included
	marked bool
}

// Assignment binds Var to Value inside a where clause
type Assignment struct {
	Var   *Term
	Value *Term
}

func (t *Term) Kind() Kind { return t.kind }

// ID is unique for the lifetime of the Store that created t, and never reused
func (t *Term) ID() uint64   { return t.id }
func (t *Term) Hash() uint64 { return t.hash }

func (t *Term) IsSymbol() bool      { return t.kind == KindSymbol }
func (t *Term) IsVariable() bool    { return t.kind == KindVariable }
func (t *Term) IsApplication() bool { return t.kind == KindApplication }
func (t *Term) IsAbstraction() bool { return t.kind == KindAbstraction }
func (t *Term) IsWhere() bool       { return t.kind == KindWhere }
func (t *Term) IsNormalised() bool  { return t.kind == KindNormalised }

func (t *Term) IsLambda() bool { return t.kind == KindAbstraction && t.binder == BinderLambda }
func (t *Term) IsQuantifier() bool {
	return t.kind == KindAbstraction && (t.binder == BinderForall || t.binder == BinderExists)
}

// Symbol returns the function symbol of a KindSymbol term, nil otherwise
func (t *Term) Symbol() *Symbol { return t.symbol }

// Name returns the name of a variable or of a function symbol
func (t *Term) Name() string {
	switch t.kind {
	case KindSymbol:
		return t.symbol.name
	case KindVariable:
		return t.name
	default:
		return ""
	}
}

func (t *Term) Sort() Sort { return t.sort }

// Head of an application
func (t *Term) Head() *Term {
	t.mustBe(KindApplication)
	return t.head
}

// Args of an application. The returned slice is shared and must not be modified.
func (t *Term) Args() []*Term {
	t.mustBe(KindApplication)
	return t.args
}

// Arg returns the i-th argument of an application
func (t *Term) Arg(i int) *Term {
	t.mustBe(KindApplication)
	if i < 0 || i >= len(t.args) {
		panic(fmt.Sprintf("argument index %d out of range for application with %d arguments", i, len(t.args)))
	}
	return t.args[i]
}

// Arity is the number of arguments of an application at its outermost level
func (t *Term) Arity() int {
	if t.kind != KindApplication {
		return 0
	}
	return len(t.args)
}

// Body of an abstraction or a where clause
func (t *Term) Body() *Term {
	if t.kind != KindAbstraction && t.kind != KindWhere {
		panic("Body called on " + t.kind.String())
	}
	return t.head
}

// Vars are the bound variables of an abstraction. The returned slice is shared and must not be modified.
func (t *Term) Vars() []*Term {
	t.mustBe(KindAbstraction)
	return t.vars
}

func (t *Term) Binder() Binder {
	t.mustBe(KindAbstraction)
	return t.binder
}

// Assignments of a where clause, in declaration order
func (t *Term) Assignments() iter.Seq2[*Term, *Term] {
	t.mustBe(KindWhere)
	return func(yield func(*Term, *Term) bool) {
		for i, v := range t.vars {
			if !yield(v, t.args[i]) {
				return
			}
		}
	}
}

func (t *Term) NumAssignments() int {
	t.mustBe(KindWhere)
	return len(t.vars)
}

func (t *Term) Assignment(i int) Assignment {
	t.mustBe(KindWhere)
	return Assignment{Var: t.vars[i], Value: t.args[i]}
}

// Inner returns the term wrapped by a KindNormalised marker
func (t *Term) Inner() *Term {
	t.mustBe(KindNormalised)
	return t.head
}

func (t *Term) String() string {
	if t == nil {
		return "nil"
	}
	return Show(t)
}

func (t *Term) mustBe(k Kind) {
	if t.kind != k {
		panic(fmt.Sprintf("expected %v but term '%v' is a %v", k, t, t.kind))
	}
}

// children yields every direct child of t, in no particular order
func (t *Term) children() iter.Seq[*Term] {
	return func(yield func(*Term) bool) {
		if t.head != nil && !yield(t.head) {
			return
		}
		for _, a := range t.args {
			if !yield(a) {
				return
			}
		}
		for _, v := range t.vars {
			if !yield(v) {
				return
			}
		}
	}
}
