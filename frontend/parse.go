package frontend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/cottand/trs/term"
	"github.com/pkg/errors"
)

const (
	keywordLambda = "lambda"
	keywordForall = "forall"
	keywordExists = "exists"
	keywordWhere  = "where"
)

// ParseTerm reads a term written as a Go expression.
//
// Identifiers are function symbols unless scope declares them as variables.
// Calls are applications, and calling a call applies its result again, so
// f(a)(b) is a curried application. Binary and unary operators are function
// symbols named after the operator. Integer literals are numerals built from
// 0 and succ.
//
// lambda(x, y, body), forall(x, body) and exists(x, body) bind variables, which
// may carry their sort like a type assertion: forall(b.(Bool), body).
// where(body, x, e1, y, e2) binds x to e1 and y to e2 in body.
func ParseTerm(store *term.Store, scope *Scope, src string) (*term.Term, error) {
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q", src)
	}
	r := &reader{store: store, fset: fset, src: src}
	t, err := r.read(expr, scope)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", src)
	}
	return t, nil
}

type reader struct {
	store *term.Store
	fset  *token.FileSet
	src   string
}

func (r *reader) errorf(node ast.Node, format string, args ...any) error {
	pos := r.fset.Position(node.Pos())
	return fmt.Errorf("column %d: %s", pos.Column, fmt.Sprintf(format, args...))
}

func (r *reader) read(expr ast.Expr, scope *Scope) (*term.Term, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return r.read(e.X, scope)
	case *ast.Ident:
		if sort, ok := scope.Variable(e.Name); ok {
			return r.store.Var(e.Name, sort), nil
		}
		if isKeyword(e.Name) {
			return nil, r.errorf(e, "%s must be called", e.Name)
		}
		return r.store.Op(e.Name, scope.arity(e.Name)), nil
	case *ast.BasicLit:
		if e.Kind != token.INT {
			return nil, r.errorf(e, "unsupported literal %s", e.Value)
		}
		n, err := strconv.ParseUint(e.Value, 0, 64)
		if err != nil {
			return nil, r.errorf(e, "numeral %s: %v", e.Value, err)
		}
		return r.store.Numeral(n), nil
	case *ast.BinaryExpr:
		x, err := r.read(e.X, scope)
		if err != nil {
			return nil, err
		}
		y, err := r.read(e.Y, scope)
		if err != nil {
			return nil, err
		}
		return r.store.Apply(r.store.Op(e.Op.String(), 2), x, y), nil
	case *ast.UnaryExpr:
		if !term.IsUnaryOperator(e.Op.String()) {
			return nil, r.errorf(e, "unsupported unary operator %s", e.Op)
		}
		x, err := r.read(e.X, scope)
		if err != nil {
			return nil, err
		}
		return r.store.Apply(r.store.Op(e.Op.String(), 1), x), nil
	case *ast.CallExpr:
		return r.readCall(e, scope)
	default:
		return nil, r.errorf(expr, "unsupported expression %T", expr)
	}
}

func isKeyword(name string) bool {
	switch name {
	case keywordLambda, keywordForall, keywordExists, keywordWhere:
		return true
	default:
		return false
	}
}

func (r *reader) readCall(call *ast.CallExpr, scope *Scope) (*term.Term, error) {
	if call.Ellipsis.IsValid() {
		return nil, r.errorf(call, "variadic calls are not terms")
	}
	if len(call.Args) == 0 {
		return nil, r.errorf(call, "application without arguments")
	}
	if ident, ok := call.Fun.(*ast.Ident); ok {
		if _, isVar := scope.Variable(ident.Name); !isVar {
			switch ident.Name {
			case keywordLambda:
				return r.readBinder(call, term.BinderLambda, scope)
			case keywordForall:
				return r.readBinder(call, term.BinderForall, scope)
			case keywordExists:
				return r.readBinder(call, term.BinderExists, scope)
			case keywordWhere:
				return r.readWhere(call, scope)
			}
		}
	}

	args := make([]*term.Term, len(call.Args))
	for i, arg := range call.Args {
		t, err := r.read(arg, scope)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	if ident, ok := call.Fun.(*ast.Ident); ok {
		if _, isVar := scope.Variable(ident.Name); !isVar {
			scope.called(ident.Name, len(args))
			return r.store.Apply(r.store.Op(ident.Name, len(args)), args...), nil
		}
	}
	head, err := r.read(call.Fun, scope)
	if err != nil {
		return nil, err
	}
	if head.IsSymbol() && head.Symbol().Arity() != len(args) {
		return nil, r.errorf(call, "%v applied to %d arguments", head.Symbol(), len(args))
	}
	return r.store.Apply(head, args...), nil
}

// readBinder reads lambda(x, y, body) and the quantifiers
func (r *reader) readBinder(call *ast.CallExpr, binder term.Binder, scope *Scope) (*term.Term, error) {
	if len(call.Args) < 2 {
		return nil, r.errorf(call, "%v needs at least one variable and a body", binder)
	}
	last := len(call.Args) - 1
	vars := make([]*term.Term, last)
	for i, arg := range call.Args[:last] {
		v, err := r.readBound(arg, scope)
		if err != nil {
			return nil, err
		}
		for _, other := range vars[:i] {
			if other == v {
				return nil, r.errorf(arg, "%v binds %s twice", binder, v.Name())
			}
		}
		vars[i] = v
	}
	body, err := r.read(call.Args[last], scope.with(vars))
	if err != nil {
		return nil, err
	}
	return r.store.Abstract(binder, vars, body), nil
}

// readWhere reads where(body, x, e1, y, e2, ...)
func (r *reader) readWhere(call *ast.CallExpr, scope *Scope) (*term.Term, error) {
	if len(call.Args) < 3 || len(call.Args)%2 == 0 {
		return nil, r.errorf(call, "where needs a body followed by variable and value pairs")
	}
	var vars []*term.Term
	var assignments []term.Assignment
	for i := 1; i < len(call.Args); i += 2 {
		v, err := r.readBound(call.Args[i], scope)
		if err != nil {
			return nil, err
		}
		for _, other := range vars {
			if other == v {
				return nil, r.errorf(call.Args[i], "where assigns %s twice", v.Name())
			}
		}
		// values are read in the enclosing scope
		value, err := r.read(call.Args[i+1], scope)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
		assignments = append(assignments, term.Assignment{Var: v, Value: value})
	}
	body, err := r.read(call.Args[0], scope.with(vars))
	if err != nil {
		return nil, err
	}
	return r.store.Where(body, assignments...), nil
}

// readBound reads a bound variable: x, whose sort is the one declared in scope
// (if any), or x.(Sort)
func (r *reader) readBound(expr ast.Expr, scope *Scope) (*term.Term, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		sort, _ := scope.Variable(e.Name)
		return r.store.Var(e.Name, sort), nil
	case *ast.TypeAssertExpr:
		name, ok := e.X.(*ast.Ident)
		sortName, sortOk := e.Type.(*ast.Ident)
		if !ok || !sortOk {
			return nil, r.errorf(e, "expected a variable with a sort like x.(Sort)")
		}
		return r.store.Var(name.Name, term.Sort(sortName.Name)), nil
	default:
		return nil, r.errorf(expr, "expected a variable, found %T", expr)
	}
}
