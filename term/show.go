package term

import (
	"strconv"
	"strings"
)

// binaryPrecedence follows Go's operator precedence, so that printed
// terms can be read back by the frontend
var binaryPrecedence = map[string]int16{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4, "|": 4, "^": 4,
	"*": 5, "/": 5, "%": 5, "<<": 5, ">>": 5, "&": 5, "&^": 5,
}

const unaryPrecedence int16 = 6

var unaryOperators = map[string]bool{"!": true, "-": true, "^": true}

// IsBinaryOperator reports whether name is printed infix when applied to two arguments
func IsBinaryOperator(name string) bool {
	_, ok := binaryPrecedence[name]
	return ok
}

// IsUnaryOperator reports whether name is printed prefix when applied to one argument
func IsUnaryOperator(name string) bool {
	return unaryOperators[name]
}

// Show renders t in the syntax the frontend reads
func Show(t *Term) string {
	ctx := newShowContext()
	ctx.showWalker(t, 0)
	return ctx.String()
}

type showContext struct {
	*strings.Builder
}

func newShowContext() *showContext {
	return &showContext{
		Builder: &strings.Builder{},
	}
}

// showWalker prints to ctx
//
// precedences are as follows:
// 0: can be shown on its own
// 1-5: binary operators, see binaryPrecedence
// 6: prefix operators
func (ctx *showContext) showWalker(t *Term, outerPrecedence int16) {
	if t == nil {
		ctx.WriteString("nil")
		return
	}
	switch t.kind {
	case KindSymbol:
		ctx.WriteString(t.symbol.name)
	case KindVariable:
		ctx.WriteString(t.name)
	case KindNormalised:
		ctx.showWalker(t.head, outerPrecedence)
	case KindApplication:
		if n, ok := AsNumeral(t); ok {
			ctx.WriteString(strconv.FormatUint(n, 10))
			return
		}
		if t.head.kind == KindSymbol && len(t.args) == 2 && IsBinaryOperator(t.head.symbol.name) {
			precedence := binaryPrecedence[t.head.symbol.name]
			if outerPrecedence > precedence {
				ctx.WriteString("(")
				defer ctx.WriteString(")")
			}
			ctx.showWalker(t.args[0], precedence)
			ctx.WriteString(" " + t.head.symbol.name + " ")
			// binary operators associate to the left
			ctx.showWalker(t.args[1], precedence+1)
			return
		}
		if t.head.kind == KindSymbol && len(t.args) == 1 && IsUnaryOperator(t.head.symbol.name) {
			ctx.WriteString(t.head.symbol.name)
			ctx.showWalker(t.args[0], unaryPrecedence)
			return
		}
		if t.head.kind == KindAbstraction {
			ctx.WriteString("(")
			ctx.showWalker(t.head, 0)
			ctx.WriteString(")")
		} else {
			ctx.showWalker(t.head, unaryPrecedence+1)
		}
		ctx.showArgs(t.args)
	case KindAbstraction:
		ctx.WriteString(t.binder.String())
		ctx.showArgs(append(t.vars[:len(t.vars):len(t.vars)], t.head))
	case KindWhere:
		ctx.WriteString("where(")
		ctx.showWalker(t.head, 0)
		for i, v := range t.vars {
			ctx.WriteString(", ")
			ctx.WriteString(v.name)
			ctx.WriteString(", ")
			ctx.showWalker(t.args[i], 0)
		}
		ctx.WriteString(")")
	default:
		ctx.WriteString("<" + t.kind.String() + ">")
	}
}

func (ctx *showContext) showArgs(args []*Term) {
	ctx.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			ctx.WriteString(", ")
		}
		ctx.showWalker(arg, 0)
	}
	ctx.WriteString(")")
}
