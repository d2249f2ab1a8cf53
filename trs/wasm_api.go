//go:build js && wasm

package trs

import (
	"context"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/trs/rwerr"
)

// CheckAndShowStrategies loads the rule file given as the only argument and
// returns the strategy of every function symbol, or the reasons equations
// were rejected
func CheckAndShowStrategies(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "rewriter panicked: " + fmt.Sprint(r)
		}
	}()

	sys, err := NewSystemFromBytes([]byte(args[0].String()), "rules.yaml", Settings{})
	if err != nil {
		return fmt.Sprintf("the rule file could not be loaded:\n\n%s", err)
	}
	defer sys.Close()

	sb := strings.Builder{}
	if sys.Errors().HasError() {
		sb.WriteString("the following equations were rejected:\n")
		for _, ruleErr := range sys.Errors().Errors() {
			sb.WriteString(rwerr.FormatWithCode(ruleErr))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	for strat := range sys.Rewriter.Strategies().All() {
		sb.WriteString(strat.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// rewriteAndShow loads the rule file given as the only argument and returns
// the normal forms of its eval section
//
// output: { normalForms: string, mismatches: number }
func rewriteAndShow(_ js.Value, args []js.Value) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	sys, err := NewSystemFromBytes([]byte(args[0].String()), "rules.yaml", Settings{})
	if err != nil {
		return nil, fmt.Errorf("the rule file could not be loaded: %w", err)
	}
	defer sys.Close()

	results, err := sys.Evaluate(context.Background(), sys.File.Evaluations, 1)
	if err != nil {
		return nil, err
	}
	sb := strings.Builder{}
	mismatches := 0
	for _, result := range results {
		_, _ = fmt.Fprintf(&sb, "%s = %v", result.Evaluation.Source, result.NormalForm)
		if !result.Matches() {
			mismatches++
			_, _ = fmt.Fprintf(&sb, ", expected %v", result.Expected)
		}
		sb.WriteByte('\n')
	}
	return map[string]any{
		"normalForms": sb.String(),
		"mismatches":  mismatches,
	}, nil
}

// asPromise implemented based on
// https://stackoverflow.com/questions/67437284/how-to-throw-js-error-from-go-web-assembly
//
// It takes a normal JS-API function that also returns an error, and returns function
// that returns a promise which
// completes when the function completes, and can be used to catch errors, if any
func asPromise(function func(js.Value, []js.Value) (any, error)) any {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		handler := js.FuncOf(func(_ js.Value, promiseArgs []js.Value) any {
			resolve := promiseArgs[0]
			reject := promiseArgs[1]

			go func() {
				defer func() {
					if r := recover(); r != nil {
						errorConstructor := js.Global().Get("Error")
						errorObject := errorConstructor.New(fmt.Sprintf("%s", r))
						reject.Invoke(errorObject)
					}
				}()

				data, err := function(this, args)
				if err != nil {
					errorConstructor := js.Global().Get("Error")
					errorObject := errorConstructor.New(err.Error())
					reject.Invoke(errorObject)
				} else {
					resolve.Invoke(js.ValueOf(data))
				}
			}()

			return nil
		})
		promiseConstructor := js.Global().Get("Promise")
		return promiseConstructor.New(handler)
	})
}

var RewriteAndShow = asPromise(rewriteAndShow)
