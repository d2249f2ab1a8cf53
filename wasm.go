//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/trs/trs"
)

func main() {
	js.Global().Set("CheckAndShowStrategies", js.FuncOf(trs.CheckAndShowStrategies))
	js.Global().Set("RewriteAndShow", trs.RewriteAndShow)

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
