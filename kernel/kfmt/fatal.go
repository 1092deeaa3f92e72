package kfmt

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/cpu"
)

var (
	disableInterruptsFn = cpu.DisableInterrupts

	// haltForeverFn never returns on hardware; tests replace it with a
	// function that does.
	haltForeverFn = func() {
		for {
			cpu.Halt()
		}
	}

	errUnknownCause = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Fatal reports err (if not nil) on the active sink, masks interrupts and
// stops the core. It does not return.
func Fatal(err *kernel.Error) {
	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** system halted ***")
	Printf("\n-----------------------------------\n")

	disableInterruptsFn()
	haltForeverFn()
}

// Panic is Fatal for arbitrary panic values. The image build redirects
// runtime.gopanic here, so panic() reports through the active sink.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	switch t := e.(type) {
	case *kernel.Error:
		Fatal(t)
	case string:
		panicString(t)
	case error:
		errUnknownCause.Message = t.Error()
		Fatal(errUnknownCause)
	default:
		Fatal(nil)
	}
}

// panicString is the redirect target of runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	errUnknownCause.Message = msg
	Fatal(errUnknownCause)
}
