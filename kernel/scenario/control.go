// Package scenario runs end-to-end checks of the control structures against
// the running core: segmentation, fault delivery and paging.
//
// Progress is published in Control so an external observer (a debugger or an
// emulator memory dump) can tell which step stopped the machine.
package scenario

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/kfmt"
)

// Control holds the number of the step in progress.
var Control uintptr

const (
	// Failed is stored in Control when a step fails.
	Failed = uintptr(0)

	// Passed is stored in Control once every scenario succeeds.
	Passed = ^uintptr(0)
)

func step(n uintptr) {
	Control = n
	kfmt.Printf("[scenario] step %d\n", n)
}

func fail(err *kernel.Error) *kernel.Error {
	kfmt.Printf("[scenario] step %d failed: [%s] %s\n", Control, err.Module, err.Message)
	Control = Failed
	return err
}

// Run executes scenarios A, B and C in order and stops at the first failure.
func Run() *kernel.Error {
	if err := Segmentation(); err != nil {
		return err
	}
	if err := Faults(); err != nil {
		return err
	}
	if err := nativePaging(); err != nil {
		return err
	}

	Control = Passed
	kfmt.Printf("[scenario] passed\n")
	return nil
}
