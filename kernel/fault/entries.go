package fault

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/gate"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// Each entry stub is exactly stubSize bytes:
//
//	6a 00 | 90 90   push a zero error code, or two NOPs when the
//	                processor pushes one
//	68 imm32        push the vector
//	e9 rel32        jump to the common path after the last stub
const stubSize = 12

// entriesAddrFn returns the address of the first entry stub.
var entriesAddrFn = entriesAddr

// entries is the block of entry stubs followed by the common path. It is
// never called from Go.
func entries()

func entriesAddr() uintptr

// EntryAddr returns the address of the entry stub for v.
func EntryAddr(v Vector) uintptr {
	return entriesAddrFn() + uintptr(v)*stubSize
}

// Install points every slot of t at its entry stub through code segment
// sel. The gates mask interrupts and admit only ring 0 callers.
func Install(t *gate.NativeTable, sel seg.Selector) *kernel.Error {
	for v := range t {
		g, err := gate.NewNativeGate(sel, EntryAddr(Vector(v)), true, true, seg.Ring0)
		if err != nil {
			return err
		}
		t[v] = g
	}
	return nil
}
