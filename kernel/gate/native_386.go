package gate

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// NativeTable is the IDT layout consulted by the processor in the mode this
// kernel is built for.
type NativeTable = Table

// NewNativeGate builds a 32-bit gate for the entry point at addr.
func NewNativeGate(sel seg.Selector, addr uintptr, present, mustCLI bool, dpl seg.Privilege) (InterruptGateDescriptor, *kernel.Error) {
	return NewInterruptGate(sel, uint32(addr), present, mustCLI, dpl, true)
}

// ActivateNativeTable loads t into the IDTR.
func ActivateNativeTable(t *NativeTable) {
	ActivateTable(t)
}
