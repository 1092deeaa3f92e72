package gate

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// NativeTable is the IDT layout consulted by the processor in the mode this
// kernel is built for.
type NativeTable = LongTable

// NewNativeGate builds a long mode gate for the entry point at addr. The
// interrupt stack table is not used.
func NewNativeGate(sel seg.Selector, addr uintptr, present, mustCLI bool, dpl seg.Privilege) (LongInterruptGateDescriptor, *kernel.Error) {
	return NewLongInterruptGate(sel, uint64(addr), 0, present, mustCLI, dpl)
}

// ActivateNativeTable loads t into the IDTR.
func ActivateNativeTable(t *NativeTable) {
	ActivateLongTable(t)
}
