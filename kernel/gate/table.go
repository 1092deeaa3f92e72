package gate

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel/cpu"
)

// Entries is the number of vectors an IDT describes.
const Entries = 256

// Table is a protected mode interrupt descriptor table.
type Table [Entries]InterruptGateDescriptor

// LongTable is a long mode interrupt descriptor table.
type LongTable [Entries]LongInterruptGateDescriptor

var (
	loadIDTFn  = cpu.LoadIDT
	storeIDTFn = cpu.StoreIDT
)

// TableRegisterFor returns the IDTR value that describes t. The table is
// borrowed and must not move while it is active.
func TableRegisterFor(t *Table) cpu.TableRegister {
	return cpu.TableRegister{
		Size: uint16(unsafe.Sizeof(*t)),
		Base: uintptr(unsafe.Pointer(t)),
	}
}

// LongTableRegisterFor returns the IDTR value that describes t.
func LongTableRegisterFor(t *LongTable) cpu.TableRegister {
	return cpu.TableRegister{
		Size: uint16(unsafe.Sizeof(*t)),
		Base: uintptr(unsafe.Pointer(t)),
	}
}

// GetIDTR returns the current contents of the IDTR.
func GetIDTR() cpu.TableRegister {
	return storeIDTFn()
}

// SetIDTR loads r into the IDTR.
func SetIDTR(r cpu.TableRegister) {
	loadIDTFn(r)
}

// ActivateTable loads t into the IDTR.
func ActivateTable(t *Table) {
	SetIDTR(TableRegisterFor(t))
}

// ActivateLongTable loads t into the IDTR.
func ActivateLongTable(t *LongTable) {
	SetIDTR(LongTableRegisterFor(t))
}
