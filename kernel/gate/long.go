package gate

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/bitfield"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// ErrInvalidIST is returned when an interrupt stack table index above 7 is
// requested.
var ErrInvalidIST = &kernel.Error{Module: "gate", Message: "interrupt stack table index exceeds 3 bits"}

// LongInterruptGateDescriptor is a 16-byte long mode gate. The first word
// shares the protected mode layout (plus the IST index); the low half of the
// second word holds bits 32-63 of the offset.
type LongInterruptGateDescriptor [2]uint64

var _ [16 - unsafe.Sizeof(LongInterruptGateDescriptor{})]byte

var gateOffsetUpper = bitfield.Field{Shift: 0, Width: 32}

// NewLongInterruptGate builds a long mode gate. A non-zero ist selects a
// stack from the interrupt stack table of the active TSS.
func NewLongInterruptGate(sel seg.Selector, offset uint64, ist uint8, present, mustCLI bool, dpl seg.Privilege) (LongInterruptGateDescriptor, *kernel.Error) {
	if ist > 7 {
		return LongInterruptGateDescriptor{}, ErrInvalidIST
	}

	low, err := packGate(sel, offset, ist, present, mustCLI, dpl, true)
	if err != nil {
		return LongInterruptGateDescriptor{}, err
	}

	high, _ := gateOffsetUpper.Set(0, offset>>32)
	return LongInterruptGateDescriptor{low, high}, nil
}

// NewLongInterruptGateForFunc builds a long mode gate whose offset is the
// entry address of fn.
func NewLongInterruptGateForFunc(sel seg.Selector, fn func(), ist uint8, present, mustCLI bool, dpl seg.Privilege) (LongInterruptGateDescriptor, *kernel.Error) {
	return NewLongInterruptGate(sel, uint64(FuncAddr(fn)), ist, present, mustCLI, dpl)
}

func (l LongInterruptGateDescriptor) low() InterruptGateDescriptor {
	return InterruptGateDescriptor(l[0])
}

// Offset returns the 64-bit entry point offset.
func (l LongInterruptGateDescriptor) Offset() uint64 {
	return uint64(l.low().Offset()) | gateOffsetUpper.Get(l[1])<<32
}

// IST returns the interrupt stack table index; 0 means no stack switch.
func (l LongInterruptGateDescriptor) IST() uint8 { return uint8(gateIST.Get(l[0])) }

// Segment returns the code segment selector of the entry point.
func (l LongInterruptGateDescriptor) Segment() seg.Selector { return l.low().Segment() }

// IsPresent returns true if the gate is present.
func (l LongInterruptGateDescriptor) IsPresent() bool { return l.low().IsPresent() }

// Privilege returns the gate privilege level.
func (l LongInterruptGateDescriptor) Privilege() seg.Privilege { return l.low().Privilege() }

// Type returns the gate type nibble.
func (l LongInterruptGateDescriptor) Type() Type { return l.low().Type() }

// IsTrap returns true for trap gates.
func (l LongInterruptGateDescriptor) IsTrap() bool { return l.low().IsTrap() }

// MustCLI returns true for interrupt gates.
func (l LongInterruptGateDescriptor) MustCLI() bool { return !l.IsTrap() }
