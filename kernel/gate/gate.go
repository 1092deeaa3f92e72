// Package gate models x86 interrupt and trap gate descriptors and the
// interrupt descriptor table (IDT) that holds them.
//
// Three encodings are provided. InterruptGateDescriptor is the 8-byte
// protected mode gate as a single 64-bit word; ShortInterruptGateDescriptor is
// the same record viewed as four 16-bit words; LongInterruptGateDescriptor is
// the 16-byte gate used in long mode.
package gate

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/bitfield"
	"github.com/pedrolamarao/psys/kernel/seg"
)

var (
	// ErrInvalidPrivilege is returned when a gate is built with a privilege
	// level above 3.
	ErrInvalidPrivilege = &kernel.Error{Module: "gate", Message: "privilege level exceeds 2 bits"}

	// ErrOffsetOverflow is returned when a procedure address does not fit
	// the offset field of the requested gate encoding.
	ErrOffsetOverflow = &kernel.Error{Module: "gate", Message: "procedure address exceeds gate offset width"}
)

// Type is the 4-bit gate type nibble.
type Type uint8

// Gate types. The 16-bit variants are selected by clearing the D bit.
const (
	InterruptGate16 = Type(0x6)
	TrapGate16      = Type(0x7)
	InterruptGate32 = Type(0xe)
	TrapGate32      = Type(0xf)
)

// IsTrap returns true for trap gates, which leave IF untouched on entry.
func (t Type) IsTrap() bool { return t&0x1 != 0 }

// Is32Bit returns true if the D bit of the type is set.
func (t Type) Is32Bit() bool { return t&0x8 != 0 }

func gateType(mustCLI, is32 bool) Type {
	return Type(bitfield.Bool(is32)<<3 | 0x6 | bitfield.Bool(!mustCLI))
}

// InterruptGateDescriptor is a protected mode interrupt or trap gate.
type InterruptGateDescriptor uint64

// Compile-time check that the descriptor matches the hardware size.
var _ [8 - unsafe.Sizeof(InterruptGateDescriptor(0))]byte

var (
	gateOffsetLow  = bitfield.Field{Shift: 0, Width: 16}
	gateSelector   = bitfield.Field{Shift: 16, Width: 16}
	gateIST        = bitfield.Field{Shift: 32, Width: 3}
	gateTypeField  = bitfield.Field{Shift: 40, Width: 4}
	gateDPL        = bitfield.Field{Shift: 45, Width: 2}
	gatePresent    = bitfield.Field{Shift: 47, Width: 1}
	gateOffsetHigh = bitfield.Field{Shift: 48, Width: 16}
)

// NewInterruptGate builds a gate that transfers control to offset within the
// code segment referenced by sel. Gates with mustCLI set are interrupt gates
// (IF is cleared on entry); the others are trap gates.
func NewInterruptGate(sel seg.Selector, offset uint32, present, mustCLI bool, dpl seg.Privilege, is32 bool) (InterruptGateDescriptor, *kernel.Error) {
	word, err := packGate(sel, uint64(offset), 0, present, mustCLI, dpl, is32)
	return InterruptGateDescriptor(word), err
}

// NewInterruptGateForFunc builds a gate whose offset is the entry address of
// fn. The address is that of the compiled Go function; assembly routines must
// be passed by address using NewInterruptGate.
func NewInterruptGateForFunc(sel seg.Selector, fn func(), present, mustCLI bool, dpl seg.Privilege, is32 bool) (InterruptGateDescriptor, *kernel.Error) {
	addr := FuncAddr(fn)
	if uint64(addr) > 0xffffffff {
		return 0, ErrOffsetOverflow
	}
	return NewInterruptGate(sel, uint32(addr), present, mustCLI, dpl, is32)
}

func packGate(sel seg.Selector, offset uint64, ist uint8, present, mustCLI bool, dpl seg.Privilege, is32 bool) (uint64, *kernel.Error) {
	if dpl > seg.Ring3 {
		return 0, ErrInvalidPrivilege
	}

	word, err := bitfield.Pack(
		gateSelector.Of(uint64(sel)),
		gateIST.Of(uint64(ist)),
		gateTypeField.Of(uint64(gateType(mustCLI, is32))),
		gateDPL.Of(uint64(dpl)),
		gatePresent.Of(bitfield.Bool(present)),
	)
	if err != nil {
		return 0, err
	}

	return bitfield.Scatter(word, offset&0xffffffff, gateOffsetLow, gateOffsetHigh)
}

// Offset returns the entry point offset.
func (d InterruptGateDescriptor) Offset() uint32 {
	return uint32(bitfield.Gather(uint64(d), gateOffsetLow, gateOffsetHigh))
}

// Segment returns the code segment selector of the entry point.
func (d InterruptGateDescriptor) Segment() seg.Selector {
	return seg.Selector(gateSelector.Get(uint64(d)))
}

// IsPresent returns true if the gate is present.
func (d InterruptGateDescriptor) IsPresent() bool {
	return gatePresent.Get(uint64(d)) != 0
}

// Privilege returns the privilege level required to reach the gate with a
// software interrupt.
func (d InterruptGateDescriptor) Privilege() seg.Privilege {
	return seg.Privilege(gateDPL.Get(uint64(d)))
}

// Type returns the gate type nibble.
func (d InterruptGateDescriptor) Type() Type {
	return Type(gateTypeField.Get(uint64(d)))
}

// Is32Bit returns true for 32-bit gates.
func (d InterruptGateDescriptor) Is32Bit() bool { return d.Type().Is32Bit() }

// IsTrap returns true for trap gates.
func (d InterruptGateDescriptor) IsTrap() bool { return d.Type().IsTrap() }

// MustCLI returns true for interrupt gates.
func (d InterruptGateDescriptor) MustCLI() bool { return !d.IsTrap() }

// Short returns the word-array view of the gate.
func (d InterruptGateDescriptor) Short() ShortInterruptGateDescriptor {
	var s ShortInterruptGateDescriptor
	for i, w := range shortWords {
		s[i] = uint16(w.Get(uint64(d)))
	}
	return s
}

// FuncAddr returns the entry address of the compiled function fn.
func FuncAddr(fn func()) uintptr {
	if fn == nil {
		return 0
	}
	return **(**uintptr)(unsafe.Pointer(&fn))
}
