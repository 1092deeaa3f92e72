package gate

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/bitfield"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// ShortInterruptGateDescriptor is a protected mode gate stored as four 16-bit
// words: offset low, selector, attributes and offset high.
type ShortInterruptGateDescriptor [4]uint16

var _ [8 - unsafe.Sizeof(ShortInterruptGateDescriptor{})]byte

// shortWords locates each element of the word-array view in the single-word
// gate.
var shortWords = [4]bitfield.Field{
	{Shift: 0, Width: 16},
	{Shift: 16, Width: 16},
	{Shift: 32, Width: 16},
	{Shift: 48, Width: 16},
}

// NewShortInterruptGate builds a gate in word-array form. Arguments follow
// NewInterruptGate.
func NewShortInterruptGate(sel seg.Selector, offset uint32, present, mustCLI bool, dpl seg.Privilege, is32 bool) (ShortInterruptGateDescriptor, *kernel.Error) {
	d, err := NewInterruptGate(sel, offset, present, mustCLI, dpl, is32)
	if err != nil {
		return ShortInterruptGateDescriptor{}, err
	}
	return d.Short(), nil
}

// Descriptor returns the single-word view of the gate.
func (s ShortInterruptGateDescriptor) Descriptor() InterruptGateDescriptor {
	var word uint64
	for i, w := range shortWords {
		// 16-bit elements always fit their field.
		word, _ = w.Set(word, uint64(s[i]))
	}
	return InterruptGateDescriptor(word)
}

// Offset returns the entry point offset.
func (s ShortInterruptGateDescriptor) Offset() uint32 { return s.Descriptor().Offset() }

// Segment returns the code segment selector of the entry point.
func (s ShortInterruptGateDescriptor) Segment() seg.Selector { return s.Descriptor().Segment() }

// IsPresent returns true if the gate is present.
func (s ShortInterruptGateDescriptor) IsPresent() bool { return s.Descriptor().IsPresent() }

// Privilege returns the gate privilege level.
func (s ShortInterruptGateDescriptor) Privilege() seg.Privilege { return s.Descriptor().Privilege() }

// Type returns the gate type nibble.
func (s ShortInterruptGateDescriptor) Type() Type { return s.Descriptor().Type() }

// Is32Bit returns true for 32-bit gates.
func (s ShortInterruptGateDescriptor) Is32Bit() bool { return s.Type().Is32Bit() }

// IsTrap returns true for trap gates.
func (s ShortInterruptGateDescriptor) IsTrap() bool { return s.Type().IsTrap() }

// MustCLI returns true for interrupt gates.
func (s ShortInterruptGateDescriptor) MustCLI() bool { return !s.IsTrap() }
