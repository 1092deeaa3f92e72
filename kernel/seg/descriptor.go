package seg

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/bitfield"
)

var (
	// ErrInvalidLimit is returned when a segment limit does not fit 20 bits.
	ErrInvalidLimit = &kernel.Error{Module: "seg", Message: "segment limit exceeds 20 bits"}

	// ErrInvalidType is returned when a descriptor type does not fit 4 bits.
	ErrInvalidType = &kernel.Error{Module: "seg", Message: "descriptor type exceeds 4 bits"}

	// ErrInvalidFlags is returned when a descriptor is built with the long
	// and 32-bit flags set together; that combination is reserved.
	ErrInvalidFlags = &kernel.Error{Module: "seg", Message: "long and 32-bit flags are mutually exclusive"}
)

// Type is the 4-bit descriptor type nibble.
type Type uint8

// CodeSegment returns the type of a code segment.
func CodeSegment(conforming, readable, accessed bool) Type {
	return Type(1<<3 | bitfield.Bool(conforming)<<2 | bitfield.Bool(readable)<<1 | bitfield.Bool(accessed))
}

// DataSegment returns the type of a data segment.
func DataSegment(downwards, writable, accessed bool) Type {
	return Type(0<<3 | bitfield.Bool(downwards)<<2 | bitfield.Bool(writable)<<1 | bitfield.Bool(accessed))
}

// DescriptorFlag is a single-bit attribute of a segment descriptor.
type DescriptorFlag uint8

const (
	// FlagPresent marks the segment as present in memory. Loading a selector
	// for a non-present segment raises #NP.
	FlagPresent DescriptorFlag = 1 << iota

	// FlagSystem marks a system descriptor (TSS, LDT, gates) by clearing the
	// S bit; code and data descriptors leave it unset.
	FlagSystem

	// FlagAvailable is the AVL bit, free for software use.
	FlagAvailable

	// FlagLong marks a 64-bit code segment (L bit).
	FlagLong

	// FlagSize32 selects 32-bit default operand size (D/B bit).
	FlagSize32

	// FlagGranular scales the limit by 4 KiB (G bit).
	FlagGranular
)

// Descriptor is a GDT/LDT segment descriptor.
type Descriptor uint64

// Compile-time check that the descriptor matches the hardware size.
var _ [8 - unsafe.Sizeof(Descriptor(0))]byte

var (
	descLimitLow  = bitfield.Field{Shift: 0, Width: 16}
	descBaseLow   = bitfield.Field{Shift: 16, Width: 16}
	descBaseMid   = bitfield.Field{Shift: 32, Width: 8}
	descType      = bitfield.Field{Shift: 40, Width: 4}
	descS         = bitfield.Field{Shift: 44, Width: 1}
	descDPL       = bitfield.Field{Shift: 45, Width: 2}
	descPresent   = bitfield.Field{Shift: 47, Width: 1}
	descLimitHigh = bitfield.Field{Shift: 48, Width: 4}
	descAVL       = bitfield.Field{Shift: 52, Width: 1}
	descLong      = bitfield.Field{Shift: 53, Width: 1}
	descSize32    = bitfield.Field{Shift: 54, Width: 1}
	descGranular  = bitfield.Field{Shift: 55, Width: 1}
	descBaseHigh  = bitfield.Field{Shift: 56, Width: 8}
)

// NullDescriptor is the descriptor that must occupy index 0 of the GDT.
const NullDescriptor = Descriptor(0)

// NewDescriptor builds a segment descriptor. Values that do not fit their
// hardware fields are rejected rather than truncated.
func NewDescriptor(base, limit uint32, typ Type, dpl Privilege, flags DescriptorFlag) (Descriptor, *kernel.Error) {
	switch {
	case limit > 0xfffff:
		return NullDescriptor, ErrInvalidLimit
	case typ > 0xf:
		return NullDescriptor, ErrInvalidType
	case dpl > Ring3:
		return NullDescriptor, ErrInvalidPrivilege
	case flags&FlagLong != 0 && flags&FlagSize32 != 0:
		return NullDescriptor, ErrInvalidFlags
	}

	word, err := bitfield.Pack(
		descType.Of(uint64(typ)),
		descS.Of(bitfield.Bool(flags&FlagSystem == 0)),
		descDPL.Of(uint64(dpl)),
		descPresent.Of(bitfield.Bool(flags&FlagPresent != 0)),
		descAVL.Of(bitfield.Bool(flags&FlagAvailable != 0)),
		descLong.Of(bitfield.Bool(flags&FlagLong != 0)),
		descSize32.Of(bitfield.Bool(flags&FlagSize32 != 0)),
		descGranular.Of(bitfield.Bool(flags&FlagGranular != 0)),
	)
	if err != nil {
		return NullDescriptor, err
	}

	if word, err = bitfield.Scatter(word, uint64(limit), descLimitLow, descLimitHigh); err != nil {
		return NullDescriptor, ErrInvalidLimit
	}

	if word, err = bitfield.Scatter(word, uint64(base), descBaseLow, descBaseMid, descBaseHigh); err != nil {
		return NullDescriptor, err
	}

	return Descriptor(word), nil
}

// FlatCode returns a present, readable 32-bit code segment spanning the whole
// 4 GiB linear address space.
func FlatCode(dpl Privilege) (Descriptor, *kernel.Error) {
	return NewDescriptor(0, 0xfffff, CodeSegment(false, true, true), dpl, FlagPresent|FlagSize32|FlagGranular)
}

// FlatData returns a present, writable 32-bit data segment spanning the whole
// 4 GiB linear address space.
func FlatData(dpl Privilege) (Descriptor, *kernel.Error) {
	return NewDescriptor(0, 0xfffff, DataSegment(false, true, true), dpl, FlagPresent|FlagSize32|FlagGranular)
}

// LongCode returns a present 64-bit code segment. Base and limit are ignored
// by the processor in long mode.
func LongCode(dpl Privilege) (Descriptor, *kernel.Error) {
	return NewDescriptor(0, 0xfffff, CodeSegment(false, true, true), dpl, FlagPresent|FlagLong|FlagGranular)
}

// Base returns the segment base address.
func (d Descriptor) Base() uint32 {
	return uint32(bitfield.Gather(uint64(d), descBaseLow, descBaseMid, descBaseHigh))
}

// Limit returns the raw 20-bit segment limit.
func (d Descriptor) Limit() uint32 {
	return uint32(bitfield.Gather(uint64(d), descLimitLow, descLimitHigh))
}

// ByteLimit returns the offset of the last addressable byte of the segment,
// taking granularity into account.
func (d Descriptor) ByteLimit() uint32 {
	if d.IsGranular() {
		return d.Limit()<<12 | 0xfff
	}
	return d.Limit()
}

// Type returns the descriptor type nibble.
func (d Descriptor) Type() Type {
	return Type(descType.Get(uint64(d)))
}

// Privilege returns the descriptor privilege level.
func (d Descriptor) Privilege() Privilege {
	return Privilege(descDPL.Get(uint64(d)))
}

// IsPresent returns true if the present bit is set.
func (d Descriptor) IsPresent() bool { return descPresent.Get(uint64(d)) != 0 }

// IsSystem returns true for system descriptors (S bit clear).
func (d Descriptor) IsSystem() bool { return descS.Get(uint64(d)) == 0 }

// IsCode returns true for code segment descriptors.
func (d Descriptor) IsCode() bool { return !d.IsSystem() && d.Type()&(1<<3) != 0 }

// IsAvailable returns true if the AVL bit is set.
func (d Descriptor) IsAvailable() bool { return descAVL.Get(uint64(d)) != 0 }

// IsLong returns true for 64-bit code segments.
func (d Descriptor) IsLong() bool { return descLong.Get(uint64(d)) != 0 }

// Is32Bit returns true if the default operand size is 32 bits.
func (d Descriptor) Is32Bit() bool { return descSize32.Get(uint64(d)) != 0 }

// IsGranular returns true if the limit is expressed in 4 KiB units.
func (d Descriptor) IsGranular() bool { return descGranular.Get(uint64(d)) != 0 }

// Flags returns the single-bit attributes of the descriptor.
func (d Descriptor) Flags() DescriptorFlag {
	var flags DescriptorFlag
	if d.IsPresent() {
		flags |= FlagPresent
	}
	if d.IsSystem() {
		flags |= FlagSystem
	}
	if d.IsAvailable() {
		flags |= FlagAvailable
	}
	if d.IsLong() {
		flags |= FlagLong
	}
	if d.Is32Bit() {
		flags |= FlagSize32
	}
	if d.IsGranular() {
		flags |= FlagGranular
	}
	return flags
}
