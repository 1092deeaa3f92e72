// Package seg provides the x86 segmentation model: segment selectors, code
// and data segment descriptors (GDT/LDT entries) and the operations that bind
// a descriptor table and selectors to the running core.
package seg

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/bitfield"
)

var (
	// ErrInvalidPrivilege is returned when a privilege level above 3 is requested.
	ErrInvalidPrivilege = &kernel.Error{Module: "seg", Message: "privilege level exceeds 2 bits"}

	// ErrInvalidIndex is returned when a selector index does not fit 13 bits.
	ErrInvalidIndex = &kernel.Error{Module: "seg", Message: "selector index exceeds 13 bits"}
)

// Privilege is a hardware privilege level (ring); 0 is the most privileged.
type Privilege uint8

// Rings used by a flat kernel/user model.
const (
	Ring0 = Privilege(0)
	Ring3 = Privilege(3)
)

// Selector identifies a descriptor in the GDT or the LDT together with a
// requested privilege level.
type Selector uint16

var (
	selectorRPL   = bitfield.Field{Shift: 0, Width: 2}
	selectorTI    = bitfield.Field{Shift: 2, Width: 1}
	selectorIndex = bitfield.Field{Shift: 3, Width: 13}
)

// NullSelector refers to the mandatory null descriptor of the GDT.
const NullSelector = Selector(0)

// NewSelector builds a selector for the descriptor at index of the GDT (or
// the LDT if ldt is set) with the supplied requested privilege level.
func NewSelector(index uint16, ldt bool, rpl Privilege) (Selector, *kernel.Error) {
	if rpl > Ring3 {
		return NullSelector, ErrInvalidPrivilege
	}

	word, err := bitfield.Pack(
		selectorIndex.Of(uint64(index)),
		selectorTI.Of(bitfield.Bool(ldt)),
		selectorRPL.Of(uint64(rpl)),
	)
	if err != nil {
		return NullSelector, ErrInvalidIndex
	}

	return Selector(word), nil
}

// Index returns the descriptor table index referenced by the selector.
func (s Selector) Index() uint16 {
	return uint16(selectorIndex.Get(uint64(s)))
}

// IsLDT returns true if the selector refers to the local descriptor table.
func (s Selector) IsLDT() bool {
	return selectorTI.Get(uint64(s)) != 0
}

// Privilege returns the requested privilege level of the selector.
func (s Selector) Privilege() Privilege {
	return Privilege(selectorRPL.Get(uint64(s)))
}

// IsNull returns true for selectors that refer to the null descriptor
// regardless of their privilege bits.
func (s Selector) IsNull() bool {
	return s.Index() == 0 && !s.IsLDT()
}
