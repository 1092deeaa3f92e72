// Package paging provides typed page-table entries for the 32-bit ("short")
// and PAE/IA-32e ("long") paging structures, page tables backed by pinned
// memory and identity-map builders.
//
// Every entry family validates its physical address and flags on
// construction. Large directory entries always carry FlagPageSize.
package paging

import "github.com/pedrolamarao/psys/kernel"

var (
	// ErrMisalignedAddress is returned when an entry address is not aligned
	// to the page or table size of its family.
	ErrMisalignedAddress = &kernel.Error{Module: "paging", Message: "address is not aligned for entry kind"}

	// ErrAddressTooWide is returned when an entry address does not fit the
	// address field of its family.
	ErrAddressTooWide = &kernel.Error{Module: "paging", Message: "address exceeds entry address width"}

	// ErrInvalidFlags is returned when an entry is built with flags that its
	// family does not define.
	ErrInvalidFlags = &kernel.Error{Module: "paging", Message: "flags not valid for entry kind"}
)

// Flag describes a flag that can be applied to a page-table entry.
type Flag uint64

const (
	// FlagPresent is set if the entry maps a page or references a table.
	FlagPresent Flag = 1 << iota

	// FlagWritable allows writes through the entry.
	FlagWritable

	// FlagUser allows access from privilege level 3.
	FlagUser

	// FlagWriteThrough selects write-through caching.
	FlagWriteThrough

	// FlagCacheDisable disables caching.
	FlagCacheDisable

	// FlagAccessed is set by the processor when the entry is used.
	FlagAccessed

	// FlagDirty is set by the processor when the mapped page is written.
	FlagDirty

	// FlagPageSize marks a directory entry that maps a large page.
	FlagPageSize

	// FlagGlobal keeps the translation across CR3 reloads when CR4.PGE is set.
	FlagGlobal

	// FlagNoExecute prevents instruction fetches from the mapped region.
	FlagNoExecute Flag = 1 << 63
)

const (
	shortPageFlags  = FlagPresent | FlagWritable | FlagUser | FlagWriteThrough | FlagCacheDisable | FlagAccessed | FlagDirty | FlagGlobal
	shortTableFlags = FlagPresent | FlagWritable | FlagUser | FlagWriteThrough | FlagCacheDisable | FlagAccessed
	shortLargeFlags = shortPageFlags | FlagPageSize
	longPageFlags   = shortPageFlags | FlagNoExecute
	longTableFlags  = shortTableFlags | FlagNoExecute
	longLargeFlags  = longPageFlags | FlagPageSize
)

// Address shifts of the entry families.
const (
	PageShift       = 12
	ShortLargeShift = 22
	LongLargeShift  = 21

	PageSize       = 1 << PageShift
	ShortLargeSize = 1 << ShortLargeShift
	LongLargeSize  = 1 << LongLargeShift
)

// longAddressBits is the physical address width supported by long entries.
const longAddressBits = 52

// family captures the encoding rules of one entry kind.
type family struct {
	shift   uint8
	width   uint8
	allowed Flag
	implied Flag
}

var (
	shortPage     = family{PageShift, 32, shortPageFlags, 0}
	shortSmallDir = family{PageShift, 32, shortTableFlags, 0}
	shortLargeDir = family{ShortLargeShift, 32, shortLargeFlags, FlagPageSize}
	longPage      = family{PageShift, longAddressBits, longPageFlags, 0}
	longSmallDir  = family{PageShift, longAddressBits, longTableFlags, 0}
	longLargeDir  = family{LongLargeShift, longAddressBits, longLargeFlags, FlagPageSize}
	longTable     = family{PageShift, longAddressBits, longTableFlags, 0}
)

func (f family) addressMask() uint64 {
	return (uint64(1)<<f.width - 1) &^ (uint64(1)<<f.shift - 1)
}

func (f family) encode(addr uint64, flags Flag) (uint64, *kernel.Error) {
	switch {
	case addr&(uint64(1)<<f.shift-1) != 0:
		return 0, ErrMisalignedAddress
	case addr>>f.width != 0:
		return 0, ErrAddressTooWide
	case flags&^f.allowed != 0:
		return 0, ErrInvalidFlags
	}

	return addr | uint64(flags|f.implied), nil
}

func (f family) address(word uint64) uint64 {
	return word & f.addressMask()
}

func (f family) flags(word uint64) Flag {
	return Flag(word) & f.allowed
}

// IsPresent returns true if FlagPresent is set.
func (f Flag) IsPresent() bool { return f&FlagPresent != 0 }

// IsWritable returns true if FlagWritable is set.
func (f Flag) IsWritable() bool { return f&FlagWritable != 0 }

// IsUser returns true if FlagUser is set.
func (f Flag) IsUser() bool { return f&FlagUser != 0 }

// IsWriteThrough returns true if FlagWriteThrough is set.
func (f Flag) IsWriteThrough() bool { return f&FlagWriteThrough != 0 }

// IsCacheDisabled returns true if FlagCacheDisable is set.
func (f Flag) IsCacheDisabled() bool { return f&FlagCacheDisable != 0 }

// IsAccessed returns true if FlagAccessed is set.
func (f Flag) IsAccessed() bool { return f&FlagAccessed != 0 }

// IsDirty returns true if FlagDirty is set.
func (f Flag) IsDirty() bool { return f&FlagDirty != 0 }

// IsLarge returns true if FlagPageSize is set.
func (f Flag) IsLarge() bool { return f&FlagPageSize != 0 }

// IsGlobal returns true if FlagGlobal is set.
func (f Flag) IsGlobal() bool { return f&FlagGlobal != 0 }

// IsNoExecute returns true if FlagNoExecute is set.
func (f Flag) IsNoExecute() bool { return f&FlagNoExecute != 0 }
