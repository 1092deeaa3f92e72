package paging

import "github.com/pedrolamarao/psys/kernel"

// ShortPageEntry maps a 4 KiB page in a 32-bit page table.
type ShortPageEntry uint32

// NewShortPageEntry builds an entry for the mapped page at addr.
func NewShortPageEntry(addr uint32, flags Flag) (ShortPageEntry, *kernel.Error) {
	word, err := shortPage.encode(uint64(addr), flags)
	return ShortPageEntry(word), err
}

// Address returns the physical address of the mapped page.
func (e ShortPageEntry) Address() uint32 { return uint32(shortPage.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e ShortPageEntry) Flags() Flag { return shortPage.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e ShortPageEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e ShortPageEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e ShortPageEntry) IsPresent() bool { return e.Flags().IsPresent() }

// ShortSmallDirEntry references a 32-bit page table from a page directory.
type ShortSmallDirEntry uint32

// NewShortSmallDirEntry builds an entry for the referenced page table at addr.
func NewShortSmallDirEntry(addr uint32, flags Flag) (ShortSmallDirEntry, *kernel.Error) {
	word, err := shortSmallDir.encode(uint64(addr), flags)
	return ShortSmallDirEntry(word), err
}

// Address returns the physical address of the referenced page table.
func (e ShortSmallDirEntry) Address() uint32 { return uint32(shortSmallDir.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e ShortSmallDirEntry) Flags() Flag { return shortSmallDir.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e ShortSmallDirEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e ShortSmallDirEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e ShortSmallDirEntry) IsPresent() bool { return e.Flags().IsPresent() }

// ShortLargeDirEntry maps a 4 MiB page directly from a 32-bit page directory; it requires CR4.PSE.
type ShortLargeDirEntry uint32

// NewShortLargeDirEntry builds an entry for the mapped page at addr.
func NewShortLargeDirEntry(addr uint32, flags Flag) (ShortLargeDirEntry, *kernel.Error) {
	word, err := shortLargeDir.encode(uint64(addr), flags)
	return ShortLargeDirEntry(word), err
}

// Address returns the physical address of the mapped page.
func (e ShortLargeDirEntry) Address() uint32 { return uint32(shortLargeDir.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e ShortLargeDirEntry) Flags() Flag { return shortLargeDir.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e ShortLargeDirEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e ShortLargeDirEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e ShortLargeDirEntry) IsPresent() bool { return e.Flags().IsPresent() }

// LongPageEntry maps a 4 KiB page in a PAE or IA-32e page table.
type LongPageEntry uint64

// NewLongPageEntry builds an entry for the mapped page at addr.
func NewLongPageEntry(addr uint64, flags Flag) (LongPageEntry, *kernel.Error) {
	word, err := longPage.encode(addr, flags)
	return LongPageEntry(word), err
}

// Address returns the physical address of the mapped page.
func (e LongPageEntry) Address() uint64 { return uint64(longPage.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e LongPageEntry) Flags() Flag { return longPage.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e LongPageEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e LongPageEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e LongPageEntry) IsPresent() bool { return e.Flags().IsPresent() }

// LongSmallDirEntry references a page table from a PAE or IA-32e page directory.
type LongSmallDirEntry uint64

// NewLongSmallDirEntry builds an entry for the referenced page table at addr.
func NewLongSmallDirEntry(addr uint64, flags Flag) (LongSmallDirEntry, *kernel.Error) {
	word, err := longSmallDir.encode(addr, flags)
	return LongSmallDirEntry(word), err
}

// Address returns the physical address of the referenced page table.
func (e LongSmallDirEntry) Address() uint64 { return uint64(longSmallDir.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e LongSmallDirEntry) Flags() Flag { return longSmallDir.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e LongSmallDirEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e LongSmallDirEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e LongSmallDirEntry) IsPresent() bool { return e.Flags().IsPresent() }

// LongLargeDirEntry maps a 2 MiB page directly from a PAE or IA-32e page directory.
type LongLargeDirEntry uint64

// NewLongLargeDirEntry builds an entry for the mapped page at addr.
func NewLongLargeDirEntry(addr uint64, flags Flag) (LongLargeDirEntry, *kernel.Error) {
	word, err := longLargeDir.encode(addr, flags)
	return LongLargeDirEntry(word), err
}

// Address returns the physical address of the mapped page.
func (e LongLargeDirEntry) Address() uint64 { return uint64(longLargeDir.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e LongLargeDirEntry) Flags() Flag { return longLargeDir.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e LongLargeDirEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e LongLargeDirEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e LongLargeDirEntry) IsPresent() bool { return e.Flags().IsPresent() }

// DirPointerEntry references a page directory from a page-directory-pointer table. Under 32-bit PAE paging only FlagPresent, FlagWriteThrough and FlagCacheDisable may be set.
type DirPointerEntry uint64

// NewDirPointerEntry builds an entry for the referenced page directory at addr.
func NewDirPointerEntry(addr uint64, flags Flag) (DirPointerEntry, *kernel.Error) {
	word, err := longTable.encode(addr, flags)
	return DirPointerEntry(word), err
}

// Address returns the physical address of the referenced page directory.
func (e DirPointerEntry) Address() uint64 { return uint64(longTable.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e DirPointerEntry) Flags() Flag { return longTable.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e DirPointerEntry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e DirPointerEntry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e DirPointerEntry) IsPresent() bool { return e.Flags().IsPresent() }

// PML4Entry references a page-directory-pointer table from the top-level IA-32e table.
type PML4Entry uint64

// NewPML4Entry builds an entry for the referenced table at addr.
func NewPML4Entry(addr uint64, flags Flag) (PML4Entry, *kernel.Error) {
	word, err := longTable.encode(addr, flags)
	return PML4Entry(word), err
}

// Address returns the physical address of the referenced table.
func (e PML4Entry) Address() uint64 { return uint64(longTable.address(uint64(e))) }

// Flags returns the flags set on the entry.
func (e PML4Entry) Flags() Flag { return longTable.flags(uint64(e)) }

// HasFlags returns true if the entry has all the input flags set.
func (e PML4Entry) HasFlags(flags Flag) bool { return e.Flags()&flags == flags }

// HasAnyFlag returns true if the entry has at least one of the input flags set.
func (e PML4Entry) HasAnyFlag(flags Flag) bool { return e.Flags()&flags != 0 }

// IsPresent returns true if the entry is present.
func (e PML4Entry) IsPresent() bool { return e.Flags().IsPresent() }
