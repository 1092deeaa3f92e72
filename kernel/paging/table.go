package paging

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/pinned"
)

// TableAlignment is the alignment required for every paging structure.
const TableAlignment = 4096

var (
	// ErrTableMisaligned is returned when a buffer is not suitably aligned
	// to hold a paging structure.
	ErrTableMisaligned = &kernel.Error{Module: "paging", Message: "table buffer is not 4096-byte aligned"}

	// ErrTableTooSmall is returned when a buffer cannot hold a paging
	// structure.
	ErrTableTooSmall = &kernel.Error{Module: "paging", Message: "table buffer smaller than 4096 bytes"}
)

// Short paging structures hold 1024 4-byte entries; long ones hold 512
// 8-byte entries.
const (
	ShortEntries = 1024
	LongEntries  = 512
)

// ShortPageTable is a 32-bit page table.
type ShortPageTable [ShortEntries]ShortPageEntry

// ShortDirectory is a 32-bit page directory. A slot holds either a small or
// a large entry; which kinds may be mixed depends on CR4.PSE and is left to
// the caller.
type ShortDirectory [ShortEntries]ShortDirEntry

// ShortDirEntry is a raw slot of a ShortDirectory.
type ShortDirEntry uint32

// LongPageTable is a PAE or IA-32e page table.
type LongPageTable [LongEntries]LongPageEntry

// LongDirectory is a PAE or IA-32e page directory.
type LongDirectory [LongEntries]LongDirEntry

// LongDirEntry is a raw slot of a LongDirectory.
type LongDirEntry uint64

// DirPointerTable is a page-directory-pointer table. Under 32-bit PAE paging
// only its first 4 entries are consulted.
type DirPointerTable [LongEntries]DirPointerEntry

// PML4Table is the top-level IA-32e paging structure.
type PML4Table [LongEntries]PML4Entry

var (
	_ [TableAlignment - unsafe.Sizeof(ShortPageTable{})]byte
	_ [TableAlignment - unsafe.Sizeof(ShortDirectory{})]byte
	_ [TableAlignment - unsafe.Sizeof(LongPageTable{})]byte
	_ [TableAlignment - unsafe.Sizeof(LongDirectory{})]byte
	_ [TableAlignment - unsafe.Sizeof(DirPointerTable{})]byte
	_ [TableAlignment - unsafe.Sizeof(PML4Table{})]byte
)

// IsLarge returns true if the slot holds a large page entry.
func (e ShortDirEntry) IsLarge() bool { return Flag(e)&FlagPageSize != 0 }

// Small returns the slot as a page table reference; ok is false for large
// entries.
func (e ShortDirEntry) Small() (entry ShortSmallDirEntry, ok bool) {
	return ShortSmallDirEntry(e), !e.IsLarge()
}

// Large returns the slot as a large page entry; ok is false for small
// entries.
func (e ShortDirEntry) Large() (entry ShortLargeDirEntry, ok bool) {
	return ShortLargeDirEntry(e), e.IsLarge()
}

// IsPresent returns true if the slot is present.
func (e ShortDirEntry) IsPresent() bool { return Flag(e).IsPresent() }

// IsLarge returns true if the slot holds a large page entry.
func (e LongDirEntry) IsLarge() bool { return Flag(e)&FlagPageSize != 0 }

// Small returns the slot as a page table reference.
func (e LongDirEntry) Small() (entry LongSmallDirEntry, ok bool) {
	return LongSmallDirEntry(e), !e.IsLarge()
}

// Large returns the slot as a large page entry.
func (e LongDirEntry) Large() (entry LongLargeDirEntry, ok bool) {
	return LongLargeDirEntry(e), e.IsLarge()
}

// IsPresent returns true if the slot is present.
func (e LongDirEntry) IsPresent() bool { return Flag(e).IsPresent() }

// SetSmall stores a page table reference in slot i.
func (d *ShortDirectory) SetSmall(i int, e ShortSmallDirEntry) { d[i] = ShortDirEntry(e) }

// SetLarge stores a large page entry in slot i.
func (d *ShortDirectory) SetLarge(i int, e ShortLargeDirEntry) { d[i] = ShortDirEntry(e) }

// SetSmall stores a page table reference in slot i.
func (d *LongDirectory) SetSmall(i int, e LongSmallDirEntry) { d[i] = LongDirEntry(e) }

// SetLarge stores a large page entry in slot i.
func (d *LongDirectory) SetLarge(i int, e LongLargeDirEntry) { d[i] = LongDirEntry(e) }

func checkTableBuffer(b pinned.Buffer) *kernel.Error {
	switch {
	case b.Size() < TableAlignment:
		return ErrTableTooSmall
	case !b.IsAligned(TableAlignment):
		return ErrTableMisaligned
	}
	return nil
}

// ShortPageTableAt places a ShortPageTable in b.
func ShortPageTableAt(b pinned.Buffer) (*ShortPageTable, *kernel.Error) {
	if err := checkTableBuffer(b); err != nil {
		return nil, err
	}
	return (*ShortPageTable)(b.Pointer()), nil
}

// ShortDirectoryAt places a ShortDirectory in b.
func ShortDirectoryAt(b pinned.Buffer) (*ShortDirectory, *kernel.Error) {
	if err := checkTableBuffer(b); err != nil {
		return nil, err
	}
	return (*ShortDirectory)(b.Pointer()), nil
}

// LongPageTableAt places a LongPageTable in b.
func LongPageTableAt(b pinned.Buffer) (*LongPageTable, *kernel.Error) {
	if err := checkTableBuffer(b); err != nil {
		return nil, err
	}
	return (*LongPageTable)(b.Pointer()), nil
}

// LongDirectoryAt places a LongDirectory in b.
func LongDirectoryAt(b pinned.Buffer) (*LongDirectory, *kernel.Error) {
	if err := checkTableBuffer(b); err != nil {
		return nil, err
	}
	return (*LongDirectory)(b.Pointer()), nil
}

// DirPointerTableAt places a DirPointerTable in b.
func DirPointerTableAt(b pinned.Buffer) (*DirPointerTable, *kernel.Error) {
	if err := checkTableBuffer(b); err != nil {
		return nil, err
	}
	return (*DirPointerTable)(b.Pointer()), nil
}

// PML4TableAt places a PML4Table in b.
func PML4TableAt(b pinned.Buffer) (*PML4Table, *kernel.Error) {
	if err := checkTableBuffer(b); err != nil {
		return nil, err
	}
	return (*PML4Table)(b.Pointer()), nil
}
