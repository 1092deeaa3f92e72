package paging

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
)

// LongDirectorySpan is the size of the region mapped by a directory full of
// 2 MiB entries.
const LongDirectorySpan = LongEntries * LongLargeSize

var (
	// ErrInvalidMapping is returned when translating an address that is
	// not mapped.
	ErrInvalidMapping = &kernel.Error{Module: "paging", Message: "virtual address does not point to a mapped physical page"}

	// physAddrFn returns the physical address of a paging structure. Tables
	// live in identity-mapped memory so this is the identity; tests replace
	// it to place tables below 4 GiB.
	physAddrFn = func(p unsafe.Pointer) uintptr {
		return uintptr(p)
	}

	// ptePtrFn returns a pointer to the table at the supplied physical
	// address. It is replaced by tests so Translate can follow fake
	// addresses.
	ptePtrFn = func(addr uintptr) unsafe.Pointer {
		return unsafe.Pointer(addr)
	}
)

// IdentityMapShortSmall fills table so that slot i maps base + i*4 KiB and
// points the directory slot covering base at table. base must be 4 MiB
// aligned. Other directory slots are left untouched.
func IdentityMapShortSmall(dir *ShortDirectory, table *ShortPageTable, base uint32, flags Flag) *kernel.Error {
	if base&(ShortLargeSize-1) != 0 {
		return ErrMisalignedAddress
	}

	for i := range table {
		entry, err := NewShortPageEntry(base+uint32(i)<<PageShift, flags)
		if err != nil {
			return err
		}
		table[i] = entry
	}

	tableAddr := uint64(physAddrFn(unsafe.Pointer(table)))
	if tableAddr > 0xffffffff {
		return ErrAddressTooWide
	}

	dirEntry, err := NewShortSmallDirEntry(uint32(tableAddr), flags&shortTableFlags)
	if err != nil {
		return err
	}

	dir.SetSmall(int(base>>ShortLargeShift), dirEntry)
	return nil
}

// IdentityMapShortLarge fills dir so that slot i maps i*4 MiB, covering the
// whole 32-bit address space. It requires CR4.PSE once active.
func IdentityMapShortLarge(dir *ShortDirectory, flags Flag) *kernel.Error {
	for i := range dir {
		entry, err := NewShortLargeDirEntry(uint32(i)<<ShortLargeShift, flags)
		if err != nil {
			return err
		}
		dir.SetLarge(i, entry)
	}
	return nil
}

// IdentityMapLongLarge fills dir so that slot i maps base + i*2 MiB. base
// must be aligned to LongDirectorySpan.
func IdentityMapLongLarge(dir *LongDirectory, base uint64, flags Flag) *kernel.Error {
	if base&(LongDirectorySpan-1) != 0 {
		return ErrMisalignedAddress
	}

	for i := range dir {
		entry, err := NewLongLargeDirEntry(base+uint64(i)<<LongLargeShift, flags)
		if err != nil {
			return err
		}
		dir.SetLarge(i, entry)
	}
	return nil
}

// IdentityMapLongSmall fills table so that slot i maps base + i*4 KiB. base
// must be 2 MiB aligned.
func IdentityMapLongSmall(table *LongPageTable, base uint64, flags Flag) *kernel.Error {
	if base&(LongLargeSize-1) != 0 {
		return ErrMisalignedAddress
	}

	for i := range table {
		entry, err := NewLongPageEntry(base+uint64(i)<<PageShift, flags)
		if err != nil {
			return err
		}
		table[i] = entry
	}
	return nil
}

// Translate returns the physical address that virt maps to under dir, or
// ErrInvalidMapping if it is not mapped. Page tables referenced by dir are
// read through their physical address, so they must be identity-mapped.
func Translate(dir *ShortDirectory, virt uint32) (uint32, *kernel.Error) {
	slot := dir[virt>>ShortLargeShift]
	if !slot.IsPresent() {
		return 0, ErrInvalidMapping
	}

	if large, ok := slot.Large(); ok {
		return large.Address() | virt&(ShortLargeSize-1), nil
	}

	small, _ := slot.Small()
	table := (*ShortPageTable)(ptePtrFn(uintptr(small.Address())))
	entry := table[(virt>>PageShift)&(ShortEntries-1)]
	if !entry.IsPresent() {
		return 0, ErrInvalidMapping
	}

	return entry.Address() | virt&(PageSize-1), nil
}

// PageOffset returns the offset of virt within its 4 KiB page.
func PageOffset(virt uintptr) uintptr {
	return virt & (PageSize - 1)
}
