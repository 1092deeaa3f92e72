package paging

import (
	"testing"
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/pinned"
)

func TestEntryEncoding(t *testing.T) {
	specs := []struct {
		build   func() (uint64, error)
		expWord uint64
		expErr  error
	}{
		{
			func() (uint64, error) {
				e, err := NewShortPageEntry(0x1000, FlagPresent|FlagWritable)
				return uint64(e), errOrNil(err)
			},
			0x1003, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewShortPageEntry(0xfffff000, FlagPresent|FlagGlobal|FlagDirty)
				return uint64(e), errOrNil(err)
			},
			0xfffff141, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewShortPageEntry(0x1001, FlagPresent)
				return uint64(e), errOrNil(err)
			},
			0, ErrMisalignedAddress,
		},
		{
			func() (uint64, error) {
				e, err := NewShortPageEntry(0x1000, FlagNoExecute)
				return uint64(e), errOrNil(err)
			},
			0, ErrInvalidFlags,
		},
		{
			func() (uint64, error) {
				e, err := NewShortSmallDirEntry(0x2000, FlagPresent|FlagUser)
				return uint64(e), errOrNil(err)
			},
			0x2005, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewShortSmallDirEntry(0x2000, FlagPageSize)
				return uint64(e), errOrNil(err)
			},
			0, ErrInvalidFlags,
		},
		{
			func() (uint64, error) {
				e, err := NewShortLargeDirEntry(0x00400000, FlagPresent|FlagWritable)
				return uint64(e), errOrNil(err)
			},
			0x00400083, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewShortLargeDirEntry(0x00201000, FlagPresent)
				return uint64(e), errOrNil(err)
			},
			0, ErrMisalignedAddress,
		},
		{
			func() (uint64, error) {
				e, err := NewLongPageEntry(0x000ffffffffff000, FlagPresent|FlagNoExecute)
				return uint64(e), errOrNil(err)
			},
			0x800ffffffffff001, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewLongPageEntry(0x0010000000000000, FlagPresent)
				return uint64(e), errOrNil(err)
			},
			0, ErrAddressTooWide,
		},
		{
			func() (uint64, error) {
				e, err := NewLongSmallDirEntry(0x3000, FlagPresent|FlagWritable)
				return uint64(e), errOrNil(err)
			},
			0x3003, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewLongSmallDirEntry(0x3000, FlagGlobal)
				return uint64(e), errOrNil(err)
			},
			0, ErrInvalidFlags,
		},
		{
			func() (uint64, error) {
				e, err := NewLongLargeDirEntry(0x00200000, FlagPresent)
				return uint64(e), errOrNil(err)
			},
			0x00200081, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewLongLargeDirEntry(0x00100000, FlagPresent)
				return uint64(e), errOrNil(err)
			},
			0, ErrMisalignedAddress,
		},
		{
			func() (uint64, error) {
				e, err := NewDirPointerEntry(0x4000, FlagPresent|FlagWriteThrough|FlagCacheDisable)
				return uint64(e), errOrNil(err)
			},
			0x4019, nil,
		},
		{
			func() (uint64, error) {
				e, err := NewPML4Entry(0x5000, FlagPresent|FlagWritable|FlagAccessed)
				return uint64(e), errOrNil(err)
			},
			0x5023, nil,
		},
	}

	for specIndex, spec := range specs {
		word, err := spec.build()
		if err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}
		if err == nil && word != spec.expWord {
			t.Errorf("[spec %d] expected entry %#x; got %#x", specIndex, spec.expWord, word)
		}
	}
}

// errOrNil keeps a nil *kernel.Error from becoming a non-nil error.
func errOrNil(err *kernel.Error) error {
	if err == nil {
		return nil
	}
	return err
}

func TestEntryRoundTrip(t *testing.T) {
	flagSets := []Flag{
		0,
		FlagPresent,
		FlagPresent | FlagWritable | FlagUser,
		FlagPresent | FlagWriteThrough | FlagCacheDisable | FlagAccessed,
	}

	for _, flags := range flagSets {
		for i := uint32(0); i < ShortEntries; i++ {
			page, err := NewShortPageEntry(i<<PageShift, flags|FlagDirty|FlagGlobal)
			if err != nil {
				t.Fatal(err)
			}
			if page.Address() != i<<PageShift || page.Flags() != flags|FlagDirty|FlagGlobal {
				t.Fatalf("short page entry %#x does not round-trip", page)
			}

			large, err := NewShortLargeDirEntry(i<<ShortLargeShift, flags)
			if err != nil {
				t.Fatal(err)
			}
			if large.Address() != i<<ShortLargeShift || large.Flags() != flags|FlagPageSize {
				t.Fatalf("short large entry %#x does not round-trip", large)
			}

			small, err := NewShortSmallDirEntry(i<<PageShift, flags)
			if err != nil {
				t.Fatal(err)
			}
			if small.Address() != i<<PageShift || small.Flags() != flags {
				t.Fatalf("short small entry %#x does not round-trip", small)
			}
		}

		for i := uint64(0); i < LongEntries; i++ {
			addr := i<<LongLargeShift | 0x000f000000000000
			long, err := NewLongLargeDirEntry(addr, flags|FlagNoExecute)
			if err != nil {
				t.Fatal(err)
			}
			if long.Address() != addr || long.Flags() != flags|FlagNoExecute|FlagPageSize {
				t.Fatalf("long large entry %#x does not round-trip", long)
			}

			page, err := NewLongPageEntry(addr|i<<PageShift, flags)
			if err != nil {
				t.Fatal(err)
			}
			if page.Address() != addr|i<<PageShift || page.Flags() != flags {
				t.Fatalf("long page entry %#x does not round-trip", page)
			}
		}
	}
}

func TestFlagQueries(t *testing.T) {
	e, err := NewLongPageEntry(0x1000, FlagPresent|FlagWritable|FlagDirty|FlagNoExecute)
	if err != nil {
		t.Fatal(err)
	}

	f := e.Flags()
	if !e.IsPresent() || !f.IsWritable() || !f.IsDirty() || !f.IsNoExecute() {
		t.Error("expected present, writable, dirty and no-execute flags to be reported")
	}
	if f.IsUser() || f.IsWriteThrough() || f.IsCacheDisabled() || f.IsAccessed() || f.IsGlobal() || f.IsLarge() {
		t.Error("unexpected flag reported as set")
	}

	if !e.HasFlags(FlagPresent|FlagWritable) || e.HasFlags(FlagPresent|FlagUser) {
		t.Error("unexpected HasFlags result")
	}
	if !e.HasAnyFlag(FlagUser|FlagDirty) || e.HasAnyFlag(FlagUser|FlagGlobal) {
		t.Error("unexpected HasAnyFlag result")
	}
}

func TestTableAt(t *testing.T) {
	b, err := pinned.Aligned(TableAlignment, TableAlignment)
	if err != nil {
		t.Fatal(err)
	}

	pt, kerr := ShortPageTableAt(b)
	if kerr != nil {
		t.Fatal(kerr)
	}
	if uintptr(unsafe.Pointer(pt)) != b.Addr() {
		t.Fatal("expected table to be placed at the buffer address")
	}

	if _, kerr = LongDirectoryAt(pinned.At(b.Addr()+8, TableAlignment)); kerr != ErrTableMisaligned {
		t.Fatalf("expected ErrTableMisaligned; got %v", kerr)
	}
	if _, kerr = PML4TableAt(pinned.At(b.Addr(), TableAlignment/2)); kerr != ErrTableTooSmall {
		t.Fatalf("expected ErrTableTooSmall; got %v", kerr)
	}

	for _, fn := range []func() error{
		func() error { _, err := ShortDirectoryAt(b); return errOrNil(err) },
		func() error { _, err := LongPageTableAt(b); return errOrNil(err) },
		func() error { _, err := DirPointerTableAt(b); return errOrNil(err) },
	} {
		if err := fn(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIdentityMapShortSmall(t *testing.T) {
	defer func() {
		physAddrFn = func(p unsafe.Pointer) uintptr { return uintptr(p) }
	}()

	var (
		dir   ShortDirectory
		table ShortPageTable
	)
	physAddrFn = func(unsafe.Pointer) uintptr { return 0x00200000 }

	if err := IdentityMapShortSmall(&dir, &table, 0, FlagPresent|FlagWritable); err != nil {
		t.Fatal(err)
	}

	for i := range table {
		if exp := uint32(i) * 0x1000; table[i].Address() != exp || !table[i].IsPresent() {
			t.Fatalf("expected slot %d to map %#x; got %#x", i, exp, table[i].Address())
		}
	}

	small, ok := dir[0].Small()
	if !ok || !small.IsPresent() || small.Address() != 0x00200000 {
		t.Fatalf("expected directory slot 0 to reference the page table; got %#x", dir[0])
	}
	for i := 1; i < ShortEntries; i++ {
		if dir[i] != 0 {
			t.Fatalf("expected directory slot %d to be left untouched", i)
		}
	}

	if err := IdentityMapShortSmall(&dir, &table, 0x1000, FlagPresent); err != ErrMisalignedAddress {
		t.Fatalf("expected ErrMisalignedAddress; got %v", err)
	}

	if unsafe.Sizeof(uintptr(0)) == 8 {
		wide := uint64(1) << 32
		physAddrFn = func(unsafe.Pointer) uintptr { return uintptr(wide) }
		if err := IdentityMapShortSmall(&dir, &table, 0, FlagPresent); err != ErrAddressTooWide {
			t.Fatalf("expected ErrAddressTooWide; got %v", err)
		}
	}
}

func TestIdentityMapShortLarge(t *testing.T) {
	var dir ShortDirectory
	if err := IdentityMapShortLarge(&dir, FlagPresent|FlagWritable); err != nil {
		t.Fatal(err)
	}

	for i := range dir {
		large, ok := dir[i].Large()
		if exp := uint32(i) * 0x400000; !ok || large.Address() != exp {
			t.Fatalf("expected slot %d to map %#x; got %#x", i, exp, large.Address())
		}
	}

	if err := IdentityMapShortLarge(&dir, FlagNoExecute); err != ErrInvalidFlags {
		t.Fatalf("expected ErrInvalidFlags; got %v", err)
	}
}

func TestIdentityMapLong(t *testing.T) {
	var (
		dir   LongDirectory
		table LongPageTable
	)

	if err := IdentityMapLongLarge(&dir, LongDirectorySpan, FlagPresent); err != nil {
		t.Fatal(err)
	}
	for i := range dir {
		large, ok := dir[i].Large()
		if exp := uint64(LongDirectorySpan) + uint64(i)*0x200000; !ok || large.Address() != exp {
			t.Fatalf("expected slot %d to map %#x; got %#x", i, exp, large.Address())
		}
	}

	if err := IdentityMapLongSmall(&table, 0x200000, FlagPresent|FlagWritable); err != nil {
		t.Fatal(err)
	}
	for i := range table {
		if exp := 0x200000 + uint64(i)*0x1000; table[i].Address() != exp {
			t.Fatalf("expected slot %d to map %#x; got %#x", i, exp, table[i].Address())
		}
	}

	if err := IdentityMapLongLarge(&dir, 0x200000, FlagPresent); err != ErrMisalignedAddress {
		t.Fatalf("expected ErrMisalignedAddress; got %v", err)
	}
	if err := IdentityMapLongSmall(&table, 0x1000, FlagPresent); err != ErrMisalignedAddress {
		t.Fatalf("expected ErrMisalignedAddress; got %v", err)
	}

	small, err := NewLongSmallDirEntry(0x3000, FlagPresent)
	if err != nil {
		t.Fatal(err)
	}
	dir.SetSmall(7, small)
	if got, ok := dir[7].Small(); !ok || got != small || !dir[7].IsPresent() || dir[7].IsLarge() {
		t.Fatal("expected slot 7 to hold a small entry")
	}
}

func TestTranslate(t *testing.T) {
	defer func() {
		physAddrFn = func(p unsafe.Pointer) uintptr { return uintptr(p) }
		ptePtrFn = func(addr uintptr) unsafe.Pointer { return unsafe.Pointer(addr) }
	}()

	var (
		dir   ShortDirectory
		table ShortPageTable
	)

	const fakeTableAddr = 0x00300000
	physAddrFn = func(unsafe.Pointer) uintptr { return fakeTableAddr }
	ptePtrFn = func(addr uintptr) unsafe.Pointer {
		if addr != fakeTableAddr {
			t.Fatalf("unexpected table address %#x", addr)
		}
		return unsafe.Pointer(&table)
	}

	if err := IdentityMapShortSmall(&dir, &table, 0, FlagPresent); err != nil {
		t.Fatal(err)
	}
	large, err := NewShortLargeDirEntry(0x00800000, FlagPresent)
	if err != nil {
		t.Fatal(err)
	}
	dir.SetLarge(2, large)
	table[5] = 0

	specs := []struct {
		virt   uint32
		exp    uint32
		expErr error
	}{
		{0x00000000, 0x00000000, nil},
		{0x00001234, 0x00001234, nil},
		{0x003fffff, 0x003fffff, nil},
		{0x00005010, 0, ErrInvalidMapping},
		{0x00812345, 0x00812345, nil},
		{0x00400000, 0, ErrInvalidMapping},
	}

	for specIndex, spec := range specs {
		got, kerr := Translate(&dir, spec.virt)
		if err := errOrNil(kerr); err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}
		if got != spec.exp {
			t.Errorf("[spec %d] expected %#x to translate to %#x; got %#x", specIndex, spec.virt, spec.exp, got)
		}
	}

	if PageOffset(0x12345) != 0x345 {
		t.Fatal("unexpected page offset")
	}
}
