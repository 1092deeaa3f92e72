package scenario

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/ctrl"
	"github.com/pedrolamarao/psys/kernel/paging"
	"github.com/pedrolamarao/psys/kernel/pinned"
)

var (
	// ErrPagingState is returned when CR0.PG does not hold the expected
	// value.
	ErrPagingState = &kernel.Error{Module: "scenario", Message: "paging is not in the expected state"}

	// ErrToggleState is returned when a control flag does not read back as
	// the last value written.
	ErrToggleState = &kernel.Error{Module: "scenario", Message: "control flag does not hold the written value"}

	// ErrPagingControl is returned when CR3 does not read back as the
	// paging control that was stored.
	ErrPagingControl = &kernel.Error{Module: "scenario", Message: "paging control does not hold the written value"}

	// ErrTranslation is returned when an identity map does not translate
	// an address to itself.
	ErrTranslation = &kernel.Error{Module: "scenario", Message: "identity map does not translate to the same address"}

	// pagingStorage holds two 4096-byte aligned tables.
	pagingStorage [3 * paging.TableAlignment]byte

	pagingToggle        = ctrl.Paging
	largePagesToggle    = ctrl.LargePages
	longAddressesToggle = ctrl.LongAddresses

	setPagingFn      = ctrl.SetPaging
	getShortPagingFn = ctrl.GetShortPaging
	getLongPagingFn  = ctrl.GetLongPaging
)

// identityFlags are the flags of every identity-mapped entry.
const identityFlags = paging.FlagPresent | paging.FlagWritable

// tableBuffer returns the i-th (0 or 1) aligned table buffer within
// pagingStorage.
func tableBuffer(i int) (pinned.Buffer, *kernel.Error) {
	region, err := pinned.Carve(pagingStorage[:], 2*paging.TableAlignment, paging.TableAlignment)
	if err != nil {
		return pinned.Buffer{}, err
	}
	return pinned.Carve(region.Bytes()[i*paging.TableAlignment:], paging.TableAlignment, paging.TableAlignment)
}

// checkToggle flips t off, on and off again, reading it back each time.
func checkToggle(t ctrl.Toggle) *kernel.Error {
	for _, enable := range []bool{false, true, false} {
		if enable {
			t.Enable()
		} else {
			t.Disable()
		}
		if t.IsEnabled() != enable {
			return ErrToggleState
		}
	}
	return nil
}

// checkShortPagingControl stores each control in CR3 and reads it back. The
// previous CR3 is restored afterwards.
func checkShortPagingControl() *kernel.Error {
	saved := getShortPagingFn()
	defer setPagingFn(saved)

	specs := []struct {
		wt, cd bool
		base   uint32
	}{
		{false, false, 0},
		{true, true, 0x1000},
	}

	for _, spec := range specs {
		c, err := ctrl.NewShortPagingControl(spec.wt, spec.cd, spec.base)
		if err != nil {
			return err
		}
		setPagingFn(c)
		if getShortPagingFn() != c {
			return ErrPagingControl
		}
	}
	return nil
}

// withPaging points CR3 at dir, enables paging, checks that it reads back as
// enabled, then disables it again.
func withPaging(dir pinned.Buffer) *kernel.Error {
	if dir.Addr() > 0xffffffff {
		return paging.ErrAddressTooWide
	}

	c, err := ctrl.NewShortPagingControl(false, false, uint32(dir.Addr()))
	if err != nil {
		return err
	}

	saved := getShortPagingFn()
	defer setPagingFn(saved)
	setPagingFn(c)

	pagingToggle.Enable()
	enabled := pagingToggle.IsEnabled()
	pagingToggle.Disable()

	if !enabled || pagingToggle.IsEnabled() {
		return ErrPagingState
	}
	return nil
}

// checkIdentity verifies that dir translates each address to itself.
func checkIdentity(dir *paging.ShortDirectory, addrs ...uint32) *kernel.Error {
	for _, addr := range addrs {
		got, err := paging.Translate(dir, addr)
		if err != nil {
			return err
		}
		if got != addr {
			return ErrTranslation
		}
	}
	return nil
}

// ShortPaging exercises 32-bit paging with paging initially disabled: the
// PSE and PAE toggles, the CR3 round-trip, a 4 MiB identity map built from
// small pages and a full identity map built from large pages. Paging is
// enabled under each map and disabled again.
func ShortPaging() *kernel.Error {
	step(100)
	if err := checkToggle(largePagesToggle); err != nil {
		return fail(err)
	}

	step(120)
	if err := checkToggle(longAddressesToggle); err != nil {
		return fail(err)
	}

	step(130)
	if err := checkShortPagingControl(); err != nil {
		return fail(err)
	}

	step(200)
	if pagingToggle.IsEnabled() {
		return fail(ErrPagingState)
	}

	dirBuf, err := tableBuffer(0)
	if err != nil {
		return fail(err)
	}
	tableBuf, err := tableBuffer(1)
	if err != nil {
		return fail(err)
	}
	dir, err := paging.ShortDirectoryAt(dirBuf)
	if err != nil {
		return fail(err)
	}
	table, err := paging.ShortPageTableAt(tableBuf)
	if err != nil {
		return fail(err)
	}

	step(201)
	*dir = paging.ShortDirectory{}
	if err = paging.IdentityMapShortSmall(dir, table, 0, identityFlags); err != nil {
		return fail(err)
	}
	if err = checkIdentity(dir, 0, 0x1234, paging.ShortLargeSize-1); err != nil {
		return fail(err)
	}

	step(202)
	if err = withPaging(dirBuf); err != nil {
		return fail(err)
	}

	step(210)
	if err = paging.IdentityMapShortLarge(dir, identityFlags); err != nil {
		return fail(err)
	}
	if err = checkIdentity(dir, 0x1234, 0x12345678, 0xffffffff); err != nil {
		return fail(err)
	}

	step(211)
	largePagesToggle.Enable()
	err = withPaging(dirBuf)
	largePagesToggle.Disable()
	if err != nil {
		return fail(err)
	}

	return nil
}

// LongPaging checks the paging state of a core already running with 64-bit
// paging: CR0.PG and CR4.PAE must be set and CR3 must survive being stored
// again. It also builds identity maps of the first GiB from 2 MiB pages and of
// the first 2 MiB from 4 KiB pages without activating them.
func LongPaging() *kernel.Error {
	step(300)
	if !pagingToggle.IsEnabled() {
		return fail(ErrPagingState)
	}
	if !longAddressesToggle.IsEnabled() {
		return fail(ErrToggleState)
	}

	step(310)
	dirBuf, err := tableBuffer(0)
	if err != nil {
		return fail(err)
	}
	tableBuf, err := tableBuffer(1)
	if err != nil {
		return fail(err)
	}
	dir, err := paging.LongDirectoryAt(dirBuf)
	if err != nil {
		return fail(err)
	}
	table, err := paging.LongPageTableAt(tableBuf)
	if err != nil {
		return fail(err)
	}
	if err = paging.IdentityMapLongLarge(dir, 0, identityFlags); err != nil {
		return fail(err)
	}
	if err = paging.IdentityMapLongSmall(table, 0, identityFlags); err != nil {
		return fail(err)
	}

	last, ok := dir[paging.LongEntries-1].Large()
	if !ok || last.Address() != paging.LongDirectorySpan-paging.LongLargeSize {
		return fail(ErrTranslation)
	}
	if table[1].Address() != paging.PageSize {
		return fail(ErrTranslation)
	}

	step(320)
	c := getLongPagingFn()
	setPagingFn(c)
	if getLongPagingFn() != c {
		return fail(ErrPagingControl)
	}

	return nil
}
