package ctrl

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/bitfield"
)

// ErrMisalignedBase is returned when a paging structure base is not aligned
// to 4096 bytes.
var ErrMisalignedBase = &kernel.Error{Module: "ctrl", Message: "paging structure base is not 4096-byte aligned"}

// ErrBaseOverflow is returned by SetPaging when a paging control does not fit
// the CR3 of the running core, such as a long control above 4 GiB on 386.
var ErrBaseOverflow = &kernel.Error{Module: "ctrl", Message: "paging control exceeds the width of CR3"}

// cr3Limit is the largest value CR3 holds on the running core.
var cr3Limit = uint64(^uintptr(0))

var (
	cr3WriteThrough = bitfield.Field{Shift: 3, Width: 1}
	cr3CacheDisable = bitfield.Field{Shift: 4, Width: 1}
)

const cr3BaseMask = ^uint64(0xfff)

// PagingControl is the content of CR3: the cache policy for the top-level
// paging structure and its physical address.
type PagingControl interface {
	WriteThrough() bool
	CacheDisable() bool
	Base() uint64

	word() uint64
}

func encodeCR3(wt, cd bool, base uint64) (uint64, *kernel.Error) {
	if base&^cr3BaseMask != 0 {
		return 0, ErrMisalignedBase
	}
	word, _ := bitfield.Pack(cr3WriteThrough.Of(bitfield.Bool(wt)), cr3CacheDisable.Of(bitfield.Bool(cd)))
	return word | base, nil
}

// ShortPagingControl is CR3 under 32-bit paging.
type ShortPagingControl struct {
	wt, cd bool
	base   uint32
}

// NewShortPagingControl builds a CR3 value referencing the page directory at
// base.
func NewShortPagingControl(wt, cd bool, base uint32) (ShortPagingControl, *kernel.Error) {
	if _, err := encodeCR3(wt, cd, uint64(base)); err != nil {
		return ShortPagingControl{}, err
	}
	return ShortPagingControl{wt: wt, cd: cd, base: base}, nil
}

// WriteThrough returns the page-level write-through bit.
func (c ShortPagingControl) WriteThrough() bool { return c.wt }

// CacheDisable returns the page-level cache-disable bit.
func (c ShortPagingControl) CacheDisable() bool { return c.cd }

// Base returns the page directory address.
func (c ShortPagingControl) Base() uint64 { return uint64(c.base) }

func (c ShortPagingControl) word() uint64 {
	word, _ := encodeCR3(c.wt, c.cd, uint64(c.base))
	return word
}

// LongPagingControl is CR3 under PAE or IA-32e paging.
type LongPagingControl struct {
	wt, cd bool
	base   uint64
}

// NewLongPagingControl builds a CR3 value referencing the top-level paging
// structure at base.
func NewLongPagingControl(wt, cd bool, base uint64) (LongPagingControl, *kernel.Error) {
	if _, err := encodeCR3(wt, cd, base); err != nil {
		return LongPagingControl{}, err
	}
	return LongPagingControl{wt: wt, cd: cd, base: base}, nil
}

// WriteThrough returns the page-level write-through bit.
func (c LongPagingControl) WriteThrough() bool { return c.wt }

// CacheDisable returns the page-level cache-disable bit.
func (c LongPagingControl) CacheDisable() bool { return c.cd }

// Base returns the top-level paging structure address.
func (c LongPagingControl) Base() uint64 { return c.base }

func (c LongPagingControl) word() uint64 {
	word, _ := encodeCR3(c.wt, c.cd, c.base)
	return word
}

func decodeCR3(word uint64) (wt, cd bool, base uint64) {
	return cr3WriteThrough.Get(word) != 0, cr3CacheDisable.Get(word) != 0, word & cr3BaseMask
}

// GetShortPaging reads CR3 as a 32-bit paging control. Reserved bits read
// back as zero.
func GetShortPaging() ShortPagingControl {
	wt, cd, base := decodeCR3(uint64(readCR3Fn()))
	return ShortPagingControl{wt: wt, cd: cd, base: uint32(base)}
}

// GetLongPaging reads CR3 as a long paging control.
func GetLongPaging() LongPagingControl {
	wt, cd, base := decodeCR3(uint64(readCR3Fn()))
	return LongPagingControl{wt: wt, cd: cd, base: base}
}

// SetPaging writes c to CR3. Under active paging this also flushes
// non-global TLB entries. A control wider than CR3 is rejected and CR3 is
// left unchanged.
func SetPaging(c PagingControl) *kernel.Error {
	word := c.word()
	if word > cr3Limit {
		return ErrBaseOverflow
	}

	writeCR3Fn(uintptr(word))
	return nil
}
