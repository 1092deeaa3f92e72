package ctrl

import "github.com/pedrolamarao/psys/kernel"

// NativePagingControl is the CR3 view of the paging mode this kernel is
// built for.
type NativePagingControl = ShortPagingControl

// NewNativePagingControl builds a CR3 value for base.
func NewNativePagingControl(wt, cd bool, base uintptr) (NativePagingControl, *kernel.Error) {
	return NewShortPagingControl(wt, cd, uint32(base))
}

// GetNativePaging reads CR3.
func GetNativePaging() NativePagingControl { return GetShortPaging() }
