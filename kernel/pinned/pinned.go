// Package pinned provides fixed-address memory regions that hardware
// structures (descriptor tables, page tables) can be placed in. A Buffer never
// moves for as long as it is reachable; activation calls borrow it and the
// caller keeps it alive while the processor may consult it.
package pinned

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
)

var (
	// ErrInvalidAlignment is returned when the requested alignment is not a
	// power of two.
	ErrInvalidAlignment = &kernel.Error{Module: "pinned", Message: "alignment is not a power of two"}

	// ErrInsufficientStorage is returned when the supplied storage cannot
	// hold a region of the requested size and alignment.
	ErrInsufficientStorage = &kernel.Error{Module: "pinned", Message: "storage too small for aligned region"}
)

// PageSize is the alignment required for page tables.
const PageSize = 4096

// Buffer is a region of memory with a fixed address.
type Buffer struct {
	addr uintptr
	size uintptr

	// storage keeps Go-managed backing memory reachable.
	storage []byte
}

// At returns a buffer describing size bytes at addr. The caller guarantees
// that the region is reserved and identity-mapped.
func At(addr, size uintptr) Buffer {
	return Buffer{addr: addr, size: size}
}

// Carve returns the first region of size bytes aligned to align within
// storage. storage must not be moved by its owner; package-level arrays
// satisfy this.
func Carve(storage []byte, size, align uintptr) (Buffer, *kernel.Error) {
	if align == 0 || align&(align-1) != 0 {
		return Buffer{}, ErrInvalidAlignment
	}
	if len(storage) == 0 {
		return Buffer{}, ErrInsufficientStorage
	}

	start := uintptr(unsafe.Pointer(&storage[0]))
	pad := (align - start&(align-1)) & (align - 1)
	if pad+size > uintptr(len(storage)) {
		return Buffer{}, ErrInsufficientStorage
	}

	return Buffer{addr: start + pad, size: size, storage: storage[pad : pad+size]}, nil
}

// Aligned allocates a zeroed buffer of size bytes aligned to align from the
// Go heap.
func Aligned(size, align uintptr) (Buffer, *kernel.Error) {
	if align == 0 || align&(align-1) != 0 {
		return Buffer{}, ErrInvalidAlignment
	}
	return Carve(make([]byte, size+align), size, align)
}

// Addr returns the address of the first byte of the buffer.
func (b Buffer) Addr() uintptr { return b.addr }

// Size returns the length of the buffer in bytes.
func (b Buffer) Size() uintptr { return b.size }

// Pointer returns the buffer address as an unsafe.Pointer.
func (b Buffer) Pointer() unsafe.Pointer {
	if b.storage != nil {
		return unsafe.Pointer(&b.storage[0])
	}
	return unsafe.Pointer(b.addr)
}

// IsAligned returns true if the buffer address is a multiple of align.
func (b Buffer) IsAligned(align uintptr) bool {
	return align != 0 && b.addr&(align-1) == 0
}

// Bytes returns the buffer contents as a byte slice.
func (b Buffer) Bytes() []byte {
	if b.storage != nil {
		return b.storage
	}
	if b.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(b.addr)), b.size)
}
