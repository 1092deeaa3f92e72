//go:build linux

package pinned

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Map returns a page-aligned buffer of at least size bytes backed by an
// anonymous mapping that is locked into physical memory. It is meant for host
// processes that need buffers which are neither moved nor paged out.
func Map(size uintptr) (Buffer, error) {
	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return Buffer{}, fmt.Errorf("pinned: mmap %d bytes: %w", size, err)
	}

	if err = unix.Mlock(mem); err != nil {
		_ = unix.Munmap(mem)
		return Buffer{}, fmt.Errorf("pinned: mlock %d bytes: %w", size, err)
	}

	return Buffer{addr: uintptr(unsafe.Pointer(&mem[0])), size: size, storage: mem}, nil
}

// Unmap releases a buffer obtained from Map. The buffer must not be used
// afterwards.
func Unmap(b Buffer) error {
	if b.storage == nil {
		return nil
	}
	if err := unix.Munlock(b.storage); err != nil {
		return fmt.Errorf("pinned: munlock: %w", err)
	}
	if err := unix.Munmap(b.storage); err != nil {
		return fmt.Errorf("pinned: munmap: %w", err)
	}
	return nil
}
