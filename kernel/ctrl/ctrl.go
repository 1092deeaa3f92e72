// Package ctrl exposes the paging-related bits of the control registers:
// CR0.PG, CR4.PSE and CR4.PAE as toggles, and CR3 as a typed paging control
// value. Every query re-reads the register.
package ctrl

import "github.com/pedrolamarao/psys/kernel/cpu"

// Control register bits.
const (
	cr0PE  = 1 << 0
	cr0PG  = 1 << 31
	cr4PSE = 1 << 4
	cr4PAE = 1 << 5
)

var (
	readCR0Fn  = cpu.ReadCR0
	writeCR0Fn = cpu.WriteCR0
	readCR3Fn  = cpu.ReadCR3
	writeCR3Fn = cpu.WriteCR3
	readCR4Fn  = cpu.ReadCR4
	writeCR4Fn = cpu.WriteCR4
)

// Toggle is a single control register bit with an enable/disable pair and an
// uncached query.
type Toggle interface {
	Enable()
	Disable()
	IsEnabled() bool
}

// bit is a Toggle over one bit of a control register.
type bit struct {
	mask  uintptr
	read  *func() uintptr
	write *func(uintptr)
}

func (b bit) Enable()         { (*b.write)((*b.read)() | b.mask) }
func (b bit) Disable()        { (*b.write)((*b.read)() &^ b.mask) }
func (b bit) IsEnabled() bool { return (*b.read)()&b.mask != 0 }

var (
	// Paging is CR0.PG. Enabling it requires CR3 to reference a valid
	// paging structure that identity-maps the running code.
	Paging Toggle = bit{cr0PG, &readCR0Fn, &writeCR0Fn}

	// LargePages is CR4.PSE, which allows 4 MiB pages under 32-bit paging.
	LargePages Toggle = bit{cr4PSE, &readCR4Fn, &writeCR4Fn}

	// LongAddresses is CR4.PAE, which selects the 64-bit entry formats.
	LongAddresses Toggle = bit{cr4PAE, &readCR4Fn, &writeCR4Fn}
)

// EnablePaging sets CR0.PG.
func EnablePaging() { Paging.Enable() }

// DisablePaging clears CR0.PG.
func DisablePaging() { Paging.Disable() }

// IsPaging returns true if CR0.PG is set.
func IsPaging() bool { return Paging.IsEnabled() }

// EnableLargePages sets CR4.PSE.
func EnableLargePages() { LargePages.Enable() }

// DisableLargePages clears CR4.PSE.
func DisableLargePages() { LargePages.Disable() }

// IsLargePages returns true if CR4.PSE is set.
func IsLargePages() bool { return LargePages.IsEnabled() }

// EnableLongAddresses sets CR4.PAE.
func EnableLongAddresses() { LongAddresses.Enable() }

// DisableLongAddresses clears CR4.PAE.
func DisableLongAddresses() { LongAddresses.Disable() }

// IsLongAddresses returns true if CR4.PAE is set.
func IsLongAddresses() bool { return LongAddresses.IsEnabled() }

// IsProtectedMode returns true if CR0.PE is set.
func IsProtectedMode() bool { return readCR0Fn()&cr0PE != 0 }
