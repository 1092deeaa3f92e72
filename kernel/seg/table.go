package seg

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/cpu"
)

// MaxTableEntries is the number of descriptors addressable by a 13-bit
// selector index. A table register holds the exact table size in 16 bits, so
// the largest table that can be activated has MaxTableEntries-1 entries.
const MaxTableEntries = 8192

var (
	// ErrEmptyTable is returned when activating a table with no entries.
	ErrEmptyTable = &kernel.Error{Module: "seg", Message: "descriptor table is empty"}

	// ErrTableTooLarge is returned when a table has more entries than a
	// selector can address.
	ErrTableTooLarge = &kernel.Error{Module: "seg", Message: "descriptor table size exceeds 16 bits"}

	// ErrMissingNullDescriptor is returned when entry 0 of a table is not the
	// null descriptor.
	ErrMissingNullDescriptor = &kernel.Error{Module: "seg", Message: "entry 0 of descriptor table is not null"}
)

var (
	loadGDTFn  = cpu.LoadGDT
	storeGDTFn = cpu.StoreGDT
	readCSFn   = cpu.ReadCS
	loadCSFn   = cpu.LoadCS
	readDSFn   = cpu.ReadDS
	readSSFn   = cpu.ReadSS
	loadDSFn   = cpu.LoadDS
	loadESFn   = cpu.LoadES
	loadFSFn   = cpu.LoadFS
	loadGSFn   = cpu.LoadGS
	loadSSFn   = cpu.LoadSS
)

// TableRegisterFor returns the GDTR value that describes table. The table
// memory is borrowed: it must stay at the same address for as long as the
// processor may consult it.
func TableRegisterFor(table []Descriptor) (cpu.TableRegister, *kernel.Error) {
	switch {
	case len(table) == 0:
		return cpu.TableRegister{}, ErrEmptyTable
	case len(table) >= MaxTableEntries:
		return cpu.TableRegister{}, ErrTableTooLarge
	case table[0] != NullDescriptor:
		return cpu.TableRegister{}, ErrMissingNullDescriptor
	}

	return cpu.TableRegister{
		Size: uint16(uintptr(len(table)) * unsafe.Sizeof(table[0])),
		Base: uintptr(unsafe.Pointer(&table[0])),
	}, nil
}

// GetGDTR returns the current contents of the GDTR.
func GetGDTR() cpu.TableRegister {
	return storeGDTFn()
}

// SetGDTR loads r into the GDTR. Segment registers keep their cached
// descriptors until they are reloaded.
func SetGDTR(r cpu.TableRegister) {
	loadGDTFn(r)
}

// ActivateTable validates table and loads it into the GDTR.
func ActivateTable(table []Descriptor) *kernel.Error {
	r, err := TableRegisterFor(table)
	if err != nil {
		return err
	}

	SetGDTR(r)
	return nil
}

// GetCS returns the selector in the code segment register.
func GetCS() Selector { return Selector(readCSFn()) }

// SetCS reloads the code segment register with a far return.
func SetCS(s Selector) { loadCSFn(uint16(s)) }

// GetDS returns the selector in the data segment register.
func GetDS() Selector { return Selector(readDSFn()) }

// GetSS returns the selector in the stack segment register.
func GetSS() Selector { return Selector(readSSFn()) }

// SetDS loads the data segment register.
func SetDS(s Selector) { loadDSFn(uint16(s)) }

// SetES loads the ES register.
func SetES(s Selector) { loadESFn(uint16(s)) }

// SetFS loads the FS register.
func SetFS(s Selector) { loadFSFn(uint16(s)) }

// SetGS loads the GS register.
func SetGS(s Selector) { loadGSFn(uint16(s)) }

// SetSS loads the stack segment register.
func SetSS(s Selector) { loadSSFn(uint16(s)) }

// SetDataSegments loads s into DS, ES, FS, GS and SS.
func SetDataSegments(s Selector) {
	SetDS(s)
	SetES(s)
	SetFS(s)
	SetGS(s)
	SetSS(s)
}
