package scenario

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// Layout of the flat GDT shared by the scenarios. Index 1 is a second null
// descriptor.
const (
	kernelCodeIndex = 2
	kernelDataIndex = 3
	userCodeIndex   = 4
	userDataIndex   = 5
)

var (
	// ErrCodeSegmentMismatch is returned when CS does not read back as the
	// selector that was loaded.
	ErrCodeSegmentMismatch = &kernel.Error{Module: "scenario", Message: "CS does not hold the loaded selector"}

	// ErrDataSegmentMismatch is returned when DS or SS do not read back as
	// the selector that was loaded.
	ErrDataSegmentMismatch = &kernel.Error{Module: "scenario", Message: "DS or SS do not hold the loaded selector"}

	flatGDT [6]seg.Descriptor

	activateGDTFn     = seg.ActivateTable
	setCSFn           = seg.SetCS
	getCSFn           = seg.GetCS
	setDataSegmentsFn = seg.SetDataSegments
	getDSFn           = seg.GetDS
	getSSFn           = seg.GetSS
)

// fillFlat writes the null, kernel and user descriptors into the first six
// entries of table.
func fillFlat(table []seg.Descriptor) *kernel.Error {
	table[0] = seg.NullDescriptor
	table[1] = seg.NullDescriptor

	var err *kernel.Error
	if table[kernelCodeIndex], err = nativeCode(seg.Ring0); err != nil {
		return err
	}
	if table[kernelDataIndex], err = seg.FlatData(seg.Ring0); err != nil {
		return err
	}
	if table[userCodeIndex], err = nativeCode(seg.Ring3); err != nil {
		return err
	}
	if table[userDataIndex], err = seg.FlatData(seg.Ring3); err != nil {
		return err
	}
	return nil
}

// kernelSelectors returns the ring 0 code and data selectors of the flat
// layout.
func kernelSelectors() (code, data seg.Selector, err *kernel.Error) {
	if code, err = seg.NewSelector(kernelCodeIndex, false, seg.Ring0); err != nil {
		return
	}
	data, err = seg.NewSelector(kernelDataIndex, false, seg.Ring0)
	return
}

// loadFlat activates table and loads the ring 0 selectors into every
// segment register.
func loadFlat(table []seg.Descriptor) *kernel.Error {
	code, data, err := kernelSelectors()
	if err != nil {
		return err
	}

	if err = activateGDTFn(table); err != nil {
		return err
	}

	setCSFn(code)
	setDataSegmentsFn(data)

	if getCSFn() != code {
		return ErrCodeSegmentMismatch
	}
	if getDSFn() != data || getSSFn() != data {
		return ErrDataSegmentMismatch
	}
	return nil
}

// Segmentation builds the flat six-entry GDT, activates it, loads the ring 0
// selectors and checks that CS reads back as the loaded selector.
func Segmentation() *kernel.Error {
	step(1)
	if err := fillFlat(flatGDT[:]); err != nil {
		return fail(err)
	}

	step(2)
	if err := loadFlat(flatGDT[:]); err != nil {
		return fail(err)
	}

	return nil
}
