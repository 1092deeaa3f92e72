package scenario

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/fault"
	"github.com/pedrolamarao/psys/kernel/gate"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// The fault GDT extends the flat layout with two descriptors that cannot be
// loaded into GS. The raise functions hard-code their selectors.
const (
	notPresentIndex  = 6
	executeOnlyIndex = 7

	notPresentSelector  = seg.Selector(notPresentIndex << 3)
	executeOnlySelector = seg.Selector(executeOnlyIndex << 3)
)

var (
	// ErrFaultNotDelivered is returned when raising a fault did not reach
	// the handler registered for its vector.
	ErrFaultNotDelivered = &kernel.Error{Module: "scenario", Message: "fault did not reach its handler"}

	// ErrUnexpectedFault is returned when raising a fault reached a handler
	// other than its own.
	ErrUnexpectedFault = &kernel.Error{Module: "scenario", Message: "fault reached another handler"}

	faultGDT [8]seg.Descriptor
	faultIDT gate.NativeTable

	// faultCounts counts deliveries per vector; defaultCount counts
	// deliveries to the default handler.
	faultCounts  [fault.VectorCount]uint32
	defaultCount uint32

	activateIDTFn = gate.ActivateNativeTable
	fixUpFn       = fault.PatchWithNOPs
)

// faultCheck pairs a vector with a function that raises it once.
type faultCheck struct {
	vector fault.Vector
	raise  func()
}

// isTrap returns true for vectors delivered after the raising instruction
// completes.
func isTrap(v fault.Vector) bool {
	return v == fault.Breakpoint || v == fault.Overflow
}

func countAndFix(ctx *fault.Context) fault.Action {
	v := fault.Vector(ctx.Vector)
	faultCounts[v]++

	if isTrap(v) {
		return fault.Resume
	}
	if _, err := fixUpFn(ctx); err != nil {
		return fault.Halt
	}
	return fault.Resume
}

func countDefault(*fault.Context) fault.Action {
	defaultCount++
	return fault.Resume
}

// fillFaultGDT writes the flat layout plus a non-present data segment and an
// execute-only code segment.
func fillFaultGDT(table []seg.Descriptor) *kernel.Error {
	if err := fillFlat(table); err != nil {
		return err
	}

	var err *kernel.Error
	table[notPresentIndex], err = seg.NewDescriptor(0, 0xfffff, seg.DataSegment(false, true, true), seg.Ring0, seg.FlagSize32|seg.FlagGranular)
	if err != nil {
		return err
	}
	table[executeOnlyIndex], err = seg.NewDescriptor(0, 0xfffff, seg.CodeSegment(false, false, true), seg.Ring0, seg.FlagPresent|seg.FlagSize32|seg.FlagGranular)
	return err
}

// installFaultHandlers points every IDT slot at its entry stub, counts
// deliveries of the checked vectors and sends everything else to
// countDefault.
func installFaultHandlers(code seg.Selector) *kernel.Error {
	fault.Reset()
	fault.HandleDefault(countDefault)
	for _, check := range faultChecks {
		fault.Handle(check.vector, countAndFix)
	}

	if err := fault.Install(&faultIDT, code); err != nil {
		return err
	}
	activateIDTFn(&faultIDT)
	return nil
}

// raiseAndCount raises check once and verifies that exactly the counter of
// its vector moved.
func raiseAndCount(check faultCheck) *kernel.Error {
	exp := faultCounts
	expDefault := defaultCount
	exp[check.vector]++

	check.raise()

	switch {
	case faultCounts[check.vector] != exp[check.vector]:
		return ErrFaultNotDelivered
	case faultCounts != exp || defaultCount != expDefault:
		return ErrUnexpectedFault
	}
	return nil
}

// Faults builds the eight-entry fault GDT and a full IDT, then raises every
// checked fault and verifies that only the counter of the raised vector
// changed. Faulting instructions are patched out so execution resumes after
// them.
func Faults() *kernel.Error {
	step(3)
	if err := fillFaultGDT(faultGDT[:]); err != nil {
		return fail(err)
	}
	if err := loadFlat(faultGDT[:]); err != nil {
		return fail(err)
	}

	step(4)
	code, _, err := kernelSelectors()
	if err != nil {
		return fail(err)
	}
	if err = installFaultHandlers(code); err != nil {
		return fail(err)
	}

	for _, check := range faultChecks {
		step(1000 + uintptr(check.vector))
		if err = raiseAndCount(check); err != nil {
			return fail(err)
		}
	}

	return nil
}
