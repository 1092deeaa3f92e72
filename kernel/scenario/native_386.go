package scenario

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/fault"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// faultChecks lists the faults raised by Faults.
var faultChecks = []faultCheck{
	{fault.DivideError, raiseDivideError},
	{fault.Breakpoint, raiseBreakpoint},
	{fault.Overflow, raiseOverflow},
	{fault.BoundRange, raiseBoundRange},
	{fault.InvalidOpcode, raiseInvalidOpcode},
	{fault.SegmentNotPresent, raiseSegmentNotPresent},
	{fault.GeneralProtection, raiseGeneralProtection},
}

func nativeCode(dpl seg.Privilege) (seg.Descriptor, *kernel.Error) {
	return seg.FlatCode(dpl)
}

func nativePaging() *kernel.Error {
	return ShortPaging()
}

func raiseOverflow()

func raiseBoundRange()
