package scenario

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/fault"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// faultChecks lists the faults raised by Faults. INTO and BOUND are invalid
// in 64-bit mode, so overflow and bound range are not raised.
var faultChecks = []faultCheck{
	{fault.DivideError, raiseDivideError},
	{fault.Breakpoint, raiseBreakpoint},
	{fault.InvalidOpcode, raiseInvalidOpcode},
	{fault.SegmentNotPresent, raiseSegmentNotPresent},
	{fault.GeneralProtection, raiseGeneralProtection},
}

func nativeCode(dpl seg.Privilege) (seg.Descriptor, *kernel.Error) {
	return seg.LongCode(dpl)
}

func nativePaging() *kernel.Error {
	return LongPaging()
}
