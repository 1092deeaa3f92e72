package scenario

// The raise functions execute one faulting instruction each. Fault-type
// vectors are resumed by patching that instruction with NOPs, so each
// function raises its fault at most once.

func raiseDivideError()

func raiseBreakpoint()

func raiseInvalidOpcode()

// raiseSegmentNotPresent loads notPresentSelector into GS.
func raiseSegmentNotPresent()

// raiseGeneralProtection loads executeOnlySelector into GS.
func raiseGeneralProtection()
