package fault

// Vector identifies an IDT slot.
type Vector uint8

// VectorCount is the number of IDT slots.
const VectorCount = 256

// Processor exception vectors. Slots 0x15 to 0x1f not listed here are
// reserved.
const (
	// DivideError is raised by DIV and IDIV on a zero divisor or a quotient
	// too large for the destination.
	DivideError = Vector(0x00)

	// Debug is raised by debug register conditions and single stepping.
	Debug = Vector(0x01)

	// NMI is the non-maskable hardware interrupt.
	NMI = Vector(0x02)

	// Breakpoint is raised by INT3. The saved instruction pointer follows
	// the INT3 instruction.
	Breakpoint = Vector(0x03)

	// Overflow is raised by INTO while EFLAGS.OF is set. The saved
	// instruction pointer follows the INTO instruction.
	Overflow = Vector(0x04)

	// BoundRange is raised by BOUND when the index is outside the bounds.
	BoundRange = Vector(0x05)

	// InvalidOpcode is raised by UD2 and by undefined or unsupported
	// opcodes.
	InvalidOpcode = Vector(0x06)

	// DeviceNotAvailable is raised by FPU instructions while CR0.TS or
	// CR0.EM forbid them.
	DeviceNotAvailable = Vector(0x07)

	// DoubleFault is raised when an exception occurs while delivering
	// another one.
	DoubleFault = Vector(0x08)

	// CoprocessorSegmentOverrun is not raised by modern processors.
	CoprocessorSegmentOverrun = Vector(0x09)

	// InvalidTSS is raised by task switches through an invalid TSS.
	InvalidTSS = Vector(0x0a)

	// SegmentNotPresent is raised when loading a segment register or
	// invoking a gate whose descriptor is not present.
	SegmentNotPresent = Vector(0x0b)

	// StackSegmentFault is raised by stack limit violations and by loading
	// a non-present stack segment.
	StackSegmentFault = Vector(0x0c)

	// GeneralProtection is raised by protection violations not covered by
	// other vectors, such as reading through an execute-only segment.
	GeneralProtection = Vector(0x0d)

	// PageFault is raised by translation failures; CR2 holds the faulting
	// linear address.
	PageFault = Vector(0x0e)

	// FloatingPointError is raised by unmasked x87 exceptions.
	FloatingPointError = Vector(0x10)

	// AlignmentCheck is raised by unaligned accesses while alignment
	// checking is enabled.
	AlignmentCheck = Vector(0x11)

	// MachineCheck reports internal processor or bus errors.
	MachineCheck = Vector(0x12)

	// SIMDFloatingPoint is raised by unmasked SSE exceptions.
	SIMDFloatingPoint = Vector(0x13)

	// Virtualization is raised by EPT violations.
	Virtualization = Vector(0x14)
)

var vectorNames = [...]string{
	DivideError:               "divide error",
	Debug:                     "debug",
	NMI:                       "non-maskable interrupt",
	Breakpoint:                "breakpoint",
	Overflow:                  "overflow",
	BoundRange:                "bound range exceeded",
	InvalidOpcode:             "invalid opcode",
	DeviceNotAvailable:        "device not available",
	DoubleFault:               "double fault",
	CoprocessorSegmentOverrun: "coprocessor segment overrun",
	InvalidTSS:                "invalid TSS",
	SegmentNotPresent:         "segment not present",
	StackSegmentFault:         "stack segment fault",
	GeneralProtection:         "general protection",
	PageFault:                 "page fault",
	0x0f:                      "reserved",
	FloatingPointError:        "floating point error",
	AlignmentCheck:            "alignment check",
	MachineCheck:              "machine check",
	SIMDFloatingPoint:         "SIMD floating point",
	Virtualization:            "virtualization",
	0x15:                      "control protection",
}

// String returns the name of an exception vector. Unnamed vectors below 0x20
// are "reserved" and the rest are "interrupt".
func (v Vector) String() string {
	switch {
	case int(v) < len(vectorNames):
		return vectorNames[v]
	case v < 0x20:
		return "reserved"
	default:
		return "interrupt"
	}
}

// HasErrorCode returns true if the processor pushes an error code when
// delivering v.
func (v Vector) HasErrorCode() bool {
	switch v {
	case DoubleFault, InvalidTSS, SegmentNotPresent, StackSegmentFault,
		GeneralProtection, PageFault, AlignmentCheck, 0x15, 0x1d, 0x1e:
		return true
	}
	return false
}
