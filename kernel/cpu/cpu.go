// Package cpu contains thin wrappers over privileged x86 instructions. Every
// function declared without a body is implemented by exactly one hardware
// instruction (plus the moves needed to marshal its operands) in
// cpu_386.s / cpu_amd64.s. None of them can fail in software: misuse (wrong
// privilege level, unsupported feature) raises a hardware fault.
package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts enables maskable interrupt handling (STI).
func EnableInterrupts()

// DisableInterrupts disables maskable interrupt handling (CLI).
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt (HLT).
func Halt()

// Pause hints the processor that the caller is in a spin-wait loop (PAUSE).
func Pause()

// ID returns information about the CPU and its features. It is implemented as
// a CPUID instruction with EAX=leaf and ECX=subleaf and returns the values in
// EAX, EBX, ECX and EDX.
func ID(leaf, subleaf uint32) (uint32, uint32, uint32, uint32)

// ReadMSR returns the value of the model specific register id (RDMSR).
func ReadMSR(id uint32) uint64

// WriteMSR stores value in the model specific register id (WRMSR).
func WriteMSR(id uint32, value uint64)

// ReadCR0 returns the value stored in the CR0 register.
func ReadCR0() uintptr

// WriteCR0 stores value in the CR0 register.
func WriteCR0(value uintptr)

// ReadCR2 returns the value stored in the CR2 register (last page fault
// linear address).
func ReadCR2() uintptr

// ReadCR3 returns the value stored in the CR3 register.
func ReadCR3() uintptr

// WriteCR3 stores value in the CR3 register. Writing CR3 flushes all
// non-global TLB entries.
func WriteCR3(value uintptr)

// ReadCR4 returns the value stored in the CR4 register.
func ReadCR4() uintptr

// WriteCR4 stores value in the CR4 register.
func WriteCR4(value uintptr)

// ReadCS returns the selector held by the code segment register.
func ReadCS() uint16

// LoadCS reloads the code segment register with sel. As CS cannot be the
// target of a MOV, the reload is performed with a far return into the
// instruction following the call.
func LoadCS(sel uint16)

// ReadDS returns the selector held by the DS register.
func ReadDS() uint16

// ReadSS returns the selector held by the SS register.
func ReadSS() uint16

// LoadDS loads sel into the DS register.
func LoadDS(sel uint16)

// LoadES loads sel into the ES register.
func LoadES(sel uint16)

// LoadFS loads sel into the FS register.
func LoadFS(sel uint16)

// LoadGS loads sel into the GS register.
func LoadGS(sel uint16)

// LoadSS loads sel into the SS register.
func LoadSS(sel uint16)

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32

// lgdt loads the GDTR from the pseudo-descriptor starting at p.
func lgdt(p *byte)

// sgdt stores the GDTR into the pseudo-descriptor starting at p.
func sgdt(p *byte)

// lidt loads the IDTR from the pseudo-descriptor starting at p.
func lidt(p *byte)

// sidt stores the IDTR into the pseudo-descriptor starting at p.
func sidt(p *byte)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0, 0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// Feature bits reported in EDX by CPUID leaf 1.
const (
	featurePSE = 1 << 3
	featureMSR = 1 << 5
	featurePAE = 1 << 6
)

func hasFeature(edxBit uint32) bool {
	_, _, _, edx := cpuidFn(1, 0)
	return edx&edxBit != 0
}

// HasMSR returns true if RDMSR/WRMSR are supported.
func HasMSR() bool { return hasFeature(featureMSR) }

// HasPSE returns true if the processor supports page size extensions.
func HasPSE() bool { return hasFeature(featurePSE) }

// HasPAE returns true if the processor supports physical address extensions.
func HasPAE() bool { return hasFeature(featurePAE) }

// Model specific register ids.
const (
	IA32ApicBase   = uint32(0x001b)
	IA32MiscEnable = uint32(0x01a0)
	IA32EFER       = uint32(0xc0000080)
)
