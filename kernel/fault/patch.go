package fault

import (
	"unsafe"

	"github.com/pedrolamarao/psys/kernel"
	"golang.org/x/arch/x86/x86asm"
)

// maxInstLen is the longest x86 instruction encoding.
const maxInstLen = 15

// NOP is the one-byte no-operation opcode.
const NOP = 0x90

var (
	// ErrUndecodable is returned when the bytes at the faulting address
	// are not a valid instruction.
	ErrUndecodable = &kernel.Error{Module: "fault", Message: "cannot decode the faulting instruction"}

	// codeAtFn returns the bytes starting at addr. Tests replace it to
	// patch a buffer instead of live code.
	codeAtFn = liveCode
)

func liveCode(addr uintptr) []byte {
	return (*[maxInstLen]byte)(unsafe.Pointer(addr))[:]
}

// decode returns the length of the instruction at the start of code. The
// decoder reports truncated or unknown opcodes as a one-byte instruction with
// no operation, so those are rejected here.
func decode(code []byte) (int, *kernel.Error) {
	inst, err := x86asm.Decode(code, decodeMode)
	if err != nil || inst.Op == 0 || inst.Len == 0 {
		return 0, ErrUndecodable
	}
	return inst.Len, nil
}

// PatchWithNOPs overwrites the instruction at ctx.Frame.IP with NOPs so a
// handler can return Resume for a fault that would otherwise repeat. It
// returns the length of the replaced instruction. The code must be writable.
func PatchWithNOPs(ctx *Context) (int, *kernel.Error) {
	code := codeAtFn(ctx.Frame.IP)

	n, err := decode(code)
	if err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		code[i] = NOP
	}
	return n, nil
}

// Skip advances ctx past the faulting instruction without modifying it.
func Skip(ctx *Context) (int, *kernel.Error) {
	n, err := decode(codeAtFn(ctx.Frame.IP))
	if err != nil {
		return 0, err
	}

	ctx.Frame.IP += uintptr(n)
	return n, nil
}
