package fault

import (
	"io"

	"github.com/pedrolamarao/psys/kernel/kfmt"
)

// Frame is the return frame pushed by the processor. SP and SS are only
// pushed on 386 when the fault changes privilege level.
type Frame struct {
	IP    uintptr
	CS    uintptr
	Flags uintptr
	SP    uintptr
	SS    uintptr
}

// Context is the state saved by an entry stub. Its layout matches the stack
// built by the stub, so a handler may change any field and the change takes
// effect when the core resumes.
type Context struct {
	Regs

	Vector uintptr

	// Code is the error code pushed by the processor, or zero for vectors
	// without one.
	Code uintptr

	Frame Frame
}

// DumpTo writes the context to w.
func (c *Context) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "vector %d (%s) code %x\n", uint8(c.Vector), Vector(c.Vector).String(), c.Code)
	c.Regs.DumpTo(w)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "IP  = %16x CS  = %16x\n", c.Frame.IP, c.Frame.CS)
	kfmt.Fprintf(w, "SP  = %16x SS  = %16x\n", c.Frame.SP, c.Frame.SS)
	kfmt.Fprintf(w, "FL  = %16x\n", c.Frame.Flags)
}
