package main

import "github.com/pedrolamarao/psys/kernel/kmain"

var (
	multibootMagic   uint32
	multibootInfoPtr uintptr
)

// main makes a dummy call to the actual kernel entry point. The boot
// trampoline calls kmain.Kmain directly; this call only keeps the compiler
// from discarding it.
//
// Global variables are passed as arguments to keep the call from being
// inlined away.
func main() {
	kmain.Kmain(multibootMagic, multibootInfoPtr)
}
