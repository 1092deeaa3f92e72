package kmain

import (
	"io"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/cpu"
	"github.com/pedrolamarao/psys/kernel/driver/tty"
	"github.com/pedrolamarao/psys/kernel/driver/video/console"
	"github.com/pedrolamarao/psys/kernel/kfmt"
	"github.com/pedrolamarao/psys/kernel/scenario"
)

// MultibootMagic is the value a Multiboot2 bootloader passes in EAX.
const MultibootMagic = 0x36d76289

var (
	errBadMagic = &kernel.Error{Module: "kmain", Message: "not loaded by a Multiboot2 bootloader"}

	screen   console.Text
	terminal tty.Vt
	outputs  = kfmt.Tee{kfmt.DebugCon{}, &terminal}

	// sink receives all kernel output: the debug console, visible from QEMU
	// with -debugcon, and the text screen.
	sink io.Writer = &outputs

	initScreenFn = initScreen
	runFn        = scenario.Run
	fatalFn      = kfmt.Fatal

	// haltFn stops the core once every scenario has passed.
	haltFn = haltForever

	prefixed = kfmt.PrefixWriter{Prefix: []byte("psys: ")}
)

func initScreen() {
	screen.Init(console.TextWidth, console.TextHeight, console.TextBufferAddr)
	terminal.Init(&screen)
	terminal.Clear()
}

func haltForever() {
	cpu.DisableInterrupts()
	for {
		cpu.Halt()
	}
}

// Kmain is invoked by the boot trampoline with the Multiboot2 magic value and
// the physical address of the boot information. It runs the control
// structure scenarios and never returns: the core halts after the scenarios
// pass and takes the fatal path if any of them fails.
//
//go:noinline
func Kmain(magic uint32, info uintptr) {
	initScreenFn()
	prefixed.Sink = sink
	kfmt.SetOutputSink(&prefixed)
	kfmt.Printf("boot information at 0x%x\n", info)

	if magic != MultibootMagic {
		fatalFn(errBadMagic)
		return
	}

	if err := runFn(); err != nil {
		fatalFn(err)
		return
	}

	kfmt.Printf("control 0x%x\n", scenario.Control)
	haltFn()
}
