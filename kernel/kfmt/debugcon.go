package kfmt

import "github.com/pedrolamarao/psys/kernel/cpu"

// DebugConPort is the I/O port of the QEMU and Bochs debug console.
const DebugConPort = 0xe9

var portWriteByteFn = cpu.PortWriteByte

// DebugCon is a sink that writes every byte to the debug console port.
type DebugCon struct{}

// Write implements io.Writer.
func (DebugCon) Write(p []byte) (int, error) {
	for _, b := range p {
		portWriteByteFn(DebugConPort, b)
	}
	return len(p), nil
}
