// Package fault routes processor exceptions and interrupts to Go handlers.
//
// Every IDT slot points at a small entry stub (see EntryAddr) that saves the
// interrupted state as a Context and calls Deliver. The handler registered for
// the vector decides whether the core resumes or stops.
package fault

import (
	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/kfmt"
)

// Action tells the entry stub what to do once a handler returns.
type Action uint8

const (
	// Resume returns to Context.Frame.IP with the (possibly modified)
	// context restored.
	Resume Action = iota

	// Halt reports the context and stops the core.
	Halt
)

// Handler handles a fault. It runs with interrupts masked and must not
// allocate.
type Handler func(*Context) Action

var (
	handlers       [VectorCount]Handler
	defaultHandler Handler

	// fatalFn is replaced by tests so the fatal path returns.
	fatalFn = kfmt.Fatal

	errUnhandled = &kernel.Error{Module: "fault", Message: "unhandled fault"}
)

// Handle registers h for v, replacing any previous handler. A nil h removes
// the registration so v falls back to the default handler.
func Handle(v Vector, h Handler) {
	handlers[v] = h
}

// HandleDefault registers h for every vector without its own handler.
func HandleDefault(h Handler) {
	defaultHandler = h
}

// Reset removes every registered handler.
func Reset() {
	for i := range handlers {
		handlers[i] = nil
	}
	defaultHandler = nil
}

// Deliver runs the handler for ctx.Vector, falling back to the default
// handler. Without either it returns Halt.
func Deliver(ctx *Context) Action {
	h := handlers[uint8(ctx.Vector)]
	if h == nil {
		h = defaultHandler
	}
	if h == nil {
		return Halt
	}
	return h(ctx)
}

// dispatch is called by the entry stubs with the saved context.
func dispatch(ctx *Context) {
	if Deliver(ctx) == Resume {
		return
	}

	ctx.DumpTo(kfmt.GetOutputSink())
	fatalFn(errUnhandled)
}
