package kfmt

import "io"

// PrefixWriter writes to Sink, inserting Prefix before the first byte of
// every line. The prefix is not counted in the byte totals returned by Write.
type PrefixWriter struct {
	Sink   io.Writer
	Prefix []byte

	midLine bool
}

// Write implements io.Writer.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		end := len(p)
		for i, b := range p {
			if b == '\n' {
				end = i + 1
				w.midLine = false
				break
			}
		}

		n, err := w.Sink.Write(p[:end])
		written += n
		if err != nil {
			return written, err
		}
		p = p[end:]
	}

	return written, nil
}

// Tee copies every write to each of its writers in order, skipping nil
// entries. It stops at the first error.
type Tee [2]io.Writer

// Write implements io.Writer.
func (t *Tee) Write(p []byte) (int, error) {
	for _, w := range t {
		if w == nil {
			continue
		}
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
