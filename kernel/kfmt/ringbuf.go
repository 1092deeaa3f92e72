package kfmt

import "io"

// earlyBufferSize is the capacity of the buffer holding output produced before
// a sink is attached. It must be a power of two.
const earlyBufferSize = 2048

// ringBuffer keeps the most recent earlyBufferSize-1 bytes written to it;
// older bytes are overwritten.
type ringBuffer struct {
	data       [earlyBufferSize]byte
	head, tail int
}

func (rb *ringBuffer) advance(i int) int {
	return (i + 1) & (earlyBufferSize - 1)
}

// Len returns the number of unread bytes.
func (rb *ringBuffer) Len() int {
	return (rb.tail - rb.head) & (earlyBufferSize - 1)
}

// Write implements io.Writer. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.data[rb.tail] = b
		rb.tail = rb.advance(rb.tail)
		if rb.tail == rb.head {
			rb.head = rb.advance(rb.head)
		}
	}
	return len(p), nil
}

// Read implements io.Reader. It returns io.EOF once the buffer is drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.head == rb.tail {
		return 0, io.EOF
	}

	end := rb.tail
	if rb.head > rb.tail {
		end = earlyBufferSize
	}

	n := copy(p, rb.data[rb.head:end])
	rb.head = (rb.head + n) & (earlyBufferSize - 1)
	return n, nil
}
