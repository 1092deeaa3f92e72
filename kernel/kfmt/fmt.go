// Package kfmt implements formatted output for code that runs before (or
// without) the Go runtime: no function in this package allocates memory.
// Output goes to a configurable sink; until one is set it is captured in a
// ring buffer and replayed when the sink is attached.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize bounds the formatted width of a single integer.
const numBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// numBuf holds digits while an integer is being formatted.
	numBuf [numBufSize]byte

	// oneByte passes single characters to emit without slicing strings,
	// which would allocate.
	oneByte = []byte{0}

	// earlyBuffer captures output while no sink is set.
	earlyBuffer ringBuffer

	// sink receives the output of Printf; nil selects earlyBuffer.
	sink io.Writer
)

// SetOutputSink directs Printf output to w and replays anything captured in
// the early buffer into it.
func SetOutputSink(w io.Writer) {
	sink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyBuffer)
	}
}

// GetOutputSink returns the writer Printf currently writes to; nil means the
// early buffer.
func GetOutputSink() io.Writer {
	return sink
}

// Printf writes formatted output to the active sink. It supports a subset of
// the fmt verbs:
//
//	%s  string or []byte, left-padded with spaces to the width
//	%d  signed or unsigned integer in base 10, left-padded with spaces
//	%x  integer in base 16 (lower case), left-padded with zeroes
//	%o  integer in base 8, left-padded with zeroes
//	%t  bool
//	%%  a literal percent sign
//
// A decimal width may precede the verb. Arguments of other types produce
// %!(WRONGTYPE); pointers are not supported since that would require
// reflection.
func Printf(format string, args ...interface{}) {
	Fprintf(sink, format, args...)
}

// Fprintf behaves like Printf but writes to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		i        int
	)

	for i < len(format) {
		ch := format[i]
		i++

		if ch != '%' {
			emitByte(w, ch)
			continue
		}

		width = 0
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			emit(w, errNoVerb)
			break
		}

		verb := format[i]
		i++

		switch verb {
		case '%':
			emitByte(w, '%')
			continue
		case 'd', 'x', 'o', 's', 't':
		default:
			emit(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			emit(w, errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++

		switch verb {
		case 'd':
			formatInt(w, arg, 10, width)
		case 'x':
			formatInt(w, arg, 16, width)
		case 'o':
			formatInt(w, arg, 8, width)
		case 's':
			formatString(w, arg, width)
		case 't':
			formatBool(w, arg)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		emit(w, errExtraArg)
	}
}

func formatBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		emit(w, errWrongArgType)
	case b:
		emit(w, trueValue)
	default:
		emit(w, falseValue)
	}
}

func formatString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		emitRepeat(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			emitByte(w, s[i])
		}
	case []byte:
		emitRepeat(w, ' ', width-len(s))
		emit(w, s)
	default:
		emit(w, errWrongArgType)
	}
}

// formatInt writes v in the given base. Negative values are prefixed with a
// sign placed immediately before the first digit.
func formatInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		mag      uint64
		negative bool
	)

	switch n := v.(type) {
	case uint8:
		mag = uint64(n)
	case uint16:
		mag = uint64(n)
	case uint32:
		mag = uint64(n)
	case uint64:
		mag = n
	case uint:
		mag = uint64(n)
	case uintptr:
		mag = uint64(n)
	case int8:
		mag, negative = signed(int64(n))
	case int16:
		mag, negative = signed(int64(n))
	case int32:
		mag, negative = signed(int64(n))
	case int64:
		mag, negative = signed(n)
	case int:
		mag, negative = signed(int64(n))
	default:
		emit(w, errWrongArgType)
		return
	}

	if width >= numBufSize {
		width = numBufSize - 1
	}

	pad := byte('0')
	if base == 10 {
		pad = ' '
	}

	// Digits are produced right to left.
	pos := numBufSize
	for {
		pos--
		digit := mag % base
		if digit < 10 {
			numBuf[pos] = byte(digit) + '0'
		} else {
			numBuf[pos] = byte(digit-10) + 'a'
		}
		mag /= base
		if mag == 0 || pos == 0 {
			break
		}
	}

	if negative && pad == ' ' {
		pos--
		numBuf[pos] = '-'
	}

	// Zero padding goes between the sign and the digits.
	padTo := width
	if negative && pad == '0' {
		padTo--
	}
	for numBufSize-pos < padTo && pos > 1 {
		pos--
		numBuf[pos] = pad
	}

	if negative && pad == '0' {
		pos--
		numBuf[pos] = '-'
	}

	emit(w, numBuf[pos:])
}

func signed(n int64) (uint64, bool) {
	if n < 0 {
		return uint64(-n), true
	}
	return uint64(n), false
}

func emitRepeat(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		emitByte(w, ch)
	}
}

func emitByte(w io.Writer, ch byte) {
	oneByte[0] = ch
	emit(w, oneByte)
}

// emit hides p from escape analysis. Passing p to an io.Writer whose type is
// unknown at compile time would otherwise mark it as escaping and make every
// Printf call allocate its argument slice.
func emit(w io.Writer, p []byte) {
	emitNoEscape(w, noEscape(unsafe.Pointer(&p)))
}

func emitNoEscape(w io.Writer, ptr unsafe.Pointer) {
	p := *(*[]byte)(ptr)
	if w == nil {
		_, _ = earlyBuffer.Write(p)
		return
	}
	_, _ = w.Write(p)
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
