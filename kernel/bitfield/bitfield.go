// Package bitfield packs and unpacks unsigned sub-fields of fixed-width
// storage words. Selectors, segment descriptors, every gate view and CR3
// values are built through it; paging entries, whose fields are plain
// address masks, use masks directly. No record depends on compiler-defined
// struct packing.
package bitfield

import "github.com/pedrolamarao/psys/kernel"

var (
	// ErrFieldOverflow is returned when a value does not fit the width of
	// the field it is stored into.
	ErrFieldOverflow = &kernel.Error{Module: "bitfield", Message: "value exceeds field width"}

	// ErrFieldOverlap is returned by Pack when two fields share bits.
	ErrFieldOverlap = &kernel.Error{Module: "bitfield", Message: "fields overlap"}

	// ErrFieldInvalid is returned when a field does not fit a 64-bit word.
	ErrFieldInvalid = &kernel.Error{Module: "bitfield", Message: "field exceeds storage word"}
)

// Field describes a run of Width bits starting at bit Shift.
type Field struct {
	Shift uint8
	Width uint8
}

// Max returns the largest value that can be stored in the field.
func (f Field) Max() uint64 {
	if f.Width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << f.Width) - 1
}

// Mask returns the in-word mask covered by the field.
func (f Field) Mask() uint64 {
	return f.Max() << f.Shift
}

// valid reports whether the field lies entirely within a 64-bit word.
func (f Field) valid() bool {
	return f.Width != 0 && uint16(f.Shift)+uint16(f.Width) <= 64
}

// Get extracts the field value from word.
func (f Field) Get(word uint64) uint64 {
	return (word >> f.Shift) & f.Max()
}

// Set returns word with the field replaced by v. Values wider than the field
// are rejected instead of being truncated.
func (f Field) Set(word, v uint64) (uint64, *kernel.Error) {
	if !f.valid() {
		return word, ErrFieldInvalid
	}
	if v > f.Max() {
		return word, ErrFieldOverflow
	}

	return (word &^ f.Mask()) | (v << f.Shift), nil
}

// Bool returns 1 for true and 0 for false; it is a convenience for packing
// single-bit flags.
func Bool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Value pairs a field with the value to be stored in it.
type Value struct {
	Field Field
	V     uint64
}

// Of is shorthand for building a Value.
func (f Field) Of(v uint64) Value {
	return Value{Field: f, V: v}
}

// Pack assembles a storage word out of the supplied values. Bits not covered
// by any field are zero.
func Pack(values ...Value) (uint64, *kernel.Error) {
	var (
		word, used uint64
		err        *kernel.Error
	)

	for _, val := range values {
		if !val.Field.valid() {
			return 0, ErrFieldInvalid
		}

		mask := val.Field.Mask()
		if used&mask != 0 {
			return 0, ErrFieldOverlap
		}
		used |= mask

		if word, err = val.Field.Set(word, val.V); err != nil {
			return 0, err
		}
	}

	return word, nil
}

// Scatter stores v across consecutive fields of word, lowest bits first. It
// is used for values that hardware stores split into several fields (e.g. a
// segment base split 16/8/8). The total width of the fields bounds v; wider
// values are rejected and word is returned unchanged.
func Scatter(word, v uint64, fields ...Field) (uint64, *kernel.Error) {
	var (
		total uint16
		out   = word
		err   *kernel.Error
	)

	for _, f := range fields {
		if !f.valid() {
			return word, ErrFieldInvalid
		}
		if total < 64 {
			if out, err = f.Set(out, (v>>total)&f.Max()); err != nil {
				return word, err
			}
		}
		total += uint16(f.Width)
	}

	if total < 64 && v>>total != 0 {
		return word, ErrFieldOverflow
	}

	return out, nil
}

// Gather is the inverse of Scatter: it reassembles a value from the contents
// of consecutive fields of word, lowest bits first.
func Gather(word uint64, fields ...Field) uint64 {
	var (
		v     uint64
		shift uint16
	)

	for _, f := range fields {
		if shift < 64 {
			v |= f.Get(word) << shift
		}
		shift += uint16(f.Width)
	}

	return v
}
