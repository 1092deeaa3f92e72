package cpu

import (
	"encoding/binary"
	"unsafe"
)

// ptrSize is the size in bytes of a linear address on the build target.
const ptrSize = unsafe.Sizeof(uintptr(0))

// PseudoDescriptor is the packed in-memory operand of LGDT/LIDT/SGDT/SIDT: a
// 16-bit size followed by the table base address. It is 6 bytes long on 386
// and 10 bytes long on amd64.
type PseudoDescriptor [2 + ptrSize]byte

// TableRegister is the decoded view of GDTR or IDTR.
//
// Size holds the exact byte size of the table rather than the size minus one
// the processor documents; the processor only uses it as an upper bound so the
// extra byte is never dereferenced by a well-formed selector or vector.
type TableRegister struct {
	Size uint16
	Base uintptr
}

// Pack encodes r into its pseudo-descriptor form.
func (r TableRegister) Pack() PseudoDescriptor {
	var pd PseudoDescriptor
	binary.LittleEndian.PutUint16(pd[0:2], r.Size)
	if ptrSize == 8 {
		binary.LittleEndian.PutUint64(pd[2:], uint64(r.Base))
	} else {
		binary.LittleEndian.PutUint32(pd[2:], uint32(r.Base))
	}
	return pd
}

// UnpackTableRegister decodes a pseudo-descriptor.
func UnpackTableRegister(pd PseudoDescriptor) TableRegister {
	r := TableRegister{Size: binary.LittleEndian.Uint16(pd[0:2])}
	if ptrSize == 8 {
		r.Base = uintptr(binary.LittleEndian.Uint64(pd[2:]))
	} else {
		r.Base = uintptr(binary.LittleEndian.Uint32(pd[2:]))
	}
	return r
}

// LoadGDT makes the CPU use the descriptor table described by r as its GDT.
func LoadGDT(r TableRegister) {
	pd := r.Pack()
	lgdt(&pd[0])
}

// StoreGDT returns the contents of the GDTR.
func StoreGDT() TableRegister {
	var pd PseudoDescriptor
	sgdt(&pd[0])
	return UnpackTableRegister(pd)
}

// LoadIDT makes the CPU use the gate table described by r as its IDT.
func LoadIDT(r TableRegister) {
	pd := r.Pack()
	lidt(&pd[0])
}

// StoreIDT returns the contents of the IDTR.
func StoreIDT() TableRegister {
	var pd PseudoDescriptor
	sidt(&pd[0])
	return UnpackTableRegister(pd)
}
