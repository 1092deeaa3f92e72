package gate

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/pedrolamarao/psys/kernel/cpu"
	"github.com/pedrolamarao/psys/kernel/seg"
)

func TestNewInterruptGate(t *testing.T) {
	specs := []struct {
		sel     seg.Selector
		offset  uint32
		present bool
		mustCLI bool
		dpl     seg.Privilege
		is32    bool
		exp     InterruptGateDescriptor
		expType Type
	}{
		{0x08, 0x12345678, true, true, seg.Ring0, true, 0x12348e0000085678, InterruptGate32},
		{0x08, 0x12345678, true, false, seg.Ring0, true, 0x12348f0000085678, TrapGate32},
		{0x08, 0x12345678, true, true, seg.Ring3, true, 0x1234ee0000085678, InterruptGate32},
		{0x10, 0xffff0000, true, true, seg.Ring0, false, 0xffff860000100000, InterruptGate16},
		{0x10, 0x0000ffff, false, false, seg.Ring0, false, 0x000007000010ffff, TrapGate16},
		{0x00, 0x00000000, false, false, seg.Ring0, true, 0x00000f0000000000, TrapGate32},
	}

	for specIndex, spec := range specs {
		got, err := NewInterruptGate(spec.sel, spec.offset, spec.present, spec.mustCLI, spec.dpl, spec.is32)
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}

		if got != spec.exp {
			t.Errorf("[spec %d] expected gate %#016x; got %#016x", specIndex, spec.exp, got)
		}

		switch {
		case got.Offset() != spec.offset:
			t.Errorf("[spec %d] expected offset %#x; got %#x", specIndex, spec.offset, got.Offset())
		case got.Segment() != spec.sel:
			t.Errorf("[spec %d] expected selector %#x; got %#x", specIndex, spec.sel, got.Segment())
		case got.IsPresent() != spec.present:
			t.Errorf("[spec %d] expected present %t", specIndex, spec.present)
		case got.MustCLI() != spec.mustCLI || got.IsTrap() == spec.mustCLI:
			t.Errorf("[spec %d] expected mustCLI %t", specIndex, spec.mustCLI)
		case got.Privilege() != spec.dpl:
			t.Errorf("[spec %d] expected dpl %d; got %d", specIndex, spec.dpl, got.Privilege())
		case got.Is32Bit() != spec.is32:
			t.Errorf("[spec %d] expected is32 %t", specIndex, spec.is32)
		case got.Type() != spec.expType:
			t.Errorf("[spec %d] expected type %#x; got %#x", specIndex, spec.expType, got.Type())
		}
	}

	if _, err := NewInterruptGate(0x08, 0, true, true, seg.Privilege(4), true); err != ErrInvalidPrivilege {
		t.Fatalf("expected ErrInvalidPrivilege; got %v", err)
	}
}

func TestGateOffsetRoundTrip(t *testing.T) {
	for offset := uint64(0); offset <= 0xffffffff; offset += 0xfff1 {
		d, err := NewInterruptGate(0x08, uint32(offset), true, true, seg.Ring0, true)
		if err != nil {
			t.Fatal(err)
		}
		if d.Offset() != uint32(offset) {
			t.Fatalf("expected offset %#x; got %#x", offset, d.Offset())
		}
		if s := d.Short(); s.Offset() != uint32(offset) || s.Descriptor() != d {
			t.Fatalf("short view of %#x does not round-trip", d)
		}
	}
}

func TestShortInterruptGate(t *testing.T) {
	s, err := NewShortInterruptGate(0x08, 0x12345678, true, false, seg.Ring0, true)
	if err != nil {
		t.Fatal(err)
	}

	exp := ShortInterruptGateDescriptor{0x5678, 0x0008, 0x8f00, 0x1234}
	if diff := cmp.Diff(exp, s); diff != "" {
		t.Fatalf("unexpected word layout (-want +got):\n%s", diff)
	}

	if s.Segment() != 0x08 || !s.IsPresent() || !s.IsTrap() || s.MustCLI() || !s.Is32Bit() || s.Privilege() != seg.Ring0 {
		t.Fatal("unexpected accessor results for short gate")
	}
	if s.Type() != TrapGate32 {
		t.Fatalf("expected type %#x; got %#x", TrapGate32, s.Type())
	}
	if s.Offset() != 0x12345678 {
		t.Fatalf("expected offset %#x; got %#x", 0x12345678, s.Offset())
	}

	words := ShortInterruptGateDescriptor{0x1111, 0x2222, 0x3333, 0x4444}
	if d := words.Descriptor(); d != 0x4444333322221111 || d.Short() != words {
		t.Fatalf("expected word-array %v to map to %#x; got %#x", words, uint64(0x4444333322221111), uint64(d))
	}

	if _, err = NewShortInterruptGate(0x08, 0, true, true, seg.Privilege(7), true); err != ErrInvalidPrivilege {
		t.Fatalf("expected ErrInvalidPrivilege; got %v", err)
	}
}

func TestLongInterruptGate(t *testing.T) {
	l, err := NewLongInterruptGate(0x08, 0xffffffff80001234, 1, true, true, seg.Ring0)
	if err != nil {
		t.Fatal(err)
	}

	exp := LongInterruptGateDescriptor{0x80008e0100081234, 0x00000000ffffffff}
	if diff := cmp.Diff(exp, l); diff != "" {
		t.Fatalf("unexpected long gate layout (-want +got):\n%s", diff)
	}

	if l.Offset() != 0xffffffff80001234 || l.IST() != 1 || l.Segment() != 0x08 {
		t.Fatalf("unexpected accessor results: offset %#x ist %d sel %#x", l.Offset(), l.IST(), l.Segment())
	}
	if !l.IsPresent() || !l.MustCLI() || l.IsTrap() || l.Type() != InterruptGate32 || l.Privilege() != seg.Ring0 {
		t.Fatal("unexpected attribute accessor results for long gate")
	}

	if _, err = NewLongInterruptGate(0x08, 0, 8, true, true, seg.Ring0); err != ErrInvalidIST {
		t.Fatalf("expected ErrInvalidIST; got %v", err)
	}
}

func gateTarget() {}

func TestGateForFunc(t *testing.T) {
	addr := FuncAddr(gateTarget)
	if exp := reflect.ValueOf(gateTarget).Pointer(); addr != exp {
		t.Fatalf("expected FuncAddr to return %#x; got %#x", exp, addr)
	}

	if FuncAddr(nil) != 0 {
		t.Fatal("expected FuncAddr(nil) to return 0")
	}

	d, err := NewInterruptGateForFunc(0x08, gateTarget, true, true, seg.Ring0, true)
	switch {
	case uint64(addr) > 0xffffffff:
		if err != ErrOffsetOverflow {
			t.Fatalf("expected ErrOffsetOverflow for %#x; got %v", addr, err)
		}
	case err != nil:
		t.Fatal(err)
	case uintptr(d.Offset()) != addr:
		t.Fatalf("expected offset %#x; got %#x", addr, d.Offset())
	}

	l, err := NewLongInterruptGateForFunc(0x08, gateTarget, 0, true, true, seg.Ring0)
	if err != nil {
		t.Fatal(err)
	}
	if uintptr(l.Offset()) != addr {
		t.Fatalf("expected long offset %#x; got %#x", addr, l.Offset())
	}
}

func TestTableRegister(t *testing.T) {
	var (
		table Table
		long  LongTable
	)

	if r := TableRegisterFor(&table); r.Size != 2048 || r.Base != uintptr(unsafe.Pointer(&table)) {
		t.Fatalf("unexpected register for table: %+v", r)
	}
	if r := LongTableRegisterFor(&long); r.Size != 4096 || r.Base != uintptr(unsafe.Pointer(&long)) {
		t.Fatalf("unexpected register for long table: %+v", r)
	}
}

func TestActivateTable(t *testing.T) {
	defer func() {
		loadIDTFn = cpu.LoadIDT
		storeIDTFn = cpu.StoreIDT
	}()

	var idtr cpu.TableRegister
	loadIDTFn = func(r cpu.TableRegister) { idtr = r }
	storeIDTFn = func() cpu.TableRegister { return idtr }

	var table Table
	ActivateTable(&table)
	if diff := cmp.Diff(TableRegisterFor(&table), GetIDTR()); diff != "" {
		t.Fatalf("unexpected IDTR (-want +got):\n%s", diff)
	}

	var long LongTable
	ActivateLongTable(&long)
	if diff := cmp.Diff(LongTableRegisterFor(&long), GetIDTR()); diff != "" {
		t.Fatalf("unexpected IDTR (-want +got):\n%s", diff)
	}

	var native NativeTable
	ActivateNativeTable(&native)
	if GetIDTR().Base != uintptr(unsafe.Pointer(&native)) {
		t.Fatal("expected the native table to be active")
	}

	g, err := NewNativeGate(0x08, 0x1000, true, true, seg.Ring0)
	if err != nil {
		t.Fatal(err)
	}
	native[3] = g
	if uintptr(native[3].Offset()) != 0x1000 || !native[3].IsPresent() {
		t.Fatal("unexpected native gate contents")
	}
}
