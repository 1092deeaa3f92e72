package kfmt

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestPrintf(t *testing.T) {
	defer SetOutputSink(nil)

	// keeps vet from checking the deliberately malformed formats below
	printfn := Printf

	specs := []struct {
		fn        func()
		expOutput string
	}{
		{func() { printfn("no args") }, "no args"},
		{func() { printfn("%t %t", true, false) }, "true false"},
		{func() { printfn("%s|%s", "str", []byte("bytes")) }, "str|bytes"},
		{func() { printfn("'%6s'", "gdt") }, "'   gdt'"},
		{func() { printfn("'%2s'", "long") }, "'long'"},
		{func() { printfn("%d", uint8(200)) }, "200"},
		{func() { printfn("%o", uint16(0755)) }, "755"},
		{func() { printfn("0x%x", uint32(0xcafe)) }, "0xcafe"},
		{func() { printfn("0x%16x", uint64(0x00cf9a000000ffff)) }, "0x00cf9a000000ffff"},
		{func() { printfn("'%5d'", uint(42)) }, "'   42'"},
		{func() { printfn("0x%4x", uintptr(0xb8000)) }, "0xb8000"},
		{func() { printfn("%d", int8(-8)) }, "-8"},
		{func() { printfn("'%5d'", int32(-13)) }, "'  -13'"},
		{func() { printfn("%x", int64(-0xd)) }, "-d"},
		{func() { printfn("'%6x'", int(-0xbeef)) }, "'-0beef'"},
		{
			func() { printfn("%64x", int(-0xf00d)) },
			"-" + strings.Repeat("0", numBufSize-6) + "f00d",
		},
		{func() { printfn("%%%s%d%t", "v", 13, true) }, "%v13true"},
		{func() { printfn("extra", 1, 2) }, "extra%!(EXTRA)%!(EXTRA)"},
		{func() { printfn("missing %d") }, "missing (MISSING)"},
		{func() { printfn("verb %q") }, "verb %!(NOVERB)"},
		{func() { printfn("trailing %") }, "trailing %!(NOVERB)"},
		{func() { printfn("%t", 1) }, "%!(WRONGTYPE)"},
		{func() { printfn("%d", "1") }, "%!(WRONGTYPE)"},
		{func() { printfn("%s", 1) }, "%!(WRONGTYPE)"},
	}

	var buf bytes.Buffer
	SetOutputSink(&buf)

	for specIndex, spec := range specs {
		buf.Reset()
		spec.fn()

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected to get\n%q\ngot:\n%q", specIndex, spec.expOutput, got)
		}
	}
}

func TestPrintfBeforeSink(t *testing.T) {
	defer SetOutputSink(nil)
	SetOutputSink(nil)
	earlyBuffer = ringBuffer{}

	Printf("vector %d", 13)
	Printf(" code 0x%x", uint32(0x18))

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "vector 13 code 0x18", buf.String(); got != exp {
		t.Fatalf("expected early output %q to be replayed; got %q", exp, got)
	}

	if earlyBuffer.Len() != 0 {
		t.Fatal("expected the early buffer to be drained")
	}
}

func TestFprintf(t *testing.T) {
	var buf bytes.Buffer
	Fprintf(&buf, "cr0=0x%8x", uint32(0x80000011))

	if exp, got := "cr0=0x80000011", buf.String(); got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}

func TestRingBuffer(t *testing.T) {
	var rb ringBuffer

	if _, err := rb.Read(make([]byte, 1)); err == nil {
		t.Fatal("expected reading an empty buffer to fail")
	}

	// Overflow keeps the most recent bytes.
	var exp []byte
	for i := 0; i < 3*earlyBufferSize; i++ {
		b := byte('a' + i%26)
		rb.Write([]byte{b})
		exp = append(exp, b)
	}
	exp = exp[len(exp)-(earlyBufferSize-1):]

	if got := rb.Len(); got != earlyBufferSize-1 {
		t.Fatalf("expected Len() %d; got %d", earlyBufferSize-1, got)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(&rb); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(out.Bytes(), exp) {
		t.Fatalf("expected the last %d bytes to be kept", len(exp))
	}

	// Small reads across the wrap point.
	rb.Write([]byte("0123456789"))
	p := make([]byte, 3)
	var got []byte
	for {
		n, err := rb.Read(p)
		if err != nil {
			break
		}
		got = append(got, p[:n]...)
	}

	if string(got) != "0123456789" {
		t.Fatalf("expected %q; got %q", "0123456789", got)
	}
}

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		writes    []string
		expOutput string
	}{
		{[]string{""}, ""},
		{[]string{"one line"}, "[p] one line"},
		{[]string{"a\nb\n"}, "[p] a\n[p] b\n"},
		{[]string{"par", "tial\nnext"}, "[p] partial\n[p] next"},
		{[]string{"x\n", "\n", "y"}, "[p] x\n[p] \n[p] y"},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		w := &PrefixWriter{Sink: &buf, Prefix: []byte("[p] ")}

		for _, s := range spec.writes {
			n, err := w.Write([]byte(s))
			if err != nil {
				t.Fatal(err)
			}
			if n != len(s) {
				t.Errorf("[spec %d] expected Write to report %d bytes; got %d", specIndex, len(s), n)
			}
		}

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.expOutput, got)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("sink closed") }

func TestPrefixWriterError(t *testing.T) {
	w := &PrefixWriter{Sink: failingWriter{}, Prefix: []byte("> ")}
	if n, err := w.Write([]byte("text")); err == nil || n != 0 {
		t.Fatalf("expected the sink error to propagate; got n=%d err=%v", n, err)
	}
}

func TestTee(t *testing.T) {
	var a, b bytes.Buffer

	tee := Tee{&a, &b}
	Fprintf(&tee, "vector %d", 13)
	if a.String() != "vector 13" || b.String() != "vector 13" {
		t.Fatalf("expected both writers to receive the output; got %q and %q", a.String(), b.String())
	}

	half := Tee{nil, &a}
	if n, err := half.Write([]byte("!")); n != 1 || err != nil || a.String() != "vector 13!" {
		t.Fatalf("expected nil writers to be skipped; got n=%d err=%v out=%q", n, err, a.String())
	}

	broken := Tee{failingWriter{}, &b}
	if _, err := broken.Write([]byte("x")); err == nil {
		t.Fatal("expected the writer error to propagate")
	}
	if b.String() != "vector 13" {
		t.Fatalf("expected writes to stop at the first error; got %q", b.String())
	}
}
