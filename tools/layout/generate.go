package layout

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/printer"
	"go/token"
	"io"
)

// entriesPerLine is the number of map slots written on each source line.
const entriesPerLine = 4

// Generate encodes l and writes it to w as a Go source file declaring the
// GDT, a selector constant per segment and one variable per map.
func Generate(w io.Writer, l *Layout) error {
	src, err := genSource(l)
	if err != nil {
		return err
	}

	// Pretty-print generated file using go/printer
	fSet := token.NewFileSet()
	astFile, err := parser.ParseFile(fSet, "", src, parser.ParseComments)
	if err != nil {
		return err
	}

	return printer.Fprint(w, fSet, astFile)
}

func genSource(l *Layout) (string, error) {
	var buf bytes.Buffer

	gdt, err := l.GDT()
	if err != nil {
		return "", err
	}

	// Output header
	fmt.Fprintf(&buf, "// Code generated by descdump gen. DO NOT EDIT.\n\npackage %s\n\n", l.Package)
	if len(l.Maps) != 0 {
		fmt.Fprint(&buf, "import (\n\"github.com/pedrolamarao/psys/kernel/paging\"\n\"github.com/pedrolamarao/psys/kernel/seg\"\n)\n\n")
	} else {
		fmt.Fprint(&buf, "import \"github.com/pedrolamarao/psys/kernel/seg\"\n\n")
	}

	// Output selectors
	if len(l.Segments) != 0 {
		fmt.Fprint(&buf, "// Selectors of the GDT segments.\nconst (\n")
		for _, s := range l.Segments {
			sel, err := l.Selector(s.Name)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&buf, "%sSelector = seg.Selector(0x%x)\n", s.Name, uint16(sel))
		}
		fmt.Fprint(&buf, ")\n\n")
	}

	// Output descriptor table
	fmt.Fprintf(&buf, "// GDT is the encoded global descriptor table.\nvar GDT = [%d]seg.Descriptor{\n", len(gdt))
	fmt.Fprintf(&buf, "0x%016x, // null\n", uint64(gdt[0]))
	for i, s := range l.Segments {
		fmt.Fprintf(&buf, "0x%016x, // %s\n", uint64(gdt[i+1]), s.Name)
	}
	fmt.Fprint(&buf, "}\n")

	// Output maps
	for _, m := range l.Maps {
		words, err := m.Entries()
		if err != nil {
			return "", err
		}

		kind := mapKinds[m.Kind]
		digits := kind.wordBits / 4

		fmt.Fprintf(&buf, "\n// %s identity-maps 0x%x; copy it to a 4096-byte aligned buffer before use.\n", m.Name, m.Base)
		fmt.Fprintf(&buf, "var %s = %s{\n", m.Name, kind.typeName)
		for i, word := range words {
			if i != 0 && i%entriesPerLine == 0 {
				buf.WriteByte('\n')
			}
			fmt.Fprintf(&buf, "0x%0*x, ", digits, word)
		}
		fmt.Fprint(&buf, "\n}\n")
	}

	return buf.String(), nil
}
