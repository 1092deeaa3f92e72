// Package layout reads descriptor-table and page-map layouts from TOML or
// YAML files and encodes them with the kernel's own descriptor and paging types, so a
// boot image can embed tables that were built and validated on the host.
package layout

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v2"
)

// Layout is the root of a layout file.
//
//	package = "tables"
//
//	[[segment]]
//	name = "KernelCode"
//	kind = "code"
//	readable = true
//	size32 = true
//	granular = true
//	limit = 0xfffff
//
//	[[map]]
//	name = "Identity"
//	kind = "short-large"
//	flags = ["present", "writable"]
type Layout struct {
	// Package names the package of generated sources.
	Package string `toml:"package" yaml:"package"`

	// Segments fill GDT slots 1 onwards; slot 0 always holds the null
	// descriptor.
	Segments []Segment `toml:"segment" yaml:"segment"`

	// Maps describe identity-mapped paging structures.
	Maps []Map `toml:"map" yaml:"map"`
}

// Segment describes one code or data segment descriptor.
type Segment struct {
	Name      string `toml:"name" yaml:"name"`
	Kind      string `toml:"kind" yaml:"kind"`
	Base      uint32 `toml:"base" yaml:"base"`
	Limit     uint32 `toml:"limit" yaml:"limit"`
	Privilege uint8  `toml:"privilege" yaml:"privilege"`

	// Absent clears the present bit; segments are present by default.
	Absent bool `toml:"absent" yaml:"absent"`

	Readable   bool `toml:"readable" yaml:"readable"`
	Conforming bool `toml:"conforming" yaml:"conforming"`
	Writable   bool `toml:"writable" yaml:"writable"`
	Downwards  bool `toml:"downwards" yaml:"downwards"`
	Accessed   bool `toml:"accessed" yaml:"accessed"`
	Available  bool `toml:"available" yaml:"available"`
	Long       bool `toml:"long" yaml:"long"`
	Size32     bool `toml:"size32" yaml:"size32"`
	Granular   bool `toml:"granular" yaml:"granular"`
}

// Map describes one identity-mapped paging structure. Slot i maps
// Base + i*size where size is the page size of Kind.
type Map struct {
	Name  string   `toml:"name" yaml:"name"`
	Kind  string   `toml:"kind" yaml:"kind"`
	Base  uint64   `toml:"base" yaml:"base"`
	Flags []string `toml:"flags" yaml:"flags"`
}

// Decode reads a TOML layout from r. Keys outside the layout schema are
// rejected.
func Decode(r io.Reader) (*Layout, error) {
	var l Layout
	md, err := toml.NewDecoder(r).Decode(&l)
	if err != nil {
		return nil, err
	}

	return finish(&l, undecodedKeys(md), "layout")
}

// DecodeYAML reads a YAML layout from r. The keys are the same as in TOML.
func DecodeYAML(r io.Reader) (*Layout, error) {
	return decodeYAML(r, "layout")
}

func decodeYAML(r io.Reader, origin string) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	return finish(&l, nil, origin)
}

// DecodeFile reads a layout from the file at path. Files ending in .yaml or
// .yml are read as YAML, anything else as TOML.
func DecodeFile(path string) (*Layout, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return decodeYAML(f, path)
	}

	var l Layout
	md, err := toml.DecodeFile(path, &l)
	if err != nil {
		return nil, err
	}
	return finish(&l, undecodedKeys(md), path)
}

func undecodedKeys(md toml.MetaData) []string {
	var keys []string
	for _, key := range md.Undecoded() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return keys
}

func finish(l *Layout, undecoded []string, origin string) (*Layout, error) {
	if len(undecoded) != 0 {
		return nil, fmt.Errorf("%s: unknown layout keys: %s", origin, strings.Join(undecoded, ", "))
	}

	if l.Package == "" {
		l.Package = "tables"
	}
	if !token.IsIdentifier(l.Package) {
		return nil, fmt.Errorf("%s: package %q is not a Go identifier", origin, l.Package)
	}

	if err := l.validateNames(); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	return l, nil
}

func (l *Layout) validateNames() error {
	seen := make(map[string]bool)
	check := func(name string) error {
		switch {
		case name == "":
			return fmt.Errorf("entry without a name")
		case !token.IsIdentifier(name):
			return fmt.Errorf("name %q is not a Go identifier", name)
		case seen[name]:
			return fmt.Errorf("duplicate name %q", name)
		}
		seen[name] = true
		return nil
	}

	for _, s := range l.Segments {
		if err := check(s.Name); err != nil {
			return err
		}
	}
	for _, m := range l.Maps {
		if err := check(m.Name); err != nil {
			return err
		}
	}
	return nil
}
