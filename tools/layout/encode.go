package layout

import (
	"fmt"
	"sort"

	"github.com/pedrolamarao/psys/kernel"
	"github.com/pedrolamarao/psys/kernel/paging"
	"github.com/pedrolamarao/psys/kernel/seg"
)

// Descriptor encodes the segment.
func (s Segment) Descriptor() (seg.Descriptor, error) {
	var typ seg.Type
	switch s.Kind {
	case "code":
		typ = seg.CodeSegment(s.Conforming, s.Readable, s.Accessed)
	case "data":
		typ = seg.DataSegment(s.Downwards, s.Writable, s.Accessed)
	default:
		return seg.NullDescriptor, fmt.Errorf("segment %q: unknown kind %q", s.Name, s.Kind)
	}

	var flags seg.DescriptorFlag
	if !s.Absent {
		flags |= seg.FlagPresent
	}
	if s.Available {
		flags |= seg.FlagAvailable
	}
	if s.Long {
		flags |= seg.FlagLong
	}
	if s.Size32 {
		flags |= seg.FlagSize32
	}
	if s.Granular {
		flags |= seg.FlagGranular
	}

	d, err := seg.NewDescriptor(s.Base, s.Limit, typ, seg.Privilege(s.Privilege), flags)
	if err != nil {
		return seg.NullDescriptor, fmt.Errorf("segment %q: %w", s.Name, err)
	}
	return d, nil
}

// GDT encodes the segments into a descriptor table whose first slot is the
// null descriptor.
func (l *Layout) GDT() ([]seg.Descriptor, error) {
	table := make([]seg.Descriptor, 1, len(l.Segments)+1)
	for _, s := range l.Segments {
		d, err := s.Descriptor()
		if err != nil {
			return nil, err
		}
		table = append(table, d)
	}

	if _, err := seg.TableRegisterFor(table); err != nil {
		return nil, fmt.Errorf("gdt: %w", err)
	}
	return table, nil
}

// Selector returns the selector of the named segment, with the segment's
// privilege as the requested privilege level.
func (l *Layout) Selector(name string) (seg.Selector, error) {
	for i, s := range l.Segments {
		if s.Name != name {
			continue
		}
		sel, err := seg.NewSelector(uint16(i+1), false, seg.Privilege(s.Privilege))
		if err != nil {
			return seg.NullSelector, fmt.Errorf("segment %q: %w", name, err)
		}
		return sel, nil
	}
	return seg.NullSelector, fmt.Errorf("no segment named %q", name)
}

var flagNames = map[string]paging.Flag{
	"present":       paging.FlagPresent,
	"writable":      paging.FlagWritable,
	"user":          paging.FlagUser,
	"write-through": paging.FlagWriteThrough,
	"cache-disable": paging.FlagCacheDisable,
	"accessed":      paging.FlagAccessed,
	"dirty":         paging.FlagDirty,
	"global":        paging.FlagGlobal,
	"no-execute":    paging.FlagNoExecute,
	"page-size":     paging.FlagPageSize,
}

// FlagNames returns the flag names accepted in a map's flags list.
func FlagNames() []string {
	names := make([]string, 0, len(flagNames))
	for name := range flagNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FlagList names the flags set in f in bit order.
func FlagList(f paging.Flag) []string {
	var names []string
	for bit := uint(0); bit < 64; bit++ {
		flag := paging.Flag(1) << bit
		if f&flag == 0 {
			continue
		}

		name := fmt.Sprintf("bit%d", bit)
		for n, v := range flagNames {
			if v == flag {
				name = n
				break
			}
		}
		names = append(names, name)
	}
	return names
}

// mapKind describes how one kind of map is built and printed.
type mapKind struct {
	typeName string
	wordBits int
	build    func(base uint64, flags paging.Flag) ([]uint64, *kernel.Error)
}

var mapKinds = map[string]mapKind{
	"short-small": {"paging.ShortPageTable", 32, buildShortSmall},
	"short-large": {"paging.ShortDirectory", 32, buildShortLarge},
	"long-small":  {"paging.LongPageTable", 64, buildLongSmall},
	"long-large":  {"paging.LongDirectory", 64, buildLongLarge},
}

// Flag combines the named flags of the map.
func (m Map) Flag() (paging.Flag, error) {
	var flags paging.Flag
	for _, name := range m.Flags {
		f, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("map %q: unknown flag %q", m.Name, name)
		}
		flags |= f
	}
	return flags, nil
}

// Entries encodes the map; slot i of the result is the raw value of slot i
// of the paging structure.
func (m Map) Entries() ([]uint64, error) {
	kind, ok := mapKinds[m.Kind]
	if !ok {
		return nil, fmt.Errorf("map %q: unknown kind %q", m.Name, m.Kind)
	}

	flags, err := m.Flag()
	if err != nil {
		return nil, err
	}

	words, kerr := kind.build(m.Base, flags)
	if kerr != nil {
		return nil, fmt.Errorf("map %q: %w", m.Name, kerr)
	}
	return words, nil
}

func buildShortSmall(base uint64, flags paging.Flag) ([]uint64, *kernel.Error) {
	switch {
	case base > 0xffffffff:
		return nil, paging.ErrAddressTooWide
	case base&(paging.ShortLargeSize-1) != 0:
		return nil, paging.ErrMisalignedAddress
	}

	words := make([]uint64, paging.ShortEntries)
	for i := range words {
		entry, err := paging.NewShortPageEntry(uint32(base)+uint32(i)<<paging.PageShift, flags)
		if err != nil {
			return nil, err
		}
		words[i] = uint64(entry)
	}
	return words, nil
}

// buildShortLarge covers the whole 32-bit address space, so base must be 0.
func buildShortLarge(base uint64, flags paging.Flag) ([]uint64, *kernel.Error) {
	if base != 0 {
		return nil, paging.ErrMisalignedAddress
	}

	var dir paging.ShortDirectory
	if err := paging.IdentityMapShortLarge(&dir, flags); err != nil {
		return nil, err
	}

	words := make([]uint64, len(dir))
	for i, e := range dir {
		words[i] = uint64(e)
	}
	return words, nil
}

func buildLongSmall(base uint64, flags paging.Flag) ([]uint64, *kernel.Error) {
	var table paging.LongPageTable
	if err := paging.IdentityMapLongSmall(&table, base, flags); err != nil {
		return nil, err
	}

	words := make([]uint64, len(table))
	for i, e := range table {
		words[i] = uint64(e)
	}
	return words, nil
}

func buildLongLarge(base uint64, flags paging.Flag) ([]uint64, *kernel.Error) {
	var dir paging.LongDirectory
	if err := paging.IdentityMapLongLarge(&dir, base, flags); err != nil {
		return nil, err
	}

	words := make([]uint64, len(dir))
	for i, e := range dir {
		words[i] = uint64(e)
	}
	return words, nil
}
