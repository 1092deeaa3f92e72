package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/pedrolamarao/psys/kernel/gate"
	"github.com/pedrolamarao/psys/kernel/paging"
	"github.com/pedrolamarao/psys/kernel/seg"
	"github.com/pedrolamarao/psys/tools/layout"
	log "github.com/sirupsen/logrus"
)

// field is one decoded attribute of a value.
type field struct {
	Name  string
	Value string
}

// decoder turns the raw words of a value into its fields.
type decoder struct {
	words  int
	decode func(w []uint64) ([]field, error)
}

var decoders = map[string]decoder{
	"selector":        {1, decodeSelector},
	"segment":         {1, decodeSegment},
	"gate":            {1, decodeGate},
	"long-gate":       {2, decodeLongGate},
	"short-page":      {1, entryDecoder(32, shortPageFields)},
	"short-small-dir": {1, entryDecoder(32, shortSmallDirFields)},
	"short-large-dir": {1, entryDecoder(32, shortLargeDirFields)},
	"long-page":       {1, entryDecoder(64, longPageFields)},
	"long-small-dir":  {1, entryDecoder(64, longSmallDirFields)},
	"long-large-dir":  {1, entryDecoder(64, longLargeDirFields)},
	"dir-pointer":     {1, entryDecoder(64, dirPointerFields)},
	"pml4":            {1, entryDecoder(64, pml4Fields)},
}

func kindNames() []string {
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// describe decodes the words of a value of the given kind.
func describe(kind string, words []uint64) ([]field, error) {
	d, ok := decoders[kind]
	switch {
	case !ok:
		return nil, fmt.Errorf("unknown kind %q; supported kinds: %s", kind, strings.Join(kindNames(), ", "))
	case len(words) != d.words:
		return nil, fmt.Errorf("%s takes %d value(s); got %d", kind, d.words, len(words))
	}
	return d.decode(words)
}

func decodeSelector(w []uint64) ([]field, error) {
	if w[0] > 0xffff {
		return nil, fmt.Errorf("selector 0x%x exceeds 16 bits", w[0])
	}
	s := seg.Selector(w[0])
	return []field{
		{"index", strconv.Itoa(int(s.Index()))},
		{"ldt", strconv.FormatBool(s.IsLDT())},
		{"rpl", strconv.Itoa(int(s.Privilege()))},
	}, nil
}

func decodeSegment(w []uint64) ([]field, error) {
	d := seg.Descriptor(w[0])
	kind := "data"
	switch {
	case d.IsSystem():
		kind = "system"
	case d.IsCode():
		kind = "code"
	}
	return []field{
		{"kind", kind},
		{"base", fmt.Sprintf("0x%08x", d.Base())},
		{"limit", fmt.Sprintf("0x%05x", d.Limit())},
		{"byte limit", fmt.Sprintf("0x%08x", d.ByteLimit())},
		{"type", fmt.Sprintf("0x%x", uint8(d.Type()))},
		{"dpl", strconv.Itoa(int(d.Privilege()))},
		{"present", strconv.FormatBool(d.IsPresent())},
		{"available", strconv.FormatBool(d.IsAvailable())},
		{"long", strconv.FormatBool(d.IsLong())},
		{"size32", strconv.FormatBool(d.Is32Bit())},
		{"granular", strconv.FormatBool(d.IsGranular())},
	}, nil
}

func decodeGate(w []uint64) ([]field, error) {
	g := gate.InterruptGateDescriptor(w[0])
	return []field{
		{"offset", fmt.Sprintf("0x%08x", g.Offset())},
		{"segment", fmt.Sprintf("0x%04x", uint16(g.Segment()))},
		{"type", fmt.Sprintf("0x%x", uint8(g.Type()))},
		{"dpl", strconv.Itoa(int(g.Privilege()))},
		{"present", strconv.FormatBool(g.IsPresent())},
		{"size32", strconv.FormatBool(g.Is32Bit())},
		{"trap", strconv.FormatBool(g.IsTrap())},
	}, nil
}

// decodeLongGate takes the low quadword first.
func decodeLongGate(w []uint64) ([]field, error) {
	g := gate.LongInterruptGateDescriptor{w[0], w[1]}
	return []field{
		{"offset", fmt.Sprintf("0x%016x", g.Offset())},
		{"segment", fmt.Sprintf("0x%04x", uint16(g.Segment()))},
		{"ist", strconv.Itoa(int(g.IST()))},
		{"type", fmt.Sprintf("0x%x", uint8(g.Type()))},
		{"dpl", strconv.Itoa(int(g.Privilege()))},
		{"present", strconv.FormatBool(g.IsPresent())},
		{"trap", strconv.FormatBool(g.IsTrap())},
	}, nil
}

func entryDecoder(bits uint, split func(uint64) (uint64, paging.Flag)) func([]uint64) ([]field, error) {
	return func(w []uint64) ([]field, error) {
		if bits < 64 && w[0]>>bits != 0 {
			return nil, fmt.Errorf("entry 0x%x exceeds %d bits", w[0], bits)
		}

		addr, flags := split(w[0])
		names := layout.FlagList(flags)
		if len(names) == 0 {
			names = []string{"none"}
		}
		return []field{
			{"address", fmt.Sprintf("0x%0*x", int(bits/4), addr)},
			{"flags", strings.Join(names, " ")},
		}, nil
	}
}

func shortPageFields(w uint64) (uint64, paging.Flag) {
	e := paging.ShortPageEntry(w)
	return uint64(e.Address()), e.Flags()
}

func shortSmallDirFields(w uint64) (uint64, paging.Flag) {
	e := paging.ShortSmallDirEntry(w)
	return uint64(e.Address()), e.Flags()
}

func shortLargeDirFields(w uint64) (uint64, paging.Flag) {
	e := paging.ShortLargeDirEntry(w)
	return uint64(e.Address()), e.Flags()
}

func longPageFields(w uint64) (uint64, paging.Flag) {
	e := paging.LongPageEntry(w)
	return e.Address(), e.Flags()
}

func longSmallDirFields(w uint64) (uint64, paging.Flag) {
	e := paging.LongSmallDirEntry(w)
	return e.Address(), e.Flags()
}

func longLargeDirFields(w uint64) (uint64, paging.Flag) {
	e := paging.LongLargeDirEntry(w)
	return e.Address(), e.Flags()
}

func dirPointerFields(w uint64) (uint64, paging.Flag) {
	e := paging.DirPointerEntry(w)
	return e.Address(), e.Flags()
}

func pml4Fields(w uint64) (uint64, paging.Flag) {
	e := paging.PML4Entry(w)
	return e.Address(), e.Flags()
}

func printFields(w io.Writer, fields []field) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.Value)
	}
	return tw.Flush()
}

func parseWords(args []string) ([]uint64, error) {
	words := make([]uint64, 0, len(args))
	for _, arg := range args {
		w, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", arg, err)
		}
		words = append(words, w)
	}
	return words, nil
}

// decodeCmd implements subcommands.Command for the "decode" command.
type decodeCmd struct {
	kind string
}

// Name implements subcommands.Command.
func (*decodeCmd) Name() string {
	return "decode"
}

// Synopsis implements subcommands.Command.
func (*decodeCmd) Synopsis() string {
	return "decode a raw descriptor, gate or paging entry"
}

// Usage implements subcommands.Command.
func (*decodeCmd) Usage() string {
	return `decode [-kind <kind>] <value>...

Values are parsed as Go integer literals (0x prefix for hex). A long-gate
takes two values, low quadword first.
`
}

// SetFlags implements subcommands.Command.
func (c *decodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "segment", "kind of value: "+strings.Join(kindNames(), ", "))
}

// Execute implements subcommands.Command.Execute.
func (c *decodeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	words, err := parseWords(f.Args())
	if err != nil {
		log.WithError(err).Error("decode failed")
		return subcommands.ExitUsageError
	}

	fields, err := describe(c.kind, words)
	if err != nil {
		log.WithError(err).WithField("kind", c.kind).Error("decode failed")
		return subcommands.ExitFailure
	}

	if err := printFields(stdout, fields); err != nil {
		log.WithError(err).Error("write failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
