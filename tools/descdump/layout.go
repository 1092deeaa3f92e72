package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/pedrolamarao/psys/tools/layout"
	log "github.com/sirupsen/logrus"
)

// showCmd implements subcommands.Command for the "show" command.
type showCmd struct{}

// Name implements subcommands.Command.
func (*showCmd) Name() string {
	return "show"
}

// Synopsis implements subcommands.Command.
func (*showCmd) Synopsis() string {
	return "encode a table layout and print every descriptor"
}

// Usage implements subcommands.Command.
func (*showCmd) Usage() string {
	return "show <layout.toml | layout.yaml>\n"
}

// SetFlags implements subcommands.Command.
func (*showCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*showCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	l, err := layout.DecodeFile(f.Arg(0))
	if err != nil {
		log.WithError(err).Error("cannot load layout")
		return subcommands.ExitFailure
	}

	if err := showLayout(l); err != nil {
		log.WithError(err).WithField("layout", f.Arg(0)).Error("cannot encode layout")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func showLayout(l *layout.Layout) error {
	gdt, err := l.GDT()
	if err != nil {
		return err
	}

	for i, d := range gdt {
		name := "null"
		if i > 0 {
			name = l.Segments[i-1].Name
		}
		fmt.Fprintf(stdout, "gdt[%d] %s = 0x%016x\n", i, name, uint64(d))
		if i == 0 {
			continue
		}

		fields, err := describe("segment", []uint64{uint64(d)})
		if err != nil {
			return err
		}
		if err := printFields(stdout, fields); err != nil {
			return err
		}
	}

	for _, m := range l.Maps {
		words, err := m.Entries()
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"map": m.Name, "kind": m.Kind, "entries": len(words)}).Debug("encoded map")

		last := len(words) - 1
		fmt.Fprintf(stdout, "%s (%s) base 0x%x: [0] = 0x%x, [%d] = 0x%x\n", m.Name, m.Kind, m.Base, words[0], last, words[last])
	}
	return nil
}

// genCmd implements subcommands.Command for the "gen" command.
type genCmd struct {
	output string
}

// Name implements subcommands.Command.
func (*genCmd) Name() string {
	return "gen"
}

// Synopsis implements subcommands.Command.
func (*genCmd) Synopsis() string {
	return "generate a Go source file holding the encoded tables of a layout"
}

// Usage implements subcommands.Command.
func (*genCmd) Usage() string {
	return "gen [-out <file>] <layout.toml | layout.yaml>\n"
}

// SetFlags implements subcommands.Command.
func (c *genCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "out", "-", "a file to write the generated source or - to output to STDOUT")
}

// Execute implements subcommands.Command.Execute.
func (c *genCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	l, err := layout.DecodeFile(f.Arg(0))
	if err != nil {
		log.WithError(err).Error("cannot load layout")
		return subcommands.ExitFailure
	}

	if c.output == "-" {
		err = layout.Generate(stdout, l)
	} else {
		err = generateFile(c.output, l)
	}
	if err != nil {
		log.WithError(err).WithField("out", c.output).Error("cannot generate source")
		return subcommands.ExitFailure
	}

	log.WithFields(log.Fields{"layout": f.Arg(0), "out": c.output}).Debug("generated source")
	return subcommands.ExitSuccess
}

func generateFile(path string, l *layout.Layout) error {
	fOut, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := layout.Generate(fOut, l); err != nil {
		fOut.Close()
		return err
	}
	return fOut.Close()
}
