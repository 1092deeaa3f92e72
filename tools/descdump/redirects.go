package main

import (
	"context"
	"debug/elf"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"
)

// redirectsSection holds (source, destination) address pairs for the boot
// code of an image to patch runtime functions with. Nothing in this module
// reads the table; populate only fills it for an external boot stage.
const redirectsSection = ".goredirectstbl"

type redirect struct {
	src string
	dst string

	srcVMA uint64
	dstVMA uint64
}

// modulePath reads the module path from the go.mod file in root.
func modulePath(root string) (string, error) {
	name := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}

	if mod := modfile.ModulePath(data); mod != "" {
		return mod, nil
	}
	return "", fmt.Errorf("%s: missing module directive", name)
}

func collectGoFiles(root string) ([]string, error) {
	var goFiles []string
	err := filepath.Walk(root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		if filepath.Ext(name) == ".go" && !strings.HasSuffix(name, "_test.go") {
			goFiles = append(goFiles, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return goFiles, nil
}

// findRedirects collects the go:redirect-from directives of the functions
// declared under root/kernel. Files are parsed concurrently; the result keeps
// the file walk order.
func findRedirects(root string) ([]*redirect, error) {
	prefix, err := modulePath(root)
	if err != nil {
		return nil, err
	}

	goFiles, err := collectGoFiles(filepath.Join(root, "kernel"))
	if err != nil {
		return nil, err
	}

	perFile := make([][]*redirect, len(goFiles))
	var g errgroup.Group
	for i, goFile := range goFiles {
		i, goFile := i, goFile
		g.Go(func() error {
			rel, err := filepath.Rel(root, filepath.Dir(goFile))
			if err != nil {
				return err
			}

			perFile[i], err = fileRedirects(goFile, path.Join(prefix, filepath.ToSlash(rel)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var redirects []*redirect
	for _, r := range perFile {
		redirects = append(redirects, r...)
	}
	return redirects, nil
}

// fileRedirects returns the redirects declared in goFile, which belongs to
// the package pkgPath.
func fileRedirects(goFile, pkgPath string) ([]*redirect, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", goFile, err)
	}

	var redirects []*redirect
	for _, decl := range f.Decls {
		fnDecl, ok := decl.(*ast.FuncDecl)
		if !ok || fnDecl.Doc == nil || fnDecl.Recv != nil {
			continue
		}

		for _, comment := range fnDecl.Doc.List {
			if !strings.Contains(comment.Text, "go:redirect-from") {
				continue
			}

			// build qualified name to fn
			fqName := pkgPath + "." + fnDecl.Name.Name

			fields := strings.Fields(comment.Text)
			if len(fields) != 2 || fields[0] != "//go:redirect-from" {
				return nil, fmt.Errorf("malformed go:redirect-from syntax for %q", fqName)
			}

			log.WithFields(log.Fields{"src": fields[1], "dst": fqName}).Debug("found redirect")
			redirects = append(redirects, &redirect{
				src: fields[1],
				dst: fqName,
			})
		}
	}
	return redirects, nil
}

func elfRedirectTableOffset(imgFile string) (uint64, uint64, error) {
	f, err := elf.Open(imgFile)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	section := f.Section(redirectsSection)
	if section == nil {
		return 0, 0, fmt.Errorf("%s: missing %s section", imgFile, redirectsSection)
	}

	return section.Offset, section.Size, nil
}

func elfWriteRedirectTable(redirects []*redirect, imgFile string) error {
	offset, size, err := elfRedirectTableOffset(imgFile)
	if err != nil {
		return err
	}
	if need := uint64(len(redirects)) * 16; need > size {
		return fmt.Errorf("%s: %s section holds %d bytes; %d needed", imgFile, redirectsSection, size, need)
	}

	// Open kernel image file and seek to table offset
	f, err := os.OpenFile(imgFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}

	if _, err = f.Seek(int64(offset), io.SeekStart); err != nil {
		f.Close()
		return err
	}

	for _, r := range redirects {
		if err = binary.Write(f, binary.LittleEndian, [2]uint64{r.srcVMA, r.dstVMA}); err != nil {
			f.Close()
			return err
		}
	}

	return f.Close()
}

func elfResolveRedirectSymbols(redirects []*redirect, imgFile string) error {
	f, err := elf.Open(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	symbols, err := f.Symbols()
	if err != nil {
		return err
	}

	for _, redirect := range redirects {
		for _, symbol := range symbols {
			if symbol.Name == redirect.src {
				redirect.srcVMA = symbol.Value
			}
			if symbol.Name == redirect.dst {
				redirect.dstVMA = symbol.Value
			}
		}

		switch {
		case redirect.srcVMA == 0:
			return fmt.Errorf("%s: could not locate address of %q", imgFile, redirect.src)
		case redirect.dstVMA == 0:
			return fmt.Errorf("%s: could not locate address of %q", imgFile, redirect.dst)
		}
	}

	return nil
}

// redirectsCmd implements subcommands.Command for the "redirects" command.
type redirectsCmd struct {
	root string
}

// Name implements subcommands.Command.
func (*redirectsCmd) Name() string {
	return "redirects"
}

// Synopsis implements subcommands.Command.
func (*redirectsCmd) Synopsis() string {
	return "count or populate the runtime redirect table of a kernel image"
}

// Usage implements subcommands.Command.
func (*redirectsCmd) Usage() string {
	return `redirects [-root <dir>] count
redirects [-root <dir>] populate <kernel image>

populate fills the .goredirectstbl section for the boot stage that applies
the redirects; that stage is not part of this module.
`
}

// SetFlags implements subcommands.Command.
func (c *redirectsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.root, "root", ".", "the module root holding go.mod and kernel/")
}

// Execute implements subcommands.Command.Execute.
func (c *redirectsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	var imgFile string
	switch f.Arg(0) {
	case "count":
	case "populate":
		if f.NArg() != 2 {
			log.Error("populate requires the path to the kernel image as an argument")
			return subcommands.ExitUsageError
		}
		imgFile = f.Arg(1)
	default:
		log.Errorf("unknown command %q", f.Arg(0))
		return subcommands.ExitUsageError
	}

	if err := c.run(f.Arg(0), imgFile); err != nil {
		log.WithError(err).Error("redirects failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *redirectsCmd) run(cmd, imgFile string) error {
	if matches, _ := filepath.Glob(filepath.Join(c.root, "kernel")); len(matches) != 1 {
		return errors.New("the root folder must contain the kernel folder")
	}

	redirects, err := findRedirects(c.root)
	if err != nil {
		return err
	}

	if cmd == "count" {
		fmt.Fprintf(stdout, "%d", len(redirects))
		return nil
	}

	if err = elfResolveRedirectSymbols(redirects, imgFile); err != nil {
		return err
	}

	return elfWriteRedirectTable(redirects, imgFile)
}
