// Command descdump is the host companion of the psys kernel. It decodes raw
// segment descriptors, gates and paging entries, encodes TOML table layouts
// into Go sources and patches the redirect table of a kernel image.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
)

var (
	debug = flag.Bool("debug", false, "enable debug logging")

	// stdout receives command output; tests replace it.
	stdout io.Writer = os.Stdout
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&decodeCmd{}, "")
	subcommands.Register(&showCmd{}, "layout")
	subcommands.Register(&genCmd{}, "layout")
	subcommands.Register(&redirectsCmd{}, "image")

	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
