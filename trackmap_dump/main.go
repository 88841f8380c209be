// Command trackmap_dump prints the slot table of a track mapping, given
// as a mapping string or read from a nano ROOT file.
// Without arguments, the default mapping is printed.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/decibelcooper/eicana/trackmap"
)

var msg = log.New(os.Stdout, "trackmap_dump: ", 0)

func main() {
	xmain(os.Args[1:], os.Stdout)
}

func xmain(args []string, w io.Writer) {
	fset := flag.NewFlagSet("trackmap_dump", flag.ExitOnError)
	vars := fset.String("vars", "", "comma-separated list of track variables")

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: trackmap_dump [options] [nano-file.root]

ex:
 $> trackmap_dump -vars "pt,phi,theta,covmat"
 $> trackmap_dump ./nano.root

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	fname := ""
	switch fset.NArg() {
	case 0:
	case 1:
		fname = fset.Arg(0)
	default:
		fset.Usage()
		msg.Fatalf("too many input files")
	}

	err = process(w, *vars, fname)
	if err != nil {
		msg.Fatalf("could not dump track mapping: %+v", err)
	}
}

func process(w io.Writer, vars, fname string) error {
	var (
		m   *trackmap.Mapping
		err error
	)
	switch {
	case vars != "" && fname != "":
		return fmt.Errorf("-vars and an input file are mutually exclusive")
	case vars != "":
		m, err = trackmap.Init(vars)
	case fname != "":
		m, err = trackmap.LoadFile(fname)
	default:
		m = trackmap.Instance()
	}
	if err != nil {
		return err
	}

	err = m.Print(w)
	if err != nil {
		return err
	}
	if custom := m.Custom(); len(custom) > 0 {
		_, err = fmt.Fprintf(w, "custom variables: %v\n", custom)
	}
	return err
}
