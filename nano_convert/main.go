// Command nano_convert converts event files into a nano ROOT file holding
// one compact record per track.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/nano"
	"github.com/decibelcooper/eicana/source"
	"github.com/decibelcooper/eicana/trackmap"
)

var msg = log.New(os.Stdout, "nano_convert: ", 0)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("nano_convert", flag.ExitOnError)

		oname   = fset.String("o", "nano.root", "path to output nano file")
		vars    = fset.String("vars", "", "comma-separated list of track variables (default: run card, then built-in mapping)")
		cfgFile = fset.String("cfg", "", "YAML run card")
	)

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: nano_convert [OPTIONS] <input-files>...

ex:
 $> nano_convert -o nano.root -vars "pt,phi,theta,covmat,TPCsignal" ./run.proio

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}
	if fset.NArg() < 1 {
		fset.Usage()
		msg.Fatalf("missing input files")
	}

	cfg := config.Default()
	if *cfgFile != "" {
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			msg.Fatalf("could not load run card: %+v", err)
		}
	}
	if *vars == "" {
		*vars = cfg.TrackMapping
	}

	n, err := process(context.Background(), cfg.Tags, *vars, *oname, fset.Args())
	if err != nil {
		msg.Fatalf("could not convert: %+v", err)
	}
	msg.Printf("wrote %d events to %q", n, *oname)
}

func process(ctx context.Context, tags config.Tags, vars, oname string, fnames []string) (int64, error) {
	m := trackmap.Instance()
	if vars != "" {
		var err error
		m, err = trackmap.Init(vars)
		if err != nil {
			return 0, fmt.Errorf("could not set track mapping: %w", err)
		}
	}

	o, err := nano.Create(oname, m)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, fname := range fnames {
		msg.Printf("converting %q...", fname)
		err = source.Each(ctx, fname, tags, func(evt *event.Event) error {
			n++
			return o.Write(evt)
		})
		if err != nil {
			o.Close()
			return n, err
		}
	}

	err = o.Close()
	if err != nil {
		return n, err
	}
	return n, nil
}
