// Command jet_perf_tree clusters jets at detector, hybrid and particle
// level, fills the jet performance histograms and, optionally, the jet
// response tree.
//
// Hybrid events are detector events with the tracks of an embedded event
// added; without -embed, hybrid and detector level jets are identical.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/groot"

	"github.com/decibelcooper/eicana"
	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/jet"
	"github.com/decibelcooper/eicana/source"
)

var msg = log.New(os.Stdout, "jet_perf_tree: ", 0)

// embedOffset shifts the IDs of embedded tracks away from the detector
// level ones.
const embedOffset = 1 << 20

var (
	cfgFile = flag.String("cfg", "", "YAML run card")
	oname   = flag.String("o", "jets.root", "output ROOT file")
	embed   = flag.String("embed", "", "file of events to embed into the detector level events")
	tree    = flag.Bool("tree", false, "fill the jet response tree")
	prof    = flag.Bool("prof", false, "enable CPU profiling")

	centEdges eicana.FloatArrayFlags
)

func init() {
	flag.Var(&centEdges, "cent-edges", "multiplicity edges of the centrality bins, overriding the run card (e.g. 0,20,50,1e9)")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] <input-files>...

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		msg.Fatalf("missing input files")
	}
	if *prof {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			msg.Fatalf("could not load run card: %+v", err)
		}
	}
	if *tree {
		cfg.Jets.CreateTree = true
	}
	cfg, err := withCentEdges(cfg, &centEdges)
	if err != nil {
		msg.Fatalf("%+v", err)
	}

	stats, err := process(context.Background(), cfg, *oname, *embed, flag.Args())
	if err != nil {
		msg.Fatalf("%+v", err)
	}
	msg.Printf("events=%d skipped=%d matched=%d", stats.Events, stats.Skipped, stats.Matched)
}

func process(ctx context.Context, cfg config.Config, oname, embed string, fnames []string) (jet.Stats, error) {
	var stats jet.Stats

	var embedded []event.Event
	if embed != "" {
		err := source.Each(ctx, embed, cfg.Tags, func(evt *event.Event) error {
			embedded = append(embedded, *evt)
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("could not read embedded events: %w", err)
		}
		if len(embedded) == 0 {
			return stats, fmt.Errorf("no event to embed in %q", embed)
		}
		msg.Printf("embedding %d events from %q", len(embedded), embed)
	}

	task, err := jet.NewTask(cfg.Jets, jet.HybridLevel, jet.DetLevel, jet.PartLevel)
	if err != nil {
		return stats, err
	}

	o, err := groot.Create(oname)
	if err != nil {
		return stats, fmt.Errorf("could not create output file: %w", err)
	}

	if cfg.Jets.CreateTree {
		task.Tree, err = jet.NewTreeWriter(o, jet.TreeName)
		if err != nil {
			o.Close()
			return stats, err
		}
	}

	var (
		finder = jet.Finder{R: cfg.Jets.Radius, PtMin: cfg.Jets.PtMin}
		ievt   = 0
	)
	for _, fname := range fnames {
		err = source.Each(ctx, fname, cfg.Tags, func(evt *event.Event) error {
			var emb *event.Event
			if len(embedded) > 0 {
				emb = &embedded[ievt%len(embedded)]
			}
			ievt++

			colls, err := collections(finder, cfg, evt, emb)
			if err != nil {
				return err
			}
			err = task.Run(evt, colls)
			if err != nil && !errors.Is(err, jet.ErrMissingCollection) {
				return err
			}
			return nil
		})
		if err != nil {
			o.Close()
			return task.Stats, err
		}
	}

	if task.Tree != nil {
		err = task.Tree.Close()
		if err != nil {
			o.Close()
			return task.Stats, err
		}
	}
	err = task.Write(o)
	if err != nil {
		o.Close()
		return task.Stats, err
	}
	err = o.Close()
	if err != nil {
		return task.Stats, fmt.Errorf("could not close output file: %w", err)
	}
	return task.Stats, nil
}

// withCentEdges returns cfg with the centrality edges given on the
// command line, if any.
func withCentEdges(cfg config.Config, f *eicana.FloatArrayFlags) (config.Config, error) {
	if !f.IsSet() {
		return cfg, nil
	}
	edges, err := f.Edges()
	if err != nil {
		return cfg, fmt.Errorf("invalid -cent-edges: %w", err)
	}
	cfg.Jets.CentEdges = edges
	return cfg, cfg.Validate()
}

// collections clusters the jets of the three levels of evt.
// The event multiplicity is set to the number of hybrid level inputs.
func collections(finder jet.Finder, cfg config.Config, evt, emb *event.Event) (map[string]*jet.Collection, error) {
	var (
		cuts   = cfg.Tracks
		etaMax = cfg.Jets.EtaMax
		useRho = cfg.Jets.BeamType == "AA"

		det    = jet.TrackInputs(evt.Tracks, cuts.PtMin, cuts.EtaMax, 0)
		hybrid = det
		part   = jet.ParticleInputs(evt.Particles, cuts.PtMin, cuts.EtaMax)
	)
	if emb != nil {
		hybrid = append(append([]jet.Input(nil), det...),
			jet.TrackInputs(emb.Tracks, cuts.PtMin, cuts.EtaMax, embedOffset)...,
		)
	}
	evt.Multiplicity = len(hybrid)

	colls := make(map[string]*jet.Collection, 3)
	for _, lvl := range []struct {
		name   string
		inputs []jet.Input
		useRho bool
	}{
		{jet.HybridLevel, hybrid, useRho},
		{jet.DetLevel, det, false},
		{jet.PartLevel, part, false},
	} {
		c, err := finder.Collection(lvl.name, lvl.inputs, etaMax, lvl.useRho)
		if err != nil {
			return nil, err
		}
		colls[lvl.name] = c
	}
	return colls, nil
}
