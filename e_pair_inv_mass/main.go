// Command e_pair_inv_mass plots the invariant mass of unlike-sign track
// pairs, one histogram per input file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/eicana"
	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/pair"
	"github.com/decibelcooper/eicana/pid"
	"github.com/decibelcooper/eicana/source"
)

var msg = log.New(os.Stdout, "e_pair_inv_mass: ", 0)

var (
	title   = flag.String("title", "", "plot title")
	output  = flag.String("output", "out.png", "output file")
	cfgFile = flag.String("cfg", "", "YAML run card")
	mother  = flag.Int("mother", 0, "keep only true pairs from a mother with this |PDG| code (0: any mother)")
	truth   = flag.Bool("true", false, "keep only true pairs")
	usePID  = flag.Bool("pid", false, "require both daughters to be identified as the mass hypotheses")
	prof    = flag.Bool("prof", false, "enable CPU profiling")
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] <input-files>...

options:
`,
	)
	flag.PrintDefaults()
}

type options struct {
	cfg      config.Config
	species  [2]pid.Species
	mother   int
	trueOnly bool
	usePID   bool
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

	opts, err := newOptions(cfg, *mother, *truth || *mother != 0, *usePID)
	if err != nil {
		msg.Fatalf("invalid options: %+v", err)
	}

	hists := make([]*hbook.H1D, flag.NArg())
	grp, ctx := errgroup.WithContext(context.Background())
	for i, fname := range flag.Args() {
		i, fname := i, fname
		grp.Go(func() error {
			h, err := makeInvMassHist(ctx, fname, opts)
			if err != nil {
				return fmt.Errorf("could not process %q: %w", fname, err)
			}
			hists[i] = h
			return nil
		})
	}
	err = grp.Wait()
	if err != nil {
		msg.Fatalf("%+v", err)
	}

	p := hplot.New()
	p.Title.Text = *title
	p.X.Label.Text = "Mass (GeV)"
	p.X.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}

	for i, hist := range hists {
		msg.Printf("%s: %d pairs", flag.Arg(i), hist.Entries())

		h := hplot.NewH1D(hist)
		h.LineStyle.Color = lineColor(i)
		if len(hists) == 1 {
			h.Infos.Style = hplot.HInfoSummary
		}
		p.Add(h)
	}

	err = p.Save(6*vg.Inch, 4*vg.Inch, *output)
	if err != nil {
		msg.Fatalf("could not save plot: %+v", err)
	}
}

func newOptions(cfg config.Config, mother int, trueOnly, usePID bool) (options, error) {
	opts := options{
		cfg:      cfg,
		mother:   mother,
		trueOnly: trueOnly,
		usePID:   usePID,
	}
	for i, name := range cfg.Pair.Masses {
		s, ok := pid.ByName(name)
		if !ok || s == pid.Unknown {
			return opts, fmt.Errorf("invalid mass hypothesis %q", name)
		}
		opts.species[i] = s
	}
	return opts, nil
}

func lineColor(i int) color.Color {
	switch i {
	case 1:
		return color.RGBA{G: 255, A: 255}
	case 2:
		return color.RGBA{B: 255, A: 255}
	case 3:
		return color.RGBA{R: 255, B: 127, G: 127, A: 255}
	}
	return color.RGBA{A: 255}
}

var errNoPID = errors.New("no track carries PID weights")

func makeInvMassHist(ctx context.Context, fname string, opts options) (*hbook.H1D, error) {
	var (
		cfg  = opts.cfg.Pair
		hist = hbook.NewH1D(cfg.Bins, cfg.Min, cfg.Max)
		m0   = opts.species[0].Mass()
		m1   = opts.species[1].Mass()
		p    pair.Pair
	)

	id, err := pid.NewIdentifierFrom(opts.cfg.PID)
	if err != nil {
		return nil, err
	}

	var ntrk, nweighted int
	err = source.Each(ctx, fname, opts.cfg.Tags, func(evt *event.Event) error {
		if opts.usePID {
			for i := range evt.Tracks {
				if evt.Tracks[i].HasWeights() {
					nweighted++
				}
			}
			ntrk += len(evt.Tracks)
			id.Process(evt)
		}
		for i := 0; i < len(evt.Tracks); i++ {
			for j := i + 1; j < len(evt.Tracks); j++ {
				d0, d1 := &evt.Tracks[i], &evt.Tracks[j]
				p.Set(d0, d1)
				if !p.UnlikeSign() {
					continue
				}
				if opts.trueOnly && !p.IsTruePair(opts.mother) {
					continue
				}
				if opts.usePID && !(id.IdentifiedAs(d0, opts.species[0], 0) && id.IdentifiedAs(d1, opts.species[1], 0)) {
					continue
				}

				invMass, err := p.InvMass(m0, m1)
				if err != nil {
					return err
				}
				if invMass > cfg.Min && invMass < cfg.Max {
					hist.Fill(invMass, 1)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opts.usePID && ntrk > 0 && nweighted == 0 {
		return nil, fmt.Errorf("%w in %q", errNoPID, fname)
	}
	return hist, nil
}
