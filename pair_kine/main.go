// Command pair_kine plots the kinematics of the unlike-sign track pairs
// falling in the invariant-mass window: pair pT, rapidity and opening
// angle, one curve per input file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/eicana"
	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/pair"
	"github.com/decibelcooper/eicana/pid"
	"github.com/decibelcooper/eicana/source"
)

var msg = log.New(os.Stdout, "pair_kine: ", 0)

var (
	cfgFile = flag.String("cfg", "", "YAML run card")
	title   = flag.String("title", "", "plot title")
	prefix  = flag.String("prefix", "pair", "output file prefix")
)

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

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			msg.Fatalf("could not load run card: %+v", err)
		}
	}

	hists := make([]*kineHists, flag.NArg())
	grp, ctx := errgroup.WithContext(context.Background())
	for i, fname := range flag.Args() {
		i, fname := i, fname
		grp.Go(func() error {
			h, err := makeHists(ctx, fname, cfg)
			if err != nil {
				return fmt.Errorf("could not process %q: %w", fname, err)
			}
			hists[i] = h
			return nil
		})
	}
	err := grp.Wait()
	if err != nil {
		msg.Fatalf("%+v", err)
	}

	for _, v := range []struct {
		name  string
		label string
		get   func(h *kineHists) *hbook.H1D
	}{
		{"pt", "Pair Transverse Momentum (GeV)", func(h *kineHists) *hbook.H1D { return h.pt }},
		{"y", "Pair Rapidity", func(h *kineHists) *hbook.H1D { return h.y }},
		{"angle", "Opening Angle (deg)", func(h *kineHists) *hbook.H1D { return h.angle }},
	} {
		hs := make([]*hbook.H1D, len(hists))
		for i, h := range hists {
			hs[i] = v.get(h)
		}
		oname := *prefix + "_" + v.name + ".png"
		err = plotLogY(oname, *title, v.label, hs)
		switch {
		case errors.Is(err, errNoEntries):
			msg.Printf("skipping %q: %+v", oname, err)
		case err != nil:
			msg.Fatalf("%+v", err)
		}
	}
}

var errNoEntries = errors.New("no entries to plot")

// plotLogY draws the histograms on a logarithmic y axis and saves the
// plot to oname. Empty bins are not drawn.
func plotLogY(oname, title, label string, hists []*hbook.H1D) error {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = label
	p.X.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Scale = plot.LogScale{}

	n := 0
	for i, hist := range hists {
		if !hasContent(hist) {
			continue
		}
		h := hplot.NewH1D(hist)
		h.LogY = true
		h.FillColor = nil
		h.LineStyle.Color = lineColor(i)
		h.Infos.Style = hplot.HInfoNone
		p.Add(h)
		n++
	}
	if n == 0 {
		return errNoEntries
	}

	err := p.Save(6*vg.Inch, 4*vg.Inch, oname)
	if err != nil {
		return fmt.Errorf("could not save %q: %w", oname, err)
	}
	return nil
}

// hasContent reports whether a bin of h, outside of the under and
// overflow, has a positive content.
func hasContent(h *hbook.H1D) bool {
	for i := 0; i < h.Len(); i++ {
		if _, y := h.XY(i); y > 0 {
			return true
		}
	}
	return false
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

type kineHists struct {
	pt, y, angle *hbook.H1D
}

func makeHists(ctx context.Context, fname string, cfg config.Config) (*kineHists, error) {
	var ms [2]float64
	for i, name := range cfg.Pair.Masses {
		s, ok := pid.ByName(name)
		if !ok {
			return nil, fmt.Errorf("invalid mass hypothesis %q", name)
		}
		ms[i] = s.Mass()
	}

	h := &kineHists{
		pt:    hbook.NewH1D(50, 0, 4),
		y:     hbook.NewH1D(50, -5, 5),
		angle: hbook.NewH1D(45, 0, 180),
	}
	var p pair.Pair
	err := source.Each(ctx, fname, cfg.Tags, func(evt *event.Event) error {
		for i := 0; i < len(evt.Tracks); i++ {
			for j := i + 1; j < len(evt.Tracks); j++ {
				p.Set(&evt.Tracks[i], &evt.Tracks[j])
				if !p.UnlikeSign() {
					continue
				}
				m, err := p.InvMass(ms[0], ms[1])
				if err != nil {
					return err
				}
				if m <= cfg.Pair.Min || m >= cfg.Pair.Max {
					continue
				}

				y, err := p.Rapidity(ms[0], ms[1])
				if err != nil {
					return err
				}
				angle, err := p.Angle()
				if err != nil {
					return err
				}
				h.pt.Fill(p.Pt(), 1)
				h.y.Fill(y, 1)
				h.angle.Fill(angle, 1)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}
