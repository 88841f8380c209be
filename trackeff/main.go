// Command trackeff plots the tracking efficiency as a function of the
// generated pseudo-rapidity, for each input file and selected species.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/eicana"
	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/pid"
	"github.com/decibelcooper/eicana/source"
)

var msg = log.New(os.Stdout, "trackeff: ", 0)

var (
	cfgFile  = flag.String("cfg", "", "YAML run card")
	fracCut  = flag.Float64("frac", 0.01, "maximum fractional magnitude of the difference in momentum between track and true")
	nBins    = flag.Int("nbins", 80, "number of bins")
	title    = flag.String("title", "", "plot title")
	prefix   = flag.String("prefix", "out", "output file prefix")
	selected eicana.StringArrayFlags
)

func init() {
	flag.Var(&selected, "species", "species to plot (e, mu, pi, K, p), may be repeated (default: all charged particles)")
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

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			msg.Fatalf("could not load run card: %+v", err)
		}
	}

	species, err := parseSpecies(selected.Array)
	if err != nil {
		msg.Fatalf("%+v", err)
	}

	studies := make([]*study, flag.NArg())
	grp, ctx := errgroup.WithContext(context.Background())
	for i, fname := range flag.Args() {
		i, fname := i, fname
		studies[i] = newStudy(cfg.Tracks, *fracCut, *nBins, species)
		grp.Go(func() error {
			err := source.Each(ctx, fname, cfg.Tags, func(evt *event.Event) error {
				studies[i].fill(evt)
				return nil
			})
			if err != nil {
				return fmt.Errorf("could not process %q: %w", fname, err)
			}
			return nil
		})
	}
	err = grp.Wait()
	if err != nil {
		msg.Fatalf("%+v", err)
	}

	p := hplot.New()
	p.Title.Text = *title
	p.X.Label.Text = "eta"
	p.Y.Label.Text = "efficiency"
	p.X.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}

	n := 0
	for i, s := range studies {
		for _, h := range s.hists {
			msg.Printf("%s [%s]: %v/%v tracks", flag.Arg(i), h.name, h.reco.SumW(), h.gen.SumW())

			pts := h.points()
			xerr, err := plotter.NewXErrorBars(pts)
			if err != nil {
				msg.Fatalf("could not create x error bars: %+v", err)
			}
			yerr, err := plotter.NewYErrorBars(pts)
			if err != nil {
				msg.Fatalf("could not create y error bars: %+v", err)
			}
			xerr.LineStyle.Color = pointColor(n)
			yerr.LineStyle.Color = pointColor(n)
			p.Add(xerr, yerr)
			n++
		}
	}

	for _, ext := range []string{".pdf", ".png"} {
		err = p.Save(6*vg.Inch, 4*vg.Inch, *prefix+ext)
		if err != nil {
			msg.Fatalf("could not save plot: %+v", err)
		}
	}
}

func parseSpecies(names []string) ([]pid.Species, error) {
	if len(names) == 0 {
		return []pid.Species{pid.Unknown}, nil
	}
	var o []pid.Species
	for _, name := range names {
		s, ok := pid.ByName(name)
		if !ok || s == pid.Unknown {
			return nil, fmt.Errorf("invalid species %q", name)
		}
		o = append(o, s)
	}
	return o, nil
}

func pointColor(i int) color.Color {
	switch i % 4 {
	case 1:
		return color.RGBA{G: 255, A: 255}
	case 2:
		return color.RGBA{B: 255, A: 255}
	case 3:
		return color.RGBA{R: 255, B: 127, G: 127, A: 255}
	}
	return color.RGBA{A: 255}
}

// effHists holds the eta distributions of the generated particles of a
// species and of the ones found as tracks.
type effHists struct {
	name string
	sel  pid.Species // Unknown selects all species

	reco, gen *hbook.H1D
	etaLimit  float64
}

func (h *effHists) accept(pdg int) bool {
	return h.sel == pid.Unknown || pid.FromPDG(pdg) == h.sel
}

// points returns the efficiency per eta bin, with binomial errors.
func (h *effHists) points() plotutil.ErrorPoints {
	n := h.gen.Len()
	var (
		points       = make(plotter.XYs, n)
		xErrors      = make(plotter.XErrors, n)
		yErrors      = make(plotter.YErrors, n)
		binHalfWidth = h.etaLimit / float64(n)
		binSigma     = binHalfWidth / math.Sqrt(3.)
	)
	for i := range points {
		trueX, trueY := h.gen.XY(i)

		points[i].X = trueX + binHalfWidth
		xErrors[i].Low = binSigma
		xErrors[i].High = binSigma

		_, trackY := h.reco.XY(i)
		if trueY > 0 {
			eff := trackY / trueY
			points[i].Y = eff
			yErrors[i].Low = math.Sqrt((1 - eff) * trackY / math.Pow(trueY, 2))
			yErrors[i].High = yErrors[i].Low
		}
	}
	return plotutil.ErrorPoints{XYs: points, XErrors: xErrors, YErrors: yErrors}
}

type study struct {
	cuts  config.TrackCuts
	frac  float64
	hists []*effHists
}

func newStudy(cuts config.TrackCuts, frac float64, nBins int, species []pid.Species) *study {
	s := &study{cuts: cuts, frac: frac}
	for _, sp := range species {
		name := sp.LongName()
		if sp == pid.Unknown {
			name = "all"
		}
		s.hists = append(s.hists, &effHists{
			name:     name,
			sel:      sp,
			reco:     hbook.NewH1D(nBins, -cuts.EtaMax, cuts.EtaMax),
			gen:      hbook.NewH1D(nBins, -cuts.EtaMax, cuts.EtaMax),
			etaLimit: cuts.EtaMax,
		})
	}
	return s
}

// fill counts the generated charged particles and the tracks matching
// their truth particle within the momentum tolerance.
func (s *study) fill(evt *event.Event) {
	for i := range evt.Tracks {
		trk := &evt.Tracks[i]
		mc := trk.MC
		if mc == nil || mc.Pt() < s.cuts.PtMin {
			continue
		}
		pMag := math.Sqrt(mc.Px*mc.Px + mc.Py*mc.Py + mc.Pz*mc.Pz)
		diff := math.Sqrt(math.Pow(trk.Px-mc.Px, 2) + math.Pow(trk.Py-mc.Py, 2) + math.Pow(trk.Pz-mc.Pz, 2))
		if diff/pMag > s.frac {
			continue
		}
		eta := mc.Eta()
		for _, h := range s.hists {
			if h.accept(mc.PDG) {
				h.reco.Fill(eta, 1)
			}
		}
	}

	for i := range evt.Particles {
		part := &evt.Particles[i]
		if part.Charge == 0 || part.Pt() < s.cuts.PtMin {
			continue
		}
		eta := part.Eta()
		for _, h := range s.hists {
			if h.accept(part.PDG) {
				h.gen.Fill(eta, 1)
			}
		}
	}
}
