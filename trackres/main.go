// Command trackres studies the transverse-momentum resolution of tracks.
// It stores the resolution histograms in a ROOT file and draws the
// spread of pT/pT(MC) as an (eta, pT) heat map.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/decibelcooper/eicana"
	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/ptres"
	"github.com/decibelcooper/eicana/source"
)

var msg = log.New(os.Stdout, "trackres: ", 0)

var (
	cfgFile  = flag.String("cfg", "", "YAML run card")
	resLimit = flag.Float64("reslimit", 0.1, "maximum momentum resolution in the color map")
	title    = flag.String("title", "", "plot title")
	output   = flag.String("output", "out.png", "output heat map file")
	oroot    = flag.String("o", "ptres.root", "output ROOT file")
	prof     = flag.Bool("prof", false, "enable CPU profiling")
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

	study, err := process(context.Background(), cfg, *oroot, flag.Args())
	if err != nil {
		msg.Fatalf("%+v", err)
	}
	msg.Printf("%s", study.Summary())

	err = drawHeatMap(study.Grid, *output)
	if err != nil {
		msg.Fatalf("could not draw heat map: %+v", err)
	}
}

func process(ctx context.Context, cfg config.Config, oname string, fnames []string) (*ptres.Study, error) {
	study, err := ptres.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create study: %w", err)
	}

	for _, fname := range fnames {
		err = source.Each(ctx, fname, cfg.Tags, func(evt *event.Event) error {
			study.AnaEvent(evt)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	o, err := groot.Create(oname)
	if err != nil {
		return nil, fmt.Errorf("could not create output file: %w", err)
	}

	err = study.Hists.Write(o)
	if err != nil {
		o.Close()
		return nil, err
	}
	err = o.Close()
	if err != nil {
		return nil, fmt.Errorf("could not close output file: %w", err)
	}
	return study, nil
}

func drawHeatMap(grid *ptres.ResGrid, oname string) error {
	p := hplot.New()
	p.Title.Text = *title
	p.X.Label.Text = "eta"
	p.Y.Label.Text = "p_T"
	p.X.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = eicana.PreciseTicks{NSuggestedTicks: 5}

	img := vgimg.New(670, 400)
	dc := draw.New(img)
	dc0 := draw.Crop(dc, 0, -70, 0, 0)
	dc1 := draw.Crop(dc, 620, 0, 0, 0)

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(0)
	colorMap.SetMax(*resLimit)
	pal := colorMap.Palette(1000)
	heatMap := plotter.NewHeatMap(grid, pal)
	heatMap.Min = 0
	heatMap.Max = *resLimit
	p.Add(heatMap)

	p.Draw(dc0)

	p = hplot.New()

	colorBar := &plotter.ColorBar{ColorMap: colorMap}
	colorBar.Vertical = true
	p.Add(colorBar)
	p.HideX()
	p.Y.Padding = 0

	p.Draw(dc1)

	w, err := os.Create(oname)
	if err != nil {
		return err
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err = png.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
