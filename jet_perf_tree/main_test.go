package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/decibelcooper/eicana"
	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/jet"
	"github.com/decibelcooper/eicana/nano"
	"github.com/decibelcooper/eicana/trackmap"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

func writeNano(t *testing.T, fname string, evts []event.Event) {
	t.Helper()

	f, err := nano.Create(fname, trackmap.Instance())
	if err != nil {
		t.Fatalf("could not create nano file: %+v", err)
	}
	for i := range evts {
		err = f.Write(&evts[i])
		if err != nil {
			t.Fatalf("could not write event: %+v", err)
		}
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close nano file: %+v", err)
	}
}

func TestProcess(t *testing.T) {
	tmp := t.TempDir()

	var (
		fname = filepath.Join(tmp, "det.root")
		ename = filepath.Join(tmp, "embed.root")
		oname = filepath.Join(tmp, "jets.root")
	)
	writeNano(t, fname, []event.Event{
		{ID: 1, Tracks: []event.Track{{Px: 10, Charge: 1}, {Px: 9, Py: 1, Charge: -1}}},
		{ID: 2, Tracks: []event.Track{{Py: 8, Charge: 1}, {Px: 1, Py: 9, Charge: 1}}},
	})
	writeNano(t, ename, []event.Event{
		{ID: 7, Tracks: []event.Track{{Px: -5, Charge: 1}}},
	})

	cfg := config.Default()
	// nano files carry no generated particles.
	cfg.Jets.PartLevelResponse = false
	cfg.Jets.CreateTree = true

	stats, err := process(context.Background(), cfg, oname, ename, []string{fname})
	if err != nil {
		t.Fatalf("could not process: %+v", err)
	}
	if got, want := stats, (jet.Stats{Events: 2, Matched: 2}); got != want {
		t.Fatalf("invalid stats: got=%+v, want=%+v", got, want)
	}

	f, err := groot.Open(oname)
	if err != nil {
		t.Fatalf("could not open output file: %+v", err)
	}
	defer f.Close()

	obj, err := f.Get(jet.TreeName)
	if err != nil {
		t.Fatalf("could not get response tree: %+v", err)
	}
	if got, want := obj.(rtree.Tree).Entries(), int64(2); got != want {
		t.Fatalf("invalid number of tree entries: got=%d, want=%d", got, want)
	}
}

func TestCollections(t *testing.T) {
	cfg := config.Default()
	finder := jet.Finder{R: cfg.Jets.Radius, PtMin: cfg.Jets.PtMin}

	evt := event.Event{
		Tracks:    []event.Track{{Px: 10, Charge: 1}},
		Particles: []event.Particle{{PDG: 211, Charge: 1, Px: 10.5, Mass: 0.13957018}},
	}
	emb := event.Event{
		Tracks: []event.Track{{Px: -5, Charge: 1}, {Px: 0.01, Charge: 1}},
	}

	colls, err := collections(finder, cfg, &evt, &emb)
	if err != nil {
		t.Fatalf("could not build collections: %+v", err)
	}
	for _, tc := range []struct {
		name string
		n    int
	}{
		{jet.HybridLevel, 2},
		{jet.DetLevel, 1},
		{jet.PartLevel, 1},
	} {
		if got := len(colls[tc.name].Jets); got != tc.n {
			t.Fatalf("invalid number of %s: got=%d, want=%d", tc.name, got, tc.n)
		}
	}
	if got, want := evt.Multiplicity, 2; got != want {
		t.Fatalf("invalid multiplicity: got=%d, want=%d", got, want)
	}

	sub := colls[jet.HybridLevel].Jets[1]
	if len(sub.Constituents) != 1 || sub.Constituents[0] != embedOffset {
		t.Fatalf("invalid embedded constituents: %v", sub.Constituents)
	}
}

func TestWithCentEdges(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		want []float64
		fail bool
	}{
		{"run-card", nil, config.Default().Jets.CentEdges, false},
		{"flag", []string{"-cent-edges", "0,20", "-cent-edges", "1e9"}, []float64{0, 20, 1e9}, false},
		{"single-edge", []string{"-cent-edges", "5"}, nil, true},
		{"unsorted", []string{"-cent-edges", "10,5"}, nil, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var edges eicana.FloatArrayFlags
			fset := flag.NewFlagSet("jet_perf_tree", flag.ContinueOnError)
			fset.Var(&edges, "cent-edges", "centrality edges")
			err := fset.Parse(tc.args)
			if err != nil {
				t.Fatalf("could not parse flags: %+v", err)
			}

			cfg, err := withCentEdges(config.Default(), &edges)
			switch {
			case tc.fail && err == nil:
				t.Fatalf("expected an error")
			case tc.fail:
				return
			case err != nil:
				t.Fatalf("could not apply edges: %+v", err)
			}
			if diff := cmp.Diff(tc.want, cfg.Jets.CentEdges); diff != "" {
				t.Fatalf("invalid edges (-want +got):\n%s", diff)
			}
		})
	}
}
