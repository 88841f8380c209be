package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/nano"
	"github.com/decibelcooper/eicana/trackmap"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rhist"
)

func TestProcess(t *testing.T) {
	tmp := t.TempDir()
	fname := filepath.Join(tmp, "tracks.root")

	trk := event.Track{Px: 2, Pz: 0.5, Charge: 1, HasCov: true, MC: &event.Truth{Px: 2.02, Pz: 0.5, PDG: 211}}
	trk.Cov[14] = 1e-4

	f, err := nano.Create(fname, trackmap.Instance())
	if err != nil {
		t.Fatalf("could not create nano file: %+v", err)
	}
	for i := 0; i < 3; i++ {
		evt := event.Event{ID: int64(i), Tracks: []event.Track{trk}}
		err = f.Write(&evt)
		if err != nil {
			t.Fatalf("could not write event: %+v", err)
		}
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close nano file: %+v", err)
	}

	oname := filepath.Join(tmp, "ptres.root")
	study, err := process(context.Background(), config.Default(), oname, []string{fname})
	if err != nil {
		t.Fatalf("could not process: %+v", err)
	}
	if got, want := study.Summary(), "events=3 tracks=3 cov=3 mc=3"; got != want {
		t.Fatalf("invalid summary: got=%q, want=%q", got, want)
	}

	o, err := groot.Open(oname)
	if err != nil {
		t.Fatalf("could not open output file: %+v", err)
	}
	defer o.Close()

	obj, err := riofs.Dir(o).Get("PtRes/PtResMC")
	if err != nil {
		t.Fatalf("could not find MC resolution: %+v", err)
	}
	if got, want := obj.(rhist.H2).Entries(), 3.0; got != want {
		t.Fatalf("invalid entries: got=%v, want=%v", got, want)
	}

	png := filepath.Join(tmp, "res.png")
	err = drawHeatMap(study.Grid, png)
	if err != nil {
		t.Fatalf("could not draw heat map: %+v", err)
	}
	raw, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("could not read heat map: %+v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("heat map is not a PNG file")
	}

	err = drawHeatMap(study.Grid, filepath.Join(tmp, "missing", "res.png"))
	if err == nil {
		t.Fatalf("expected an error for a missing output directory")
	}
}
