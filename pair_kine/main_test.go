package main

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/nano"
	"github.com/decibelcooper/eicana/trackmap"
)

func TestMakeHists(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "pairs.root")
	f, err := nano.Create(fname, trackmap.Instance())
	if err != nil {
		t.Fatalf("could not create nano file: %+v", err)
	}
	evts := []event.Event{
		// pair at 3.1 GeV, with a 0.6 GeV pT.
		{ID: 1, Tracks: []event.Track{{Px: 1.55, Py: 0.3, Charge: 1}, {Px: -1.55, Py: 0.3, Charge: -1}}},
		// like-sign pair.
		{ID: 2, Tracks: []event.Track{{Px: 1.55, Charge: 1}, {Px: -1.55, Charge: 1}}},
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

	h, err := makeHists(context.Background(), fname, config.Default())
	if err != nil {
		t.Fatalf("could not fill histograms: %+v", err)
	}
	if got := h.pt.Entries(); got != 1 {
		t.Fatalf("invalid number of pairs: %d", got)
	}
	if got := h.pt.XMean(); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("invalid pair pT: %v", got)
	}
	want := 180 - 2*math.Atan(0.3/1.55)*180/math.Pi
	if got := h.angle.XMean(); math.Abs(got-want) > 1e-6 {
		t.Fatalf("invalid opening angle: got=%v, want=%v", got, want)
	}
	if got := h.y.XMean(); math.Abs(got) > 1e-6 {
		t.Fatalf("invalid rapidity: %v", got)
	}
}

func TestPlotLogY(t *testing.T) {
	tmp := t.TempDir()

	// most bins are left empty.
	h := hbook.NewH1D(10, 0, 10)
	h.Fill(2.5, 1)
	h.Fill(7.5, 10)

	oname := filepath.Join(tmp, "sparse.png")
	err := plotLogY(oname, "title", "x", []*hbook.H1D{h, hbook.NewH1D(10, 0, 10)})
	if err != nil {
		t.Fatalf("could not plot histograms: %+v", err)
	}
	if _, err := os.Stat(oname); err != nil {
		t.Fatalf("could not stat plot: %+v", err)
	}

	overflow := hbook.NewH1D(10, 0, 10)
	overflow.Fill(20, 1)
	err = plotLogY(filepath.Join(tmp, "empty.png"), "", "x", []*hbook.H1D{hbook.NewH1D(10, 0, 10), overflow})
	if !errors.Is(err, errNoEntries) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, errNoEntries)
	}
}
