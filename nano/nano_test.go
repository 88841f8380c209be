package nano

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/trackmap"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// all tests of this package share the process-wide mapping.
const vars = "pt,phi,theta,ID,covmat,TPCsignal,cstNSigmaTPCPion"

func newTrack(id int, px, py, pz float64, q int) event.Track {
	t := event.Track{
		ID:     id,
		Px:     px,
		Py:     py,
		Pz:     pz,
		Charge: q,
		HasCov: true,
		Extra: map[string]float64{
			"TPCsignal":        50 + float64(id),
			"cstNSigmaTPCPion": -0.5 * float64(id),
		},
	}
	for i := range t.Cov {
		t.Cov[i] = float64(id*100 + i)
	}
	return t
}

func TestFillTrack(t *testing.T) {
	m, err := trackmap.New(vars)
	if err != nil {
		t.Fatalf("could not create mapping: %+v", err)
	}

	want := newTrack(3, 1, -2, 0.5, -1)
	rec := make([]float64, m.Size())
	err = Fill(m, &want, rec)
	if err != nil {
		t.Fatalf("could not fill record: %+v", err)
	}

	if got := rec[m.Index(trackmap.Pt)]; got != want.Pt() {
		t.Fatalf("invalid pt slot: got=%v, want=%v", got, want.Pt())
	}
	if got := rec[m.CovMat(14)]; got != 314 {
		t.Fatalf("invalid sigma(1/pt)^2 slot: got=%v, want=314", got)
	}

	got, err := Track(m, rec)
	if err != nil {
		t.Fatalf("could not decode record: %+v", err)
	}
	// charge, MC information and the covariance flag are not part of
	// the record.
	want.Charge = 0
	want.HasCov = false

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("invalid round-trip (-want +got):\n%s", diff)
	}

	err = Fill(m, &want, rec[:2])
	if err == nil {
		t.Fatalf("expected a size mismatch error")
	}
	_, err = Track(m, rec[:2])
	if err == nil {
		t.Fatalf("expected a size mismatch error")
	}
}

func TestPartialMapping(t *testing.T) {
	m, err := trackmap.New("pt,TOFsignal")
	if err != nil {
		t.Fatalf("could not create mapping: %+v", err)
	}
	trk := event.Track{Px: 3, Py: 4, Extra: map[string]float64{"TOFsignal": 12}}
	rec := make([]float64, m.Size())
	if err := Fill(m, &trk, rec); err != nil {
		t.Fatalf("could not fill record: %+v", err)
	}
	if diff := cmp.Diff([]float64{5, 12}, rec); diff != "" {
		t.Fatalf("invalid record (-want +got):\n%s", diff)
	}

	got, err := Track(m, rec)
	if err != nil {
		t.Fatalf("could not decode record: %+v", err)
	}
	if got.Px != 0 || got.HasCov || got.Extra["TOFsignal"] != 12 {
		t.Fatalf("invalid track: %+v", got)
	}
}

func TestReadWrite(t *testing.T) {
	m, err := trackmap.Init(vars)
	if err != nil {
		t.Fatalf("could not init mapping: %+v", err)
	}

	evts := []event.Event{
		{
			ID:           1,
			Weight:       1,
			Multiplicity: 2,
			Vertex:       [3]float64{0.1, -0.1, 2},
			Tracks: []event.Track{
				newTrack(1, 1, 0, 1, +1),
				newTrack(2, 0, 2, -1, -1),
			},
		},
		// events without tracks are kept.
		{ID: 2, Weight: 0.5, PtHard: 12},
		{
			ID:     3,
			Weight: 1,
			Tracks: []event.Track{
				newTrack(3, -1, -1, 3, +1),
			},
		},
		{ID: 4, Weight: 1, ImpactParameter: 7.5},
	}
	evts[0].Tracks[0].MC = &event.Truth{Px: 1, Py: 0, Pz: 1, PDG: 11, Mother: 7, MotherPDG: 443}
	evts[0].Tracks[0].Weights = [event.NSpecies]float64{0.9, 0, 0.1, 0, 0}
	evts[0].Tracks[1].MC = &event.Truth{Px: 0, Py: 2.1, Pz: -1, PDG: -211, Mother: -1}
	evts[2].Tracks[0].HasCov = false
	evts[2].Tracks[0].Cov = [event.NCov]float64{}

	fname := filepath.Join(t.TempDir(), "nano.root")
	f, err := Create(fname, m)
	if err != nil {
		t.Fatalf("could not create nano file: %+v", err)
	}
	for i := range evts {
		if err := f.Write(&evts[i]); err != nil {
			t.Fatalf("could not write event %d: %+v", i, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("could not close nano file: %+v", err)
	}

	r, err := Open(fname)
	if err != nil {
		t.Fatalf("could not open nano file: %+v", err)
	}
	defer r.Close()

	if got, want := r.Entries(), int64(3); got != want {
		t.Fatalf("invalid number of entries: got=%d, want=%d", got, want)
	}
	if got, want := r.Events(), int64(len(evts)); got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	if r.Mapping() != trackmap.Instance() {
		t.Fatalf("reader mapping is not the process instance")
	}

	var got []event.Event
	err = r.Scan(context.Background(), func(evt *event.Event) error {
		got = append(got, *evt)
		return nil
	})
	if err != nil {
		t.Fatalf("could not scan nano file: %+v", err)
	}

	if len(got) != len(evts) {
		t.Fatalf("invalid number of events: got=%d, want=%d", len(got), len(evts))
	}
	for i := range evts {
		want := evts[i]
		if diff := cmp.Diff(want, got[i], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Fatalf("event %d differs (-want +got):\n%s", i, diff)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Scan(ctx, func(evt *event.Event) error { return nil })
	if err == nil {
		t.Fatalf("expected a cancellation error")
	}
}

func TestPtFromRecord(t *testing.T) {
	m, err := trackmap.New("pt,phi,theta")
	if err != nil {
		t.Fatalf("could not create mapping: %+v", err)
	}
	trk, err := Track(m, []float64{2, math.Pi / 2, math.Pi / 4})
	if err != nil {
		t.Fatalf("could not decode record: %+v", err)
	}
	if math.Abs(trk.Py-2) > 1e-12 || math.Abs(trk.Px) > 1e-12 || math.Abs(trk.Pz-2) > 1e-12 {
		t.Fatalf("invalid momentum: (%v, %v, %v)", trk.Px, trk.Py, trk.Pz)
	}
}
