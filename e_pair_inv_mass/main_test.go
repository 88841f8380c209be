package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/nano"
	"github.com/decibelcooper/eicana/trackmap"
)

func writeNano(t *testing.T, evts []event.Event) string {
	t.Helper()

	fname := filepath.Join(t.TempDir(), "pairs.root")
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
	return fname
}

func TestInvMassHist(t *testing.T) {
	fname := writeNano(t, []event.Event{
		{
			ID: 1,
			Tracks: []event.Track{
				{
					Px: 1.55, Charge: +1,
					Weights: [event.NSpecies]float64{1, 0, 0, 0, 0},
					MC:      &event.Truth{Px: 1.55, PDG: -11, Mother: 4, MotherPDG: 443},
				},
				{
					Px: -1.55, Charge: -1,
					Weights: [event.NSpecies]float64{1, 0, 0, 0, 0},
					MC:      &event.Truth{Px: -1.55, PDG: 11, Mother: 4, MotherPDG: 443},
				},
			},
		},
		{
			ID: 2,
			Tracks: []event.Track{
				{Px: 1.55, Charge: +1},
				{Px: -1.55, Charge: +1},
			},
		},
		{
			ID: 3,
			Tracks: []event.Track{
				{Px: 0.5, Charge: +1},
				{Px: -0.5, Charge: -1},
			},
		},
	})

	for _, tc := range []struct {
		name     string
		trueOnly bool
		mother   int
		usePID   bool
		want     int64
	}{
		{"all-pairs", false, 0, false, 1},
		{"true-pairs", true, 0, false, 1},
		{"jpsi-pairs", true, 443, false, 1},
		{"phi-pairs", true, 333, false, 0},
		{"identified", false, 0, true, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := newOptions(config.Default(), tc.mother, tc.trueOnly, tc.usePID)
			if err != nil {
				t.Fatalf("could not create options: %+v", err)
			}
			h, err := makeInvMassHist(context.Background(), fname, opts)
			if err != nil {
				t.Fatalf("could not fill histogram: %+v", err)
			}
			if got := h.Entries(); got != tc.want {
				t.Fatalf("invalid number of pairs: got=%d, want=%d", got, tc.want)
			}
		})
	}
}

func TestNewOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Pair.Masses = []string{"e", "gluon"}
	_, err := newOptions(cfg, 0, false, false)
	if err == nil {
		t.Fatalf("expected an error for an invalid mass hypothesis")
	}
}

func TestInvMassHistWithoutPID(t *testing.T) {
	fname := writeNano(t, []event.Event{
		{
			ID: 1,
			Tracks: []event.Track{
				{Px: 1.55, Charge: +1},
				{Px: -1.55, Charge: -1},
			},
		},
	})

	opts, err := newOptions(config.Default(), 0, false, true)
	if err != nil {
		t.Fatalf("could not create options: %+v", err)
	}
	_, err = makeInvMassHist(context.Background(), fname, opts)
	if !errors.Is(err, errNoPID) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, errNoPID)
	}
}
