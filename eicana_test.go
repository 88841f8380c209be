package eicana

import (
	"flag"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFloatArrayFlags(t *testing.T) {
	edges := FloatArrayFlags{Array: []float64{0, 1}}
	fset := flag.NewFlagSet("test", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.Var(&edges, "edge", "bin edge")

	if got, err := edges.Edges(); err != nil || len(got) != 2 {
		t.Fatalf("invalid defaults: %v, %+v", got, err)
	}

	err := fset.Parse([]string{"-edge", "0.5", "-edge", "1,2, 5"})
	if err != nil {
		t.Fatalf("could not parse flags: %+v", err)
	}
	if !edges.IsSet() {
		t.Fatalf("flag not set")
	}
	got, err := edges.Edges()
	if err != nil {
		t.Fatalf("could not get edges: %+v", err)
	}
	if diff := cmp.Diff([]float64{0.5, 1, 2, 5}, got); diff != "" {
		t.Fatalf("invalid edges (-want +got):\n%s", diff)
	}

	for _, tc := range []struct {
		name string
		vs   []float64
	}{
		{"too-few", []float64{1}},
		{"unsorted", []float64{1, 0.5}},
		{"duplicate", []float64{1, 1, 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := FloatArrayFlags{Array: tc.vs}
			if _, err := f.Edges(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	if err := edges.Set("x"); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestStringArrayFlags(t *testing.T) {
	tags := StringArrayFlags{Array: []string{"Reconstructed"}}
	fset := flag.NewFlagSet("test", flag.ContinueOnError)
	fset.Var(&tags, "tag", "entry tag")

	err := fset.Parse([]string{"-tag", "Tracks", "-tag", "GenStable"})
	if err != nil {
		t.Fatalf("could not parse flags: %+v", err)
	}
	if got, want := tags.String(), "Tracks,GenStable"; got != want {
		t.Fatalf("invalid tags: got=%q, want=%q", got, want)
	}
}

func TestPreciseTicks(t *testing.T) {
	ticks := PreciseTicks{NSuggestedTicks: 5}.Ticks(0, 10)

	var (
		labels []string
		minor  []float64
	)
	for _, tick := range ticks {
		if tick.Label == "" {
			minor = append(minor, tick.Value)
			continue
		}
		labels = append(labels, tick.Label)
	}
	if diff := cmp.Diff([]string{"0", "2", "4", "6", "8", "10"}, labels); diff != "" {
		t.Fatalf("invalid major ticks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 3, 5, 7, 9}, minor); diff != "" {
		t.Fatalf("invalid minor ticks (-want +got):\n%s", diff)
	}
}
