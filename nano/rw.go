package nano

import (
	"context"
	"errors"
	"fmt"

	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/trackmap"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// EventTreeName is the name of the ROOT tree holding one entry per event.
const EventTreeName = "nano_events"

// row is one entry of the nano tree: one track.
type row struct {
	Event       int64      `groot:"event"`
	Charge      int32      `groot:"charge"`
	HasCov      bool       `groot:"has_cov"`
	PIDW        [5]float64 `groot:"pid_w"`
	HasMC       bool       `groot:"has_mc"`
	MCPDG       int32      `groot:"mc_pdg"`
	MCP         [3]float64 `groot:"mc_p"`
	MCMother    int64      `groot:"mc_mother"`
	MCMotherPDG int32      `groot:"mc_mother_pdg"`
	N           int32      `groot:"n"`
	Vars        []float64  `groot:"vars[n]"`
}

// header is one entry of the event tree.
// Events without tracks only appear there.
type header struct {
	Event           int64      `groot:"event"`
	NTracks         int32      `groot:"ntrk"`
	Mult            int32      `groot:"mult"`
	Vertex          [3]float64 `groot:"vertex"`
	Weight          float64    `groot:"weight"`
	PtHard          float64    `groot:"pt_hard"`
	ImpactParameter float64    `groot:"impact_parameter"`
}

func (h *header) event() *event.Event {
	evt := &event.Event{
		ID:              h.Event,
		Vertex:          h.Vertex,
		Multiplicity:    int(h.Mult),
		Weight:          h.Weight,
		PtHard:          h.PtHard,
		ImpactParameter: h.ImpactParameter,
	}
	if h.NTracks > 0 {
		evt.Tracks = make([]event.Track, 0, h.NTracks)
	}
	return evt
}

// Writer writes tracks as nano records into a ROOT tree.
type Writer struct {
	m    *trackmap.Mapping
	tree rtree.Writer
	evts rtree.Writer
	row  row
	hdr  header
	rec  []float64
}

// NewWriter creates the nano trees under dir, and stores the mapping
// string next to them.
func NewWriter(dir riofs.Directory, m *trackmap.Mapping) (*Writer, error) {
	err := m.Write(dir)
	if err != nil {
		return nil, fmt.Errorf("could not write track mapping: %w", err)
	}

	w := &Writer{
		m:   m,
		rec: make([]float64, m.Size()),
	}
	w.tree, err = rtree.NewWriter(dir, TreeName, rtree.WriteVarsFromStruct(&w.row),
		rtree.WithTitle("compact track records"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create nano tree: %w", err)
	}
	w.evts, err = rtree.NewWriter(dir, EventTreeName, rtree.WriteVarsFromStruct(&w.hdr),
		rtree.WithTitle("nano events"),
	)
	if err != nil {
		w.tree.Close()
		return nil, fmt.Errorf("could not create nano event tree: %w", err)
	}
	return w, nil
}

// Write stores evt and all its tracks.
func (w *Writer) Write(evt *event.Event) error {
	for i := range evt.Tracks {
		t := &evt.Tracks[i]
		err := Fill(w.m, t, w.rec)
		if err != nil {
			return err
		}
		w.row = row{
			Event:  evt.ID,
			Charge: int32(t.Charge),
			HasCov: t.HasCov && w.m.HasCovMat(),
			PIDW:   t.Weights,
			N:      int32(len(w.rec)),
			Vars:   w.rec,
		}
		if t.MC != nil {
			w.row.HasMC = true
			w.row.MCPDG = int32(t.MC.PDG)
			w.row.MCP = [3]float64{t.MC.Px, t.MC.Py, t.MC.Pz}
			w.row.MCMother = t.MC.Mother
			w.row.MCMotherPDG = int32(t.MC.MotherPDG)
		}
		_, err = w.tree.Write()
		if err != nil {
			return fmt.Errorf("could not write track %d of event %d: %w", i, evt.ID, err)
		}
	}

	w.hdr = header{
		Event:           evt.ID,
		NTracks:         int32(len(evt.Tracks)),
		Mult:            int32(evt.Multiplicity),
		Vertex:          evt.Vertex,
		Weight:          evt.Weight,
		PtHard:          evt.PtHard,
		ImpactParameter: evt.ImpactParameter,
	}
	_, err := w.evts.Write()
	if err != nil {
		return fmt.Errorf("could not write event %d: %w", evt.ID, err)
	}
	return nil
}

// Close flushes the nano trees.
func (w *Writer) Close() error {
	err := w.tree.Close()
	if err != nil {
		w.evts.Close()
		return err
	}
	return w.evts.Close()
}

// Reader reads events back from a nano ROOT file.
type Reader struct {
	f    *riofs.File
	m    *trackmap.Mapping
	tree rtree.Tree
	evts rtree.Tree
}

// Open opens a nano ROOT file.
// The process-wide track mapping is initialized from the file; opening
// a file with another layout fails.
func Open(fname string) (*Reader, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open nano file %q: %w", fname, err)
	}

	vars, err := trackmap.Read(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not read track mapping from %q: %w", fname, err)
	}
	m, err := trackmap.Init(vars)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not set track mapping from %q: %w", fname, err)
	}

	r := &Reader{f: f, m: m}
	for _, v := range []struct {
		name string
		ptr  *rtree.Tree
	}{
		{TreeName, &r.tree},
		{EventTreeName, &r.evts},
	} {
		obj, err := f.Get(v.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("could not find tree %q in %q: %w", v.name, fname, err)
		}
		tree, ok := obj.(rtree.Tree)
		if !ok {
			f.Close()
			return nil, fmt.Errorf("nano: %q is a %T, not a tree", v.name, obj)
		}
		*v.ptr = tree
	}
	return r, nil
}

// Mapping returns the layout of the records.
func (r *Reader) Mapping() *trackmap.Mapping { return r.m }

// Entries returns the number of stored tracks.
func (r *Reader) Entries() int64 { return r.tree.Entries() }

// Events returns the number of stored events.
func (r *Reader) Events() int64 { return r.evts.Entries() }

var errStop = errors.New("nano: stop")

func (r *Reader) headers() ([]header, error) {
	var (
		hdr header
		o   = make([]header, 0, r.evts.Entries())
	)
	rr, err := rtree.NewReader(r.evts, rtree.ReadVarsFromStruct(&hdr))
	if err != nil {
		return nil, fmt.Errorf("could not create nano event reader: %w", err)
	}
	defer rr.Close()

	err = rr.Read(func(rtree.RCtx) error {
		o = append(o, hdr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read nano events: %w", err)
	}
	return o, nil
}

// Scan calls fn for each event of the file, in writing order.
// Events are rebuilt from the event tree, and take their tracks from
// consecutive entries of the nano tree.
func (r *Reader) Scan(ctx context.Context, fn func(evt *event.Event) error) error {
	hdrs, err := r.headers()
	if err != nil {
		return err
	}

	var data row
	rr, err := rtree.NewReader(r.tree, rtree.ReadVarsFromStruct(&data))
	if err != nil {
		return fmt.Errorf("could not create nano tree reader: %w", err)
	}
	defer rr.Close()

	var (
		ievt int
		cur  *event.Event
		ferr error
	)
	// next hands over the events whose tracks are all read, and opens
	// the following one.
	next := func() error {
		for ievt < len(hdrs) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if cur == nil {
				cur = hdrs[ievt].event()
			}
			if len(cur.Tracks) < int(hdrs[ievt].NTracks) {
				return nil
			}
			evt := cur
			cur = nil
			ievt++
			if err := fn(evt); err != nil {
				return err
			}
		}
		return nil
	}

	err = rr.Read(func(rctx rtree.RCtx) error {
		if err := next(); err != nil {
			ferr = err
			return errStop
		}
		if cur == nil || cur.ID != data.Event {
			ferr = fmt.Errorf("nano: entry %d of event %d has no event header", rctx.Entry, data.Event)
			return errStop
		}

		t, err := Track(r.m, data.Vars)
		if err != nil {
			ferr = fmt.Errorf("could not decode entry %d: %w", rctx.Entry, err)
			return errStop
		}
		t.Charge = int(data.Charge)
		t.HasCov = data.HasCov && r.m.HasCovMat()
		t.Weights = data.PIDW
		if data.HasMC {
			t.MC = &event.Truth{
				Px:        data.MCP[0],
				Py:        data.MCP[1],
				Pz:        data.MCP[2],
				PDG:       int(data.MCPDG),
				Mother:    data.MCMother,
				MotherPDG: int(data.MCMotherPDG),
			}
		}
		cur.Tracks = append(cur.Tracks, t)
		return nil
	})
	switch {
	case ferr != nil:
		return ferr
	case err != nil:
		return fmt.Errorf("could not read nano tree: %w", err)
	}

	err = next()
	if err != nil {
		return err
	}
	if ievt != len(hdrs) {
		return fmt.Errorf("nano: event %d is missing tracks", hdrs[ievt].Event)
	}
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// File is a nano ROOT file opened for writing.
type File struct {
	f *riofs.File
	*Writer
}

// Create creates a nano ROOT file with the layout m.
func Create(fname string, m *trackmap.Mapping) (*File, error) {
	f, err := groot.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create nano file %q: %w", fname, err)
	}
	w, err := NewWriter(f, m)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, Writer: w}, nil
}

// Close flushes the nano tree and closes the file.
func (f *File) Close() error {
	err := f.Writer.Close()
	if err != nil {
		f.f.Close()
		return fmt.Errorf("could not close nano tree: %w", err)
	}
	err = f.f.Close()
	if err != nil {
		return fmt.Errorf("could not close nano file: %w", err)
	}
	return nil
}
