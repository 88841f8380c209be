package source

import (
	"context"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/pid"
	"github.com/proio-org/go-proio"
	"github.com/proio-org/go-proio-pb/model/eic"
)

// Proio reads events from a proio file with the EIC data model.
type Proio struct {
	r    *proio.Reader
	tags config.Tags
}

// OpenProio opens a proio file.
func OpenProio(fname string, tags config.Tags) (*Proio, error) {
	r, err := proio.Open(fname)
	if err != nil {
		return nil, err
	}
	return &Proio{r: r, tags: tags}, nil
}

func (src *Proio) Scan(ctx context.Context, fn func(evt *event.Event) error) error {
	var id int64
	for pevt := range src.r.ScanEvents() {
		if err := ctx.Err(); err != nil {
			return err
		}
		evt := convert(pevt, src.tags)
		evt.ID = id
		id++
		if err := fn(evt); err != nil {
			return err
		}
	}
	return nil
}

func (src *Proio) Close() error {
	if src.r == nil {
		return nil
	}
	src.r.Close()
	src.r = nil
	return nil
}

func convert(pevt *proio.Event, tags config.Tags) *event.Event {
	evt := &event.Event{Weight: 1}

	for _, id := range pevt.TaggedEntries(tags.Particles) {
		part, ok := pevt.GetEntry(id).(*eic.Particle)
		if !ok {
			continue
		}
		evt.Particles = append(evt.Particles, newParticle(id, part, pevt))
	}
	if len(evt.Particles) > 0 {
		evt.Vertex = evt.Particles[0].Vertex
	}

	for _, id := range pevt.TaggedEntries(tags.Tracks) {
		track, ok := pevt.GetEntry(id).(*eic.Track)
		if !ok || len(track.Segment) == 0 {
			continue
		}
		seg := track.Segment[0]
		t := event.Track{
			ID:     len(evt.Tracks),
			Px:     seg.GetPoq().GetX(),
			Py:     seg.GetPoq().GetY(),
			Pz:     seg.GetPoq().GetZ(),
			Charge: sign(float64(seg.GetChargesign())),
		}
		t.Cov[14], t.HasCov = sigma1Pt2(seg)
		t.MC = truth(pevt, track)
		if t.MC != nil {
			t.Weights = truthWeights(t.MC.PDG)
		}
		evt.Tracks = append(evt.Tracks, t)
	}
	evt.Multiplicity = len(evt.Tracks)

	return evt
}

func newParticle(id uint64, part *eic.Particle, pevt *proio.Event) event.Particle {
	p := event.Particle{
		ID:     id,
		PDG:    int(part.GetPdg()),
		Px:     float64(part.GetP().GetX()),
		Py:     float64(part.GetP().GetY()),
		Pz:     float64(part.GetP().GetZ()),
		Mass:   float64(part.GetMass()),
		Charge: float64(part.GetCharge()),
		Mother: -1,
		Vertex: [3]float64{
			float64(part.GetVertex().GetX()),
			float64(part.GetVertex().GetY()),
			float64(part.GetVertex().GetZ()),
		},
	}
	if parents := part.GetParent(); len(parents) > 0 {
		p.Mother = int64(parents[0])
	}
	return p
}

// truth returns the generated particle contributing the largest number
// of simulated hits to the track.
func truth(pevt *proio.Event, track *eic.Track) *event.Truth {
	partCandID := make(map[uint64]uint64)
	for _, obsID := range track.Observation {
		eDep, ok := pevt.GetEntry(obsID).(*eic.EnergyDep)
		if !ok {
			continue
		}
		for _, sourceID := range eDep.Source {
			simHit, ok := pevt.GetEntry(sourceID).(*eic.SimHit)
			if !ok {
				continue
			}
			partCandID[simHit.GetParticle()]++
		}
	}

	partID := uint64(0)
	hitCount := uint64(0)
	for id, count := range partCandID {
		if count > hitCount || (count == hitCount && id < partID) {
			partID = id
			hitCount = count
		}
	}
	if hitCount == 0 {
		return nil
	}

	part, ok := pevt.GetEntry(partID).(*eic.Particle)
	if !ok {
		return nil
	}

	mc := &event.Truth{
		Px:     float64(part.GetP().GetX()),
		Py:     float64(part.GetP().GetY()),
		Pz:     float64(part.GetP().GetZ()),
		PDG:    int(part.GetPdg()),
		Mother: -1,
	}
	if parents := part.GetParent(); len(parents) > 0 {
		mc.Mother = int64(parents[0])
		if mother, ok := pevt.GetEntry(parents[0]).(*eic.Particle); ok {
			mc.MotherPDG = int(mother.GetPdg())
		}
	}
	return mc
}

// sigma1Pt2 propagates the momentum uncertainties of a track segment to
// the variance of q/pT.
func sigma1Pt2(seg *eic.TrackSegment) (float64, bool) {
	var (
		ux = seg.GetPoq().GetX()
		uy = seg.GetPoq().GetY()
		sx = float64(seg.GetPoqnoise().GetX())
		sy = float64(seg.GetPoqnoise().GetY())
	)
	pt2 := ux*ux + uy*uy
	if pt2 <= 0 || (sx == 0 && sy == 0) {
		return 0, false
	}
	// d(1/pT)/dpx = -px/pT^3
	return (ux*ux*sx*sx + uy*uy*sy*sy) / (pt2 * pt2 * pt2), true
}

// truthWeights returns the PID weights of a perfectly identified track
// of the given species.
// EIC records carry no detector PID response.
func truthWeights(pdg int) [event.NSpecies]float64 {
	var w [event.NSpecies]float64
	if s := pid.FromPDG(pdg); s != pid.Unknown {
		w[s] = 1
	}
	return w
}

func sign(v float64) int {
	switch {
	case v > 0:
		return +1
	case v < 0:
		return -1
	}
	return 0
}
