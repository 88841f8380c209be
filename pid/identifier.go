package pid

import (
	"fmt"
	"io"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"gonum.org/v1/gonum/floats"
)

// Identifier assigns species to tracks from their detector PID weights,
// using the Bayesian approach with per-species prior probabilities.
type Identifier struct {
	Prior   [NSpecies]float64 // prior probabilities
	MaxPt   float64           // pT above which PID is not trusted
	MinProb float64           // minimum probability of the most probable species
}

// NewIdentifier returns an identifier with flat priors.
func NewIdentifier() *Identifier {
	id := &Identifier{
		MaxPt:   10.0,
		MinProb: 0.5,
	}
	for i := range id.Prior {
		id.Prior[i] = 1.0
	}
	return id
}

// SetPrior sets the prior probability of a species.
func (id *Identifier) SetPrior(s Species, p float64) error {
	if s < 0 || s >= Unknown {
		return fmt.Errorf("pid: invalid species %d", int(s))
	}
	id.Prior[s] = p
	return nil
}

// ComputeProbs fills the PID probabilities of t.
// It returns false when the weights and priors do not allow a
// normalization.
func (id *Identifier) ComputeProbs(t *event.Track) bool {
	var probs [NSpecies]float64
	floats.MulTo(probs[:], t.Weights[:], id.Prior[:])
	sum := floats.Sum(probs[:])
	if sum <= 0 {
		t.Probs = [NSpecies]float64{}
		return false
	}
	floats.Scale(1/sum, probs[:])
	t.Probs = probs
	return true
}

// TrackType returns the most probable species of t, from its already
// computed probabilities.
// Tracks above MaxPt, or whose best probability is below MinProb, are
// Unknown.
func (id *Identifier) TrackType(t *event.Track) Species {
	if t.Pt() > id.MaxPt {
		return Unknown
	}
	imax := floats.MaxIdx(t.Probs[:])
	if t.Probs[imax] < id.MinProb {
		return Unknown
	}
	return Species(imax)
}

// IdentifiedAs reports whether t was identified as s.
// A zero charge accepts both signs; otherwise the track charge sign
// must match.
func (id *Identifier) IdentifiedAs(t *event.Track, s Species, charge int) bool {
	if !t.Identified || Species(t.Species) != s {
		return false
	}
	switch {
	case charge > 0:
		return t.Charge > 0
	case charge < 0:
		return t.Charge < 0
	}
	return true
}

// Process identifies all the tracks of evt.
// It returns false if at least one track could not be normalized.
func (id *Identifier) Process(evt *event.Event) bool {
	ok := true
	for i := range evt.Tracks {
		t := &evt.Tracks[i]
		if !id.ComputeProbs(t) {
			ok = false
			t.Species = int(Unknown)
			t.Identified = true
			continue
		}
		t.Species = int(id.TrackType(t))
		t.Identified = true
	}
	return ok
}

// DumpPriors writes the prior probabilities to w.
func (id *Identifier) DumpPriors(w io.Writer) {
	for _, s := range All() {
		fmt.Fprintf(w, "prior probability for %-8s = %3.2f\n", s.LongName(), id.Prior[s])
	}
}

// NewIdentifierFrom returns an identifier configured from a run card.
// Priors are keyed by species name.
func NewIdentifierFrom(cfg config.PID) (*Identifier, error) {
	id := NewIdentifier()
	id.MaxPt = cfg.MaxPt
	id.MinProb = cfg.MinProb
	for name, p := range cfg.Priors {
		s, ok := ByName(name)
		if !ok {
			return nil, fmt.Errorf("pid: unknown species %q in priors", name)
		}
		id.Prior[s] = p
	}
	return id, nil
}
