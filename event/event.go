// Package event holds the in-memory event record the analysis components
// work on: reconstructed tracks, generated particles and a few event-level
// quantities.
package event

import (
	"math"

	"go-hep.org/x/hep/fmom"
)

// NSpecies is the number of species carried by PID weight arrays.
const NSpecies = 5

// NCov is the number of independent elements of a 5x5 track covariance.
const NCov = 21

// Event is one collision.
type Event struct {
	ID              int64
	Vertex          [3]float64
	Tracks          []Track
	Particles       []Particle
	Multiplicity    int
	Weight          float64
	PtHard          float64
	ImpactParameter float64
}

// Particle returns the generated particle with the given ID.
func (evt *Event) Particle(id uint64) (*Particle, bool) {
	for i := range evt.Particles {
		if evt.Particles[i].ID == id {
			return &evt.Particles[i], true
		}
	}
	return nil, false
}

// Track is a reconstructed track.
type Track struct {
	ID     int
	Px     float64
	Py     float64
	Pz     float64
	Charge int

	// Cov holds the lower triangle of the track parameter covariance.
	// Element 14 is the variance of q/pT.
	Cov    [NCov]float64
	HasCov bool

	Weights    [NSpecies]float64 // detector PID weights
	Probs      [NSpecies]float64 // PID probabilities, set by pid.Identifier
	Species    int               // assigned species, valid when Identified
	Identified bool

	MC *Truth

	// Extra carries variables read from compact track records that have
	// no dedicated field.
	Extra map[string]float64
}

// Truth is the generated particle a track was matched to.
type Truth struct {
	Px, Py, Pz float64
	PDG        int
	Mother     int64
	MotherPDG  int
}

// Particle is a generated particle.
type Particle struct {
	ID     uint64
	PDG    int
	Px     float64
	Py     float64
	Pz     float64
	Mass   float64
	Charge float64
	Mother int64
	Vertex [3]float64
}

func (t *Track) P() float64  { return math.Sqrt(t.P2()) }
func (t *Track) P2() float64 { return t.Px*t.Px + t.Py*t.Py + t.Pz*t.Pz }
func (t *Track) Pt() float64 { return math.Hypot(t.Px, t.Py) }

// E returns the energy of the track under the given mass hypothesis.
func (t *Track) E(mass float64) float64 {
	return math.Sqrt(mass*mass + t.P2())
}

func (t *Track) Eta() float64 {
	p := fmom.NewPxPyPzE(t.Px, t.Py, t.Pz, t.P())
	return p.Eta()
}

func (t *Track) Phi() float64 { return math.Atan2(t.Py, t.Px) }

// Theta returns the polar angle of the track momentum.
func (t *Track) Theta() float64 { return math.Atan2(t.Pt(), t.Pz) }

// HasWeights reports whether t carries PID weights.
func (t *Track) HasWeights() bool {
	for _, w := range t.Weights {
		if w > 0 {
			return true
		}
	}
	return false
}

// Sigma1Pt2 returns the variance of q/pT, or 0 without covariance.
func (t *Track) Sigma1Pt2() float64 {
	if !t.HasCov {
		return 0
	}
	return t.Cov[14]
}

// E returns the energy of the truth particle under the given mass hypothesis.
func (mc *Truth) E(mass float64) float64 {
	return math.Sqrt(mass*mass + mc.Px*mc.Px + mc.Py*mc.Py + mc.Pz*mc.Pz)
}

func (mc *Truth) Pt() float64 { return math.Hypot(mc.Px, mc.Py) }

func (mc *Truth) Eta() float64 {
	p := math.Sqrt(mc.Px*mc.Px + mc.Py*mc.Py + mc.Pz*mc.Pz)
	return math.Atanh(mc.Pz / p)
}

func (p *Particle) P() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
}

func (p *Particle) Pt() float64 { return math.Hypot(p.Px, p.Py) }

func (p *Particle) E() float64 {
	return math.Sqrt(p.Mass*p.Mass + p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
}

func (p *Particle) Eta() float64 {
	return math.Atanh(p.Pz / p.P())
}
