package jet

import (
	"fmt"
	"math"

	"github.com/decibelcooper/eicana/event"
	"go-hep.org/x/hep/fastjet"
)

// Input is a particle handed to the jet finder.
type Input struct {
	ID             int
	Px, Py, Pz, E float64
}

func (in Input) Pt() float64 { return math.Hypot(in.Px, in.Py) }

// Finder clusters inputs into anti-kt jets.
type Finder struct {
	R     float64
	PtMin float64
}

// Area returns the nominal area of the jets of the finder.
func (f Finder) Area() float64 { return math.Pi * f.R * f.R }

// Find clusters the inputs and returns the inclusive jets above PtMin,
// sorted by decreasing pT.
func (f Finder) Find(inputs []Input) ([]Jet, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	type p4 [4]float64
	ids := make(map[p4][]int, len(inputs))
	particles := make([]fastjet.Jet, 0, len(inputs))
	for _, in := range inputs {
		k := p4{in.Px, in.Py, in.Pz, in.E}
		ids[k] = append(ids[k], in.ID)
		particles = append(particles, fastjet.NewJet(in.Px, in.Py, in.Pz, in.E))
	}

	def := fastjet.NewJetDefinition(fastjet.AntiKtAlgorithm, f.R, fastjet.EScheme, fastjet.N2PlainStrategy)
	cs, err := fastjet.NewClusterSequence(particles, def)
	if err != nil {
		return nil, fmt.Errorf("could not create cluster sequence: %w", err)
	}
	incl, err := cs.InclusiveJets(f.PtMin)
	if err != nil {
		return nil, fmt.Errorf("could not find inclusive jets: %w", err)
	}

	jets := make([]Jet, 0, len(incl))
	for i := range incl {
		fj := &incl[i]
		cons, err := cs.Constituents(fj)
		if err != nil {
			return nil, fmt.Errorf("could not get jet constituents: %w", err)
		}
		j := Jet{
			Px:   fj.Px(),
			Py:   fj.Py(),
			Pz:   fj.Pz(),
			E:    fj.E(),
			Pt:   fj.Pt(),
			Eta:  fj.Eta(),
			Phi:  wrapPhi(fj.Phi()),
			Area: f.Area(),
		}
		used := make(map[p4]int)
		for k := range cons {
			c := &cons[k]
			key := p4{c.Px(), c.Py(), c.Pz(), c.E()}
			n := used[key]
			if cands := ids[key]; n < len(cands) {
				j.Constituents = append(j.Constituents, cands[n])
				used[key] = n + 1
			}
		}
		jets = append(jets, j)
	}
	sortByPt(jets)
	return jets, nil
}

// Collection finds the jets of inputs and returns them as a named
// collection, with the background density computed from the jets.
func (f Finder) Collection(name string, inputs []Input, etaMax float64, useRho bool) (*Collection, error) {
	jets, err := f.Find(inputs)
	if err != nil {
		return nil, fmt.Errorf("could not find %s: %w", name, err)
	}
	c := &Collection{
		Name:           name,
		Jets:           jets,
		UseRho:         useRho,
		PtMin:          f.PtMin,
		EtaMax:         etaMax,
		ConstituentPts: Pts(inputs),
	}
	if useRho {
		c.Rho = Rho(jets)
	}
	return c, nil
}

func wrapPhi(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// TrackInputs converts the tracks of evt passing the pT and |eta| cuts,
// with the pion mass hypothesis. Input IDs are the track indices shifted
// by offset.
func TrackInputs(tracks []event.Track, ptMin, etaMax float64, offset int) []Input {
	const mpi = 0.13957018
	var o []Input
	for i := range tracks {
		t := &tracks[i]
		if t.Pt() < ptMin || math.Abs(t.Eta()) > etaMax {
			continue
		}
		o = append(o, Input{
			ID: offset + i,
			Px: t.Px, Py: t.Py, Pz: t.Pz,
			E: t.E(mpi),
		})
	}
	return o
}

// ParticleInputs converts the charged generated particles passing the pT
// and |eta| cuts. Input IDs are the particle indices.
func ParticleInputs(ps []event.Particle, ptMin, etaMax float64) []Input {
	var o []Input
	for i := range ps {
		p := &ps[i]
		if p.Charge == 0 || p.Pt() < ptMin || p.P() == 0 || math.Abs(p.Eta()) > etaMax {
			continue
		}
		o = append(o, Input{
			ID: i,
			Px: p.Px, Py: p.Py, Pz: p.Pz,
			E: p.E(),
		})
	}
	return o
}

// Pts returns the transverse momenta of inputs, keyed by ID.
func Pts(inputs ...[]Input) map[int]float64 {
	o := make(map[int]float64)
	for _, ins := range inputs {
		for _, in := range ins {
			o[in.ID] = in.Pt()
		}
	}
	return o
}
