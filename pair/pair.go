// Package pair computes the kinematics of two-track combinations:
// total momentum, invariant mass under mass hypotheses and opening angle,
// for reconstructed and, when available, generated momenta.
package pair

import (
	"errors"
	"fmt"
	"math"

	"github.com/decibelcooper/eicana/event"
	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrMissingDaughter = errors.New("pair: missing daughter")
	ErrMissingMC       = errors.New("pair: missing MC information")
)

// Pair is a combination of two tracks.
type Pair struct {
	d [2]*event.Track

	ptrk   [2]r3.Vec
	ptot   r3.Vec
	ptrkMC [2]r3.Vec
	ptotMC r3.Vec
	hasMC  bool

	motherPDG [2]int
}

// New creates a pair from two tracks.
func New(d0, d1 *event.Track) *Pair {
	var p Pair
	p.Set(d0, d1)
	return &p
}

// Set (re)fills the pair from two tracks.
func (p *Pair) Set(d0, d1 *event.Track) {
	*p = Pair{d: [2]*event.Track{d0, d1}}
	if d0 == nil || d1 == nil {
		return
	}

	for i, d := range p.d {
		p.ptrk[i] = r3.Vec{X: d.Px, Y: d.Py, Z: d.Pz}
	}
	p.ptot = r3.Add(p.ptrk[0], p.ptrk[1])

	if d0.MC != nil && d1.MC != nil {
		p.hasMC = true
		for i, d := range p.d {
			p.ptrkMC[i] = r3.Vec{X: d.MC.Px, Y: d.MC.Py, Z: d.MC.Pz}
			p.motherPDG[i] = d.MC.MotherPDG
		}
		p.ptotMC = r3.Add(p.ptrkMC[0], p.ptrkMC[1])
	}
}

// Daughter returns the i-th track of the pair.
func (p *Pair) Daughter(i int) *event.Track { return p.d[i] }

func (p *Pair) valid() error {
	if p.d[0] == nil || p.d[1] == nil {
		return ErrMissingDaughter
	}
	return nil
}

// PTot returns the total reconstructed momentum.
func (p *Pair) PTot() r3.Vec { return p.ptot }

// PTotMC returns the total generated momentum, when both tracks have MC
// information.
func (p *Pair) PTotMC() (r3.Vec, bool) { return p.ptotMC, p.hasMC }

// MotherPDG returns the PDG codes of the MC mothers of both tracks.
func (p *Pair) MotherPDG() [2]int { return p.motherPDG }

// P2 returns the squared total momentum.
func (p *Pair) P2() float64 { return r3.Dot(p.ptot, p.ptot) }

// Pt returns the transverse total momentum.
func (p *Pair) Pt() float64 { return math.Hypot(p.ptot.X, p.ptot.Y) }

// Eta returns the pseudo-rapidity of the total momentum.
func (p *Pair) Eta() float64 {
	p4 := fmom.NewPxPyPzE(p.ptot.X, p.ptot.Y, p.ptot.Z, r3.Norm(p.ptot))
	return p4.Eta()
}

// P4 returns the total four-momentum, with mass m0 assigned to the first
// track and m1 to the second one.
func (p *Pair) P4(m0, m1 float64) (fmom.PxPyPzE, error) {
	if err := p.valid(); err != nil {
		return fmom.PxPyPzE{}, err
	}
	var (
		p0 = fmom.NewPxPyPzE(p.d[0].Px, p.d[0].Py, p.d[0].Pz, p.d[0].E(m0))
		p1 = fmom.NewPxPyPzE(p.d[1].Px, p.d[1].Py, p.d[1].Pz, p.d[1].E(m1))
	)
	return fmom.NewPxPyPzE(
		p0.Px()+p1.Px(),
		p0.Py()+p1.Py(),
		p0.Pz()+p1.Pz(),
		p0.E()+p1.E(),
	), nil
}

// InvMass returns the invariant mass of the pair from reconstructed
// momenta, with mass m0 assigned to the first track and m1 to the second
// one.
func (p *Pair) InvMass(m0, m1 float64) (float64, error) {
	if err := p.valid(); err != nil {
		return 0, err
	}
	etot := p.d[0].E(m0) + p.d[1].E(m1)
	return math.Sqrt(math.Max(0, etot*etot-p.P2())), nil
}

// InvMassMC is like InvMass, using the generated momenta.
func (p *Pair) InvMassMC(m0, m1 float64) (float64, error) {
	if err := p.valid(); err != nil {
		return 0, err
	}
	if !p.hasMC {
		return 0, ErrMissingMC
	}
	etot := p.d[0].MC.E(m0) + p.d[1].MC.E(m1)
	return math.Sqrt(math.Max(0, etot*etot-r3.Dot(p.ptotMC, p.ptotMC))), nil
}

// Rapidity returns the rapidity of the pair under the given mass
// hypotheses.
func (p *Pair) Rapidity(m0, m1 float64) (float64, error) {
	p4, err := p.P4(m0, m1)
	if err != nil {
		return 0, err
	}
	e, pz := p4.E(), p4.Pz()
	return 0.5 * math.Log((e+pz)/(e-pz)), nil
}

// Angle returns the opening angle between both track momenta, in degrees.
func (p *Pair) Angle() (float64, error) {
	if err := p.valid(); err != nil {
		return 0, err
	}
	norm := r3.Norm(p.ptrk[0]) * r3.Norm(p.ptrk[1])
	if norm == 0 {
		return 0, fmt.Errorf("pair: null momentum")
	}
	cos := r3.Dot(p.ptrk[0], p.ptrk[1]) / norm
	// rounding may push |cos| slightly above 1 for (anti)collinear tracks.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, nil
}

// IsTruePair reports whether both tracks come from the same generated
// mother. Tracks without a known mother are never true pairs.
// With refPDG != 0, the mother must also have |PDG| == refPDG.
func (p *Pair) IsTruePair(refPDG int) bool {
	if p.valid() != nil || !p.hasMC {
		return false
	}
	if p.d[0].MC.Mother < 0 || p.d[0].MC.Mother != p.d[1].MC.Mother {
		return false
	}
	if refPDG == 0 {
		return true
	}
	pdg := p.d[0].MC.MotherPDG
	if pdg < 0 {
		pdg = -pdg
	}
	return pdg == refPDG
}

// UnlikeSign reports whether both tracks have opposite charges.
func (p *Pair) UnlikeSign() bool {
	if p.valid() != nil {
		return false
	}
	return p.d[0].Charge*p.d[1].Charge < 0
}

func (p *Pair) String() string {
	if p.valid() != nil {
		return "Pair{<invalid>}"
	}
	return fmt.Sprintf(
		"Pair{track#1: p=(%g, %g, %g) q=%+d, track#2: p=(%g, %g, %g) q=%+d}",
		p.d[0].Px, p.d[0].Py, p.d[0].Pz, p.d[0].Charge,
		p.d[1].Px, p.d[1].Py, p.d[1].Pz, p.d[1].Charge,
	)
}
