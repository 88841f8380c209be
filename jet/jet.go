// Package jet finds jets, matches them across simulation and
// reconstruction levels and fills the jet energy response.
package jet

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var ErrMissingCollection = errors.New("jet: missing jet collection")

// Standard collection names used by the response.
const (
	HybridLevel = "hybridLevelJets"
	DetLevel    = "detLevelJets"
	PartLevel   = "partLevelJets"
)

// Jet is a clustered jet.
type Jet struct {
	Px, Py, Pz, E float64

	Pt   float64
	Eta  float64
	Phi  float64 // in [0, 2pi)
	Area float64

	// Constituents holds the IDs of the inputs clustered in the jet.
	Constituents []int

	// Closest is the geometrically matched jet of the partner collection.
	Closest *Jet
}

// Collection is a named set of jets, sorted by decreasing pT.
type Collection struct {
	Name string
	Jets []Jet

	// Rho is the background pT density; it is used for the subtracted
	// pT when UseRho is set.
	Rho    float64
	UseRho bool

	PtMin  float64
	EtaMax float64

	// ConstituentPts holds the pT of the clustered inputs, by ID.
	ConstituentPts map[int]float64
}

// Accept reports whether j passes the acceptance of the collection.
func (c *Collection) Accept(j *Jet) bool {
	if j == nil {
		return false
	}
	return j.Pt >= c.PtMin && math.Abs(j.Eta) <= c.EtaMax
}

// Accepted returns the accepted jets of the collection.
func (c *Collection) Accepted() []*Jet {
	var o []*Jet
	for i := range c.Jets {
		if j := &c.Jets[i]; c.Accept(j) {
			o = append(o, j)
		}
	}
	return o
}

// CorrPt returns the background subtracted pT of j.
func (c *Collection) CorrPt(j *Jet) float64 {
	if !c.UseRho {
		return j.Pt
	}
	return j.Pt - c.Rho*j.Area
}

func sortByPt(jets []Jet) {
	sort.SliceStable(jets, func(i, j int) bool {
		return jets[i].Pt > jets[j].Pt
	})
}

// Rho returns the median pT density of jets, excluding the two leading
// ones.
func Rho(jets []Jet) float64 {
	if len(jets) <= 2 {
		return 0
	}
	sorted := append([]Jet(nil), jets...)
	sortByPt(sorted)

	dens := make([]float64, 0, len(sorted)-2)
	for _, j := range sorted[2:] {
		if j.Area <= 0 {
			continue
		}
		dens = append(dens, j.Pt/j.Area)
	}
	if len(dens) == 0 {
		return 0
	}
	sort.Float64s(dens)
	return stat.Quantile(0.5, stat.Empirical, dens, nil)
}

// DeltaR returns the distance of both jets in the (eta, phi) plane.
func DeltaR(a, b *Jet) float64 {
	deta := a.Eta - b.Eta
	dphi := math.Abs(a.Phi - b.Phi)
	if dphi > math.Pi {
		dphi = 2*math.Pi - dphi
	}
	return math.Hypot(deta, dphi)
}

// Match geometrically matches the jets of c1 and c2: two jets are
// matched when each one is the other's closest jet, within maxDR.
func Match(c1, c2 *Collection, maxDR float64) {
	for i := range c1.Jets {
		c1.Jets[i].Closest = nil
	}
	for i := range c2.Jets {
		c2.Jets[i].Closest = nil
	}

	closest := func(j *Jet, jets []Jet) int {
		idx := -1
		best := maxDR
		for k := range jets {
			if dr := DeltaR(j, &jets[k]); dr <= best {
				best = dr
				idx = k
			}
		}
		return idx
	}

	for i := range c1.Jets {
		j1 := &c1.Jets[i]
		k := closest(j1, c2.Jets)
		if k < 0 {
			continue
		}
		j2 := &c2.Jets[k]
		if closest(j2, c1.Jets) != i {
			continue
		}
		j1.Closest = j2
		j2.Closest = j1
	}
}

// FractionSharedPt returns the fraction of the pT of the matched jet of
// j1 that is carried by constituents shared with j1.
// Constituent momenta are looked up in pts, by constituent ID.
func FractionSharedPt(j1 *Jet, pts map[int]float64) float64 {
	j2 := j1.Closest
	if j2 == nil || j2.Pt <= 0 {
		return 0
	}
	in1 := make(map[int]struct{}, len(j1.Constituents))
	for _, id := range j1.Constituents {
		in1[id] = struct{}{}
	}
	shared := 0.0
	for _, id := range j2.Constituents {
		if _, ok := in1[id]; ok {
			shared += pts[id]
		}
	}
	return shared / j2.Pt
}
