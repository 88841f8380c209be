// Package pid classifies particles into the species handled by the
// resonance analyses and combines detector PID weights into
// identification probabilities.
package pid

import (
	"fmt"

	"github.com/decibelcooper/eicana/event"
)

// Species is a particle species.
type Species int

const (
	Electron Species = iota
	Muon
	Pion
	Kaon
	Proton
	Unknown

	// NSpecies is the number of identifiable species.
	NSpecies = int(Unknown)
)

var (
	pdgCodes = [NSpecies + 1]int{11, 13, 211, 321, 2212, 0}

	// masses in GeV/c^2.
	masses = [NSpecies + 1]float64{
		0.00051099892,
		0.105658369,
		0.13957018,
		0.493677,
		0.93827203,
		0.0,
	}

	shortNames = [NSpecies + 1]string{"e", "mu", "pi", "K", "p", "unknown"}
	longNames  = [NSpecies + 1]string{"electron", "muon", "pion", "kaon", "proton", "unknown"}
	latexNames = [NSpecies + 1]string{"e", "#mu", "#pi", "K", "p", "?"}
)

func init() {
	if NSpecies != event.NSpecies {
		panic(fmt.Errorf("pid: species mismatch (pid=%d, event=%d)", NSpecies, event.NSpecies))
	}
}

// FromPDG returns the species of a PDG code, regardless of its sign.
func FromPDG(code int) Species {
	if code < 0 {
		code = -code
	}
	for i, pdg := range pdgCodes[:NSpecies] {
		if pdg == code {
			return Species(i)
		}
	}
	return Unknown
}

func (s Species) valid() Species {
	if s < 0 || s > Unknown {
		return Unknown
	}
	return s
}

// PDG returns the (positive) PDG code of the species, 0 for Unknown.
func (s Species) PDG() int { return pdgCodes[s.valid()] }

// Mass returns the PDG mass of the species in GeV/c^2.
func (s Species) Mass() float64 { return masses[s.valid()] }

// Name returns the short name of the species.
func (s Species) Name() string { return shortNames[s.valid()] }

// LongName returns the full name of the species.
func (s Species) LongName() string { return longNames[s.valid()] }

// LaTeX returns the species name in ROOT-LaTeX notation.
func (s Species) LaTeX() string { return latexNames[s.valid()] }

func (s Species) String() string { return s.Name() }

// ByName returns the species with the given short or long name.
func ByName(name string) (Species, bool) {
	for i := range shortNames[:NSpecies] {
		if name == shortNames[i] || name == longNames[i] {
			return Species(i), true
		}
	}
	return Unknown, false
}

// All returns the identifiable species.
func All() []Species {
	return []Species{Electron, Muon, Pion, Kaon, Proton}
}
