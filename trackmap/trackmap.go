// Package trackmap describes the layout of compact per-track records:
// which physics variables were stored, and at which position.
//
// A Mapping is built from a comma-separated list of variable names, e.g.
//
//	pt,theta,phi,covmat,cstNSigmaTPCPion
//
// The token "covmat" expands into the 21 covariance slots covmat0..covmat20.
// Tokens starting with "cst" declare custom variables.
package trackmap

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotFound           = errors.New("trackmap: variable not found")
	ErrInvalidIndex       = errors.New("trackmap: invalid index")
	ErrAlreadyInitialized = errors.New("trackmap: already initialized with a different mapping")
)

// Var is a standard track variable.
type Var int

const (
	Pt Var = iota
	Phi
	Theta
	Chi2PerNDF
	PosX
	PosY
	PosZ
	PDCAX
	PDCAY
	PDCAZ
	PosDCAx
	PosDCAy
	RAtAbsorberEnd
	TPCncls
	ID
	TPCnclsF
	TPCNCrossedRows
	TrackPhiOnEMCal
	TrackEtaOnEMCal
	TrackPtOnEMCal
	ITSsignal
	TPCsignal
	TPCsignalTuned
	TPCsignalN
	TPCmomentum
	TPCTgl
	TOFsignal
	IntegratedLength
	TOFsignalTuned
	HMPIDsignal
	HMPIDoccupancy
	TRDsignal
	TRDChi2
	TRDnSlices
	IsMuonTrack
	TPCnclsS
	FilterMap
	TOFBunchCrossing

	NVars int = iota
)

// NCovMat is the size of the covariance block.
const NCovMat = 21

const (
	covMatToken  = "covmat"
	customPrefix = "cst"
)

var varNames = [NVars]string{
	Pt:               "pt",
	Phi:              "phi",
	Theta:            "theta",
	Chi2PerNDF:       "chi2perNDF",
	PosX:             "posx",
	PosY:             "posy",
	PosZ:             "posz",
	PDCAX:            "pDCAx",
	PDCAY:            "pDCAy",
	PDCAZ:            "pDCAz",
	PosDCAx:          "posDCAx",
	PosDCAy:          "posDCAy",
	RAtAbsorberEnd:   "RAtAbsorberEnd",
	TPCncls:          "TPCncls",
	ID:               "ID",
	TPCnclsF:         "TPCnclsF",
	TPCNCrossedRows:  "TPCNCrossedRows",
	TrackPhiOnEMCal:  "TrackPhiOnEMCal",
	TrackEtaOnEMCal:  "TrackEtaOnEMCal",
	TrackPtOnEMCal:   "TrackPtOnEMCal",
	ITSsignal:        "ITSsignal",
	TPCsignal:        "TPCsignal",
	TPCsignalTuned:   "TPCsignalTuned",
	TPCsignalN:       "TPCsignalN",
	TPCmomentum:      "TPCmomentum",
	TPCTgl:           "TPCTgl",
	TOFsignal:        "TOFsignal",
	IntegratedLength: "integratedLength",
	TOFsignalTuned:   "TOFsignalTuned",
	HMPIDsignal:      "HMPIDsignal",
	HMPIDoccupancy:   "HMPIDoccupancy",
	TRDsignal:        "TRDsignal",
	TRDChi2:          "TRDChi2",
	TRDnSlices:       "TRDnSlices",
	IsMuonTrack:      "IsMuonTrack",
	TPCnclsS:         "TPCnclsS",
	FilterMap:        "FilterMap",
	TOFBunchCrossing: "TOFBunchCrossing",
}

var varByName = func() map[string]Var {
	m := make(map[string]Var, NVars)
	for i, name := range varNames {
		m[name] = Var(i)
	}
	return m
}()

func (v Var) String() string {
	if v < 0 || int(v) >= NVars {
		return fmt.Sprintf("Var(%d)", int(v))
	}
	return varNames[v]
}

// CovMatName returns the slot name of the i-th covariance element.
func CovMatName(i int) string {
	return fmt.Sprintf("%s%d", covMatToken, i)
}

// Mapping is an immutable name<->index table for compact track records.
type Mapping struct {
	str    string
	names  []string       // index -> name
	index  map[string]int // name -> index
	vars   [NVars]int
	covmat [NCovMat]int
	custom []string
}

// New parses a comma-separated list of variables into a Mapping.
// Indices follow the order of the list.
func New(vars string) (*Mapping, error) {
	m := &Mapping{
		index: make(map[string]int),
	}
	for i := range m.vars {
		m.vars[i] = -1
	}
	for i := range m.covmat {
		m.covmat[i] = -1
	}

	toks := strings.Split(vars, ",")
	canon := make([]string, 0, len(toks))
	for _, tok := range toks {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
			return nil, fmt.Errorf("trackmap: empty variable name in %q", vars)
		case tok == covMatToken:
			if m.covmat[0] >= 0 {
				return nil, fmt.Errorf("trackmap: duplicate variable %q", tok)
			}
			for i := range m.covmat {
				m.covmat[i] = m.add(CovMatName(i))
			}
		case strings.HasPrefix(tok, customPrefix):
			if _, dup := m.index[tok]; dup {
				return nil, fmt.Errorf("trackmap: duplicate variable %q", tok)
			}
			m.add(tok)
			m.custom = append(m.custom, tok)
		default:
			v, ok := varByName[tok]
			if !ok {
				return nil, fmt.Errorf("trackmap: unknown variable %q: %w", tok, ErrNotFound)
			}
			if m.vars[v] >= 0 {
				return nil, fmt.Errorf("trackmap: duplicate variable %q", tok)
			}
			m.vars[v] = m.add(tok)
		}
		canon = append(canon, tok)
	}
	m.str = strings.Join(canon, ",")

	return m, nil
}

func (m *Mapping) add(name string) int {
	i := len(m.names)
	m.names = append(m.names, name)
	m.index[name] = i
	return i
}

// Size returns the number of slots of a record.
func (m *Mapping) Size() int { return len(m.names) }

// String returns the canonical mapping string.
func (m *Mapping) String() string { return m.str }

// Index returns the slot of a standard variable, or -1.
func (m *Mapping) Index(v Var) int {
	if v < 0 || int(v) >= NVars {
		return -1
	}
	return m.vars[v]
}

// CovMat returns the slot of the i-th covariance element, or -1.
func (m *Mapping) CovMat(i int) int {
	if i < 0 || i >= NCovMat {
		return -1
	}
	return m.covmat[i]
}

// HasCovMat reports whether the covariance block is part of the record.
func (m *Mapping) HasCovMat() bool { return m.covmat[0] >= 0 }

// VarIndex returns the slot holding the named variable.
func (m *Mapping) VarIndex(name string) (int, error) {
	i, ok := m.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return i, nil
}

// VarName returns the name of the variable held in slot i.
func (m *Mapping) VarName(i int) (string, error) {
	if i < 0 || i >= len(m.names) {
		return "", fmt.Errorf("%w: %d (size=%d)", ErrInvalidIndex, i, len(m.names))
	}
	return m.names[i], nil
}

// Custom returns the custom variables, in mapping order.
func (m *Mapping) Custom() []string {
	return append([]string(nil), m.custom...)
}

// Print writes the slot table to w.
func (m *Mapping) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "track mapping: %d variables\n", len(m.names))
	if err != nil {
		return err
	}
	for i, name := range m.names {
		_, err = fmt.Fprintf(w, "  %3d  %s\n", i, name)
		if err != nil {
			return err
		}
	}
	return nil
}
