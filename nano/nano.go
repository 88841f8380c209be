// Package nano stores tracks as compact records whose layout is
// described by a trackmap.Mapping, and reads/writes them as ROOT trees.
package nano

import (
	"fmt"
	"math"

	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/trackmap"
)

// TreeName is the name of the ROOT tree holding the records.
const TreeName = "nano"

// Fill encodes t into rec, following the layout of m.
// Variables without a dedicated track field are taken from t.Extra,
// and default to 0.
func Fill(m *trackmap.Mapping, t *event.Track, rec []float64) error {
	if len(rec) != m.Size() {
		return fmt.Errorf("nano: record size mismatch (got=%d, want=%d)", len(rec), m.Size())
	}

	for i := range rec {
		name, _ := m.VarName(i)
		rec[i] = t.Extra[name]
	}

	set := func(v trackmap.Var, x float64) {
		if i := m.Index(v); i >= 0 {
			rec[i] = x
		}
	}
	set(trackmap.Pt, t.Pt())
	set(trackmap.Phi, t.Phi())
	set(trackmap.Theta, t.Theta())
	set(trackmap.ID, float64(t.ID))

	if t.HasCov {
		for i, v := range t.Cov {
			if j := m.CovMat(i); j >= 0 {
				rec[j] = v
			}
		}
	}
	return nil
}

// Track decodes rec into a track, following the layout of m.
// The momentum is rebuilt from pt, phi and theta; variables without a
// dedicated track field end up in Extra.
// The covariance slots are decoded but HasCov is left unset: whether
// they hold a measurement is stored outside of the record.
func Track(m *trackmap.Mapping, rec []float64) (event.Track, error) {
	var t event.Track
	if len(rec) != m.Size() {
		return t, fmt.Errorf("nano: record size mismatch (got=%d, want=%d)", len(rec), m.Size())
	}

	get := func(v trackmap.Var) (float64, bool) {
		i := m.Index(v)
		if i < 0 {
			return 0, false
		}
		return rec[i], true
	}

	pt, okPt := get(trackmap.Pt)
	phi, okPhi := get(trackmap.Phi)
	theta, okTheta := get(trackmap.Theta)
	if okPt && okPhi {
		t.Px = pt * math.Cos(phi)
		t.Py = pt * math.Sin(phi)
	}
	if okPt && okTheta {
		if tan := math.Tan(theta); tan != 0 {
			t.Pz = pt / tan
		}
	}
	if id, ok := get(trackmap.ID); ok {
		t.ID = int(id)
	}

	if m.HasCovMat() {
		for i := range t.Cov {
			t.Cov[i] = rec[m.CovMat(i)]
		}
	}

	for i, v := range rec {
		name, _ := m.VarName(i)
		switch name {
		case trackmap.Pt.String(), trackmap.Phi.String(), trackmap.Theta.String(), trackmap.ID.String():
			continue
		}
		if m.HasCovMat() && i >= m.CovMat(0) && i <= m.CovMat(trackmap.NCovMat-1) {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]float64)
		}
		t.Extra[name] = v
	}
	return t, nil
}
