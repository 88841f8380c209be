// Package ptres studies the transverse-momentum resolution of tracks,
// from the track covariance and from the comparison with generated
// particles.
package ptres

import (
	"fmt"
	"math"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/hist"
	"go-hep.org/x/hep/hbook"
)

const group = "PtRes"

const (
	pullBins = 100
	pullMax  = 5.0
	multBins = 200
)

// Study accumulates the pT resolution histograms.
type Study struct {
	cuts config.TrackCuts

	Hists *hist.Manager

	PtResCov *hbook.H2D // pT vs sigma(pT)/pT from the covariance
	PtResMC  *hbook.H2D // pT(MC) vs (pT-pT(MC))/pT(MC)
	PtRes    *hbook.H2D // pT vs pull of 1/pT, combining covariance and MC
	Mult     *hbook.H1D // accepted tracks per event

	Grid *ResGrid // eta x pT spread of pT/pT(MC)

	NEvents int64
	NTracks int64
}

// New books the histograms of a study.
func New(cfg config.Config) (*Study, error) {
	s := &Study{
		cuts:  cfg.Tracks,
		Hists: hist.New("PtResStudy"),
	}
	err := s.Hists.CreateGroup(group)
	if err != nil {
		return nil, err
	}

	var (
		res   = cfg.PtRes
		ptLo  = res.PtBins[0]
		ptHi  = res.PtBins[len(res.PtBins)-1]
		sigma = edges(res.ResBins, 0, res.ResMax)
		delta = edges(res.ResBins, -res.ResMax, res.ResMax)
		pull  = edges(pullBins, -pullMax, pullMax)
	)

	s.PtResCov, err = s.Hists.CreateH2Edges(group+"/PtResCov",
		"pT resolution from covariance;p_{T} (GeV/c);#sigma(p_{T})/p_{T}",
		res.PtBins, sigma,
	)
	if err != nil {
		return nil, err
	}
	s.PtResMC, err = s.Hists.CreateH2Edges(group+"/PtResMC",
		"pT resolution from MC;p_{T}^{MC} (GeV/c);(p_{T}-p_{T}^{MC})/p_{T}^{MC}",
		res.PtBins, delta,
	)
	if err != nil {
		return nil, err
	}
	s.PtRes, err = s.Hists.CreateH2Edges(group+"/PtRes",
		"1/pT pull;p_{T} (GeV/c);(1/p_{T}-1/p_{T}^{MC})/#sigma(1/p_{T})",
		res.PtBins, pull,
	)
	if err != nil {
		return nil, err
	}
	s.Mult, err = s.Hists.CreateH1(group+"/Multiplicity",
		"accepted tracks;tracks;events", multBins, 0, multBins,
	)
	if err != nil {
		return nil, err
	}

	etaMax := cfg.Tracks.EtaMax
	s.Grid = NewResGrid(res.EtaBins, -etaMax, etaMax, len(res.PtBins)-1, ptLo, ptHi)

	return s, nil
}

func edges(n int, lo, hi float64) []float64 {
	vs := make([]float64, n+1)
	for i := range vs {
		vs[i] = lo + float64(i)*(hi-lo)/float64(n)
	}
	return vs
}

// Accept applies the track cuts.
func (s *Study) Accept(t *event.Track) bool {
	pt := t.Pt()
	if pt < s.cuts.PtMin || pt > s.cuts.PtMax {
		return false
	}
	return math.Abs(t.Eta()) < s.cuts.EtaMax
}

// AnaEvent analyses all the tracks of evt.
func (s *Study) AnaEvent(evt *event.Event) {
	s.NEvents++
	n := 0
	for i := range evt.Tracks {
		if s.AnaTrack(&evt.Tracks[i]) {
			n++
		}
	}
	s.Mult.Fill(float64(n), 1)
}

// AnaTrack fills the resolution histograms with t.
// It reports whether the track passed the cuts.
func (s *Study) AnaTrack(t *event.Track) bool {
	if !s.Accept(t) {
		return false
	}
	s.NTracks++

	pt := t.Pt()
	sigma1pt := math.Sqrt(t.Sigma1Pt2())
	if t.HasCov && sigma1pt > 0 {
		s.PtResCov.Fill(pt, pt*sigma1pt, 1)
	}

	if t.MC == nil {
		return true
	}
	ptMC := t.MC.Pt()
	if ptMC <= 0 {
		return true
	}
	s.PtResMC.Fill(ptMC, (pt-ptMC)/ptMC, 1)
	s.Grid.Fill(t.MC.Eta(), ptMC, pt/ptMC)

	if t.HasCov && sigma1pt > 0 {
		s.PtRes.Fill(pt, (1/pt-1/ptMC)/sigma1pt, 1)
	}
	return true
}

// Summary returns a one-line summary of the study.
func (s *Study) Summary() string {
	return fmt.Sprintf(
		"events=%d tracks=%d cov=%d mc=%d",
		s.NEvents, s.NTracks, s.PtResCov.Entries(), s.PtResMC.Entries(),
	)
}
