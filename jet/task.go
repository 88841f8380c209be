package jet

import (
	"fmt"
	"math"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/hist"
	"go-hep.org/x/hep/groot/riofs"
)

const perfGroup = "JetPerformance"

// Stats counts what the task did with the events it saw.
type Stats struct {
	Events  int64 // events analysed
	Skipped int64 // events outside the centrality bins or missing a collection
	Matched int64 // response entries
}

// Task fills the jet QA histograms and the jet response.
type Task struct {
	cfg   config.Jets
	names []string

	Hists *hist.Manager
	Tree  *TreeWriter // optional response tree

	Stats Stats
}

// NewTask books the histograms of the QA collections names and of the
// response.
func NewTask(cfg config.Jets, names ...string) (*Task, error) {
	t := &Task{
		cfg:   cfg,
		names: names,
		Hists: hist.New("JetPerformance"),
	}
	for _, name := range names {
		err := t.bookQA(name)
		if err != nil {
			return nil, fmt.Errorf("could not book histograms of %q: %w", name, err)
		}
	}
	err := t.bookResponse()
	if err != nil {
		return nil, fmt.Errorf("could not book response histograms: %w", err)
	}
	return t, nil
}

// NCentBins returns the number of centrality bins.
func (t *Task) NCentBins() int { return len(t.cfg.CentEdges) - 1 }

// CentBin returns the centrality bin of an event with multiplicity mult,
// or -1 outside the bins.
func (t *Task) CentBin(mult int) int {
	edges := t.cfg.CentEdges
	m := float64(mult)
	for i := 0; i+1 < len(edges); i++ {
		if edges[i] <= m && m < edges[i+1] {
			return i
		}
	}
	return -1
}

func atLeast1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (t *Task) bookQA(name string) error {
	err := t.Hists.CreateGroup(name)
	if err != nil {
		return err
	}
	var (
		cfg   = t.cfg
		nJets = 100
	)
	if cfg.BeamType == "AA" {
		nJets = 500
	}
	for cent := 0; cent < t.NCentBins(); cent++ {
		h1s := []struct {
			name, title string
			n           int
			lo, hi      float64
		}{
			{"histJetPt", "jet pT;p_{T,jet} (GeV/c);counts", cfg.Bins, cfg.MinBinPt, cfg.MaxBinPt},
			{"histJetArea", "jet area;A_{jet};counts", atLeast1(cfg.Bins / 2), 0, 3},
			{"histJetPhi", "jet phi;#phi_{jet};counts", atLeast1(cfg.Bins / 2), 0, 2 * math.Pi},
			{"histJetEta", "jet eta;#eta_{jet};counts", atLeast1(cfg.Bins / 6), -cfg.EtaMax, cfg.EtaMax},
			{"histNJets", "number of jets;N_{jets};events", nJets, 0, float64(nJets)},
			{"histJetCorrPt", "background subtracted jet pT;p_{T,jet}^{corr} (GeV/c);counts", cfg.Bins, -cfg.MaxBinPt / 2, cfg.MaxBinPt / 2},
		}
		for _, h := range h1s {
			path := fmt.Sprintf("%s/%s_%d", name, h.name, cent)
			_, err = t.Hists.CreateH1(path, h.title, h.n, h.lo, h.hi)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Task) bookResponse() error {
	err := t.Hists.CreateGroup(perfGroup)
	if err != nil {
		return err
	}
	cfg := t.cfg
	for cent := 0; cent < t.NCentBins(); cent++ {
		_, err = t.Hists.CreateH2(
			fmt.Sprintf("%s/histJetPtresp_%d", perfGroup, cent),
			"jet pT response;p_{T,jet}^{ref} (GeV/c);p_{T,jet} (GeV/c)",
			cfg.Bins, cfg.MinBinPt, cfg.MaxBinPt,
			cfg.Bins, cfg.MinBinPt, cfg.MaxBinPt,
		)
		if err != nil {
			return err
		}
		_, err = t.Hists.CreateH2(
			fmt.Sprintf("%s/histJetJES_%d", perfGroup, cent),
			"jet energy scale;p_{T,jet}^{ref} (GeV/c);p_{T,jet}/p_{T,jet}^{ref}",
			cfg.Bins, cfg.MinBinPt, cfg.MaxBinPt,
			200, 0, 5,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Run analyses one event. colls holds the jet collections of the event,
// by name. The hybrid and detector level collections are required, and
// the particle level one when the response is computed at particle level.
func (t *Task) Run(evt *event.Event, colls map[string]*Collection) error {
	cent := t.CentBin(evt.Multiplicity)
	if cent < 0 {
		t.Stats.Skipped++
		return nil
	}

	required := []string{HybridLevel, DetLevel}
	if t.cfg.PartLevelResponse {
		required = append(required, PartLevel)
	}
	for _, name := range required {
		if colls[name] == nil {
			t.Stats.Skipped++
			return fmt.Errorf("%w: %q", ErrMissingCollection, name)
		}
	}
	t.Stats.Events++

	Match(colls[HybridLevel], colls[DetLevel], t.cfg.MatchDR)
	if t.cfg.PartLevelResponse {
		Match(colls[DetLevel], colls[PartLevel], t.cfg.MatchDR)
	}

	err := t.doResponse(evt, cent, colls)
	if err != nil {
		return err
	}

	for _, name := range t.names {
		c := colls[name]
		if c == nil {
			continue
		}
		err = t.doJetLoop(c, cent)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) doJetLoop(c *Collection, cent int) error {
	fill := func(name string, x float64) error {
		return t.Hists.Fill1(fmt.Sprintf("%s/%s_%d", c.Name, name, cent), x, 1)
	}

	jets := c.Accepted()
	for _, j := range jets {
		for _, v := range []struct {
			name string
			x    float64
		}{
			{"histJetPt", j.Pt},
			{"histJetArea", j.Area},
			{"histJetPhi", j.Phi},
			{"histJetEta", j.Eta},
		} {
			err := fill(v.name, v.x)
			if err != nil {
				return err
			}
		}
		if c.UseRho {
			err := fill("histJetCorrPt", c.CorrPt(j))
			if err != nil {
				return err
			}
		}
	}
	return fill("histNJets", float64(len(jets)))
}

func (t *Task) doResponse(evt *event.Event, cent int, colls map[string]*Collection) error {
	var (
		hybrid = colls[HybridLevel]
		det    = colls[DetLevel]
		part   = colls[PartLevel]
		resp   = fmt.Sprintf("%s/histJetPtresp_%d", perfGroup, cent)
		jes    = fmt.Sprintf("%s/histJetJES_%d", perfGroup, cent)
	)

	for _, j1 := range hybrid.Accepted() {
		j2 := j1.Closest
		if j2 == nil {
			continue
		}
		if FractionSharedPt(j1, det.ConstituentPts) < t.cfg.MinFractionShared {
			continue
		}

		ref, refColl := j2, det
		if t.cfg.PartLevelResponse {
			j3 := j2.Closest
			if !part.Accept(j3) {
				continue
			}
			ref, refColl = j3, part
		}

		// the response is filled with the uncorrected pT; the tree
		// stores the background subtracted one.
		var (
			pt1 = j1.Pt
			pt2 = ref.Pt
		)
		err := t.Hists.Fill2(resp, pt2, pt1, 1)
		if err != nil {
			return err
		}
		if pt2 > 0 {
			err = t.Hists.Fill2(jes, pt2, pt1/pt2, 1)
			if err != nil {
				return err
			}
		}
		t.Stats.Matched++

		if t.Tree == nil {
			continue
		}
		err = t.Tree.Write(Entry{
			Jet1Pt:   float32(hybrid.CorrPt(j1)),
			Jet1Eta:  float32(j1.Eta),
			Jet1Phi:  float32(j1.Phi),
			Jet1Area: float32(j1.Area),

			Jet2Pt:   float32(refColl.CorrPt(ref)),
			Jet2Eta:  float32(ref.Eta),
			Jet2Phi:  float32(ref.Phi),
			Jet2Area: float32(ref.Area),

			Rho:             float32(hybrid.Rho),
			VertexX:         float32(evt.Vertex[0]),
			VertexY:         float32(evt.Vertex[1]),
			VertexZ:         float32(evt.Vertex[2]),
			Centrality:      float32(cent),
			Multiplicity:    int32(evt.Multiplicity),
			ID:              evt.ID,
			PtHard:          float32(evt.PtHard),
			Weight:          float32(evt.Weight),
			ImpactParameter: float32(evt.ImpactParameter),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Write stores the histograms of the task under dir.
func (t *Task) Write(dir riofs.Directory) error {
	return t.Hists.Write(dir)
}
