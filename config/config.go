// Package config holds the analysis run card: binning, cuts, jet
// definition, PID priors and track mapping, loadable from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is an analysis run card.
type Config struct {
	TrackMapping string `yaml:"track_mapping"`

	Tags Tags `yaml:"tags"`

	Tracks TrackCuts `yaml:"tracks"`
	PID    PID       `yaml:"pid"`
	Pair   Pair      `yaml:"pair"`
	Jets   Jets      `yaml:"jets"`
	PtRes  PtRes     `yaml:"ptres"`
}

// Tags are the proio entry tags of the input collections.
type Tags struct {
	Tracks    string `yaml:"tracks"`
	Particles string `yaml:"particles"`
}

// TrackCuts select the tracks entering the analyses.
type TrackCuts struct {
	PtMin  float64 `yaml:"pt_min"`
	PtMax  float64 `yaml:"pt_max"`
	EtaMax float64 `yaml:"eta_max"`
}

// PID configures the particle identifier.
type PID struct {
	Priors  map[string]float64 `yaml:"priors"`
	MaxPt   float64            `yaml:"max_pt"`
	MinProb float64            `yaml:"min_prob"`
}

// Pair configures the invariant-mass histogram.
type Pair struct {
	Masses []string `yaml:"masses"` // mass hypotheses, as species names
	Bins   int      `yaml:"bins"`
	Min    float64  `yaml:"min"`
	Max    float64  `yaml:"max"`
}

// Jets configures the jet response task.
type Jets struct {
	Radius            float64   `yaml:"radius"`
	PtMin             float64   `yaml:"pt_min"`
	EtaMax            float64   `yaml:"eta_max"`
	MatchDR           float64   `yaml:"match_dr"`
	PartLevelResponse bool      `yaml:"part_level_response"`
	MinFractionShared float64   `yaml:"min_fraction_shared"`
	CreateTree        bool      `yaml:"create_tree"`
	CentEdges         []float64 `yaml:"cent_edges"` // multiplicity edges of the centrality bins
	Bins              int       `yaml:"bins"`
	MinBinPt          float64   `yaml:"min_bin_pt"`
	MaxBinPt          float64   `yaml:"max_bin_pt"`
	BeamType          string    `yaml:"beam_type"` // "pp" or "AA"
}

// PtRes configures the pT resolution study.
type PtRes struct {
	PtBins  []float64 `yaml:"pt_bins"`
	ResBins int       `yaml:"res_bins"`
	ResMax  float64   `yaml:"res_max"`
	EtaBins int       `yaml:"eta_bins"`
}

// Default returns the default run card.
func Default() Config {
	return Config{
		TrackMapping: "",
		Tags: Tags{
			Tracks:    "Reconstructed",
			Particles: "GenStable",
		},
		Tracks: TrackCuts{
			PtMin:  0.15,
			PtMax:  100,
			EtaMax: 4,
		},
		PID: PID{
			Priors:  map[string]float64{},
			MaxPt:   10,
			MinProb: 0.5,
		},
		Pair: Pair{
			Masses: []string{"e", "e"},
			Bins:   50,
			Min:    2.9,
			Max:    3.3,
		},
		Jets: Jets{
			Radius:            0.4,
			PtMin:             1,
			EtaMax:            3.5,
			MatchDR:           0.3,
			PartLevelResponse: true,
			MinFractionShared: 0,
			CreateTree:        false,
			CentEdges:         []float64{0, 10, 20, 40, 80, 1e9},
			Bins:              300,
			MinBinPt:          0,
			MaxBinPt:          250,
			BeamType:          "pp",
		},
		PtRes: PtRes{
			PtBins:  []float64{0.15, 0.5, 1, 2, 5, 10, 20, 50, 100},
			ResBins: 100,
			ResMax:  0.2,
			EtaBins: 10,
		},
	}
}

// Load reads a YAML run card, on top of the defaults.
func Load(fname string) (Config, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return Config{}, fmt.Errorf("could not read run card: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML run card, on top of the defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("could not decode run card: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the consistency of the run card.
func (cfg Config) Validate() error {
	switch {
	case cfg.Tracks.PtMin < 0 || cfg.Tracks.PtMax <= cfg.Tracks.PtMin:
		return fmt.Errorf("config: invalid track pT range [%g, %g]", cfg.Tracks.PtMin, cfg.Tracks.PtMax)
	case cfg.Tracks.EtaMax <= 0:
		return fmt.Errorf("config: invalid track eta limit %g", cfg.Tracks.EtaMax)
	case len(cfg.Pair.Masses) != 2:
		return fmt.Errorf("config: pair needs 2 mass hypotheses, got %d", len(cfg.Pair.Masses))
	case cfg.Pair.Bins <= 0 || cfg.Pair.Max <= cfg.Pair.Min:
		return fmt.Errorf("config: invalid pair mass binning (%d, %g, %g)", cfg.Pair.Bins, cfg.Pair.Min, cfg.Pair.Max)
	case cfg.Jets.Radius <= 0:
		return fmt.Errorf("config: invalid jet radius %g", cfg.Jets.Radius)
	case cfg.Jets.MinFractionShared < 0 || cfg.Jets.MinFractionShared > 1:
		return fmt.Errorf("config: invalid minimum shared fraction %g", cfg.Jets.MinFractionShared)
	case cfg.Jets.Bins <= 0 || cfg.Jets.MaxBinPt <= cfg.Jets.MinBinPt:
		return fmt.Errorf("config: invalid jet pT binning (%d, %g, %g)", cfg.Jets.Bins, cfg.Jets.MinBinPt, cfg.Jets.MaxBinPt)
	case cfg.Jets.BeamType != "pp" && cfg.Jets.BeamType != "AA":
		return fmt.Errorf("config: invalid beam type %q", cfg.Jets.BeamType)
	case cfg.PtRes.ResBins <= 0 || cfg.PtRes.ResMax <= 0 || cfg.PtRes.EtaBins <= 0:
		return fmt.Errorf("config: invalid pT resolution binning")
	}
	if err := increasing("jets.cent_edges", cfg.Jets.CentEdges); err != nil {
		return err
	}
	if err := increasing("ptres.pt_bins", cfg.PtRes.PtBins); err != nil {
		return err
	}
	return nil
}

func increasing(name string, edges []float64) error {
	if len(edges) < 2 {
		return fmt.Errorf("config: %s needs at least 2 edges", name)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return fmt.Errorf("config: %s edges are not increasing (%v)", name, edges)
		}
	}
	return nil
}
