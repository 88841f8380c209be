package jet

import (
	"fmt"

	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// TreeName is the default name of the response tree.
const TreeName = "fTree"

// Entry is one row of the response tree: a matched pair of jets and the
// event they belong to.
type Entry struct {
	Jet1Pt   float32 `groot:"Jet1_Pt"`
	Jet1Eta  float32 `groot:"Jet1_Eta"`
	Jet1Phi  float32 `groot:"Jet1_Phi"`
	Jet1Area float32 `groot:"Jet1_Area"`

	Jet2Pt   float32 `groot:"Jet2_Pt"`
	Jet2Eta  float32 `groot:"Jet2_Eta"`
	Jet2Phi  float32 `groot:"Jet2_Phi"`
	Jet2Area float32 `groot:"Jet2_Area"`

	Rho             float32 `groot:"Event_BackgroundDensity"`
	VertexX         float32 `groot:"Event_Vertex_X"`
	VertexY         float32 `groot:"Event_Vertex_Y"`
	VertexZ         float32 `groot:"Event_Vertex_Z"`
	Centrality      float32 `groot:"Event_Centrality"`
	Multiplicity    int32   `groot:"Event_Multiplicity"`
	ID              int64   `groot:"Event_ID"`
	PtHard          float32 `groot:"Event_PtHard"`
	Weight          float32 `groot:"Event_Weight"`
	ImpactParameter float32 `groot:"Event_ImpactParameter"`
}

// TreeWriter writes response entries to a ROOT tree.
type TreeWriter struct {
	row Entry
	w   rtree.Writer
}

// NewTreeWriter creates the response tree under dir.
func NewTreeWriter(dir riofs.Directory, name string) (*TreeWriter, error) {
	tw := &TreeWriter{}
	w, err := rtree.NewWriter(dir, name, rtree.WriteVarsFromStruct(&tw.row),
		rtree.WithTitle("jet response"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create tree %q: %w", name, err)
	}
	tw.w = w
	return tw, nil
}

// Write appends e to the tree.
func (tw *TreeWriter) Write(e Entry) error {
	tw.row = e
	_, err := tw.w.Write()
	if err != nil {
		return fmt.Errorf("could not write tree entry: %w", err)
	}
	return nil
}

func (tw *TreeWriter) Close() error {
	err := tw.w.Close()
	if err != nil {
		return fmt.Errorf("could not close tree: %w", err)
	}
	return nil
}
