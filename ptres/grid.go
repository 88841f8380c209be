package ptres

import (
	"math"

	"go-hep.org/x/hep/hbook"
)

// ResGrid accumulates, in (x, y) cells, the spread of a measured ratio.
// It implements plotter.GridXYZ so it can be drawn as a heat map.
type ResGrid struct {
	hCount, hV, hV2 *hbook.H2D
	nBinsX, nBinsY  int
}

func NewResGrid(nBinsX int, xLow, xHigh float64, nBinsY int, yLow, yHigh float64) *ResGrid {
	return &ResGrid{
		hCount: hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		hV:     hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		hV2:    hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		nBinsX: nBinsX,
		nBinsY: nBinsY,
	}
}

func (g *ResGrid) Fill(x, y, z float64) {
	g.hCount.Fill(x, y, 1)
	g.hV.Fill(x, y, z)
	g.hV2.Fill(x, y, z*z)
}

func (g *ResGrid) Dims() (int, int) {
	return g.nBinsX, g.nBinsY
}

// N returns the number of entries of cell (i, j).
func (g *ResGrid) N(i, j int) float64 {
	return g.hCount.GridXYZ().Z(i, j)
}

// Z returns the standard deviation of the ratio in cell (i, j).
// Cells with less than 3 entries report 1.
func (g *ResGrid) Z(i, j int) float64 {
	n := g.N(i, j)
	if n < 3 {
		return 1
	}
	mean := g.hV.GridXYZ().Z(i, j) / n
	mean2 := g.hV2.GridXYZ().Z(i, j) / n

	return math.Sqrt(math.Max(0, mean2-mean*mean))
}

func (g *ResGrid) X(i int) float64 {
	return g.hCount.GridXYZ().X(i)
}

func (g *ResGrid) Y(j int) float64 {
	return g.hCount.GridXYZ().Y(j)
}
