package viewer

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
)

// Run is a horizontal strip of obstacle cells on one layer, in board
// coordinates of the cell centres.
type Run struct {
	Layer    int
	From, To routing.Point
}

// Scene is what the viewer draws: the grid's fixed copper and a result.
type Scene struct {
	Grid   *grid.Grid
	Result *negotiate.Result
	Layers []string

	runs []Run
}

// NewScene precomputes the obstacle strips of g.
func NewScene(g *grid.Grid, res *negotiate.Result, layers []string) *Scene {
	return &Scene{Grid: g, Result: res, Layers: layers, runs: ObstacleRuns(g)}
}

// Runs returns the obstacle strips.
func (s *Scene) Runs() []Run { return s.runs }

// Bounds returns the board rectangle the grid covers.
func (s *Scene) Bounds() (min, max routing.Point) {
	o := s.Grid.Origin()
	return o, routing.Point{X: o.X + s.Grid.Width(), Y: o.Y + s.Grid.Height()}
}

// Caption summarises the result for the toolbar.
func (s *Scene) Caption() string {
	if s.Result == nil {
		return fmt.Sprintf("%dx%d cells, %d layers", s.Grid.Cols(), s.Grid.Rows(), s.Grid.Layers())
	}
	st := s.Result.Stats
	status := "converged"
	switch {
	case s.Result.Cancelled:
		status = "cancelled"
	case !s.Result.Converged:
		status = fmt.Sprintf("overflow %d", st.Overflow)
	}
	return fmt.Sprintf("%d/%d nets  %d vias  %.2f mm  %d rounds  %s",
		st.NetsRouted, st.NetsTotal, st.Vias, st.TotalLength, s.Result.Rounds, status)
}

// ObstacleRuns merges horizontally adjacent obstacle cells into strips so
// large pads draw as one rectangle.
func ObstacleRuns(g *grid.Grid) []Run {
	var runs []Run
	for l := 0; l < g.Layers(); l++ {
		for y := 0; y < g.Rows(); y++ {
			start := -1
			for x := 0; x <= g.Cols(); x++ {
				obstacle := false
				if x < g.Cols() {
					c, _ := g.At(x, y, l)
					obstacle = c.Obstacle
				}
				switch {
				case obstacle && start < 0:
					start = x
				case !obstacle && start >= 0:
					runs = append(runs, Run{Layer: l, From: g.GridToWorld(start, y), To: g.GridToWorld(x-1, y)})
					start = -1
				}
			}
		}
	}
	return runs
}
