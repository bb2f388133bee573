// Package engine puts the grid and pathfinder behind one narrow contract
// so a faster implementation can stand in for the reference one. The
// backend is chosen once, when the engine is built; both produce identical
// routes.
package engine

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/astar"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
)

// Backend names an Engine implementation.
type Backend string

const (
	BackendReference   Backend = "reference"
	BackendAccelerated Backend = "accelerated"
)

// ParseBackend maps a user-supplied name onto a Backend. Unknown names map
// to the reference backend.
func ParseBackend(s string) Backend {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendAccelerated:
		return BackendAccelerated
	}
	return BackendReference
}

// Engine routes connections against one grid and maintains its
// occupancy.
type Engine interface {
	Name() string
	Grid() *grid.Grid
	MarkRoute(res routing.RouteResult)
	UnmarkRoute(res routing.RouteResult)
	Route(req astar.Request) routing.RouteResult
}

// New builds an engine of the requested kind over g. A backend that is
// unknown or cannot be set up falls back to the reference engine without
// error: the choice affects speed only.
func New(kind Backend, g *grid.Grid, opts ...astar.Option) Engine {
	if kind == BackendAccelerated {
		if e := newAccelerated(g, opts); e != nil {
			return e
		}
		routing.Diagf("engine: accelerated backend unavailable, using reference")
	}
	return newReference(g, opts)
}

type reference struct {
	g  *grid.Grid
	pf *astar.Pathfinder
}

func newReference(g *grid.Grid, opts []astar.Option) *reference {
	opts = append(append([]astar.Option(nil), opts...), astar.WithStore(astar.StoreReference))
	return &reference{g: g, pf: astar.New(g, opts...)}
}

func (e *reference) Name() string                        { return string(BackendReference) }
func (e *reference) Grid() *grid.Grid                    { return e.g }
func (e *reference) MarkRoute(res routing.RouteResult)   { e.g.MarkRoute(res) }
func (e *reference) UnmarkRoute(res routing.RouteResult) { e.g.UnmarkRoute(res) }

func (e *reference) Route(req astar.Request) routing.RouteResult {
	return e.pf.Route(req)
}

// accelerated reuses grid-sized score arrays across searches instead of
// allocating maps per search.
type accelerated struct {
	g  *grid.Grid
	pf *astar.Pathfinder
}

// maxDenseCells bounds the memory the dense score arrays may take
// (16 bytes per cell).
const maxDenseCells = 1 << 24

func newAccelerated(g *grid.Grid, opts []astar.Option) *accelerated {
	if g.Size() > maxDenseCells {
		return nil
	}
	opts = append(append([]astar.Option(nil), opts...), astar.WithStore(astar.StoreDense))
	return &accelerated{g: g, pf: astar.New(g, opts...)}
}

func (e *accelerated) Name() string                        { return string(BackendAccelerated) }
func (e *accelerated) Grid() *grid.Grid                    { return e.g }
func (e *accelerated) MarkRoute(res routing.RouteResult)   { e.g.MarkRoute(res) }
func (e *accelerated) UnmarkRoute(res routing.RouteResult) { e.g.UnmarkRoute(res) }

func (e *accelerated) Route(req astar.Request) routing.RouteResult {
	return e.pf.Route(req)
}
