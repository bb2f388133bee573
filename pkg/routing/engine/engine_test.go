package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/astar"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

func newGrid(t *testing.T) *grid.Grid {
	t.Helper()
	r := rules.Default()
	r.Resolution = 0.25
	g, err := grid.New(10, 10, 2, r, routing.Point{})
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	g.MarkRectBlocked(routing.Point{X: 4, Y: 0}, routing.Point{X: 4.5, Y: 8}, 0, routing.NoNet)
	g.MarkRectBlocked(routing.Point{X: 6, Y: 2}, routing.Point{X: 6.5, Y: 10}, 1, routing.NoNet)
	return g
}

func TestParseBackend(t *testing.T) {
	tests := map[string]Backend{
		"reference":     BackendReference,
		" Accelerated ": BackendAccelerated,
		"gpu":           BackendReference,
		"":              BackendReference,
	}
	for in, want := range tests {
		if got := ParseBackend(in); got != want {
			t.Errorf("ParseBackend(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	g := newGrid(t)
	if e := New(BackendAccelerated, g); e.Name() != "accelerated" {
		t.Errorf("New(accelerated).Name() = %q", e.Name())
	}
	if e := New("bogus", g); e.Name() != "reference" {
		t.Errorf("unknown backend did not fall back: %q", e.Name())
	}
	if e := New(BackendReference, g); e.Grid() != g {
		t.Error("engine does not expose its grid")
	}
}

func TestBackendsProduceIdenticalRoutes(t *testing.T) {
	reqs := []astar.Request{
		{Net: 1, Start: routing.Terminal{Pos: routing.Point{X: 1, Y: 1}, Layers: []int{0}}, Goal: routing.Terminal{Pos: routing.Point{X: 9, Y: 9}, Layers: []int{0}}},
		{Net: 2, Start: routing.Terminal{Pos: routing.Point{X: 1, Y: 9}, Layers: []int{0, 1}}, Goal: routing.Terminal{Pos: routing.Point{X: 9, Y: 1}, Layers: []int{1}}},
		{Net: 3, Start: routing.Terminal{Pos: routing.Point{X: 2, Y: 5}, Layers: []int{1}}, Goal: routing.Terminal{Pos: routing.Point{X: 8, Y: 5}, Layers: []int{0}}, Sharing: true, Negotiated: true, PresentFactor: 1},
	}

	run := func(kind Backend) ([]routing.RouteResult, grid.Occupancy) {
		e := New(kind, newGrid(t), astar.WithDiagonal(true))
		var out []routing.RouteResult
		for _, req := range reqs {
			res := e.Route(req)
			e.MarkRoute(res)
			out = append(out, res)
		}
		return out, e.Grid().Stats()
	}

	refRoutes, refOcc := run(BackendReference)
	accRoutes, accOcc := run(BackendAccelerated)

	if diff := cmp.Diff(refRoutes, accRoutes); diff != "" {
		t.Errorf("routes differ (-reference +accelerated):\n%s", diff)
	}
	if diff := cmp.Diff(refOcc, accOcc); diff != "" {
		t.Errorf("occupancy differs (-reference +accelerated):\n%s", diff)
	}
	if !refRoutes[0].Success {
		t.Errorf("first request on an empty board failed: %v", refRoutes[0].Failure)
	}
}
