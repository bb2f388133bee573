package astar

import (
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

type step struct {
	x, y, layer int
}

// reconstruct walks parent indices back from the goal node and turns the
// cell path into copper: straight same-layer runs become one segment each
// and every layer change becomes a via. Path points on the start and goal
// cells are replaced by the caller's exact terminal positions so grid
// quantization never disconnects a terminal.
func (p *Pathfinder) reconstruct(s *search, goal int32) routing.RouteResult {
	var path []step
	for i := goal; i >= 0; i = p.closed[i].parent {
		n := p.closed[i]
		path = append(path, step{int(n.x), int(n.y), int(n.layer)})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	r := p.g.Rules()
	first, last := path[0], path[len(path)-1]
	at := func(st step) routing.Point {
		switch {
		case st.x == first.x && st.y == first.y:
			return s.req.Start.Pos
		case st.x == last.x && st.y == last.y:
			return s.req.Goal.Pos
		}
		return p.g.GridToWorld(st.x, st.y)
	}

	res := routing.RouteResult{Net: s.req.Net, Success: true}
	emit := func(a, b step) {
		pa, pb := at(a), at(b)
		if pa == pb {
			return
		}
		res.Segments = append(res.Segments, routing.Segment{
			Start: pa, End: pb, Width: r.TraceWidth, Layer: a.layer, Net: s.req.Net,
		})
	}

	runStart := path[0]
	runDX, runDY := 0, 0
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		if cur.layer != prev.layer {
			emit(runStart, prev)
			res.Vias = append(res.Vias, routing.Via{
				Pos:       at(prev),
				Drill:     r.ViaDrill,
				Diameter:  r.ViaDiameter,
				FromLayer: prev.layer,
				ToLayer:   cur.layer,
				Net:       s.req.Net,
			})
			runStart = cur
			runDX, runDY = 0, 0
			continue
		}
		dx, dy := cur.x-prev.x, cur.y-prev.y
		if (runDX != 0 || runDY != 0) && (dx != runDX || dy != runDY) {
			emit(runStart, prev)
			runStart = prev
		}
		runDX, runDY = dx, dy
	}
	emit(runStart, last)

	// start and goal quantize to the same cell but are not the same point:
	// join them directly on the arrival layer
	if first.x == last.x && first.y == last.y && s.req.Start.Pos != s.req.Goal.Pos {
		res.Segments = append(res.Segments, routing.Segment{
			Start: s.req.Start.Pos, End: s.req.Goal.Pos, Width: r.TraceWidth, Layer: last.layer, Net: s.req.Net,
		})
	}
	return res
}
