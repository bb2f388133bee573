package grid

import (
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// Offset is a cell displacement within a footprint.
type Offset struct {
	DX, DY int
}

// Disc returns the offsets of every cell whose centre lies within radius
// cells of the origin, in row-major order. Radius 0 is the single centre
// cell.
func Disc(radius int) []Offset {
	if radius < 0 {
		radius = 0
	}
	r2 := radius * radius
	out := make([]Offset, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				out = append(out, Offset{dx, dy})
			}
		}
	}
	return out
}

func (g *Grid) disc(radius int) []Offset {
	switch radius {
	case g.traceRadius:
		return g.traceDisc
	case g.viaRadius:
		return g.viaDisc
	}
	return Disc(radius)
}

// line visits the cells of the integer line from (x0, y0) to (x1, y1),
// both ends included.
func line(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// stamp calls fn for every in-bounds cell of disc centred on (x, y).
func (g *Grid) stamp(x, y, layer int, disc []Offset, fn func(idx int)) {
	if layer < 0 || layer >= g.layers {
		return
	}
	for _, o := range disc {
		cx, cy := x+o.DX, y+o.DY
		if cx < 0 || cx >= g.cols || cy < 0 || cy >= g.rows {
			continue
		}
		fn(g.Index(cx, cy, layer))
	}
}

func (g *Grid) segmentCells(seg routing.Segment, radius int, fn func(idx int)) {
	if seg.Layer < 0 || seg.Layer >= g.layers {
		return
	}
	disc := g.disc(radius)
	x0, y0 := g.cellOf(seg.Start)
	x1, y1 := g.cellOf(seg.End)
	line(x0, y0, x1, y1, func(x, y int) {
		g.stamp(x, y, seg.Layer, disc, fn)
	})
}

func (g *Grid) viaCells(via routing.Via, radius int, fn func(idx int)) {
	disc := g.disc(radius)
	x, y := g.cellOf(via.Pos)
	for l := 0; l < g.layers; l++ {
		g.stamp(x, y, l, disc, fn)
	}
}

// block marks a cell blocked and keeps the congestion overlay in step.
func (g *Grid) block(idx int) {
	c := &g.cells[idx]
	if !c.Blocked {
		c.Blocked = true
		g.blocked[g.blockIndex(idx)]++
	}
}

func (g *Grid) free(idx int) {
	c := &g.cells[idx]
	if c.Blocked {
		c.Blocked = false
		g.blocked[g.blockIndex(idx)]--
	}
	c.Owner = routing.NoNet
	c.Claims = 0
}

// claim marks a route cell for net. Obstacles and cells held by other
// nets are left alone.
func (g *Grid) claim(idx int, net int32) {
	c := &g.cells[idx]
	if c.Obstacle || (c.Blocked && c.Owner != net) {
		return
	}
	g.block(idx)
	c.Owner = net
	c.Claims++
}

// release undoes one claim. Obstacle cells fall back to the net they were
// created with; other cells are freed once net's last claim on them is
// gone, so overlapping marks of one net unmark independently.
func (g *Grid) release(idx int, net int32) {
	c := &g.cells[idx]
	if c.Obstacle {
		c.Owner = c.OriginalNet
		g.block(idx)
		return
	}
	if c.Blocked && c.Owner == net {
		if c.Claims--; c.Claims <= 0 {
			g.free(idx)
		}
	}
}

// MarkBlocked turns one cell into a permanent obstacle owned by net
// (NoNet for copper belonging to no net). Out-of-range cells are ignored.
func (g *Grid) MarkBlocked(x, y, layer, net int) {
	if !g.InBounds(x, y, layer) {
		return
	}
	idx := g.Index(x, y, layer)
	g.block(idx)
	c := &g.cells[idx]
	c.Obstacle = true
	c.Owner = int32(net)
	c.OriginalNet = int32(net)
	c.Claims = 0
}

// MarkRectBlocked marks every cell whose centre lies inside the rectangle
// spanned by a and b as an obstacle. Parts outside the grid are clipped.
func (g *Grid) MarkRectBlocked(a, b routing.Point, layer, net int) {
	if layer < 0 || layer >= g.layers {
		return
	}
	res := g.rules.Resolution
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	x0 := int(math.Ceil((minX-g.origin.X)/res - 1e-9))
	x1 := int(math.Floor((maxX-g.origin.X)/res + 1e-9))
	y0 := int(math.Ceil((minY-g.origin.Y)/res - 1e-9))
	y1 := int(math.Floor((maxY-g.origin.Y)/res + 1e-9))
	// a rectangle thinner than a cell still blocks the cell it sits on
	if x0 > x1 {
		x0 = int(math.Round((minX - g.origin.X) / res))
		x1 = x0
	}
	if y0 > y1 {
		y0 = int(math.Round((minY - g.origin.Y) / res))
		y1 = y0
	}
	x0, x1 = clamp(x0, 0, g.cols), clamp(x1, -1, g.cols-1)
	y0, y1 = clamp(y0, 0, g.rows), clamp(y1, -1, g.rows-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			g.MarkBlocked(x, y, layer, net)
		}
	}
}

// MarkSegmentBlocked rasterizes existing copper as permanent obstacles
// owned by seg.Net, radius cells either side of the centre line.
func (g *Grid) MarkSegmentBlocked(seg routing.Segment, radius int) {
	g.segmentCells(seg, radius, func(idx int) {
		x, y, l := g.Coords(idx)
		g.MarkBlocked(x, y, l, seg.Net)
	})
}

// MarkRectKeepout marks as obstacles every cell whose centre lies inside
// the rectangle spanned by a and b or within Keepout of it. Cells already
// held by another net's fixed copper become obstacles of no net, so a
// clearance shared by two nets blocks both. Follow with MarkRectBlocked to
// hand the copper itself back to its net.
func (g *Grid) MarkRectKeepout(a, b routing.Point, layer, net int) {
	lo := routing.Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
	hi := routing.Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
	g.markNear(layer, net, lo, hi, g.keepout, func(p routing.Point) float64 {
		dx := math.Max(0, math.Max(lo.X-p.X, p.X-hi.X))
		dy := math.Max(0, math.Max(lo.Y-p.Y, p.Y-hi.Y))
		return math.Hypot(dx, dy)
	})
}

// MarkSegmentKeepout is MarkRectKeepout for existing track: it blocks
// cells within seg.Width/2 plus Keepout of the centre line.
func (g *Grid) MarkSegmentKeepout(seg routing.Segment) {
	lo := routing.Point{X: math.Min(seg.Start.X, seg.End.X), Y: math.Min(seg.Start.Y, seg.End.Y)}
	hi := routing.Point{X: math.Max(seg.Start.X, seg.End.X), Y: math.Max(seg.Start.Y, seg.End.Y)}
	g.markNear(seg.Layer, seg.Net, lo, hi, seg.Width/2+g.keepout, func(p routing.Point) float64 {
		return pointSegmentDistance(p, seg.Start, seg.End)
	})
}

// markNear blocks the cells of layer whose centre is closer than reach to
// a shape bounded by lo and hi, as measured by dist.
func (g *Grid) markNear(layer, net int, lo, hi routing.Point, reach float64, dist func(routing.Point) float64) {
	if layer < 0 || layer >= g.layers {
		return
	}
	res := g.rules.Resolution
	x0 := clamp(int(math.Floor((lo.X-reach-g.origin.X)/res)), 0, g.cols-1)
	x1 := clamp(int(math.Ceil((hi.X+reach-g.origin.X)/res)), 0, g.cols-1)
	y0 := clamp(int(math.Floor((lo.Y-reach-g.origin.Y)/res)), 0, g.rows-1)
	y1 := clamp(int(math.Ceil((hi.Y+reach-g.origin.Y)/res)), 0, g.rows-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if dist(g.GridToWorld(x, y)) > reach+1e-9 {
				continue
			}
			c := &g.cells[g.Index(x, y, layer)]
			if c.Obstacle && c.OriginalNet != int32(net) {
				c.Owner, c.OriginalNet = routing.NoNet, routing.NoNet
				continue
			}
			g.MarkBlocked(x, y, layer, net)
		}
	}
}

func pointSegmentDistance(p, a, b routing.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := dx*dx + dy*dy
	if l == 0 {
		return p.Dist(a)
	}
	t := math.Max(0, math.Min(1, ((p.X-a.X)*dx+(p.Y-a.Y)*dy)/l))
	return p.Dist(routing.Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// MarkSegment rasterizes seg and claims every cell within radius cells of
// its centre line for seg.Net.
func (g *Grid) MarkSegment(seg routing.Segment, radius int) {
	net := int32(seg.Net)
	g.segmentCells(seg, radius, func(idx int) { g.claim(idx, net) })
}

// UnmarkSegment is the exact inverse of MarkSegment.
func (g *Grid) UnmarkSegment(seg routing.Segment, radius int) {
	net := int32(seg.Net)
	g.segmentCells(seg, radius, func(idx int) { g.release(idx, net) })
}

// MarkVia claims a disc of radius cells around the via on every layer of
// the stack.
func (g *Grid) MarkVia(via routing.Via, radius int) {
	net := int32(via.Net)
	g.viaCells(via, radius, func(idx int) { g.claim(idx, net) })
}

// UnmarkVia is the exact inverse of MarkVia.
func (g *Grid) UnmarkVia(via routing.Via, radius int) {
	net := int32(via.Net)
	g.viaCells(via, radius, func(idx int) { g.release(idx, net) })
}

// MarkRoute marks every segment and via of res using the grid's trace and
// via radii. Failed results carry no copper and mark nothing.
func (g *Grid) MarkRoute(res routing.RouteResult) {
	for _, s := range res.Segments {
		g.MarkSegment(s, g.traceRadius)
	}
	for _, v := range res.Vias {
		g.MarkVia(v, g.viaRadius)
	}
}

// UnmarkRoute rips up a route marked with MarkRoute.
func (g *Grid) UnmarkRoute(res routing.RouteResult) {
	for _, s := range res.Segments {
		g.UnmarkSegment(s, g.traceRadius)
	}
	for _, v := range res.Vias {
		g.UnmarkVia(v, g.viaRadius)
	}
}

// RouteCells returns the cell indices covered by the footprint of res,
// each once, in ascending order.
func (g *Grid) RouteCells(res routing.RouteResult) []int {
	seen := make(map[int]struct{})
	add := func(idx int) { seen[idx] = struct{}{} }
	for _, s := range res.Segments {
		g.segmentCells(s, g.traceRadius, add)
	}
	for _, v := range res.Vias {
		g.viaCells(v, g.viaRadius, add)
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
