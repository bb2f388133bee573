package rules

import "math"

// Footprint radii are measured on the cell lattice. Disjoint discs at a
// diagonal offset sit closer than their radii suggest, and a diagonal
// step passes nearer its neighbours than either end cell.

// exactSearchLimit caps the radius, in cells, up to which the lattice is
// searched. Beyond it the closed-form bounds are used; they are slightly
// larger but cost nothing to evaluate.
const exactSearchLimit = 16

type offset struct{ x, y int }

// Route copper is built from unit moves between cell centres. Moves are
// undirected here, so four cover all eight directions.
var (
	unitSteps  = []offset{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	pointShape = []offset{{0, 0}}
)

func disc(r int) []offset {
	var out []offset
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				out = append(out, offset{x, y})
			}
		}
	}
	return out
}

// overlapTable holds the centre offsets at which a disc of radius ra and
// one of radius rb share at least one cell: the lattice Minkowski sum of
// the two discs.
type overlapTable struct {
	span int
	hit  []bool
}

func newOverlapTable(ra, rb int) *overlapTable {
	t := &overlapTable{span: ra + rb}
	side := 2*t.span + 1
	t.hit = make([]bool, side*side)
	db := disc(rb)
	for _, a := range disc(ra) {
		for _, b := range db {
			t.hit[(a.y-b.y+t.span)*side+(a.x-b.x+t.span)] = true
		}
	}
	return t
}

func (t *overlapTable) overlaps(d offset) bool {
	if d.x < -t.span || d.x > t.span || d.y < -t.span || d.y > t.span {
		return false
	}
	return t.hit[(d.y+t.span)*(2*t.span+1)+(d.x+t.span)]
}

// cornerBlocked reports whether the diagonal step s squeezes between two
// cells that both lie in the footprint of radius r around other. The
// pathfinder refuses such steps.
func cornerBlocked(s, other [2]offset, r int) bool {
	dx, dy := s[1].x-s[0].x, s[1].y-s[0].y
	if dx == 0 || dy == 0 {
		return false
	}
	covered := func(c offset) bool {
		for _, p := range other {
			if (c.x-p.x)*(c.x-p.x)+(c.y-p.y)*(c.y-p.y) <= r*r {
				return true
			}
		}
		return false
	}
	return covered(offset{s[1].x, s[0].y}) && covered(offset{s[0].x, s[1].y})
}

// separation returns the smallest centre-line distance, in cells, between
// a shape with footprint radius ra and one with radius rb whose footprints
// share no cell. Shapes are the steps in as and bs anchored on the
// lattice; pointShape stands for a via.
func separation(ra, rb int, as, bs []offset) float64 {
	t := newOverlapTable(ra, rb)
	reach := ra + rb + 3
	best := math.Inf(1)
	for _, u := range as {
		a := [2]offset{{0, 0}, u}
		for dy := -reach; dy <= reach; dy++ {
			for dx := -reach; dx <= reach; dx++ {
				for _, v := range bs {
					b := [2]offset{{dx, dy}, {dx + v.x, dy + v.y}}
					if t.overlaps(sub(b[0], a[0])) || t.overlaps(sub(b[0], a[1])) ||
						t.overlaps(sub(b[1], a[0])) || t.overlaps(sub(b[1], a[1])) {
						continue
					}
					// whichever was routed second was checked against the other
					if cornerBlocked(a, b, rb) && cornerBlocked(b, a, ra) {
						continue
					}
					best = math.Min(best, stepDistance(a, b))
				}
			}
		}
	}
	return best
}

func sub(p, q offset) offset { return offset{p.x - q.x, p.y - q.y} }

func cross(o, a, b offset) int {
	return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
}

// stepDistance is the Euclidean distance between two lattice segments.
func stepDistance(a, b [2]offset) float64 {
	d1, d2 := cross(b[0], b[1], a[0]), cross(b[0], b[1], a[1])
	d3, d4 := cross(a[0], a[1], b[0]), cross(a[0], a[1], b[1])
	if d1*d2 < 0 && d3*d4 < 0 {
		return 0
	}
	return math.Min(
		math.Min(pointStep(a[0], b), pointStep(a[1], b)),
		math.Min(pointStep(b[0], a), pointStep(b[1], a)),
	)
}

func pointStep(p offset, s [2]offset) float64 {
	dx, dy := float64(s[1].x-s[0].x), float64(s[1].y-s[0].y)
	px, py := float64(p.x-s[0].x), float64(p.y-s[0].y)
	l := dx*dx + dy*dy
	if l == 0 {
		return math.Hypot(px, py)
	}
	t := math.Max(0, math.Min(1, (px*dx+py*dy)/l))
	return math.Hypot(px-t*dx, py-t*dy)
}

// smallestRadius returns the least radius accepted by ok, starting from
// the first radius whose on-axis separation 2n+1 can reach need.
func smallestRadius(need float64, ok func(n int) bool) int {
	n := int(math.Max(0, math.Ceil((need-1)/2)))
	for !ok(n) {
		n++
	}
	return n
}

const sepTolerance = 1e-9

// traceRadius is the footprint radius that keeps route centre lines need
// cells apart.
func traceRadius(need float64) int {
	if need/2 > exactSearchLimit {
		// disjoint discs put lattice centres more than 2n-sqrt2 apart, and
		// interpolating along two steps loses at most one cell squared
		return int(math.Ceil(math.Sqrt(need*need/4+0.25) + math.Sqrt2/2))
	}
	return smallestRadius(need, func(n int) bool {
		return separation(n, n, unitSteps, unitSteps) >= need-sepTolerance
	})
}

// viaRadius is the via footprint radius that keeps via centres needVia
// cells apart and route centre lines needMixed cells from a via centre,
// given the trace footprint radius rt.
func viaRadius(needVia, needMixed float64, rt int) int {
	if needVia/2 > exactSearchLimit || rt > exactSearchLimit {
		own := math.Ceil(needVia/2 + math.Sqrt2/2)
		mixed := math.Ceil(math.Sqrt(needMixed*needMixed+0.5) + math.Sqrt2 - float64(rt))
		return int(math.Max(0, math.Max(own, mixed)))
	}
	return smallestRadius(needVia, func(n int) bool {
		return separation(n, n, pointShape, pointShape) >= needVia-sepTolerance &&
			separation(rt, n, unitSteps, pointShape) >= needMixed-sepTolerance
	})
}

// keepoutCells is the distance, in cells, from fixed copper within which
// a cell centre is blocked. A route cell whose footprint of radius rt
// avoids every blocked cell lies at least keepout+max(0, rt-sqrt2) from
// the copper; interpolating along a step loses at most half a cell
// squared. Vias need no interpolation.
func keepoutCells(needTrace, needVia float64, rt, rv int) float64 {
	slack := func(r int) float64 { return math.Max(0, float64(r)-math.Sqrt2) }
	k := math.Sqrt(needTrace*needTrace+0.5) - slack(rt)
	k = math.Max(k, needVia-slack(rv))
	// never less than the half diagonal, so any copper blocks a cell
	return math.Max(k, 0.75)
}
