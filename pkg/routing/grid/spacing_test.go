package grid

import (
	"math"
	"testing"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

var halfMoves = []Offset{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

func segmentDistance(a0, a1, b0, b1 routing.Point) float64 {
	cross := func(o, p, q routing.Point) float64 {
		return (p.X-o.X)*(q.Y-o.Y) - (p.Y-o.Y)*(q.X-o.X)
	}
	if cross(b0, b1, a0)*cross(b0, b1, a1) < 0 && cross(a0, a1, b0)*cross(a0, a1, b1) < 0 {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(a0, b0, b1), pointSegmentDistance(a1, b0, b1)),
		math.Min(pointSegmentDistance(b0, a0, a1), pointSegmentDistance(b1, a0, a1)),
	)
}

// footprint is the set of cells a run of cell centres covers with disc.
func footprint(disc []Offset, centres ...Offset) map[Offset]bool {
	out := make(map[Offset]bool)
	for _, c := range centres {
		for _, o := range disc {
			out[Offset{c.DX + o.DX, c.DY + o.DY}] = true
		}
	}
	return out
}

func disjoint(a, b map[Offset]bool) bool {
	for k := range a {
		if b[k] {
			return false
		}
	}
	return true
}

// squeezed reports whether a diagonal step from s0 to s1 passes between
// two cells of other.
func squeezed(s0, s1 Offset, other map[Offset]bool) bool {
	if s0.DX == s1.DX || s0.DY == s1.DY {
		return false
	}
	return other[Offset{s1.DX, s0.DY}] && other[Offset{s0.DX, s1.DY}]
}

func TestDisjointFootprintsKeepClearance(t *testing.T) {
	for _, res := range []float64{0.5, 0.25, 0.1} {
		r := rules.Default()
		r.Resolution = res
		g, err := New(20, 20, 1, r, routing.Point{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		rt, rv := g.TraceRadius(), g.ViaRadius()
		world := func(o Offset) routing.Point { return routing.Point{X: float64(o.DX) * res, Y: float64(o.DY) * res} }
		origin := Offset{}
		reach := rt + rv + 3

		for _, u := range halfMoves {
			a := footprint(g.TraceDisc(), origin, u)
			for dy := -reach; dy <= reach; dy++ {
				for dx := -reach; dx <= reach; dx++ {
					b0 := Offset{dx, dy}

					for _, v := range halfMoves {
						b1 := Offset{dx + v.DX, dy + v.DY}
						b := footprint(g.TraceDisc(), b0, b1)
						if !disjoint(a, b) || (squeezed(origin, u, b) && squeezed(b0, b1, a)) {
							continue
						}
						gap := segmentDistance(world(origin), world(u), world(b0), world(b1)) - r.TraceWidth
						if gap < r.TraceClearance-1e-9 {
							t.Fatalf("res %v: steps %v-%v and %v-%v only %.4fmm apart", res, origin, u, b0, b1, gap)
						}
					}

					via := footprint(g.ViaDisc(), b0)
					if disjoint(a, via) {
						gap := pointSegmentDistance(world(b0), world(origin), world(u)) - r.TraceWidth/2 - r.ViaDiameter/2
						if gap < math.Max(r.TraceClearance, r.ViaClearance)-1e-9 {
							t.Fatalf("res %v: via at %v only %.4fmm from step %v-%v", res, b0, gap, origin, u)
						}
					}
					if disjoint(footprint(g.ViaDisc(), origin), via) {
						gap := world(origin).Dist(world(b0)) - r.ViaDiameter
						if gap < r.ViaClearance-1e-9 {
							t.Fatalf("res %v: vias %v apart only %.4fmm", res, b0, gap)
						}
					}
				}
			}
		}
	}
}

func TestKeepoutHoldsClearance(t *testing.T) {
	for _, res := range []float64{0.5, 0.25, 0.1} {
		r := rules.Default()
		r.Resolution = res
		g, err := New(8, 8, 1, r, routing.Point{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		lo, hi := pt(3.05, 2.5), pt(4.2, 5.5)
		track := routing.Segment{Start: pt(5.3, 2.1), End: pt(6.4, 6.2), Width: 0.3, Net: 3}
		g.MarkRectKeepout(lo, hi, 0, 2)
		g.MarkSegmentKeepout(track)
		g.MarkRectBlocked(lo, hi, 0, 2)
		g.MarkSegmentBlocked(track, 1)

		rectDist := func(p routing.Point) float64 {
			dx := math.Max(0, math.Max(lo.X-p.X, p.X-hi.X))
			dy := math.Max(0, math.Max(lo.Y-p.Y, p.Y-hi.Y))
			return math.Hypot(dx, dy)
		}
		corners := []routing.Point{lo, hi, pt(lo.X, hi.Y), pt(hi.X, lo.Y)}
		stepToRect := func(a, b routing.Point) float64 {
			d := math.Min(rectDist(a), rectDist(b))
			for _, c := range corners {
				d = math.Min(d, pointSegmentDistance(c, a, b))
			}
			return d
		}
		free := func(x, y int, disc []Offset) bool {
			for _, o := range disc {
				c, ok := g.At(x+o.DX, y+o.DY, 0)
				if !ok || c.Blocked {
					return false
				}
			}
			return true
		}

		checked := 0
		for y := 0; y < g.Rows(); y++ {
			for x := 0; x < g.Cols(); x++ {
				p := g.GridToWorld(x, y)
				if free(x, y, g.ViaDisc()) {
					need := math.Max(r.TraceClearance, r.ViaClearance)
					if d := rectDist(p) - r.ViaDiameter/2; d < need-1e-9 {
						t.Fatalf("res %v: via at %v only %.4fmm from the pad", res, p, d)
					}
					if d := pointSegmentDistance(p, track.Start, track.End) - track.Width/2 - r.ViaDiameter/2; d < need-1e-9 {
						t.Fatalf("res %v: via at %v only %.4fmm from the track", res, p, d)
					}
				}
				if !free(x, y, g.TraceDisc()) {
					continue
				}
				for _, m := range halfMoves {
					if !free(x+m.DX, y+m.DY, g.TraceDisc()) {
						continue
					}
					q := g.GridToWorld(x+m.DX, y+m.DY)
					checked++
					if d := stepToRect(p, q) - r.TraceWidth/2; d < r.TraceClearance-1e-9 {
						t.Fatalf("res %v: step %v-%v only %.4fmm from the pad", res, p, q, d)
					}
					d := segmentDistance(p, q, track.Start, track.End) - r.TraceWidth/2 - track.Width/2
					if d < r.TraceClearance-1e-9 {
						t.Fatalf("res %v: step %v-%v only %.4fmm from the track", res, p, q, d)
					}
				}
			}
		}
		if checked == 0 {
			t.Fatalf("res %v: no legal steps left to check", res)
		}
	}
}

func TestKeepoutSharedByTwoNets(t *testing.T) {
	r := unitRules()
	g, err := New(9, 9, 1, r, routing.Point{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.MarkRectKeepout(pt(2, 4), pt(3.4, 4), 0, 1)
	g.MarkRectKeepout(pt(4.6, 4), pt(6, 4), 0, 2)
	g.MarkRectBlocked(pt(2, 4), pt(3.4, 4), 0, 1)
	g.MarkRectBlocked(pt(4.6, 4), pt(6, 4), 0, 2)

	if c, _ := g.At(4, 4, 0); !c.Obstacle || c.Owner != routing.NoNet {
		t.Errorf("cell between the pads = %+v, want obstacle of no net", *c)
	}
	if c, _ := g.At(3, 4, 0); c.Owner != 1 {
		t.Errorf("net 1 pad = %+v", *c)
	}
	if c, _ := g.At(5, 4, 0); c.Owner != 2 {
		t.Errorf("net 2 pad = %+v", *c)
	}
}
