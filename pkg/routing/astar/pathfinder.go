package astar

import (
	"container/heap"
	"math"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
)

// Request asks for one connection of a net.
type Request struct {
	Net   int
	Start routing.Terminal
	Goal  routing.Terminal
	// Sharing lets the search enter cells another net occupies when they
	// are not obstacles and already carry usage this round. The
	// negotiation loop sets it; plain routing leaves it off.
	Sharing bool
	// Negotiated adds pf*usage + history to every step, with pf taken from
	// PresentFactor.
	Negotiated    bool
	PresentFactor float64
}

// direction indices; noDir marks the start node
const (
	dirN = iota
	dirE
	dirS
	dirW
	dirNE
	dirSE
	dirSW
	dirNW
	noDir = -1
)

var moves = [8]struct{ dx, dy int }{
	dirN:  {0, -1},
	dirE:  {1, 0},
	dirS:  {0, 1},
	dirW:  {-1, 0},
	dirNE: {1, -1},
	dirSE: {1, 1},
	dirSW: {-1, 1},
	dirNW: {-1, -1},
}

// node is one search state. parent indexes the closed list.
type node struct {
	x, y, layer int32
	g, f        float64
	parent      int32
	dir         int8
	via         bool
}

// Pathfinder runs A* searches against one grid. It reuses internal
// buffers between searches and is not safe for concurrent use; give each
// goroutine its own Pathfinder over its own grid.
type Pathfinder struct {
	g      *grid.Grid
	opts   Options
	store  scoreStore
	layers []int // routable layers, ascending
	budget int

	open   openSet
	closed []node
	seq    uint64
}

// New creates a pathfinder over g.
func New(g *grid.Grid, opts ...Option) *Pathfinder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pathfinder{g: g, opts: o}
	switch o.Store {
	case StoreDense:
		p.store = newDenseStore()
	default:
		p.store = newMapStore()
	}

	onLayer := make([]bool, g.Layers())
	if len(o.Layers) == 0 {
		for l := range onLayer {
			onLayer[l] = true
		}
	}
	for _, l := range o.Layers {
		if l >= 0 && l < g.Layers() {
			onLayer[l] = true
		}
	}
	for l, ok := range onLayer {
		if ok {
			p.layers = append(p.layers, l)
		}
	}

	p.budget = o.IterationFactor * g.Size()
	if o.IterationBudget > 0 {
		p.budget = o.IterationBudget
	}
	return p
}

// Grid returns the grid the pathfinder searches.
func (p *Pathfinder) Grid() *grid.Grid { return p.g }

// Options returns the effective options.
func (p *Pathfinder) Options() Options { return p.opts }

// search holds the per-request state the inner loop needs.
type search struct {
	req        Request
	net        int32
	gx, gy     int
	goalLayer  []bool
	straight   float64
	diagonal   float64
	turn       float64
	via        float64
	threshold  float64
	congestion float64
}

func (p *Pathfinder) newSearch(req Request, gx, gy int) *search {
	r := p.g.Rules()
	s := &search{
		req:        req,
		net:        int32(req.Net),
		gx:         gx,
		gy:         gy,
		goalLayer:  make([]bool, p.g.Layers()),
		straight:   r.StraightCost,
		diagonal:   math.Sqrt2 * r.StraightCost,
		turn:       r.TurnCost,
		via:        r.ViaCost,
		threshold:  r.CongestionThreshold,
		congestion: r.CongestionPenalty,
	}
	for _, l := range req.Goal.Layers {
		if l >= 0 && l < len(s.goalLayer) {
			s.goalLayer[l] = true
		}
	}
	return s
}

// Heuristic returns the estimate the search uses from (x, y, layer) to
// goal: octile or Manhattan distance in cells times the straight cost,
// plus one via cost when layer cannot reach the goal, times the heuristic
// weight. With weight 1 it never overestimates the true remaining cost.
func (p *Pathfinder) Heuristic(x, y, layer int, goal routing.Terminal) float64 {
	gx, gy := p.g.WorldToGrid(goal.Pos)
	s := p.newSearch(Request{Goal: goal}, gx, gy)
	return p.heuristic(s, x, y, layer)
}

func (p *Pathfinder) heuristic(s *search, x, y, layer int) float64 {
	dx := math.Abs(float64(x - s.gx))
	dy := math.Abs(float64(y - s.gy))
	var h float64
	if p.opts.Diagonal {
		h = s.straight*(dx+dy) + (s.diagonal-2*s.straight)*math.Min(dx, dy)
	} else {
		h = s.straight * (dx + dy)
	}
	if !s.goalLayer[layer] {
		h += s.via
	}
	return h * p.opts.HeuristicWeight
}

// blocks reports whether c stops net from entering it.
func (s *search) blocks(c *grid.Cell) bool {
	if !c.Blocked || c.Owner == s.net {
		return false
	}
	if s.req.Sharing && !c.Obstacle && c.Usage > 0 {
		return false
	}
	return true
}

// footprintCost checks every cell of disc centred on (x, y, layer). It
// reports false when any cell blocks; otherwise it returns the largest
// negotiated cost among cells the net does not own (0 outside negotiated
// mode).
func (p *Pathfinder) footprintCost(s *search, x, y, layer int, disc []grid.Offset) (float64, bool) {
	worst := 0.0
	for _, o := range disc {
		cx, cy := x+o.DX, y+o.DY
		c, ok := p.g.At(cx, cy, layer)
		if !ok || s.blocks(c) {
			return 0, false
		}
		if s.req.Negotiated && c.Owner != s.net {
			nc := p.g.NegotiatedCost(cx, cy, layer, s.req.PresentFactor)
			if math.IsInf(nc, 1) {
				return 0, false
			}
			worst = math.Max(worst, nc)
		}
	}
	return worst, true
}

func (s *search) congestionCost(g *grid.Grid, x, y, layer int) float64 {
	c := g.GetCongestion(x, y, layer)
	if c > s.threshold {
		return s.congestion * (c - s.threshold)
	}
	return 0
}

// cornerBlocked forbids a diagonal step when both orthogonal cells it
// squeezes between are blocked.
func (p *Pathfinder) cornerBlocked(s *search, x, y, layer, dx, dy int) bool {
	a, okA := p.g.At(x+dx, y, layer)
	b, okB := p.g.At(x, y+dy, layer)
	blockedA := !okA || s.blocks(a)
	blockedB := !okB || s.blocks(b)
	return blockedA && blockedB
}

// Route searches for the cheapest path from req.Start to req.Goal. A
// missing path is not an error: the result then has Success false, no
// copper and a FailureReason.
func (p *Pathfinder) Route(req Request) routing.RouteResult {
	sx, sy := p.g.WorldToGrid(req.Start.Pos)
	gx, gy := p.g.WorldToGrid(req.Goal.Pos)
	s := p.newSearch(req, gx, gy)

	p.store.reset(p.g.Size())
	p.open = p.open[:0]
	p.closed = p.closed[:0]
	p.seq = 0

	for _, l := range p.layers {
		if !req.Start.HasLayer(l) {
			continue
		}
		idx := p.g.Index(sx, sy, l)
		if _, seen := p.store.best(idx); seen {
			continue
		}
		p.store.set(idx, 0)
		p.push(node{
			x: int32(sx), y: int32(sy), layer: int32(l),
			f:      p.heuristic(s, sx, sy, l),
			parent: -1,
			dir:    noDir,
		})
	}
	if len(p.open) == 0 {
		return routing.Failed(req.Net, routing.FailureBlocked)
	}

	expanded := 0
	for len(p.open) > 0 {
		cur := heap.Pop(&p.open).(openItem).node
		x, y, l := int(cur.x), int(cur.y), int(cur.layer)
		idx := p.g.Index(x, y, l)
		if p.store.closed(idx) {
			continue
		}
		if expanded >= p.budget {
			res := routing.Failed(req.Net, routing.FailureBudgetExhausted)
			res.Expanded = expanded
			routing.Tracef("net %d: budget of %d expansions exhausted", req.Net, p.budget)
			return res
		}
		expanded++
		p.store.close(idx)
		p.closed = append(p.closed, cur)
		ci := int32(len(p.closed) - 1)

		if x == gx && y == gy && s.goalLayer[l] {
			res := p.reconstruct(s, ci)
			res.Expanded = expanded
			routing.Tracef("net %d: found path, %d expansions, %d segments, %d vias",
				req.Net, expanded, len(res.Segments), len(res.Vias))
			return res
		}

		p.expand(s, cur, ci)
	}

	res := routing.Failed(req.Net, routing.FailureBlocked)
	res.Expanded = expanded
	routing.Tracef("net %d: open set exhausted after %d expansions", req.Net, expanded)
	return res
}

func (p *Pathfinder) push(n node) {
	heap.Push(&p.open, openItem{node: n, seq: p.seq})
	p.seq++
}

// relax offers a new cost for a state and queues it when it improves.
func (p *Pathfinder) relax(s *search, ci int32, x, y, layer int, g float64, dir int8, via bool) {
	idx := p.g.Index(x, y, layer)
	if p.store.closed(idx) {
		return
	}
	if best, ok := p.store.best(idx); ok && g >= best {
		return
	}
	p.store.set(idx, g)
	p.push(node{
		x: int32(x), y: int32(y), layer: int32(layer),
		g:      g,
		f:      g + p.heuristic(s, x, y, layer),
		parent: ci,
		dir:    dir,
		via:    via,
	})
}

func (p *Pathfinder) expand(s *search, cur node, ci int32) {
	x, y, l := int(cur.x), int(cur.y), int(cur.layer)
	traceDisc := p.g.TraceDisc()

	n := 4
	if p.opts.Diagonal {
		n = 8
	}
	for d := 0; d < n; d++ {
		m := moves[d]
		nx, ny := x+m.dx, y+m.dy
		if !p.g.InBounds(nx, ny, l) {
			continue
		}
		if p.store.closed(p.g.Index(nx, ny, l)) {
			continue
		}
		step := s.straight
		if d >= dirNE {
			if p.cornerBlocked(s, x, y, l, m.dx, m.dy) {
				continue
			}
			step = s.diagonal
		}
		extra, ok := p.footprintCost(s, nx, ny, l, traceDisc)
		if !ok {
			continue
		}
		cost := step + extra + s.congestionCost(p.g, nx, ny, l)
		if cur.dir != noDir && int(cur.dir) != d {
			cost += s.turn
		}
		p.relax(s, ci, nx, ny, l, cur.g+cost, int8(d), false)
	}

	if len(p.layers) < 2 {
		return
	}
	viaDisc := p.g.ViaDisc()
	viaExtra := -1.0
	for _, nl := range p.layers {
		if nl == l || p.store.closed(p.g.Index(x, y, nl)) {
			continue
		}
		if viaExtra < 0 {
			// the via occupies every layer, so the check is the same for
			// each destination
			worst := 0.0
			for vl := 0; vl < p.g.Layers(); vl++ {
				c, ok := p.footprintCost(s, x, y, vl, viaDisc)
				if !ok {
					return
				}
				worst = math.Max(worst, c)
			}
			viaExtra = worst
		}
		cost := s.via + viaExtra + s.congestionCost(p.g, x, y, nl)
		p.relax(s, ci, x, y, nl, cur.g+cost, cur.dir, true)
	}
}
