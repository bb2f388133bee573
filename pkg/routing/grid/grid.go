// Package grid is the spatial routing grid: the single source of truth for
// occupancy, clearance, congestion and negotiation state of one board.
//
// Cells are stored in one contiguous slice in layer-major order, so a
// search sweeping one layer walks memory linearly:
//
//	index = layer*cols*rows + y*cols + x
//
// A Grid is not safe for concurrent use. A search assumes the grid does not
// change under it; callers that share a grid between goroutines wrap it in
// a SyncGrid.
package grid

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

// MaxCells caps the number of cells a grid may allocate (all layers).
const MaxCells = 1 << 25

// Cell is the state of one (x, y, layer) grid position.
type Cell struct {
	// Owner is the net occupying the cell, NoNet when free.
	Owner int32
	// OriginalNet is the owner an obstacle cell was created with. Unmarking
	// a route restores obstacle cells to it.
	OriginalNet int32
	// Usage counts the nets whose footprint covers the cell in the current
	// negotiation round.
	Usage int32
	// History accumulates across rounds for cells that were overused.
	History float32
	// Claims counts the route marks of Owner covering the cell; the cell
	// is freed when the last one is unmarked.
	Claims int32

	Blocked bool
	// Obstacle cells are permanent and never shareable.
	Obstacle bool
}

func freeCell() Cell {
	return Cell{Owner: routing.NoNet, OriginalNet: routing.NoNet}
}

// Free reports whether no net occupies the cell.
func (c *Cell) Free() bool {
	return !c.Blocked
}

// CellRef addresses a cell by grid coordinates.
type CellRef struct {
	X, Y, Layer int
}

// Grid is the discretized routing surface. Its bounds, resolution and
// design rules are fixed at construction.
type Grid struct {
	cols, rows, layers int
	plane              int // cols*rows
	origin             routing.Point
	rules              rules.DesignRules

	traceRadius int
	viaRadius   int
	keepout     float64
	traceDisc   []Offset
	viaDisc     []Offset

	cells []Cell

	// congestion overlay, BlockSize x BlockSize cells per entry, per layer
	bcols, brows int
	blocked      []int32
}

// New builds an empty grid covering width x height mm from origin with the
// given number of copper layers. Every cell starts free.
func New(width, height float64, layers int, r rules.DesignRules, origin routing.Point) (*Grid, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil, fmt.Errorf("grid: extent %gx%g must be positive: %w", width, height, routing.ErrOutOfRange)
	}
	if layers < 1 {
		return nil, fmt.Errorf("grid: need at least one layer, got %d: %w", layers, routing.ErrOutOfRange)
	}

	cx := math.Ceil(width/r.Resolution) + 1
	cy := math.Ceil(height/r.Resolution) + 1
	if cx*cy*float64(layers) > MaxCells {
		return nil, fmt.Errorf("grid: %.0fx%.0fx%d cells exceeds limit of %d: %w",
			cx, cy, layers, MaxCells, routing.ErrGridTooLarge)
	}

	fp := r.Footprint()
	g := &Grid{
		cols:        int(cx),
		rows:        int(cy),
		layers:      layers,
		origin:      origin,
		rules:       r,
		traceRadius: fp.TraceRadius,
		viaRadius:   fp.ViaRadius,
		keepout:     fp.Keepout,
	}
	g.plane = g.cols * g.rows
	g.traceDisc = Disc(g.traceRadius)
	g.viaDisc = Disc(g.viaRadius)

	g.cells = make([]Cell, g.plane*layers)
	for i := range g.cells {
		g.cells[i] = freeCell()
	}

	g.bcols = (g.cols + BlockSize - 1) / BlockSize
	g.brows = (g.rows + BlockSize - 1) / BlockSize
	g.blocked = make([]int32, g.bcols*g.brows*layers)
	return g, nil
}

func (g *Grid) Cols() int                { return g.cols }
func (g *Grid) Rows() int                { return g.rows }
func (g *Grid) Layers() int              { return g.layers }
func (g *Grid) Origin() routing.Point    { return g.origin }
func (g *Grid) Rules() rules.DesignRules { return g.rules }

// Size returns the total number of cells over all layers.
func (g *Grid) Size() int { return len(g.cells) }

// TraceRadius is the footprint radius of a trace in cells.
func (g *Grid) TraceRadius() int { return g.traceRadius }

// ViaRadius is the footprint radius of a via in cells.
func (g *Grid) ViaRadius() int { return g.viaRadius }

// Keepout is the distance in mm around fixed copper that MarkRectKeepout
// and MarkSegmentKeepout block.
func (g *Grid) Keepout() float64 { return g.keepout }

// TraceDisc returns the precomputed trace footprint. Callers must not
// modify it.
func (g *Grid) TraceDisc() []Offset { return g.traceDisc }

// ViaDisc returns the precomputed via footprint.
func (g *Grid) ViaDisc() []Offset { return g.viaDisc }

// InBounds reports whether (x, y, layer) addresses a cell.
func (g *Grid) InBounds(x, y, layer int) bool {
	return x >= 0 && x < g.cols && y >= 0 && y < g.rows && layer >= 0 && layer < g.layers
}

// Index returns the slice index of an in-bounds cell.
func (g *Grid) Index(x, y, layer int) int {
	return layer*g.plane + y*g.cols + x
}

// Coords is the inverse of Index.
func (g *Grid) Coords(idx int) (x, y, layer int) {
	layer = idx / g.plane
	rem := idx % g.plane
	return rem % g.cols, rem / g.cols, layer
}

// At returns the cell at (x, y, layer). The second result is false for
// out-of-range coordinates, which callers treat as blocked.
func (g *Grid) At(x, y, layer int) (*Cell, bool) {
	if !g.InBounds(x, y, layer) {
		return nil, false
	}
	return &g.cells[g.Index(x, y, layer)], true
}

// CellAt returns the cell at a slice index from Index.
func (g *Grid) CellAt(idx int) *Cell {
	return &g.cells[idx]
}

// WorldToGrid converts a board coordinate to the nearest cell, clamped
// into the grid.
func (g *Grid) WorldToGrid(p routing.Point) (x, y int) {
	x, y = g.cellOf(p)
	return clamp(x, 0, g.cols-1), clamp(y, 0, g.rows-1)
}

// WorldToGridChecked is WorldToGrid without clamping: coordinates that do
// not round into the grid are reported as ErrOutOfRange.
func (g *Grid) WorldToGridChecked(p routing.Point) (x, y int, err error) {
	x, y = g.cellOf(p)
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return x, y, fmt.Errorf("grid: point %v outside %gx%g surface at %v: %w",
			p, g.Width(), g.Height(), g.origin, routing.ErrOutOfRange)
	}
	return x, y, nil
}

// GridToWorld returns the board coordinate of a cell centre. It only
// approximately inverts WorldToGrid.
func (g *Grid) GridToWorld(x, y int) routing.Point {
	return routing.Point{
		X: g.origin.X + float64(x)*g.rules.Resolution,
		Y: g.origin.Y + float64(y)*g.rules.Resolution,
	}
}

// Width returns the covered extent in mm along x.
func (g *Grid) Width() float64 { return float64(g.cols-1) * g.rules.Resolution }

// Height returns the covered extent in mm along y.
func (g *Grid) Height() float64 { return float64(g.rows-1) * g.rules.Resolution }

func (g *Grid) cellOf(p routing.Point) (int, int) {
	res := g.rules.Resolution
	return int(math.Round((p.X - g.origin.X) / res)), int(math.Round((p.Y - g.origin.Y) / res))
}

// Clone returns a deep copy sharing no state with g. Parallel trials each
// route on their own clone.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = append([]Cell(nil), g.cells...)
	c.blocked = append([]int32(nil), g.blocked...)
	return &c
}

// CopyFrom overwrites the cell state of g with that of src, which must
// have the same dimensions.
func (g *Grid) CopyFrom(src *Grid) error {
	if src.cols != g.cols || src.rows != g.rows || src.layers != g.layers {
		return fmt.Errorf("grid: copy from %dx%dx%d into %dx%dx%d: %w",
			src.cols, src.rows, src.layers, g.cols, g.rows, g.layers, routing.ErrOutOfRange)
	}
	copy(g.cells, src.cells)
	copy(g.blocked, src.blocked)
	return nil
}

// Occupancy summarizes cell states over all layers.
type Occupancy struct {
	Free      int
	Routed    int
	Obstacles int
}

// Stats counts free, route-occupied and obstacle cells.
func (g *Grid) Stats() Occupancy {
	var o Occupancy
	for i := range g.cells {
		c := &g.cells[i]
		switch {
		case c.Obstacle:
			o.Obstacles++
		case c.Blocked:
			o.Routed++
		default:
			o.Free++
		}
	}
	return o
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
