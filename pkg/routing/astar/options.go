// Package astar finds minimum-cost copper paths for one connection over a
// routing grid.
//
// The search state is (x, y, layer). From each state the pathfinder tries,
// in this fixed order: the four orthogonal moves, the four diagonals (when
// enabled), then a via to every other routable layer in ascending order.
// Together with the open-set tie-break (lowest f, then highest g, then
// oldest entry) this makes every search deterministic.
package astar

import "runtime"

// StoreKind selects how per-search scores are kept.
type StoreKind int

const (
	// StoreReference keeps scores in maps sized by what the search visits.
	StoreReference StoreKind = iota
	// StoreDense keeps scores in grid-sized arrays reused across searches.
	// Results are identical to StoreReference.
	StoreDense
)

func (k StoreKind) String() string {
	switch k {
	case StoreReference:
		return "reference"
	case StoreDense:
		return "dense"
	}
	return "unknown"
}

// Options defines parameters fixed for the lifetime of a Pathfinder.
type Options struct {
	Diagonal        bool
	HeuristicWeight float64
	IterationFactor int
	// IterationBudget, when positive, replaces IterationFactor with a
	// fixed number of expansions.
	IterationBudget int
	// Layers restricts routing to these layers. Empty means every layer.
	Layers []int
	Store  StoreKind
}

// Option is a function that modifies Options.
type Option func(*Options)

// DefaultIterationFactor scales the per-search expansion budget with the
// number of grid cells.
const DefaultIterationFactor = 4

func defaultOptions() Options {
	return Options{
		Diagonal:        true,
		HeuristicWeight: 1,
		IterationFactor: DefaultIterationFactor,
		Store:           StoreReference,
	}
}

// WithDiagonal enables or disables 45 degree moves. Without diagonals the
// heuristic is Manhattan distance, with them octile distance.
func WithDiagonal(on bool) Option {
	return func(o *Options) { o.Diagonal = on }
}

// WithHeuristicWeight scales the heuristic by w. A weight above 1 makes
// the search bounded-suboptimal: it expands fewer nodes and the cost of the
// returned path is at most w times the optimum. Weights below 1 are raised
// to 1.
func WithHeuristicWeight(w float64) Option {
	return func(o *Options) {
		if !(w >= 1) {
			w = 1
		}
		o.HeuristicWeight = w
	}
}

// WithIterationFactor sets the expansion budget to k times the grid cell
// count. The budget bounds worst-case runtime on unroutable topologies.
func WithIterationFactor(k int) Option {
	return func(o *Options) {
		if k < 1 {
			k = DefaultIterationFactor
		}
		o.IterationFactor = k
	}
}

// WithIterationBudget caps every search at n expansions regardless of
// grid size.
func WithIterationBudget(n int) Option {
	return func(o *Options) { o.IterationBudget = n }
}

// WithLayers restricts routing to the given layers.
func WithLayers(layers ...int) Option {
	return func(o *Options) { o.Layers = append([]int(nil), layers...) }
}

// WithStore selects the score store implementation.
func WithStore(k StoreKind) Option {
	return func(o *Options) { o.Store = k }
}

// DefaultWorkers is the number of searches worth running in parallel,
// each on its own Pathfinder and grid.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}
