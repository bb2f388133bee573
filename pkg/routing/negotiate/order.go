package negotiate

import (
	"math/rand/v2"
	"sort"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// Order is a net ordering policy. Ordering only affects how fast the loop
// converges, never whether a result is valid.
type Order string

const (
	// OrderPriority routes higher Priority first, then lower net id.
	OrderPriority Order = "priority"
	// OrderComplexity routes nets with the smallest terminal bounding box
	// first, then lower net id.
	OrderComplexity Order = "complexity"
	// OrderDeclared keeps the caller's order.
	OrderDeclared Order = "declared"
	// OrderShuffled permutes nets with Config.Seed, reshuffling each round.
	OrderShuffled Order = "shuffled"
)

// sequence returns indices into nets in routing order for one round.
func (o Order) sequence(nets []routing.Net, seed uint64, round int) []int {
	idx := make([]int, len(nets))
	for i := range idx {
		idx[i] = i
	}

	switch o {
	case OrderPriority:
		sort.SliceStable(idx, func(a, b int) bool {
			na, nb := nets[idx[a]], nets[idx[b]]
			if na.Priority != nb.Priority {
				return na.Priority > nb.Priority
			}
			return na.ID < nb.ID
		})
	case OrderComplexity:
		hp := make([]float64, len(nets))
		for i, n := range nets {
			hp[i] = n.HalfPerimeter()
		}
		sort.SliceStable(idx, func(a, b int) bool {
			if hp[idx[a]] != hp[idx[b]] {
				return hp[idx[a]] < hp[idx[b]]
			}
			return nets[idx[a]].ID < nets[idx[b]].ID
		})
	case OrderShuffled:
		rng := rand.New(rand.NewPCG(seed, uint64(round)))
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
	}
	return idx
}
