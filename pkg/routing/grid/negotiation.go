package grid

import "math"

// Negotiation state is session scoped: Usage is cleared every round by
// ResetUsage, History only ever grows until BeginSession clears it for a
// new, unrelated routing run.

// BeginSession clears usage and history on every cell. Occupancy is left
// untouched.
func (g *Grid) BeginSession() {
	for i := range g.cells {
		g.cells[i].Usage = 0
		g.cells[i].History = 0
	}
}

// ResetUsage zeroes the per-round usage counters.
func (g *Grid) ResetUsage() {
	for i := range g.cells {
		g.cells[i].Usage = 0
	}
}

// IncrementUsage records one more net covering (x, y, layer).
func (g *Grid) IncrementUsage(x, y, layer int) {
	if !g.InBounds(x, y, layer) {
		return
	}
	g.cells[g.Index(x, y, layer)].Usage++
}

// IncrementUsageAt is IncrementUsage by slice index, as returned by
// RouteCells.
func (g *Grid) IncrementUsageAt(idx int) {
	g.cells[idx].Usage++
}

// NegotiatedCost is the present-plus-history cost of entering a cell:
// pf*usage + history. Obstacles and out-of-range cells cost +Inf.
func (g *Grid) NegotiatedCost(x, y, layer int, pf float64) float64 {
	if !g.InBounds(x, y, layer) {
		return math.Inf(1)
	}
	return g.NegotiatedCostAt(g.Index(x, y, layer), pf)
}

// NegotiatedCostAt is NegotiatedCost by slice index.
func (g *Grid) NegotiatedCostAt(idx int, pf float64) float64 {
	c := &g.cells[idx]
	if c.Obstacle {
		return math.Inf(1)
	}
	return pf*float64(c.Usage) + float64(c.History)
}

// UpdateHistoryCosts adds inc to the history of every cell used by more
// than one net this round. Non-positive increments are ignored so history
// never decreases.
func (g *Grid) UpdateHistoryCosts(inc float64) {
	if !(inc > 0) {
		return
	}
	d := float32(inc)
	for i := range g.cells {
		if g.cells[i].Usage > 1 {
			g.cells[i].History += d
		}
	}
}

// TotalOverflow sums usage beyond one over all cells: a cell shared by
// two nets contributes 1, by three nets 2.
func (g *Grid) TotalOverflow() int {
	total := 0
	for i := range g.cells {
		if u := g.cells[i].Usage; u > 1 {
			total += int(u - 1)
		}
	}
	return total
}
