package grid

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

func TestCongestion(t *testing.T) {
	g := newTestGrid(t, 19, 1) // 20x20: blocks of 8, 8, 4 cells

	if got := g.GetCongestion(0, 0, 0); got != 0 {
		t.Errorf("empty grid congestion = %g", got)
	}

	g.MarkRectBlocked(pt(0, 0), pt(7, 3), 0, 1)
	if got := g.GetCongestion(5, 5, 0); got != 0.5 {
		t.Errorf("half-full block congestion = %g, want 0.5", got)
	}

	// partial edge block: 4x8 = 32 cells
	g.MarkRectBlocked(pt(16, 0), pt(19, 3), 0, 1)
	if got := g.GetCongestion(18, 7, 0); got != 0.5 {
		t.Errorf("edge block congestion = %g, want 0.5", got)
	}

	if got := g.GetCongestion(-1, 0, 0); got != 1 {
		t.Errorf("out-of-range congestion = %g, want 1", got)
	}

	incremental := append([]int32(nil), g.blocked...)
	g.UpdateCongestion()
	if diff := cmp.Diff(incremental, g.blocked); diff != "" {
		t.Errorf("incremental overlay differs from recompute:\n%s", diff)
	}

	// direct edits are picked up by a recompute
	c, _ := g.At(10, 10, 0)
	c.Blocked = true
	g.UpdateCongestion()
	if got := g.GetCongestion(10, 10, 0); got != 1.0/64 {
		t.Errorf("after recompute congestion = %g, want 1/64", got)
	}
}

func TestNegotiatedCost(t *testing.T) {
	g := newTestGrid(t, 9, 2)
	g.MarkBlocked(1, 1, 0, 2)

	if got := g.NegotiatedCost(1, 1, 0, 1); !math.IsInf(got, 1) {
		t.Errorf("obstacle cost = %g, want +Inf", got)
	}
	if got := g.NegotiatedCost(-1, 1, 0, 1); !math.IsInf(got, 1) {
		t.Errorf("out-of-range cost = %g, want +Inf", got)
	}

	g.IncrementUsage(3, 3, 1)
	g.IncrementUsage(3, 3, 1)
	g.IncrementUsage(3, 3, 1)
	g.IncrementUsage(5, 5, 1)
	g.IncrementUsage(-4, 5, 1)
	if got := g.NegotiatedCost(3, 3, 1, 0.5); got != 1.5 {
		t.Errorf("cost = %g, want 1.5", got)
	}
	if got := g.TotalOverflow(); got != 2 {
		t.Errorf("TotalOverflow() = %d, want 2", got)
	}

	g.UpdateHistoryCosts(2)
	c, _ := g.At(3, 3, 1)
	if c.History != 2 {
		t.Errorf("overused history = %g, want 2", c.History)
	}
	if c5, _ := g.At(5, 5, 1); c5.History != 0 {
		t.Errorf("singly used cell gained history %g", c5.History)
	}
	if got := g.NegotiatedCost(3, 3, 1, 0.5); got != 3.5 {
		t.Errorf("cost with history = %g, want 3.5", got)
	}
}

func TestHistoryIsMonotonic(t *testing.T) {
	g := newTestGrid(t, 9, 1)
	prev := float32(0)
	for round := 0; round < 5; round++ {
		g.ResetUsage()
		if round%2 == 0 {
			g.IncrementUsage(2, 2, 0)
			g.IncrementUsage(2, 2, 0)
		}
		g.UpdateHistoryCosts(1)
		g.UpdateHistoryCosts(-3)
		c, _ := g.At(2, 2, 0)
		if c.History < prev {
			t.Fatalf("round %d: history fell from %g to %g", round, prev, c.History)
		}
		prev = c.History
	}
	if prev != 3 {
		t.Errorf("final history = %g, want 3", prev)
	}
}

func TestResetUsageKeepsHistory(t *testing.T) {
	g := newTestGrid(t, 9, 1)
	g.IncrementUsage(4, 4, 0)
	g.IncrementUsage(4, 4, 0)
	g.UpdateHistoryCosts(1)

	g.ResetUsage()
	c, _ := g.At(4, 4, 0)
	if c.Usage != 0 || c.History != 1 {
		t.Errorf("after ResetUsage cell = %+v", *c)
	}
	if g.TotalOverflow() != 0 {
		t.Errorf("overflow after reset = %d", g.TotalOverflow())
	}

	g.BeginSession()
	if c.Usage != 0 || c.History != 0 {
		t.Errorf("after BeginSession cell = %+v", *c)
	}
}

func TestBeginSessionKeepsOccupancy(t *testing.T) {
	g := newTestGrid(t, 9, 1)
	g.MarkBlocked(0, 0, 0, 1)
	g.MarkSegment(routing.Segment{Start: pt(0, 5), End: pt(9, 5), Net: 2}, 0)
	before := g.Stats()

	g.BeginSession()

	if diff := cmp.Diff(before, g.Stats()); diff != "" {
		t.Errorf("occupancy changed (-before +after):\n%s", diff)
	}
}
