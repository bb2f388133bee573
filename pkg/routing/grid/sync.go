package grid

import (
	"sync"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// SyncGrid guards a Grid for use from several goroutines. Each method is
// atomic on its own. A compound sequence such as "check the cells are
// free, then mark" must run inside Scope to be atomic as a whole.
//
// The plain Grid never locks; code that does not share a grid pays
// nothing.
type SyncGrid struct {
	mu sync.Mutex
	g  *Grid
}

// NewSync wraps g. The caller must stop using g directly.
func NewSync(g *Grid) *SyncGrid {
	return &SyncGrid{g: g}
}

// Scope runs fn with exclusive access to the grid and returns its error.
// fn must not retain the *Grid or call back into s.
func (s *SyncGrid) Scope(fn func(g *Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.g)
}

// Cell returns a copy of the cell at (x, y, layer).
func (s *SyncGrid) Cell(x, y, layer int) (Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.g.At(x, y, layer)
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

func (s *SyncGrid) MarkSegment(seg routing.Segment, radius int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.MarkSegment(seg, radius)
}

func (s *SyncGrid) UnmarkSegment(seg routing.Segment, radius int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.UnmarkSegment(seg, radius)
}

func (s *SyncGrid) MarkVia(via routing.Via, radius int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.MarkVia(via, radius)
}

func (s *SyncGrid) UnmarkVia(via routing.Via, radius int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.UnmarkVia(via, radius)
}

func (s *SyncGrid) MarkRoute(res routing.RouteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.MarkRoute(res)
}

func (s *SyncGrid) UnmarkRoute(res routing.RouteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.UnmarkRoute(res)
}

// Snapshot returns a private copy of the grid for a search to run on.
func (s *SyncGrid) Snapshot() *Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Clone()
}
