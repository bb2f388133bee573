package astar

// scoreStore tracks the best known cost to each state and which states
// have been closed during one search. States are grid cell indices.
type scoreStore interface {
	reset(size int)
	best(idx int) (float64, bool)
	set(idx int, g float64)
	closed(idx int) bool
	close(idx int)
}

type mapStore struct {
	g         map[int]float64
	closedSet map[int]struct{}
}

func newMapStore() *mapStore {
	return &mapStore{}
}

func (s *mapStore) reset(int) {
	s.g = make(map[int]float64)
	s.closedSet = make(map[int]struct{})
}

func (s *mapStore) best(idx int) (float64, bool) {
	v, ok := s.g[idx]
	return v, ok
}

func (s *mapStore) set(idx int, g float64) { s.g[idx] = g }

func (s *mapStore) closed(idx int) bool {
	_, ok := s.closedSet[idx]
	return ok
}

func (s *mapStore) close(idx int) { s.closedSet[idx] = struct{}{} }

// denseStore keeps grid-sized arrays across searches. An entry is valid
// only when its stamp equals the current generation, so a reset is O(1).
type denseStore struct {
	g       []float64
	gStamp  []uint32
	cStamp  []uint32
	current uint32
}

func newDenseStore() *denseStore {
	return &denseStore{}
}

func (s *denseStore) reset(size int) {
	if len(s.g) != size {
		s.g = make([]float64, size)
		s.gStamp = make([]uint32, size)
		s.cStamp = make([]uint32, size)
		s.current = 0
	}
	s.current++
	if s.current == 0 {
		// generation counter wrapped, stale stamps could collide
		clear(s.gStamp)
		clear(s.cStamp)
		s.current = 1
	}
}

func (s *denseStore) best(idx int) (float64, bool) {
	if s.gStamp[idx] != s.current {
		return 0, false
	}
	return s.g[idx], true
}

func (s *denseStore) set(idx int, g float64) {
	s.g[idx] = g
	s.gStamp[idx] = s.current
}

func (s *denseStore) closed(idx int) bool { return s.cStamp[idx] == s.current }

func (s *denseStore) close(idx int) { s.cStamp[idx] = s.current }
