package astar

// openItem is an open-set entry. Entries are never updated in place: a
// cheaper route to a state pushes a new entry and the stale one is skipped
// when popped.
type openItem struct {
	node node
	seq  uint64
}

type openSet []openItem

func (q openSet) Len() int { return len(q) }

func (q openSet) Less(i, j int) bool {
	a, b := &q[i], &q[j]
	if a.node.f != b.node.f {
		return a.node.f < b.node.f
	}
	// deeper first: among equal f, the entry closer to the goal
	if a.node.g != b.node.g {
		return a.node.g > b.node.g
	}
	return a.seq < b.seq
}

func (q openSet) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *openSet) Push(x any) {
	*q = append(*q, x.(openItem))
}

func (q *openSet) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
