package negotiate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// connection is one two-terminal piece of a net.
type connection struct {
	a, b routing.Terminal
}

// decompose splits a net into two-terminal connections along a minimum
// spanning tree of its terminals, using Manhattan distance. Connections
// come out shortest first.
func decompose(n routing.Net) []connection {
	k := len(n.Terminals)
	if k == 2 {
		return []connection{{n.Terminals[0], n.Terminals[1]}}
	}

	// A tiny index-dependent offset makes every weight distinct, so the
	// tree is unique whatever order gonum visits the edges in.
	weight := func(i, j int) float64 {
		a, b := n.Terminals[i].Pos, n.Terminals[j].Pos
		return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y) + 1e-9*float64(i*k+j)
	}

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < k; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), weight(i, j)))
		}
	}

	mst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(mst, g)

	type edge struct {
		i, j int
		w    float64
	}
	var edges []edge
	it := mst.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		i, j := int(e.From().ID()), int(e.To().ID())
		if i > j {
			i, j = j, i
		}
		edges = append(edges, edge{i, j, e.Weight()})
	}
	sort.Slice(edges, func(a, b int) bool { return edges[a].w < edges[b].w })

	conns := make([]connection, len(edges))
	for x, e := range edges {
		conns[x] = connection{n.Terminals[e.i], n.Terminals[e.j]}
	}
	return conns
}
