package grid

// BlockSize is the edge length, in cells, of one congestion block.
const BlockSize = 8

func (g *Grid) blockIndex(idx int) int {
	x, y, layer := g.Coords(idx)
	return (layer*g.brows+y/BlockSize)*g.bcols + x/BlockSize
}

// blockCapacity is the number of grid cells inside a block; blocks on the
// right and bottom edges may be partial.
func (g *Grid) blockCapacity(bx, by int) int {
	w := min(BlockSize, g.cols-bx*BlockSize)
	h := min(BlockSize, g.rows-by*BlockSize)
	return w * h
}

// GetCongestion returns the fraction of blocked cells in the congestion
// block containing (x, y, layer), from 0 to 1. Out-of-range coordinates
// report full congestion.
func (g *Grid) GetCongestion(x, y, layer int) float64 {
	if !g.InBounds(x, y, layer) {
		return 1
	}
	bx, by := x/BlockSize, y/BlockSize
	n := g.blocked[(layer*g.brows+by)*g.bcols+bx]
	return float64(n) / float64(g.blockCapacity(bx, by))
}

// UpdateCongestion recomputes every block from the cells. The overlay is
// kept current incrementally by all marking calls; this is for callers
// that edit cells directly through At.
func (g *Grid) UpdateCongestion() {
	for i := range g.blocked {
		g.blocked[i] = 0
	}
	for i := range g.cells {
		if g.cells[i].Blocked {
			g.blocked[g.blockIndex(i)]++
		}
	}
}
