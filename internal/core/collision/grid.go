package collision

import (
	"math"

	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

// maxCellSpan caps how many cells one entity is filed under. Larger (or
// non-finite) bounds go on the wide list and are paired with everything.
const maxCellSpan = 1024

// grid is a uniform spatial hash used to prune candidate pairs. An entity is
// filed under every cell its collider bounds touch. Rebuilt every pass;
// accessed only from the game loop goroutine. No locks.
type grid struct {
	cellSize float64
	cells    map[cellKey][]int
	all      []int
	wide     []int
}

type cellKey struct {
	cx, cy int32
}

func newGrid(cellSize float64) *grid {
	if cellSize <= 0 {
		cellSize = 64
	}
	return &grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int, 256),
	}
}

func (g *grid) toCell(v float64) int32 {
	return int32(math.Floor(v / g.cellSize))
}

func (g *grid) reset() {
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}
	g.all = g.all[:0]
	g.wide = g.wide[:0]
}

// insert files entity index i under every cell touched by r.
func (g *grid) insert(i int, r geom.Rect) {
	g.all = append(g.all, i)
	if g.span(r) > maxCellSpan {
		g.wide = append(g.wide, i)
		return
	}
	x0, y0 := g.toCell(r.Min.X), g.toCell(r.Min.Y)
	x1, y1 := g.toCell(r.Max.X), g.toCell(r.Max.Y)
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			k := cellKey{cx: cx, cy: cy}
			g.cells[k] = append(g.cells[k], i)
		}
	}
}

// span is the number of cells r touches, +Inf when r is not finite.
func (g *grid) span(r geom.Rect) float64 {
	nx := math.Floor(r.Max.X/g.cellSize) - math.Floor(r.Min.X/g.cellSize) + 1
	ny := math.Floor(r.Max.Y/g.cellSize) - math.Floor(r.Min.Y/g.cellSize) + 1
	n := nx * ny
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return math.Inf(1)
	}
	for _, v := range []float64{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y} {
		if math.Abs(v/g.cellSize) >= math.MaxInt32 {
			return math.Inf(1)
		}
	}
	return n
}

// pairs returns each unordered index pair sharing at least one cell, once,
// with the lower index first, sorted. Wide entries pair with every entry.
func (g *grid) pairs() [][2]int {
	seen := make(map[[2]int]struct{}, 64)
	var out [][2]int
	add := func(a, b int) {
		if a == b {
			return
		}
		p := [2]int{a, b}
		if p[0] > p[1] {
			p[0], p[1] = p[1], p[0]
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, w := range g.wide {
		for _, i := range g.all {
			add(w, i)
		}
	}
	for _, idx := range g.cells {
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				add(idx[a], idx[b])
			}
		}
	}
	sortPairs(out)
	return out
}

// entityBounds is the union of an entity's active collider bounds.
func entityBounds(e *entity.Entity) (geom.Rect, bool) {
	var r geom.Rect
	found := false
	for _, c := range e.ActiveColliders() {
		col, _ := c.Collider()
		b := col.Bounds()
		if !found {
			r, found = b, true
			continue
		}
		r.Min.X = math.Min(r.Min.X, b.Min.X)
		r.Min.Y = math.Min(r.Min.Y, b.Min.Y)
		r.Max.X = math.Max(r.Max.X, b.Max.X)
		r.Max.Y = math.Max(r.Max.Y, b.Max.Y)
	}
	return r, found
}
