package render

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/geom"
)

// Canvas plots draw submissions onto a fixed grid of terminal cells, one cell
// per Scale world units, with the world origin at the top-left cell. Wide
// glyphs take two cells. Later submissions overwrite earlier ones, so draw
// order is respected.
type Canvas struct {
	Cols, Rows int
	Scale      float64

	cells []string
}

var _ component.Renderer = (*Canvas)(nil)

func NewCanvas(cols, rows int, scale float64) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	c := &Canvas{Cols: cols, Rows: rows, Scale: scale, cells: make([]string, cols*rows)}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = " "
	}
}

func (c *Canvas) toCell(p geom.Vec2) (int, int) {
	return int(math.Floor(p.X / c.Scale)), int(math.Floor(p.Y / c.Scale))
}

// put writes glyph at cell (x, y), clipping at the edges.
func (c *Canvas) put(x, y int, glyph string) int {
	if y < 0 || y >= c.Rows || x < 0 || x >= c.Cols || glyph == "" {
		return 1
	}
	w := runewidth.StringWidth(glyph)
	if w < 1 {
		w = 1
	}
	if x+w > c.Cols {
		return w
	}
	c.cells[y*c.Cols+x] = glyph
	for i := 1; i < w; i++ {
		c.cells[y*c.Cols+x+i] = ""
	}
	return w
}

func firstGlyph(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func (c *Canvas) DrawSprite(pos geom.Vec2, v *component.Visual) {
	x, y := c.toCell(pos)
	g := firstGlyph(v.Current())
	if g == "" {
		g = "*"
	}
	c.put(x, y, g)
}

func (c *Canvas) DrawTiles(pos geom.Vec2, m *component.TileMap) {
	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Cols; col++ {
			t, _ := m.TileAt(col, row)
			if t == 0 {
				continue
			}
			cell := pos.Add(geom.V(float64(col)*m.TileSize, float64(row)*m.TileSize))
			x, y := c.toCell(cell)
			c.put(x, y, "#")
		}
	}
}

func (c *Canvas) DrawShape(pos geom.Vec2, s *component.Shape) {
	x, y := c.toCell(pos)
	if s.Primitive == component.ShapeRect {
		c.put(x, y, "=")
		return
	}
	c.put(x, y, "o")
}

func (c *Canvas) DrawText(pos geom.Vec2, t *component.Text) {
	x, y := c.toCell(pos)
	for _, r := range t.Content() {
		x += c.put(x, y, string(r))
	}
}

// String renders the canvas rows joined by newlines, trailing blanks trimmed.
func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Rows; row++ {
		line := strings.Join(c.cells[row*c.Cols:(row+1)*c.Cols], "")
		b.WriteString(strings.TrimRight(line, " "))
		if row < c.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
