package component

import "github.com/l1jgo/stage/internal/core/geom"

// TileMap is one tile layer: a Cols×Rows grid of tile indices into Tileset.
// Index 0 is an empty cell.
type TileMap struct {
	Tileset  string
	Cols     int
	Rows     int
	TileSize float64
	Tiles    []int
}

func (*TileMap) Kind() Kind { return KindTileMap }
func (*TileMap) sealed()    {}

// NewTileMap creates an empty cols×rows layer.
func NewTileMap(tileset string, cols, rows int, tileSize float64) *TileMap {
	return &TileMap{
		Tileset:  tileset,
		Cols:     cols,
		Rows:     rows,
		TileSize: tileSize,
		Tiles:    make([]int, cols*rows),
	}
}

func (m *TileMap) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < m.Cols && row < m.Rows
}

// TileAt returns the tile index at (col, row).
func (m *TileMap) TileAt(col, row int) (int, bool) {
	if !m.inside(col, row) {
		return 0, false
	}
	return m.Tiles[row*m.Cols+col], true
}

// SetTile writes a tile index. Out-of-range cells report false.
func (m *TileMap) SetTile(col, row, tile int) bool {
	if !m.inside(col, row) {
		return false
	}
	m.Tiles[row*m.Cols+col] = tile
	return true
}

// Extent is the layer's local-space size.
func (m *TileMap) Extent() geom.Rect {
	return geom.RectAt(0, 0, float64(m.Cols)*m.TileSize, float64(m.Rows)*m.TileSize)
}

func (m *TileMap) document() map[string]any {
	return map[string]any{
		"tileset":   m.Tileset,
		"cols":      m.Cols,
		"rows":      m.Rows,
		"tile_size": m.TileSize,
		"tiles":     append([]int(nil), m.Tiles...),
	}
}
