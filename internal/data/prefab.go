package data

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

// ErrUnknownPrefab is returned when a scene references a missing prefab.
var ErrUnknownPrefab = errors.New("unknown prefab")

// ComponentSpec describes one component of a prefab. Type selects the
// variant; only the fields of that variant are read.
type ComponentSpec struct {
	Type   string `yaml:"type"`
	Active *bool  `yaml:"active"`

	// collider / shape
	Shape  string     `yaml:"shape"` // "circle" or "rect"
	Radius float64    `yaml:"radius"`
	Size   [2]float64 `yaml:"size"`
	Offset [2]float64 `yaml:"offset"`
	Layer  uint32     `yaml:"layer"`
	Mask   uint32     `yaml:"mask"`
	Color  uint32     `yaml:"color"`
	Filled *bool      `yaml:"filled"`

	// visual
	Sprite    string        `yaml:"sprite"`
	Frames    []string      `yaml:"frames"`
	FrameTime time.Duration `yaml:"frame_time"`
	Loop      bool          `yaml:"loop"`

	// text
	Content  string  `yaml:"content"`
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"font_size"`

	// tilemap
	Tileset  string  `yaml:"tileset"`
	Cols     int     `yaml:"cols"`
	Rows     int     `yaml:"rows"`
	TileSize float64 `yaml:"tile_size"`
	Tiles    []int   `yaml:"tiles"`

	// script
	Behavior string `yaml:"behavior"`
}

// Prefab is an entity template.
type Prefab struct {
	Name       string          `yaml:"name"`
	DrawOrder  int             `yaml:"draw_order"`
	Persistent bool            `yaml:"persistent"`
	Hidden     bool            `yaml:"hidden"`
	Tags       []string        `yaml:"tags"`
	Components []ComponentSpec `yaml:"components"`
}

// Behaviors creates script behavior instances by name.
type Behaviors interface {
	NewBehavior(name string) (*component.Script, error)
}

// PrefabTable provides lookup of entity templates by name.
type PrefabTable struct {
	prefabs map[string]*Prefab
}

type prefabFile struct {
	Prefabs []Prefab `yaml:"prefabs"`
}

// LoadPrefabTable loads a prefab yaml file.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefabs: %w", err)
	}
	var f prefabFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prefabs: %w", err)
	}
	t := &PrefabTable{
		prefabs: make(map[string]*Prefab, len(f.Prefabs)),
	}
	for i := range f.Prefabs {
		p := &f.Prefabs[i]
		if p.Name == "" {
			return nil, fmt.Errorf("parse prefabs: entry %d has no name", i)
		}
		if _, dup := t.prefabs[p.Name]; dup {
			return nil, fmt.Errorf("parse prefabs: duplicate prefab %q", p.Name)
		}
		for j := range p.Components {
			if _, ok := component.ParseKind(p.Components[j].Type); !ok {
				return nil, fmt.Errorf("prefab %s: component %d: unknown type %q", p.Name, j, p.Components[j].Type)
			}
		}
		t.prefabs[p.Name] = p
	}
	return t, nil
}

// Get returns the prefab by name, or nil if none.
func (t *PrefabTable) Get(name string) *Prefab {
	return t.prefabs[name]
}

// Count returns the total number of prefabs loaded.
func (t *PrefabTable) Count() int {
	return len(t.prefabs)
}

// Names lists the prefab names, sorted.
func (t *PrefabTable) Names() []string {
	out := make([]string, 0, len(t.prefabs))
	for name := range t.prefabs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Spawn creates an entity from the named prefab at pos. Script components
// need a non-nil scripts factory. On error the half-built entity is
// destroyed.
func (t *PrefabTable) Spawn(w *entity.World, name string, pos geom.Vec2, scripts Behaviors) (*entity.Entity, error) {
	p := t.Get(name)
	if p == nil {
		return nil, fmt.Errorf("spawn %q: %w", name, ErrUnknownPrefab)
	}
	e := w.Spawn()
	e.Name = p.Name
	e.DrawOrder = p.DrawOrder
	e.Persistent = p.Persistent
	e.Visible = !p.Hidden
	for _, tag := range p.Tags {
		e.AddTag(tag)
	}
	e.SetPosition(pos)
	for i := range p.Components {
		c, err := BuildComponent(&p.Components[i], scripts)
		if err == nil {
			err = e.AddComponent(c)
		}
		if err != nil {
			e.Destroy()
			return nil, fmt.Errorf("spawn %q component %d: %w", name, i, err)
		}
	}
	return e, nil
}

// BuildComponent turns a spec into an unattached component.
func BuildComponent(s *ComponentSpec, scripts Behaviors) (*component.Component, error) {
	kind, ok := component.ParseKind(s.Type)
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", s.Type)
	}
	var v component.Variant
	switch kind {
	case component.KindCollider:
		var col *component.Collider
		switch s.Shape {
		case "", "circle":
			col = component.NewCircleCollider(s.Radius)
		case "rect":
			col = component.NewBoxCollider(s.Size[0], s.Size[1])
		default:
			return nil, fmt.Errorf("collider shape %q", s.Shape)
		}
		col.Offset = geom.V(s.Offset[0], s.Offset[1])
		col.Layer, col.Mask = s.Layer, s.Mask
		v = col
	case component.KindVisual:
		if len(s.Frames) > 0 {
			v = component.NewAnimation(s.Frames, s.FrameTime, s.Loop)
		} else {
			v = component.NewVisual(s.Sprite)
		}
	case component.KindTileMap:
		m := component.NewTileMap(s.Tileset, s.Cols, s.Rows, s.TileSize)
		if len(s.Tiles) > 0 && len(s.Tiles) != s.Cols*s.Rows {
			return nil, fmt.Errorf("tilemap %s: %d tiles for %dx%d", s.Tileset, len(s.Tiles), s.Cols, s.Rows)
		}
		copy(m.Tiles, s.Tiles)
		v = m
	case component.KindShape:
		var sh *component.Shape
		switch s.Shape {
		case "", "circle":
			sh = component.NewCircleShape(s.Radius, s.Color)
		case "rect":
			sh = component.NewRectShape(s.Size[0], s.Size[1], s.Color)
		default:
			return nil, fmt.Errorf("shape primitive %q", s.Shape)
		}
		if s.Filled != nil {
			sh.Filled = *s.Filled
		}
		v = sh
	case component.KindText:
		v = component.NewText(s.Content, s.Font, s.FontSize)
	case component.KindScript:
		if scripts == nil {
			return nil, fmt.Errorf("script %q: no scripting runtime", s.Behavior)
		}
		sc, err := scripts.NewBehavior(s.Behavior)
		if err != nil {
			return nil, err
		}
		v = sc
	}
	c := component.New(v)
	if s.Active != nil {
		c.Active = *s.Active
	}
	return c, nil
}
