package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

const prefabsYAML = `
prefabs:
  - name: ball
    draw_order: 2
    persistent: true
    tags: [bouncy, round]
    components:
      - type: collider
        shape: circle
        radius: 4
        layer: 1
        mask: 2
      - type: visual
        frames: [ball0.png, ball1.png]
        frame_time: 100ms
        loop: true
      - type: text
        content: "hi"
        font: mono
        font_size: 12
  - name: floor
    hidden: true
    components:
      - type: tilemap
        tileset: ground.png
        cols: 2
        rows: 2
        tile_size: 16
        tiles: [1, 0, 0, 2]
      - type: shape
        shape: rect
        size: [32, 32]
        filled: false
        active: false
  - name: walker
    components:
      - type: script
        behavior: walk
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type fakeBehaviors struct {
	asked []string
}

func (f *fakeBehaviors) NewBehavior(name string) (*component.Script, error) {
	f.asked = append(f.asked, name)
	return component.NewScript(nil, name, component.ScriptHandle(len(f.asked))), nil
}

func TestLoadPrefabTable(t *testing.T) {
	tbl, err := LoadPrefabTable(writeFile(t, "prefabs.yaml", prefabsYAML))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Count())
	require.Equal(t, []string{"ball", "floor", "walker"}, tbl.Names())
	require.Nil(t, tbl.Get("nope"))
	require.Equal(t, 100*time.Millisecond, tbl.Get("ball").Components[1].FrameTime)
}

func TestLoadPrefabTableErrors(t *testing.T) {
	_, err := LoadPrefabTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read prefabs")

	_, err = LoadPrefabTable(writeFile(t, "p.yaml", "prefabs:\n  - name: a\n  - name: a\n"))
	require.ErrorContains(t, err, "duplicate")

	_, err = LoadPrefabTable(writeFile(t, "p.yaml", "prefabs:\n  - name: a\n    components:\n      - type: laser\n"))
	require.ErrorContains(t, err, "unknown type")
}

func TestSpawnPrefab(t *testing.T) {
	tbl, err := LoadPrefabTable(writeFile(t, "prefabs.yaml", prefabsYAML))
	require.NoError(t, err)
	w := entity.NewWorld(nil)

	ball, err := tbl.Spawn(w, "ball", geom.V(10, 20), nil)
	require.NoError(t, err)
	require.Equal(t, "ball", ball.Name)
	require.Equal(t, 2, ball.DrawOrder)
	require.True(t, ball.Persistent)
	require.True(t, ball.HasTag("round"))
	require.Equal(t, geom.V(10, 20), ball.Position())
	require.Len(t, ball.Components(), 3)

	col, ok := ball.Components()[0].Collider()
	require.True(t, ok)
	require.Equal(t, geom.RectAt(6, 16, 8, 8), col.Bounds())
	require.Equal(t, uint32(2), col.Mask)

	floor, err := tbl.Spawn(w, "floor", geom.Vec2{}, nil)
	require.NoError(t, err)
	require.False(t, floor.Visible)
	tm := floor.ComponentsOf(component.KindTileMap)[0].Variant().(*component.TileMap)
	tile, ok := tm.TileAt(1, 1)
	require.True(t, ok)
	require.Equal(t, 2, tile)
	require.False(t, floor.ComponentsOf(component.KindShape)[0].Active)

	_, err = tbl.Spawn(w, "ghost", geom.Vec2{}, nil)
	require.ErrorIs(t, err, ErrUnknownPrefab)
}

func TestSpawnScriptPrefab(t *testing.T) {
	tbl, err := LoadPrefabTable(writeFile(t, "prefabs.yaml", prefabsYAML))
	require.NoError(t, err)
	w := entity.NewWorld(nil)

	_, err = tbl.Spawn(w, "walker", geom.Vec2{}, nil)
	require.ErrorContains(t, err, "no scripting runtime")
	require.Empty(t, w.Live(), "failed spawn is destroyed")

	fb := &fakeBehaviors{}
	e, err := tbl.Spawn(w, "walker", geom.Vec2{}, fb)
	require.NoError(t, err)
	require.Equal(t, []string{"walk"}, fb.asked)
	require.Len(t, e.ComponentsOf(component.KindScript), 1)
}

func TestSpawnScene(t *testing.T) {
	tbl, err := LoadPrefabTable(writeFile(t, "prefabs.yaml", prefabsYAML))
	require.NoError(t, err)
	scene, err := LoadScene(writeFile(t, "scene.yaml", `
- prefab: ball
  name: left
  x: -5
- prefab: ball
  x: 5
- prefab: floor
`))
	require.NoError(t, err)

	w := entity.NewWorld(nil)
	spawned, err := tbl.SpawnScene(w, scene, nil)
	require.NoError(t, err)
	require.Len(t, spawned, 3)
	require.Equal(t, "left", spawned[0].Name)
	require.Equal(t, "ball", spawned[1].Name)
	require.Equal(t, geom.V(5, 0), spawned[1].Position())
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := entity.NewWorld(nil)
	e := w.Spawn()
	e.Name = "probe"
	require.NoError(t, e.AddComponent(component.New(component.NewCircleCollider(2))))

	path := filepath.Join(t.TempDir(), "snap.yaml")
	snap := &Snapshot{Taken: time.Unix(1700000000, 0).UTC(), Tick: 42, Entities: []map[string]any{e.Document()}}
	require.NoError(t, WriteSnapshot(path, snap))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.Tick)
	require.True(t, snap.Taken.Equal(got.Taken))
	require.Len(t, got.Entities, 1)
	require.Equal(t, "probe", got.Entities[0]["name"])
	require.Equal(t, e.ID().String(), got.Entities[0]["id"])
	require.Len(t, got.Entities[0]["components"], 1)
}
