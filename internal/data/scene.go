package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

// SceneEntry places one prefab instance.
type SceneEntry struct {
	Prefab string  `yaml:"prefab"`
	Name   string  `yaml:"name"` // overrides the prefab name when set
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

// LoadScene loads a scene spawn list.
func LoadScene(path string) ([]SceneEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var entries []SceneEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return entries, nil
}

// SpawnScene spawns every entry in order and returns the entities created.
// It stops at the first failure.
func (t *PrefabTable) SpawnScene(w *entity.World, entries []SceneEntry, scripts Behaviors) ([]*entity.Entity, error) {
	out := make([]*entity.Entity, 0, len(entries))
	for i, se := range entries {
		e, err := t.Spawn(w, se.Prefab, geom.V(se.X, se.Y), scripts)
		if err != nil {
			return out, fmt.Errorf("scene entry %d: %w", i, err)
		}
		if se.Name != "" {
			e.Name = se.Name
		}
		out = append(out, e)
	}
	return out, nil
}
