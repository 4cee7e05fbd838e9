package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is a point-in-time dump of the scene, one document per entity.
type Snapshot struct {
	Taken    time.Time        `yaml:"taken"`
	Tick     uint64           `yaml:"tick"`
	Entities []map[string]any `yaml:"entities"`
}

// WriteSnapshot writes s to path as yaml, replacing the file atomically.
func WriteSnapshot(path string, s *Snapshot) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by WriteSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &s, nil
}
