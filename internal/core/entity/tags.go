package entity

import (
	"slices"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Tags are interned so that every entity carrying "enemy" shares one string.
var (
	internMu sync.Mutex
	interned = make(map[string]string, 64)
)

func intern(tag string) string {
	tag = norm.NFC.String(tag)
	internMu.Lock()
	defer internMu.Unlock()
	if s, ok := interned[tag]; ok {
		return s
	}
	interned[tag] = tag
	return tag
}

// AddTag adds tag. Empty and duplicate tags are rejected.
func (e *Entity) AddTag(tag string) bool {
	if tag == "" || e.destroyed {
		return false
	}
	tag = intern(tag)
	if slices.Contains(e.tags, tag) {
		return false
	}
	e.tags = append(e.tags, tag)
	return true
}

// RemoveTag removes tag, reporting whether it was present.
func (e *Entity) RemoveTag(tag string) bool {
	i := slices.Index(e.tags, norm.NFC.String(tag))
	if i < 0 {
		return false
	}
	e.tags = slices.Delete(e.tags, i, i+1)
	return true
}

func (e *Entity) HasTag(tag string) bool {
	return slices.Contains(e.tags, norm.NFC.String(tag))
}

// Tags returns a copy of the tags in insertion order.
func (e *Entity) Tags() []string { return slices.Clone(e.tags) }
