package event

import "github.com/google/uuid"

type EntitySpawned struct {
	EntityID uuid.UUID
}

type EntityDestroyed struct {
	EntityID   uuid.UUID
	Name       string
	Persistent bool
}

// CollisionEntered is emitted once per unordered pair, with A < B by id.
type CollisionEntered struct {
	Key  string
	A, B uuid.UUID
}

type CollisionExited struct {
	Key  string
	A, B uuid.UUID
}
