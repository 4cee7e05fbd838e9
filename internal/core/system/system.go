package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents     Phase = iota // 0: deliver last tick's engine events
	PhaseUpdate                  // 1: entity and behavior updates
	PhaseCollision               // 2: pairwise scan, enter/stay/exit
	PhasePostUpdate              // 3: draw list, stats
	PhasePersist                 // 4: periodic save
	PhaseCleanup                 // 5: collect script handles, reclaim entities
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseUpdate:
		return "update"
	case PhaseCollision:
		return "collision"
	case PhasePostUpdate:
		return "post_update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every engine system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
