// Package collision runs the per-frame pairwise collider scan and turns the
// difference between two frames of overlap state into enter, stay and exit
// transitions.
package collision

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/contract"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/event"
)

// Separator joins the two identifiers of a pair key. It cannot occur in a
// UUID string.
const Separator = "|"

// PairKey is the canonical key for the unordered pair {a, b}: the two ids
// sorted lexicographically and joined. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}

// Broad-phase modes.
const (
	BroadPhaseGrid = "grid"
	BroadPhaseNone = "none"
)

type Config struct {
	// BroadPhase selects candidate pruning. Both modes give identical
	// results; "none" tests every pair.
	BroadPhase string
	// CellSize is the grid cell edge in world units.
	CellSize float64
	// StayEvents fires on_collision_stay every frame an overlap continues.
	StayEvents bool
}

// Transition is one delivered collision event, seen from Self.
type Transition struct {
	Phase component.Phase
	Key   string
	Self  *entity.Entity
	Peer  *entity.Entity
}

// Report summarizes one pass.
type Report struct {
	Candidates  int
	Overlaps    int
	Enter       int
	Stay        int
	Exit        int
	Transitions []Transition
}

// Engine is the collision pass. Single-goroutine access only (game loop).
type Engine struct {
	cfg    Config
	grid   *grid
	events *event.Bus
	log    *zap.Logger
}

func NewEngine(cfg Config, events *event.Bus, log *zap.Logger) *Engine {
	if cfg.BroadPhase == "" {
		cfg.BroadPhase = BroadPhaseGrid
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		grid:   newGrid(cfg.CellSize),
		events: events,
		log:    log,
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Detect runs one collision pass over entities. Only active entities are
// scanned, but every entity passed in has its state diffed and swapped, so an
// entity that went inactive still sees its exits. Call it once per frame,
// after all entity updates.
func (e *Engine) Detect(entities []*entity.Entity) Report {
	var rep Report
	scan := make([]*entity.Entity, 0, len(entities))
	seen := make(map[*entity.Entity]struct{}, len(entities))
	for i, ent := range entities {
		if !contract.Require(ent != nil, "collision: nil entity at index %d", i) {
			continue
		}
		if _, dup := seen[ent]; dup {
			continue
		}
		seen[ent] = struct{}{}
		if ent.Active && !ent.Destroyed() {
			scan = append(scan, ent)
		}
	}

	for _, p := range e.candidates(scan) {
		a, b := scan[p[0]], scan[p[1]]
		rep.Candidates++
		if !Colliding(a, b) {
			continue
		}
		key := PairKey(a.ID().String(), b.ID().String())
		a.MarkCollision(key, b)
		b.MarkCollision(key, a)
		rep.Overlaps++
	}

	sent := newEmitted()
	for _, ent := range entities {
		if ent == nil || ent.Destroyed() {
			continue
		}
		e.fire(ent, &rep, sent)
	}
	for _, ent := range entities {
		if ent != nil {
			ent.SwapCollisions()
		}
	}

	if rep.Enter > 0 || rep.Exit > 0 {
		e.log.Debug("collision pass",
			zap.Int("candidates", rep.Candidates),
			zap.Int("overlaps", rep.Overlaps),
			zap.Int("enter", rep.Enter),
			zap.Int("exit", rep.Exit))
	}
	return rep
}

// Colliding reports whether any active collider of a overlaps any active
// collider of b. An entity never collides with itself.
func Colliding(a, b *entity.Entity) bool {
	if !contract.Require(a != nil && b != nil, "collision: nil entity") {
		return false
	}
	if a == b {
		return false
	}
	ca := a.ActiveColliders()
	if len(ca) == 0 {
		return false
	}
	cb := b.ActiveColliders()
	if len(cb) == 0 {
		return false
	}
	for _, x := range ca {
		for _, y := range cb {
			if component.DetectCollision(x, y) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) candidates(scan []*entity.Entity) [][2]int {
	if e.cfg.BroadPhase == BroadPhaseNone {
		var out [][2]int
		for i := 0; i < len(scan); i++ {
			if !scan[i].HasActiveCollider() {
				continue
			}
			for j := i + 1; j < len(scan); j++ {
				out = append(out, [2]int{i, j})
			}
		}
		return out
	}
	e.grid.reset()
	for i, ent := range scan {
		if r, ok := entityBounds(ent); ok {
			e.grid.insert(i, r)
		}
	}
	return e.grid.pairs()
}

// fire delivers ent's transitions: enters, then stays, then exits, each in
// key order. Delivery stops as soon as a handler destroys ent.
func (e *Engine) fire(ent *entity.Entity, rep *Report, sent *emitted) {
	entered, stayed, exited := ent.CollisionDiff()
	for _, c := range entered {
		if ent.Destroyed() {
			return
		}
		e.deliver(rep, component.PhaseEnter, c.Key, ent, c.Peer)
		rep.Enter++
		if a, b, ok := sent.claim(sent.enter, c.Key, ent, c.Peer); ok {
			event.Emit(e.events, event.CollisionEntered{Key: c.Key, A: a, B: b})
		}
	}
	if e.cfg.StayEvents {
		for _, c := range stayed {
			if ent.Destroyed() {
				return
			}
			e.deliver(rep, component.PhaseStay, c.Key, ent, c.Peer)
			rep.Stay++
		}
	}
	for _, c := range exited {
		if ent.Destroyed() {
			return
		}
		e.deliver(rep, component.PhaseExit, c.Key, ent, c.Peer)
		rep.Exit++
		if a, b, ok := sent.claim(sent.exit, c.Key, ent, c.Peer); ok {
			event.Emit(e.events, event.CollisionExited{Key: c.Key, A: a, B: b})
		}
	}
}

func (e *Engine) deliver(rep *Report, p component.Phase, key string, self, peer *entity.Entity) {
	rep.Transitions = append(rep.Transitions, Transition{Phase: p, Key: key, Self: self, Peer: peer})
	self.NotifyCollision(p, peer)
}

// emitted tracks the pair keys already reported on the event bus this pass,
// so each pair is reported once whichever side fires first.
type emitted struct {
	enter map[string]struct{}
	exit  map[string]struct{}
}

func newEmitted() *emitted {
	return &emitted{enter: map[string]struct{}{}, exit: map[string]struct{}{}}
}

// claim marks key in set and returns the pair ordered by id. It reports
// false if key was already claimed.
func (*emitted) claim(set map[string]struct{}, key string, self, peer *entity.Entity) (a, b uuid.UUID, ok bool) {
	if _, dup := set[key]; dup {
		return uuid.Nil, uuid.Nil, false
	}
	set[key] = struct{}{}
	a = self.ID()
	if peer == nil {
		return a, uuid.Nil, true
	}
	b = peer.ID()
	if b.String() < a.String() {
		a, b = b, a
	}
	return a, b, true
}

func sortPairs(ps [][2]int) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i][0] != ps[j][0] {
			return ps[i][0] < ps[j][0]
		}
		return ps[i][1] < ps[j][1]
	})
}
