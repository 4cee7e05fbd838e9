package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
	"github.com/l1jgo/stage/internal/core/lifetime"
	"github.com/l1jgo/stage/internal/core/pubsub"
)

const walkerLua = `
local stage = require("stage")
local walker = {}

function walker.update(self, dt)
  self.ticks = (self.ticks or 0) + 1
  stage.move(self, 1, 0)
end

function walker.on_collision_enter(self, peer)
  self.last_peer = peer.name
  stage.add_tag(self, "hit")
end

return walker
`

const listenerLua = `
local stage = require("stage")
local listener = {}

function listener.start(self)
  stage.subscribe(self, "score", "on_score")
end

function listener.on_score(self, topic, payload)
  self.total = (self.total or 0) + payload.points
  stage.set_position(self, self.total, 0)
end

function listener.quit(self)
  stage.unsubscribe(self, "score", "on_score")
end

return listener
`

const scorerLua = `
local stage = require("stage")
local scorer = {}

function scorer.update(self, dt)
  stage.publish("score", { points = 10 })
end

return scorer
`

const chattyLua = `
local stage = require("stage")
local chatty = {}

function chatty.start(self)
  stage.log(self, "hello")
end

return chatty
`

const brokenLua = `
local broken = {}
function broken.update(self, dt)
  error("boom")
end
return broken
`

func scriptsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

type fixture struct {
	eng   *Engine
	bus   *pubsub.Bus
	world *entity.World
}

func newFixture(t *testing.T, log *zap.Logger, files map[string]string) *fixture {
	t.Helper()
	bus := pubsub.New(log)
	eng, err := NewEngine(scriptsDir(t, files), bus, log)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return &fixture{
		eng:   eng,
		bus:   bus,
		world: entity.NewWorld(&entity.Env{Bus: bus, Log: log}),
	}
}

func (f *fixture) spawn(t *testing.T, name, behavior string) (*entity.Entity, *component.Component) {
	t.Helper()
	e := f.world.Spawn()
	e.Name = name
	s, err := f.eng.NewBehavior(behavior)
	require.NoError(t, err)
	c := component.New(s)
	require.NoError(t, e.AddComponent(c))
	return e, c
}

func TestLoadBehaviors(t *testing.T) {
	f := newFixture(t, nil, map[string]string{
		"walker.lua": walkerLua,
		"scorer.lua": scorerLua,
		"notes.txt":  "ignored",
	})
	require.Equal(t, []string{"scorer", "walker"}, f.eng.Behaviors())

	_, err := f.eng.NewBehavior("ghost")
	require.ErrorIs(t, err, ErrUnknownBehavior)
}

func TestLoadErrors(t *testing.T) {
	_, err := NewEngine(scriptsDir(t, map[string]string{"bad.lua": "return {"}), nil, nil)
	require.Error(t, err)

	_, err = NewEngine(scriptsDir(t, map[string]string{"num.lua": "return 42"}), nil, nil)
	require.ErrorContains(t, err, "must return a table")

	eng, err := NewEngine(filepath.Join(t.TempDir(), "absent"), nil, nil)
	require.NoError(t, err)
	require.Empty(t, eng.Behaviors())
	eng.Close()
}

func TestUpdateDispatch(t *testing.T) {
	f := newFixture(t, nil, map[string]string{"walker.lua": walkerLua})
	e, _ := f.spawn(t, "walker", "walker")

	for i := 0; i < 3; i++ {
		e.Update(time.Second / 60)
	}
	require.Equal(t, geom.V(3, 0), e.Position())

	// handlers this behavior lacks are ignored
	require.NoError(t, e.Broadcast(component.HandlerCollisionExit, nil))
}

func TestCollisionHandlerGetsPeerTable(t *testing.T) {
	f := newFixture(t, nil, map[string]string{"walker.lua": walkerLua})
	e, _ := f.spawn(t, "walker", "walker")
	peer := f.world.Spawn()
	peer.Name = "rock"

	e.NotifyCollision(component.PhaseEnter, peer)
	require.True(t, e.HasTag("hit"))
}

func TestHandlerErrorLoggedAndReturned(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	f := newFixture(t, zap.New(core), map[string]string{"broken.lua": brokenLua})
	e, c := f.spawn(t, "b", "broken")

	err := c.Dispatch(component.HandlerUpdate, 0.1)
	require.ErrorContains(t, err, "boom")
	require.Equal(t, 1, logs.FilterMessage("lua handler error").Len())

	// the engine keeps running after a script error
	require.NotPanics(t, func() { e.Update(time.Millisecond) })
}

func TestLogFromLua(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture(t, zap.New(core), map[string]string{"chatty.lua": chattyLua})
	e, _ := f.spawn(t, "talker", "chatty")

	require.NoError(t, e.Broadcast(HandlerStart))
	entries := logs.FilterMessage("lua").All()
	require.Len(t, entries, 1)
	require.Equal(t, "hello", entries[0].ContextMap()["msg"])
	require.Equal(t, "talker", entries[0].ContextMap()["name"])
}

func TestScoreTopicFromLua(t *testing.T) {
	f := newFixture(t, nil, map[string]string{
		"listener.lua": listenerLua,
		"scorer.lua":   scorerLua,
	})
	a, _ := f.spawn(t, "a", "listener")
	b, _ := f.spawn(t, "b", "listener")
	scorer, _ := f.spawn(t, "scorer", "scorer")

	require.NoError(t, a.Broadcast(HandlerStart))
	require.NoError(t, b.Broadcast(HandlerStart))
	require.Len(t, f.bus.Subscribers("score"), 2)

	scorer.Update(0)
	require.Equal(t, geom.V(10, 0), a.Position())
	require.Equal(t, geom.V(10, 0), b.Position())

	b.Destroy()
	require.Len(t, f.bus.Subscribers("score"), 1)
	scorer.Update(0)
	require.Equal(t, geom.V(20, 0), a.Position())

	require.NoError(t, a.Broadcast("quit"))
	require.Empty(t, f.bus.Subscribers("score"))
}

func TestDeferredReclaim(t *testing.T) {
	f := newFixture(t, nil, map[string]string{"walker.lua": walkerLua})
	e, _ := f.spawn(t, "walker", "walker")
	require.Equal(t, lifetime.RuntimeShared, e.Lifetime().Mode())
	require.Equal(t, 1, e.Lifetime().Refs())
	require.Equal(t, 1, f.eng.Live())

	e.Destroy()
	require.True(t, e.Destroyed())
	require.False(t, e.Lifetime().Reclaimed(), "runtime still holds the handle")
	require.Zero(t, f.world.FlushReclaimed())

	require.Equal(t, 1, f.eng.Collect())
	require.True(t, e.Lifetime().Reclaimed())
	require.Zero(t, f.eng.Live())
	require.Equal(t, 1, f.world.FlushReclaimed())
	_, ok := f.world.Get(e.ID())
	require.False(t, ok)

	require.Zero(t, f.eng.Collect())
}

func TestRemovedBehaviorStopsRunning(t *testing.T) {
	f := newFixture(t, nil, map[string]string{"walker.lua": walkerLua})
	e, c := f.spawn(t, "walker", "walker")
	e.Update(0)
	require.True(t, e.RemoveComponent(c.ID))
	e.Update(0)
	require.Equal(t, geom.V(1, 0), e.Position())

	require.Equal(t, 1, f.eng.Collect())
	require.Equal(t, lifetime.Native, e.Lifetime().Mode())
	require.False(t, e.Destroyed())
}

func TestFromLua(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.NoError(t, f.eng.vm.DoString(`payload = { 1, "two", true }`))
	require.Equal(t, []any{1.0, "two", true}, fromLua(f.eng.vm.GetGlobal("payload")))

	require.NoError(t, f.eng.vm.DoString(`payload = { points = 3, tag = "x" }`))
	require.Equal(t, map[string]any{"points": 3.0, "tag": "x"}, fromLua(f.eng.vm.GetGlobal("payload")))
	require.Nil(t, fromLua(f.eng.vm.GetGlobal("missing")))
}
