package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

// handleField is the self-table key holding the instance handle.
const handleField = "_handle"

// loadStageModule backs `local stage = require("stage")`.
func (e *Engine) loadStageModule(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"subscribe":    e.luaSubscribe,
		"unsubscribe":  e.luaUnsubscribe,
		"publish":      e.luaPublish,
		"move":         e.luaMove,
		"position":     e.luaPosition,
		"set_position": e.luaSetPosition,
		"add_tag":      e.luaAddTag,
		"has_tag":      e.luaHasTag,
		"destroy":      e.luaDestroy,
		"log":          e.luaLog,
	})
	L.Push(mod)
	return 1
}

// selfEntity resolves argument n, a behavior self table, to its entity.
func (e *Engine) selfEntity(L *lua.LState, n int) *entity.Entity {
	self := L.CheckTable(n)
	h := component.ScriptHandle(lua.LVAsNumber(self.RawGetString(handleField)))
	inst, ok := e.instances[h]
	if !ok || inst.owner == nil {
		L.ArgError(n, "not an attached behavior")
		return nil
	}
	ent, ok := inst.owner.(*entity.Entity)
	if !ok {
		L.ArgError(n, "behavior owner is not an entity")
		return nil
	}
	return ent
}

// stage.subscribe(self, topic, handler) -> bool
func (e *Engine) luaSubscribe(L *lua.LState) int {
	ent := e.selfEntity(L, 1)
	topic, handler := L.CheckString(2), L.CheckString(3)
	ok := e.bus != nil && e.bus.Subscribe(topic, ent, handler)
	L.Push(lua.LBool(ok))
	return 1
}

// stage.unsubscribe(self, topic, handler) -> bool
func (e *Engine) luaUnsubscribe(L *lua.LState) int {
	ent := e.selfEntity(L, 1)
	topic, handler := L.CheckString(2), L.CheckString(3)
	ok := e.bus != nil && e.bus.Unsubscribe(topic, ent, handler)
	L.Push(lua.LBool(ok))
	return 1
}

// stage.publish(topic, payload) -> deliveries
func (e *Engine) luaPublish(L *lua.LState) int {
	topic := L.CheckString(1)
	payload := fromLua(L.Get(2))
	n := 0
	if e.bus != nil {
		n = e.bus.Publish(topic, payload)
	}
	L.Push(lua.LNumber(n))
	return 1
}

// stage.move(self, dx, dy)
func (e *Engine) luaMove(L *lua.LState) int {
	ent := e.selfEntity(L, 1)
	ent.Translate(geom.V(float64(L.CheckNumber(2)), float64(L.CheckNumber(3))))
	return 0
}

// stage.position(self) -> x, y
func (e *Engine) luaPosition(L *lua.LState) int {
	p := e.selfEntity(L, 1).Position()
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	return 2
}

// stage.set_position(self, x, y)
func (e *Engine) luaSetPosition(L *lua.LState) int {
	ent := e.selfEntity(L, 1)
	ent.SetPosition(geom.V(float64(L.CheckNumber(2)), float64(L.CheckNumber(3))))
	return 0
}

// stage.add_tag(self, tag) -> bool
func (e *Engine) luaAddTag(L *lua.LState) int {
	L.Push(lua.LBool(e.selfEntity(L, 1).AddTag(L.CheckString(2))))
	return 1
}

// stage.has_tag(self, tag) -> bool
func (e *Engine) luaHasTag(L *lua.LState) int {
	L.Push(lua.LBool(e.selfEntity(L, 1).HasTag(L.CheckString(2))))
	return 1
}

// stage.destroy(self)
func (e *Engine) luaDestroy(L *lua.LState) int {
	e.selfEntity(L, 1).Destroy()
	return 0
}

// stage.log(msg)
// luaLog is stage.log(self, msg).
func (e *Engine) luaLog(L *lua.LState) int {
	ent := e.selfEntity(L, 1)
	e.log.Info("lua",
		zap.Stringer("entity", ent),
		zap.String("name", ent.Name),
		zap.String("msg", L.CheckString(2)))
	return 0
}
