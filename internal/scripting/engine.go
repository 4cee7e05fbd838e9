package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/contract"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/pubsub"
)

// HandlerStart is dispatched once to a behavior after its entity is spawned
// from a prefab.
const HandlerStart = "start"

// ErrUnknownBehavior is returned for a behavior name with no loaded script.
var ErrUnknownBehavior = errors.New("unknown behavior")

// Engine wraps a single gopher-lua VM hosting every script behavior.
// Single-goroutine access only (game loop).
//
// Each .lua file in the scripts directory defines one behavior: it returns a
// table of handler functions, and the file name without extension is the
// behavior name. Every script component gets its own instance table whose
// metatable indexes the behavior, so per-instance state lives on self.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	bus *pubsub.Bus

	behaviors map[string]*lua.LTable
	instances map[component.ScriptHandle]*instance
	dropped   []component.ScriptHandle
	next      component.ScriptHandle
}

type instance struct {
	behavior string
	self     *lua.LTable
	owner    component.Owner
	retained bool
}

// NewEngine creates a Lua engine and loads all behaviors from scriptsDir.
// A missing directory loads nothing. bus may be nil, in which case the
// stage pub/sub functions are no-ops.
func NewEngine(scriptsDir string, bus *pubsub.Bus, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		log:       log,
		bus:       bus,
		behaviors: make(map[string]*lua.LTable, 16),
		instances: make(map[component.ScriptHandle]*instance, 64),
	}
	vm.PreloadModule("stage", e.loadStageModule)

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), ".lua")
		if err := e.LoadBehavior(name, path); err != nil {
			return err
		}
	}
	return nil
}

// LoadBehavior runs the file at path and registers the table it returns as
// behavior name. Loading a name twice replaces the handler table for
// instances created afterwards.
func (e *Engine) LoadBehavior(name, path string) error {
	fn, err := e.vm.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	t, ok := result.(*lua.LTable)
	if !ok {
		return fmt.Errorf("load %s: behavior must return a table, got %s", path, result.Type())
	}
	e.behaviors[name] = t
	e.log.Debug("loaded lua behavior", zap.String("behavior", name), zap.String("file", path))
	return nil
}

// Behaviors lists the loaded behavior names, sorted.
func (e *Engine) Behaviors() []string {
	out := make([]string, 0, len(e.behaviors))
	for name := range e.behaviors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewBehavior creates a fresh instance of a loaded behavior, ready to be
// attached to an entity as a script component.
func (e *Engine) NewBehavior(name string) (*component.Script, error) {
	proto, ok := e.behaviors[name]
	if !ok {
		return nil, fmt.Errorf("new behavior %q: %w", name, ErrUnknownBehavior)
	}
	e.next++
	h := e.next

	self := e.vm.NewTable()
	self.RawSetString("behavior", lua.LString(name))
	self.RawSetString(handleField, lua.LNumber(h))
	meta := e.vm.NewTable()
	meta.RawSetString("__index", proto)
	e.vm.SetMetatable(self, meta)

	e.instances[h] = &instance{behavior: name, self: self}
	return component.NewScript(e, name, h), nil
}

// Live counts behavior instances not yet collected.
func (e *Engine) Live() int { return len(e.instances) }

// --- component.ScriptRuntime ---

// Bind takes a reference on the owner's lifetime for as long as the
// instance lives.
func (e *Engine) Bind(h component.ScriptHandle, owner component.Owner) {
	inst, ok := e.instances[h]
	if !contract.Require(ok, "bind unknown script handle %d", h) {
		return
	}
	if !contract.Require(inst.owner == nil, "script handle %d bound twice", h) {
		return
	}
	inst.owner = owner
	inst.self.RawSetString("id", lua.LString(owner.ID().String()))
	if ent, ok := owner.(*entity.Entity); ok {
		inst.self.RawSetString("name", lua.LString(ent.Name))
	}
	owner.Lifetime().Retain()
	inst.retained = true
}

// Dispatch calls handler on the instance with self first, then args. A
// behavior without that handler ignores the call. Lua errors are logged and
// returned.
func (e *Engine) Dispatch(h component.ScriptHandle, owner component.Owner, handler string, args ...any) error {
	inst, ok := e.instances[h]
	if !ok {
		return fmt.Errorf("dispatch %s: unknown script handle %d", handler, h)
	}
	fn, ok := e.vm.GetField(inst.self, handler).(*lua.LFunction)
	if !ok {
		return nil
	}

	lArgs := make([]lua.LValue, 0, len(args)+1)
	lArgs = append(lArgs, inst.self)
	for _, a := range args {
		lArgs = append(lArgs, e.toLua(a))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua handler error",
			zap.String("behavior", inst.behavior),
			zap.String("handler", handler),
			zap.Stringer("entity", owner.ID()),
			zap.Error(err))
		return fmt.Errorf("lua %s.%s: %w", inst.behavior, handler, err)
	}
	return nil
}

// Drop queues the instance for collection. The owner's lifetime is released
// by the next Collect, not here: the handle may still be on the Lua stack.
func (e *Engine) Drop(h component.ScriptHandle) {
	if _, ok := e.instances[h]; !ok {
		return
	}
	e.dropped = append(e.dropped, h)
}

// Collect frees every dropped instance and releases its owner reference,
// letting destroyed entities be reclaimed. Run once per tick in cleanup.
// Returns the number of instances freed.
func (e *Engine) Collect() int {
	n := 0
	for _, h := range e.dropped {
		inst, ok := e.instances[h]
		if !ok {
			continue
		}
		delete(e.instances, h)
		if inst.retained {
			inst.owner.Lifetime().Release()
		}
		n++
	}
	e.dropped = e.dropped[:0]
	return n
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
