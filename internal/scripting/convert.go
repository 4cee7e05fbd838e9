package scripting

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

// toLua converts a Go value handed to a handler. Entities cross as plain
// {id, name, tags} tables, never as live references.
func (e *Engine) toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint32:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case time.Duration:
		return lua.LNumber(x.Seconds())
	case geom.Vec2:
		t := e.vm.NewTable()
		t.RawSetString("x", lua.LNumber(x.X))
		t.RawSetString("y", lua.LNumber(x.Y))
		return t
	case *entity.Entity:
		return e.peerTable(x)
	case component.Owner:
		t := e.vm.NewTable()
		t.RawSetString("id", lua.LString(x.ID().String()))
		return t
	case []any:
		t := e.vm.CreateTable(len(x), 0)
		for _, item := range x {
			t.Append(e.toLua(item))
		}
		return t
	case []string:
		t := e.vm.CreateTable(len(x), 0)
		for _, item := range x {
			t.Append(lua.LString(item))
		}
		return t
	case map[string]any:
		t := e.vm.CreateTable(0, len(x))
		for k, item := range x {
			t.RawSetString(k, e.toLua(item))
		}
		return t
	}
	return lua.LString(fmt.Sprint(v))
}

func (e *Engine) peerTable(p *entity.Entity) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LString(p.ID().String()))
	t.RawSetString("name", lua.LString(p.Name))
	t.RawSetString("tags", e.toLua(p.Tags()))
	t.RawSetString("destroyed", lua.LBool(p.Destroyed()))
	return t
}

// fromLua converts a value coming out of Lua, e.g. a publish payload.
// Tables with only a sequence part become []any, other tables map[string]any
// with non-string keys stringified.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		return tableToGo(x)
	}
	return v.String()
}

func tableToGo(t *lua.LTable) any {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if n > 0 && n == count {
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, fromLua(t.RawGetInt(i)))
		}
		return out
	}
	out := make(map[string]any, count)
	t.ForEach(func(k, val lua.LValue) {
		out[k.String()] = fromLua(val)
	})
	return out
}
