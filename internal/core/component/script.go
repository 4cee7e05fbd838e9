package component

// ScriptHandle names a behavior instance held by the scripting runtime.
type ScriptHandle uint64

// ScriptRuntime is the boundary to the scripting runtime. The runtime owns
// behavior instances; the core only holds handles.
//
// Bind is called when a script component attaches to its owner, so the
// runtime can take a reference on the owner. Drop hands the handle back; the
// runtime collects it, and releases the owner reference, on its own schedule.
type ScriptRuntime interface {
	Bind(h ScriptHandle, owner Owner)
	Dispatch(h ScriptHandle, owner Owner, handler string, args ...any) error
	Drop(h ScriptHandle)
}

// Script is a scriptable behavior: a handler table living in the runtime.
type Script struct {
	Behavior string

	handle  ScriptHandle
	rt      ScriptRuntime
	bound   bool
	dropped bool
}

func (*Script) Kind() Kind { return KindScript }
func (*Script) sealed()    {}

// NewScript wraps a runtime behavior instance.
func NewScript(rt ScriptRuntime, behavior string, h ScriptHandle) *Script {
	return &Script{Behavior: behavior, handle: h, rt: rt}
}

func (s *Script) Handle() ScriptHandle { return s.handle }

func (s *Script) bind(o Owner) {
	if s.rt == nil || s.bound {
		return
	}
	s.bound = true
	s.rt.Bind(s.handle, o)
}

func (s *Script) call(o Owner, handler string, args ...any) error {
	if s.rt == nil || s.dropped || o == nil {
		return nil
	}
	return s.rt.Dispatch(s.handle, o, handler, args...)
}

func (s *Script) drop() {
	if s.rt == nil || s.dropped {
		return
	}
	s.dropped = true
	s.rt.Drop(s.handle)
}

func (s *Script) document() map[string]any {
	return map[string]any{"behavior": s.Behavior}
}
