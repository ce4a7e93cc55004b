package graph

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ScriptHost owns the single Lua VM backing every "Script" node in a graph.
// Single-goroutine access only (the tick loop); compiled chunks are memoized
// by source text so per-tick evaluation does not re-parse.
type ScriptHost struct {
	vm       *lua.LState
	log      *zap.Logger
	compiled map[string]*lua.LFunction
}

// NewScriptHost creates a Lua VM for script nodes. A nil logger disables
// logging. Close must be called when the host is no longer needed.
func NewScriptHost(log *zap.Logger) *ScriptHost {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptHost{
		vm:       lua.NewState(lua.Options{SkipOpenLibs: false}),
		log:      log,
		compiled: make(map[string]*lua.LFunction),
	}
}

// Close shuts down the Lua VM.
func (h *ScriptHost) Close() {
	h.vm.Close()
}

// Register adds the "Script" kind to the registry. The node's "source"
// instance datum is a Lua expression (or a body containing an explicit
// return) evaluated with the locals a, b (the two input pins) and t (current
// time in seconds). The expression's value becomes the node's output.
func (h *ScriptHost) Register(reg *Registry) {
	reg.Register(&Kind{
		Type: "Script",
		Inputs: []PinDef{
			{ID: "a", Name: "A", Kind: KindAny},
			{ID: "b", Name: "B", Kind: KindAny},
		},
		Outputs: []PinDef{{ID: "out", Name: "Result", Kind: KindAny}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			src := data.String("source", "")
			if src == "" {
				return nil, fmt.Errorf("script node has no source")
			}
			return h.eval(src, in, ctx)
		},
	})
}

func (h *ScriptHost) eval(src string, in []Value, ctx *Context) (Value, error) {
	fn, err := h.chunk(src)
	if err != nil {
		return nil, err
	}

	h.vm.Push(fn)
	h.vm.Push(toLua(h.vm, in[0]))
	h.vm.Push(toLua(h.vm, in[1]))
	h.vm.Push(lua.LNumber(ctx.Time))
	if err := h.vm.PCall(3, 1, nil); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	ret := h.vm.Get(-1)
	h.vm.Pop(1)
	return fromLua(ret), nil
}

// chunk compiles (and memoizes) the Lua function for a source string.
func (h *ScriptHost) chunk(src string) (*lua.LFunction, error) {
	if fn, ok := h.compiled[src]; ok {
		return fn, nil
	}
	body := src
	if !strings.Contains(body, "return") {
		body = "return (" + body + ")"
	}
	fn, err := h.vm.LoadString("local a, b, t = ...\n" + body)
	if err != nil {
		return nil, fmt.Errorf("script compile: %w", err)
	}
	h.compiled[src] = fn
	return fn, nil
}

// toLua converts a graph value into a Lua value. Vectors become tables with
// x/y/z fields; anything non-numeric degrades to nil.
func toLua(vm *lua.LState, v Value) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case float64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case Vec3:
		t := vm.NewTable()
		t.RawSetString("x", lua.LNumber(x[0]))
		t.RawSetString("y", lua.LNumber(x[1]))
		t.RawSetString("z", lua.LNumber(x[2]))
		return t
	}
	return lua.LNil
}

// fromLua converts a Lua return value back into a graph value.
func fromLua(v lua.LValue) Value {
	switch x := v.(type) {
	case lua.LNumber:
		return float64(x)
	case lua.LBool:
		if x {
			return 1.0
		}
		return 0.0
	case *lua.LTable:
		return Vec3{
			tableNum(x, "x"),
			tableNum(x, "y"),
			tableNum(x, "z"),
		}
	}
	return nil
}

func tableNum(t *lua.LTable, key string) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}
