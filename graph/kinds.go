package graph

import (
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

// Builtin returns a registry populated with the standard node-kind catalogue.
// Math and constant kinds carry both behaviors (interpreted evaluation and
// Kage emission); entity-query kinds are interpreter-only; UV and Output are
// shader-only.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(timeKind())
	r.Register(floatKind())
	r.Register(colorKind())
	r.Register(vec3Kind())
	r.Register(addKind())
	r.Register(subtractKind())
	r.Register(multiplyKind())
	r.Register(sineKind())
	r.Register(splitKind())
	r.Register(mixKind())
	r.Register(easeKind())
	r.Register(queryKind())
	r.Register(translateKind())
	r.Register(uvKind())
	r.Register(outputKind())
	return r
}

// --- Coercion helpers ---

// asFloat coerces a runtime value to a scalar. Vectors coerce to their first
// component, matching the loose typing of authored graphs.
func asFloat(v Value, fallback float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case Vec2:
		return x[0]
	case Vec3:
		return x[0]
	case Vec4:
		return x[0]
	}
	return fallback
}

// asVec3 coerces a runtime value to a 3-vector; scalars broadcast.
func asVec3(v Value, fallback Vec3) Vec3 {
	switch x := v.(type) {
	case Vec3:
		return x
	case Vec4:
		return Vec3{x[0], x[1], x[2]}
	case Vec2:
		return Vec3{x[0], x[1], 0}
	case float64:
		return Vec3{x, x, x}
	case int:
		f := float64(x)
		return Vec3{f, f, f}
	}
	return fallback
}

// numericBinary applies op scalar-wise, broadcasting scalars over vectors
// when either side is a Vec3.
func numericBinary(a, b Value, op func(x, y float64) float64) Value {
	_, aVec := a.(Vec3)
	_, bVec := b.(Vec3)
	if aVec || bVec {
		av := asVec3(a, Vec3{})
		bv := asVec3(b, Vec3{})
		return Vec3{op(av[0], bv[0]), op(av[1], bv[1]), op(av[2], bv[2])}
	}
	return op(asFloat(a, 0), asFloat(b, 0))
}

// --- Constants and sources ---

func timeKind() *Kind {
	return &Kind{
		Type:    "Time",
		Outputs: []PinDef{{ID: "t", Name: "Time", Kind: KindFloat}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			return ctx.Time, nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := Time", out)
		},
		Uniform: "var Time float",
	}
}

func floatKind() *Kind {
	return &Kind{
		Type:    "Float",
		Outputs: []PinDef{{ID: "value", Name: "Value", Kind: KindFloat}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			return data.Float("value", 0), nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := %s", out, floatLit(data.Float("value", 0)))
		},
	}
}

func colorKind() *Kind {
	return &Kind{
		Type:    "Color",
		Outputs: []PinDef{{ID: "rgb", Name: "Color", Kind: KindVec3}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			return hexToVec3(data.String("value", "#ffffff")), nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := %s", out, vec3Lit(hexToVec3(data.String("value", "#ffffff"))))
		},
	}
}

func vec3Kind() *Kind {
	return &Kind{
		Type: "Vec3",
		Inputs: []PinDef{
			{ID: "x", Name: "X", Kind: KindFloat},
			{ID: "y", Name: "Y", Kind: KindFloat},
			{ID: "z", Name: "Z", Kind: KindFloat},
		},
		Outputs: []PinDef{{ID: "v", Name: "Vector", Kind: KindVec3}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			return Vec3{
				asFloat(in[0], data.Float("x", 0)),
				asFloat(in[1], data.Float("y", 0)),
				asFloat(in[2], data.Float("z", 0)),
			}, nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := vec3(%s, %s, %s)", out, in[0], in[1], in[2])
		},
	}
}

// --- Math ---

func addKind() *Kind {
	return binaryMathKind("Add", "+", func(x, y float64) float64 { return x + y })
}

func subtractKind() *Kind {
	return binaryMathKind("Subtract", "-", func(x, y float64) float64 { return x - y })
}

func multiplyKind() *Kind {
	return binaryMathKind("Multiply", "*", func(x, y float64) float64 { return x * y })
}

// binaryMathKind builds a two-input arithmetic kind. Unconnected inputs fall
// back to instance data ("a", "b"), defaulting to zero.
func binaryMathKind(typeName, op string, fn func(x, y float64) float64) *Kind {
	return &Kind{
		Type: typeName,
		Inputs: []PinDef{
			{ID: "a", Name: "A", Kind: KindAny},
			{ID: "b", Name: "B", Kind: KindAny},
		},
		Outputs: []PinDef{{ID: "out", Name: "Result", Kind: KindAny}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			a := in[0]
			if a == nil {
				a = data.Float("a", 0)
			}
			b := in[1]
			if b == nil {
				b = data.Float("b", 0)
			}
			return numericBinary(a, b, fn), nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := %s %s %s", out, in[0], op, in[1])
		},
	}
}

func sineKind() *Kind {
	return &Kind{
		Type:    "Sine",
		Inputs:  []PinDef{{ID: "in", Name: "Input", Kind: KindFloat}},
		Outputs: []PinDef{{ID: "out", Name: "Result", Kind: KindFloat}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			return math.Sin(asFloat(in[0], 0)), nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := sin(%s)", out, in[0])
		},
	}
}

func mixKind() *Kind {
	return &Kind{
		Type: "Mix",
		Inputs: []PinDef{
			{ID: "a", Name: "A", Kind: KindAny},
			{ID: "b", Name: "B", Kind: KindAny},
			{ID: "t", Name: "Factor", Kind: KindFloat},
		},
		Outputs: []PinDef{{ID: "out", Name: "Result", Kind: KindAny}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			t := asFloat(in[2], data.Float("t", 0.5))
			return numericBinary(in[0], in[1], func(x, y float64) float64 {
				return x*(1-t) + y*t
			}), nil
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := mix(%s, %s, %s)", out, in[0], in[1], in[2])
		},
	}
}

// splitKind is the canonical multi-output node: it breaks a vector into a
// keyed bundle so downstream pins can pick single channels.
func splitKind() *Kind {
	return &Kind{
		Type:   "Split",
		Inputs: []PinDef{{ID: "v", Name: "Vector", Kind: KindVec3}},
		Outputs: []PinDef{
			{ID: "x", Name: "X", Kind: KindFloat},
			{ID: "y", Name: "Y", Kind: KindFloat},
			{ID: "z", Name: "Z", Kind: KindFloat},
		},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			v := asVec3(in[0], Vec3{})
			return Bundle{"x": v[0], "y": v[1], "z": v[2]}, nil
		},
		// No Emit: in shader graphs channel access is a swizzle on the
		// source variable, not a separate declaration.
	}
}

// easeKind remaps a 0..1 scalar through one of the gween easing curves,
// selected by the "curve" instance datum.
func easeKind() *Kind {
	return &Kind{
		Type:    "Ease",
		Inputs:  []PinDef{{ID: "t", Name: "T", Kind: KindFloat}},
		Outputs: []PinDef{{ID: "out", Name: "Result", Kind: KindFloat}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			fn, ok := easeCurves[data.String("curve", "linear")]
			if !ok {
				return nil, fmt.Errorf("unknown ease curve %q", data.String("curve", ""))
			}
			t := asFloat(in[0], 0)
			return float64(fn(float32(t), 0, 1, 1)), nil
		},
	}
}

var easeCurves = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"in-expo":      ease.InExpo,
	"out-expo":     ease.OutExpo,
	"out-elastic":  ease.OutElastic,
	"out-bounce":   ease.OutBounce,
}

// --- Entity access ---

func queryKind() *Kind {
	return &Kind{
		Type:    "Query",
		Outputs: []PinDef{{ID: "entities", Name: "Entities", Kind: KindStream}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			if ctx.World == nil {
				return Stream(nil), nil
			}
			return ctx.World.Query(data.String("prefix", "")), nil
		},
	}
}

// translateKind applies an offset to every entity in a stream, then passes
// the stream through so mutations can chain.
func translateKind() *Kind {
	return &Kind{
		Type: "Translate",
		Inputs: []PinDef{
			{ID: "entities", Name: "Entities", Kind: KindStream},
			{ID: "offset", Name: "Offset", Kind: KindVec3},
		},
		Outputs: []PinDef{{ID: "entities", Name: "Entities", Kind: KindStream}},
		Eval: func(in []Value, data Data, ctx *Context) (Value, error) {
			refs, _ := in[0].(Stream)
			if ctx.World == nil || len(refs) == 0 {
				return refs, nil
			}
			offset := asVec3(in[1], Vec3{
				data.Float("x", 0), data.Float("y", 0), data.Float("z", 0),
			})
			ctx.World.Translate(refs, offset)
			return refs, nil
		},
	}
}

// --- Shader-only ---

func uvKind() *Kind {
	return &Kind{
		Type:    "UV",
		Outputs: []PinDef{{ID: "uv", Name: "UV", Kind: KindVec2}},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("%s := src", out)
		},
	}
}

// outputKind is the designated sink of a shader graph. Its emission is the
// fragment's closing return statement rather than a declaration.
func outputKind() *Kind {
	return &Kind{
		Type: "Output",
		Inputs: []PinDef{
			{ID: "color", Name: "Color", Kind: KindVec3},
			{ID: "alpha", Name: "Alpha", Kind: KindFloat},
		},
		Emit: func(in []string, out string, data Data) string {
			return fmt.Sprintf("return vec4(%s*%s, %s)", in[0], in[1], in[1])
		},
	}
}
