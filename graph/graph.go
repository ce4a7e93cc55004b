// Package graph compiles an authored node/connection graph into an ordered
// execution plan (interpreted per-frame) or generated Kage shader source.
// Both back-ends share one topological ordering pass.
//
// The package is decoupled from the entity store: query- and mutation-style
// nodes reach the rest of the runtime through the World interface, which the
// engine implements.
package graph

// Node is one authored unit of the graph: an id, a type name keying into the
// kind registry, and free-form per-instance data (literal values, script
// source, curve names). Nodes are supplied per compile call; the compiler
// does not own them.
type Node struct {
	ID   string
	Type string
	Data Data
}

// Connection is a directed edge from an output pin to an input pin. The
// editor guarantees at most one connection terminates at a given
// (node, input pin) pair; the compiler assumes well-formed input and, when
// duplicates slip through, lets the last one win.
type Connection struct {
	FromNode string
	FromPin  string
	ToNode   string
	ToPin    string
}

// Data is a node's free-form instance data.
type Data map[string]any

// Float reads a numeric entry, accepting float64 or int, with a fallback.
func (d Data) Float(key string, fallback float64) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// String reads a string entry with a fallback.
func (d Data) String(key, fallback string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return fallback
}

// --- Runtime values ---

// Value is a runtime value flowing between nodes during interpreted
// evaluation: float64, Vec2/Vec3/Vec4, Bundle, Stream, or nil for "no value".
type Value = any

// Vec2 is a 2-component vector value.
type Vec2 [2]float64

// Vec3 is a 3-component vector value.
type Vec3 [3]float64

// Vec4 is a 4-component vector value.
type Vec4 [4]float64

// Bundle is a keyed multi-output result. A consumer whose input pin id
// matches one of the keys extracts that component; otherwise it receives the
// whole bundle.
type Bundle map[string]Value

// EntityRef mirrors the store's slot+generation handle without importing it.
type EntityRef struct {
	Slot uint32
	Gen  uint32
}

// Stream is an opaque query-result bundle: a set of entity references passed
// between nodes.
type Stream []EntityRef

// --- Value kinds ---

// ValueKind tags a pin with the kind of value it carries. Used for
// connection-validity checks in the editor.
type ValueKind uint8

const (
	KindAny     ValueKind = iota // compatible with every other kind
	KindFloat                    // scalar
	KindVec2                     // 2-component vector
	KindVec3                     // 3-component vector
	KindVec4                     // 4-component vector
	KindMat4                     // 4x4 matrix
	KindStream                   // opaque query result bundle
	KindTexture                  // texture handle
)

// CompatibleWith reports whether a connection between pins of kinds k and o
// is valid. KindAny matches everything.
func (k ValueKind) CompatibleWith(o ValueKind) bool {
	return k == KindAny || o == KindAny || k == o
}

// String returns the kind's display name.
func (k ValueKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindFloat:
		return "float"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindVec4:
		return "vec4"
	case KindMat4:
		return "mat4"
	case KindStream:
		return "stream"
	case KindTexture:
		return "texture"
	}
	return "unknown"
}
