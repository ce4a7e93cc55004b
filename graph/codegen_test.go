package graph

import (
	"strings"
	"testing"
)

func shaderNodes() ([]Node, []Connection) {
	nodes := []Node{
		{ID: "out", Type: "Output", Data: Data{"alpha": 1.0}},
		{ID: "tint", Type: "Color", Data: Data{"value": "#ff8800"}},
	}
	conns := []Connection{
		{FromNode: "tint", FromPin: "rgb", ToNode: "out", ToPin: "color"},
	}
	return nodes, conns
}

func TestGenerateKageBasic(t *testing.T) {
	nodes, conns := shaderNodes()
	src, err := GenerateKage(nodes, conns, Builtin(), "out")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(src, "//kage:unit pixels\npackage main\n") {
		t.Errorf("missing Kage header:\n%s", src)
	}
	if !strings.Contains(src, "func Fragment(dst vec4, src vec2, color vec4) vec4 {") {
		t.Errorf("missing Fragment signature:\n%s", src)
	}
	// #ff8800 decomposes into a 3-component literal.
	if !strings.Contains(src, "vec3(1.0, 0.5333333333333333, 0.0)") {
		t.Errorf("color literal not decomposed:\n%s", src)
	}
	if !strings.Contains(src, "return vec4(") {
		t.Errorf("missing sink return:\n%s", src)
	}
}

func TestGenerateKageDeterministic(t *testing.T) {
	nodes := []Node{
		{ID: "out", Type: "Output", Data: Data{"alpha": 1.0}},
		{ID: "t", Type: "Time"},
		{ID: "s", Type: "Sine"},
		{ID: "v", Type: "Vec3"},
	}
	conns := []Connection{
		{FromNode: "t", FromPin: "t", ToNode: "s", ToPin: "in"},
		{FromNode: "s", FromPin: "out", ToNode: "v", ToPin: "x"},
		{FromNode: "v", FromPin: "v", ToNode: "out", ToPin: "color"},
	}
	reg := Builtin()
	a, err := GenerateKage(nodes, conns, reg, "out")
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateKage(nodes, conns, reg, "out")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("codegen is not deterministic:\n--- first\n%s\n--- second\n%s", a, b)
	}
}

func TestGenerateKageUniformHoisted(t *testing.T) {
	nodes := []Node{
		{ID: "out", Type: "Output", Data: Data{"alpha": 1.0}},
		{ID: "t", Type: "Time"},
		{ID: "v", Type: "Vec3"},
	}
	conns := []Connection{
		{FromNode: "t", FromPin: "t", ToNode: "v", ToPin: "x"},
		{FromNode: "v", FromPin: "v", ToNode: "out", ToPin: "color"},
	}
	src, err := GenerateKage(nodes, conns, Builtin(), "out")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "var Time float\n") {
		t.Errorf("Time uniform not hoisted:\n%s", src)
	}
	if strings.Index(src, "var Time float") > strings.Index(src, "func Fragment") {
		t.Error("uniform declared after Fragment")
	}
}

func TestGenerateKageMemoizesSharedProducer(t *testing.T) {
	// Both Output inputs consume the same Sine; its declaration must appear
	// exactly once and be referenced by name thereafter.
	nodes := []Node{
		{ID: "out", Type: "Output"},
		{ID: "t", Type: "Time"},
		{ID: "s", Type: "Sine"},
		{ID: "v", Type: "Vec3"},
	}
	conns := []Connection{
		{FromNode: "t", FromPin: "t", ToNode: "s", ToPin: "in"},
		{FromNode: "s", FromPin: "out", ToNode: "v", ToPin: "x"},
		{FromNode: "s", FromPin: "out", ToNode: "v", ToPin: "y"},
		{FromNode: "v", FromPin: "v", ToNode: "out", ToPin: "color"},
		{FromNode: "s", FromPin: "out", ToNode: "out", ToPin: "alpha"},
	}
	src, err := GenerateKage(nodes, conns, Builtin(), "out")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(src, ":= sin("); got != 1 {
		t.Errorf("sine declared %d times, want 1:\n%s", got, src)
	}
}

func TestGenerateKageSwizzleSuffix(t *testing.T) {
	// Consuming a single channel of a vector renders as a member suffix,
	// not a separate declaration.
	nodes := []Node{
		{ID: "out", Type: "Output", Data: Data{"alpha": 1.0}},
		{ID: "c", Type: "Color", Data: Data{"value": "#ffffff"}},
		{ID: "v", Type: "Vec3"},
	}
	conns := []Connection{
		{FromNode: "c", FromPin: "r", ToNode: "v", ToPin: "x"},
		{FromNode: "v", FromPin: "v", ToNode: "out", ToPin: "color"},
	}
	src, err := GenerateKage(nodes, conns, Builtin(), "out")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, ".r") {
		t.Errorf("channel pin not rendered as member suffix:\n%s", src)
	}
}

func TestGenerateKageUnconnectedDefaults(t *testing.T) {
	nodes := []Node{
		{ID: "out", Type: "Output", Data: Data{"alpha": 0.5}},
	}
	src, err := GenerateKage(nodes, nil, Builtin(), "out")
	if err != nil {
		t.Fatal(err)
	}
	// color pin has no data and no connection: falls back to the pin kind's
	// zero literal; alpha comes from instance data.
	if !strings.Contains(src, "vec3(0.0)") {
		t.Errorf("missing vec3 zero default:\n%s", src)
	}
	if !strings.Contains(src, "0.5") {
		t.Errorf("alpha instance datum not synthesized:\n%s", src)
	}
}

func TestGenerateKageMissingSink(t *testing.T) {
	if _, err := GenerateKage(nil, nil, Builtin(), "nope"); err == nil {
		t.Error("expected error for missing sink")
	}
}

func TestGenerateKageIgnoresUnreachableNodes(t *testing.T) {
	nodes := []Node{
		{ID: "out", Type: "Output", Data: Data{"alpha": 1.0}},
		{ID: "stray", Type: "Sine"},
	}
	src, err := GenerateKage(nodes, nil, Builtin(), "out")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(src, "sin(") {
		t.Errorf("unreachable node emitted code:\n%s", src)
	}
}

func TestFloatLit(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{1.5, "1.5"},
		{-2, "-2.0"},
		{0.25, "0.25"},
	}
	for _, c := range cases {
		if got := floatLit(c.in); got != c.want {
			t.Errorf("floatLit(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHexToVec3(t *testing.T) {
	if got := hexToVec3("#000000"); got != (Vec3{}) {
		t.Errorf("black = %v", got)
	}
	if got := hexToVec3("#ff0000"); got != (Vec3{1, 0, 0}) {
		t.Errorf("red = %v", got)
	}
	if got := hexToVec3("junk"); got != (Vec3{}) {
		t.Errorf("malformed hex = %v, want black", got)
	}
}
