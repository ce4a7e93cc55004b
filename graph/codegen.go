package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// kageHeader matches the dialect expected by Ebitengine shaders.
const kageHeader = "//kage:unit pixels\npackage main\n"

// GenerateKage turns a shader graph into Kage fragment-shader source. The
// sink node (the graph's designated output, normally an "Output" kind) is
// resolved first; each node feeding it gets one declaration line, emitted in
// dependency order and memoized under a generated variable name so shared
// producers are declared exactly once. Compiling the same graph twice yields
// byte-identical source.
func GenerateKage(nodes []Node, conns []Connection, reg *Registry, sinkID string) (string, error) {
	plan := Compile(nodes, conns, reg)

	steps := make(map[string]*Step, len(plan.Steps))
	for i := range plan.Steps {
		steps[plan.Steps[i].NodeID] = &plan.Steps[i]
	}
	sink, ok := steps[sinkID]
	if !ok {
		return "", fmt.Errorf("sink node %q not present in graph", sinkID)
	}
	if sink.Kind.Emit == nil {
		return "", fmt.Errorf("sink kind %s cannot emit code", sink.Kind.Type)
	}

	// Restrict emission to nodes the sink actually consumes.
	reachable := map[string]bool{sinkID: true}
	work := []string{sinkID}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		for _, ref := range steps[id].Inputs {
			if ref.Connected && !reachable[ref.Node] {
				if _, present := steps[ref.Node]; present {
					reachable[ref.Node] = true
					work = append(work, ref.Node)
				}
			}
		}
	}

	// Variable names and declaration lines in plan (dependency) order.
	vars := make(map[string]string)
	var uniforms []string
	seenUniform := make(map[string]bool)
	var lines []string
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if !reachable[step.NodeID] || step.NodeID == sinkID || step.Kind.Emit == nil {
			continue
		}
		if u := step.Kind.Uniform; u != "" && !seenUniform[u] {
			seenUniform[u] = true
			uniforms = append(uniforms, u)
		}
		name := fmt.Sprintf("v%d", len(vars))
		vars[step.NodeID] = name
		lines = append(lines, step.Kind.Emit(inputExprs(step, vars), name, step.Data))
	}

	closing := sink.Kind.Emit(inputExprs(sink, vars), "", sink.Data)

	var b strings.Builder
	b.WriteString(kageHeader)
	if len(uniforms) > 0 {
		b.WriteString("\n")
		for _, u := range uniforms {
			b.WriteString(u)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nfunc Fragment(dst vec4, src vec2, color vec4) vec4 {\n")
	for _, line := range lines {
		b.WriteString("\t")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\t")
	b.WriteString(closing)
	b.WriteString("\n}\n")
	return b.String(), nil
}

// inputExprs produces one source expression per declared input pin: the
// memoized variable of the feeding node (with a member-style swizzle suffix
// when the source pin names a vector component), or a literal synthesized
// from instance data for unconnected pins and pins fed by nodes that emitted
// nothing.
func inputExprs(step *Step, vars map[string]string) []string {
	exprs := make([]string, len(step.Kind.Inputs))
	for i, pin := range step.Kind.Inputs {
		ref := step.Inputs[i]
		if ref.Connected {
			if name, ok := vars[ref.Node]; ok {
				if isComponentPin(ref.Pin) {
					exprs[i] = name + "." + ref.Pin
				} else {
					exprs[i] = name
				}
				continue
			}
		}
		exprs[i] = defaultLit(step.Data[pin.ID], pin.Kind)
	}
	return exprs
}

// isComponentPin reports whether a pin id denotes a single vector channel.
func isComponentPin(pin string) bool {
	if len(pin) != 1 {
		return false
	}
	return strings.ContainsAny(pin, "xyzwrgba")
}

// defaultLit synthesizes a literal expression for an unconnected input:
// numeric instance data becomes a float literal, a #rrggbb string becomes a
// decomposed 3-component literal, slice data becomes a vector literal, and
// missing data falls back to the pin kind's zero value.
func defaultLit(data any, kind ValueKind) string {
	switch v := data.(type) {
	case float64:
		return floatLit(v)
	case int:
		return floatLit(float64(v))
	case string:
		if strings.HasPrefix(v, "#") {
			return vec3Lit(hexToVec3(v))
		}
	case Vec2:
		return fmt.Sprintf("vec2(%s, %s)", floatLit(v[0]), floatLit(v[1]))
	case Vec3:
		return vec3Lit(v)
	case Vec4:
		return fmt.Sprintf("vec4(%s, %s, %s, %s)",
			floatLit(v[0]), floatLit(v[1]), floatLit(v[2]), floatLit(v[3]))
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = floatLit(f)
		}
		if n := len(v); n >= 2 && n <= 4 {
			return fmt.Sprintf("vec%d(%s)", n, strings.Join(parts, ", "))
		}
	}
	switch kind {
	case KindVec2:
		return "vec2(0.0)"
	case KindVec3:
		return "vec3(0.0)"
	case KindVec4:
		return "vec4(0.0)"
	default:
		return "0.0"
	}
}

// floatLit formats a float as a Kage literal, always with a decimal point so
// the expression stays float-typed.
func floatLit(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// vec3Lit formats a 3-component vector literal.
func vec3Lit(v Vec3) string {
	return fmt.Sprintf("vec3(%s, %s, %s)", floatLit(v[0]), floatLit(v[1]), floatLit(v[2]))
}

// hexToVec3 decomposes a #rrggbb color into normalized components. Malformed
// strings decompose to black.
func hexToVec3(hex string) Vec3 {
	if len(hex) != 7 || hex[0] != '#' {
		return Vec3{}
	}
	n, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return Vec3{}
	}
	return Vec3{
		float64(n>>16&0xff) / 255,
		float64(n>>8&0xff) / 255,
		float64(n&0xff) / 255,
	}
}
