package graph

// PinDef declares one input or output port on a node kind.
type PinDef struct {
	ID   string // stable identifier, matched against connections
	Name string // display name for the editor
	Kind ValueKind
}

// EvalFunc is a kind's CPU evaluation function. in holds one resolved value
// per declared input pin (nil when unconnected and no default applies);
// the returned Value is cached for downstream steps. Returning an error (or
// panicking) discards this step's result for the tick without aborting the
// rest of the plan.
type EvalFunc func(in []Value, data Data, ctx *Context) (Value, error)

// EmitFunc is a kind's optional code-generation function. in holds one source
// expression per declared input pin, out is the generated variable name to
// declare, and the returned string is a single declaration line (without
// trailing newline). Kinds without an EmitFunc cannot appear in shader
// graphs and are skipped by the generator.
type EmitFunc func(in []string, out string, data Data) string

// Kind declares a node kind: its pin layout and its two behaviors.
type Kind struct {
	Type    string
	Inputs  []PinDef
	Outputs []PinDef
	Eval    EvalFunc
	Emit    EmitFunc

	// Uniform, when non-empty, is a Kage uniform declaration (e.g.
	// "var Time float") hoisted to the top of generated source whenever a
	// node of this kind is reachable from the sink.
	Uniform string
}

// Registry maps node type names to kinds. The catalogue is fixed per editor
// build but open to new kinds via Register.
type Registry struct {
	kinds map[string]*Kind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Register adds or replaces a kind under its type name.
func (r *Registry) Register(k *Kind) {
	r.kinds[k.Type] = k
}

// Lookup returns the kind registered under the given type name.
func (r *Registry) Lookup(typeName string) (*Kind, bool) {
	k, ok := r.kinds[typeName]
	return k, ok
}

// Types returns the number of registered kinds.
func (r *Registry) Types() int {
	return len(r.kinds)
}
