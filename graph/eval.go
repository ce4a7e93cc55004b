package graph

import (
	"fmt"

	"go.uber.org/zap"
)

// World is the runtime surface query- and mutation-style nodes evaluate
// against. The engine implements it on top of the component store; pure
// graphs run with a nil World.
type World interface {
	// Query returns every live entity whose name starts with prefix.
	Query(prefix string) Stream
	// Position returns an entity's local position, ok = false for stale refs.
	Position(ref EntityRef) (Vec3, bool)
	// Translate offsets the local position of every entity in the stream,
	// through the store's dirty-marking setters.
	Translate(refs Stream, offset Vec3)
}

// Context carries per-tick state into node evaluation functions.
type Context struct {
	World World   // nil for graphs that never touch entities
	Time  float64 // seconds since engine start
	DT    float64 // seconds since the previous tick
}

// Evaluator executes a compiled plan once per tick, caching each step's
// result for downstream steps. The cache is cleared at the start of every
// run.
type Evaluator struct {
	log   *zap.Logger
	cache map[string]Value
}

// NewEvaluator creates an evaluator. A nil logger disables logging.
func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		log:   log,
		cache: make(map[string]Value),
	}
}

// Run evaluates every step of the plan in compiled order. A step that fails
// (error return or panic) is dropped for this tick and the rest of the plan
// still runs: a half-edited graph must keep ticking in the editor.
func (ev *Evaluator) Run(p *Plan, ctx *Context) {
	clear(ev.cache)
	for i := range p.Steps {
		step := &p.Steps[i]
		in := ev.resolveInputs(step)
		out, err := ev.evalStep(step, in, ctx)
		if err != nil {
			ev.log.Debug("node evaluation failed",
				zap.String("node", step.NodeID),
				zap.String("type", step.Kind.Type),
				zap.Error(err))
			continue
		}
		ev.cache[step.NodeID] = out
	}
}

// Result returns the cached value produced by a node during the most recent
// Run. Viewer-style collaborators read outputs through this.
func (ev *Evaluator) Result(nodeID string) (Value, bool) {
	v, ok := ev.cache[nodeID]
	return v, ok
}

// resolveInputs produces one value per declared input pin. A connected pin
// reads the source node's cached result; when that result is a keyed bundle
// and the source pin id matches one of its keys, the keyed component is
// extracted, otherwise the whole result flows through. Unconnected pins (and
// cache misses from skipped or cycle-truncated producers) stay nil and the
// kind's Eval falls back to instance data or defaults.
func (ev *Evaluator) resolveInputs(step *Step) []Value {
	in := make([]Value, len(step.Inputs))
	for i, ref := range step.Inputs {
		if !ref.Connected {
			continue
		}
		v, ok := ev.cache[ref.Node]
		if !ok {
			continue
		}
		if b, isBundle := v.(Bundle); isBundle {
			if component, match := b[ref.Pin]; match {
				in[i] = component
				continue
			}
		}
		in[i] = v
	}
	return in
}

// evalStep invokes the kind's evaluation function, converting panics into
// errors so a single broken node cannot take down the tick loop.
func (ev *Evaluator) evalStep(step *Step, in []Value, ctx *Context) (out Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", step.Kind.Type, r)
		}
	}()
	if step.Kind.Eval == nil {
		return nil, fmt.Errorf("kind %s has no evaluation function", step.Kind.Type)
	}
	return step.Kind.Eval(in, step.Data, ctx)
}
