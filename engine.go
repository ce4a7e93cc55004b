package ti3d

import (
	"sync"

	"go.uber.org/zap"

	"github.com/tiyun2012/ti3d/graph"
	"github.com/tiyun2012/ti3d/math3"
)

// PhysicsHook is the physics collaborator contract: stepped once per tick
// before the transform refresh, writing back through the store's Set*
// entry points so dirty propagation stays correct automatically.
type PhysicsHook interface {
	Step(store *Store, dt float64)
}

// RenderBackend is the rasterization collaborator contract. The engine feeds
// it per-entity render state after each tick and generated shader source as
// an opaque string.
type RenderBackend interface {
	SetShaderSource(src string)
	Submit(e Entity, world math3.Matrix, color Color, mesh, material int32, selected bool)
}

// ChangeKind tags a change notification.
type ChangeKind uint8

const (
	ChangeCreated ChangeKind = iota
	ChangeDestroyed
	ChangeReparented
	ChangeTransform
	// ChangeReset signals the whole scene was replaced (file load or snapshot
	// restore); its Entity is None and views should rebuild from scratch.
	ChangeReset
)

// Change is the notification payload sent to listeners after a structural or
// transform edit, so editor views can re-render.
type Change struct {
	Kind   ChangeKind
	Entity Entity
}

// ChangeListener receives change notifications. Listeners run synchronously
// on the mutating goroutine.
type ChangeListener interface {
	SceneChanged(Change)
}

// Engine owns the component store, the scene graph, the node-kind registry,
// and the currently installed execution plan, and drives the per-frame tick:
// physics step, bulk transform refresh, then plan evaluation.
//
// The engine itself is single-threaded: all mutation happens from the tick
// loop or from editor actions serialized with it. The one concession to
// multi-threaded hosts is plan installation, which swaps the current plan
// under a mutex so an in-flight tick never observes a half-replaced plan.
type Engine struct {
	store     *Store
	scene     *SceneGraph
	registry  *graph.Registry
	evaluator *graph.Evaluator
	scripts   *graph.ScriptHost
	log       *zap.Logger

	planMu sync.Mutex
	plan   *graph.Plan

	physics   PhysicsHook
	listeners []ChangeListener

	shader      string
	shaderDirty bool

	time float64
}

// NewEngine creates an engine from the given config. A nil logger disables
// logging. The registry starts with the builtin node-kind catalogue; when
// cfg.Scripts is true a Lua script host is attached and the "Script" kind
// registered.
func NewEngine(cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.applyDefaults()

	e := &Engine{
		store:     NewStore(cfg.Capacity),
		registry:  graph.Builtin(),
		evaluator: graph.NewEvaluator(log),
		log:       log,
	}
	e.scene = NewSceneGraph(e.store)
	if cfg.Scripts {
		e.scripts = graph.NewScriptHost(log)
		e.scripts.Register(e.registry)
	}
	log.Info("engine ready",
		zap.Int("capacity", cfg.Capacity),
		zap.Bool("scripts", cfg.Scripts))
	return e
}

// Close releases resources held by the engine (currently the Lua VM).
func (e *Engine) Close() {
	if e.scripts != nil {
		e.scripts.Close()
		e.scripts = nil
	}
}

// Store returns the component store.
func (e *Engine) Store() *Store { return e.store }

// Scene returns the scene graph.
func (e *Engine) Scene() *SceneGraph { return e.scene }

// Registry returns the node-kind registry, open for additional Register calls.
func (e *Engine) Registry() *graph.Registry { return e.registry }

// Evaluator returns the plan evaluator, whose Result method exposes per-node
// outputs to viewer-style collaborators.
func (e *Engine) Evaluator() *graph.Evaluator { return e.evaluator }

// SetPhysicsHook installs the physics collaborator (nil to detach).
func (e *Engine) SetPhysicsHook(h PhysicsHook) { e.physics = h }

// AddChangeListener subscribes a listener to scene change notifications.
func (e *Engine) AddChangeListener(l ChangeListener) {
	e.listeners = append(e.listeners, l)
}

func (e *Engine) notify(kind ChangeKind, ent Entity) {
	for _, l := range e.listeners {
		l.SceneChanged(Change{Kind: kind, Entity: ent})
	}
}

// --- Entity mutation API (driven by the editor UI) ---

// CreateEntity creates an entity, adopts it into the scene forest as a root,
// and notifies listeners.
func (e *Engine) CreateEntity(name string) Entity {
	ent := e.store.Create(name)
	e.scene.Adopt(ent)
	e.notify(ChangeCreated, ent)
	return ent
}

// DestroyEntity removes the entity from the forest (promoting its children
// to roots) and releases its slot. Stale handles are no-ops.
func (e *Engine) DestroyEntity(ent Entity) {
	if !e.store.Alive(ent) {
		return
	}
	e.scene.Remove(ent)
	e.store.Destroy(ent)
	e.notify(ChangeDestroyed, ent)
}

// Reparent attaches child under parent (None detaches to the root set).
func (e *Engine) Reparent(child, parent Entity) {
	e.scene.Attach(child, parent)
	e.notify(ChangeReparented, child)
}

// SetPosition writes a local position and dirties the entity's subtree.
func (e *Engine) SetPosition(ent Entity, v math3.Vec3) {
	e.store.SetPosition(ent, v)
	e.scene.SetDirty(ent)
	e.notify(ChangeTransform, ent)
}

// SetRotation writes a local Euler rotation and dirties the entity's subtree.
func (e *Engine) SetRotation(ent Entity, v math3.Vec3) {
	e.store.SetRotation(ent, v)
	e.scene.SetDirty(ent)
	e.notify(ChangeTransform, ent)
}

// SetScale writes a local scale and dirties the entity's subtree.
func (e *Engine) SetScale(ent Entity, v math3.Vec3) {
	e.store.SetScale(ent, v)
	e.scene.SetDirty(ent)
	e.notify(ChangeTransform, ent)
}

// Snapshot captures the store's full state for the editor's undo stack.
func (e *Engine) Snapshot() *Snapshot {
	return e.store.Snapshot()
}

// Restore rolls the store back to a snapshot and reconciles the scene forest
// with it: entities created after the snapshot die, entities the rollback
// resurrects rejoin as roots. Listeners get a single ChangeReset.
func (e *Engine) Restore(snap *Snapshot) {
	e.store.Restore(snap)
	e.scene.Sync()
	e.notify(ChangeReset, None)
}

// --- Plan lifecycle ---

// CompilePlan compiles a logic graph against the engine's registry.
func (e *Engine) CompilePlan(nodes []graph.Node, conns []graph.Connection) *graph.Plan {
	return graph.Compile(nodes, conns, e.registry)
}

// InstallPlan atomically swaps the current execution plan. A nil plan stops
// graph evaluation. Superseded plans are simply discarded.
func (e *Engine) InstallPlan(p *graph.Plan) {
	if p != nil && len(p.Cycles) > 0 {
		e.log.Warn("installed plan contains cycles; affected inputs are truncated",
			zap.Strings("nodes", p.Cycles))
	}
	e.planMu.Lock()
	e.plan = p
	e.planMu.Unlock()
}

// GenerateShader compiles a shader graph to Kage source against the engine's
// registry.
func (e *Engine) GenerateShader(nodes []graph.Node, conns []graph.Connection, sink string) (string, error) {
	return graph.GenerateKage(nodes, conns, e.registry, sink)
}

// InstallShader records generated shader source for the render backend. The
// source is pushed on the next Render call.
func (e *Engine) InstallShader(src string) {
	e.shader = src
	e.shaderDirty = true
}

// --- Tick loop ---

// Tick advances the simulation by dt seconds: physics step, bulk world-matrix
// refresh, then interpreted-plan evaluation.
func (e *Engine) Tick(dt float64) {
	e.time += dt
	if e.physics != nil {
		e.physics.Step(e.store, dt)
	}
	e.scene.UpdateAll()

	e.planMu.Lock()
	plan := e.plan
	e.planMu.Unlock()
	if plan != nil {
		e.evaluator.Run(plan, &graph.Context{World: e, Time: e.time, DT: dt})
	}
}

// Time returns seconds accumulated across Tick calls.
func (e *Engine) Time() float64 { return e.time }

// Render feeds the backend the current frame: pending shader source, then
// every live entity's cached world matrix and render attributes.
func (e *Engine) Render(backend RenderBackend) {
	if e.shaderDirty {
		backend.SetShaderSource(e.shader)
		e.shaderDirty = false
	}
	e.store.Each(func(ent Entity) {
		slot := ent.Slot
		backend.Submit(ent,
			e.store.worldAt(slot),
			Color{e.store.colR[slot], e.store.colG[slot], e.store.colB[slot], e.store.colA[slot]},
			e.store.mesh[slot], e.store.material[slot],
			e.store.selected[slot])
	})
}

// --- graph.World implementation ---

// Query returns live entities whose name starts with prefix, as a stream.
func (e *Engine) Query(prefix string) graph.Stream {
	ents := e.store.FindByPrefix(prefix)
	out := make(graph.Stream, len(ents))
	for i, ent := range ents {
		out[i] = graph.EntityRef{Slot: ent.Slot, Gen: ent.Gen}
	}
	return out
}

// Position returns an entity's local position for query-style nodes.
func (e *Engine) Position(ref graph.EntityRef) (graph.Vec3, bool) {
	ent := Entity{Slot: ref.Slot, Gen: ref.Gen}
	if !e.store.Alive(ent) {
		return graph.Vec3{}, false
	}
	p := e.store.Position(ent)
	return graph.Vec3{p.X, p.Y, p.Z}, true
}

// Translate offsets every entity in the stream through the dirty-marking
// setters, so the next transform refresh picks the moves up. Stale refs are
// skipped.
func (e *Engine) Translate(refs graph.Stream, offset graph.Vec3) {
	d := math3.Vec3{X: offset[0], Y: offset[1], Z: offset[2]}
	for _, ref := range refs {
		ent := Entity{Slot: ref.Slot, Gen: ref.Gen}
		if !e.store.Alive(ent) {
			continue
		}
		e.store.SetPosition(ent, e.store.Position(ent).Add(d))
		e.scene.SetDirty(ent)
	}
}
