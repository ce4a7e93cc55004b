// Package ti3d is the runtime core of an interactive 3D scene editor.
//
// It provides the columnar entity [Store] with generation-tagged handles, the
// [SceneGraph] transform hierarchy with cached world matrices, and the
// [Engine] tick loop that drives physics, transform refresh, and logic-graph
// evaluation. Node graphs compile to execution plans (interpreted per tick)
// or to generated Kage shader source in the ti3d/graph package.
//
// # Quick start
//
//	engine := ti3d.NewEngine(ti3d.DefaultConfig(), logger)
//	defer engine.Close()
//
//	cube := engine.CreateEntity("cube")
//	engine.SetPosition(cube, math3.Vec3{X: 1})
//
//	plan := engine.CompilePlan(nodes, conns)
//	engine.InstallPlan(plan)
//
//	for running {
//		engine.Tick(dt)
//		engine.Render(backend)
//	}
//
// # Entities and handles
//
// Entities are handles, not pointers: a slot index plus the generation the
// slot had when the handle was issued. Destroying an entity frees its slot
// for reuse; the generation bumps when the slot is reclaimed, so handles
// held across a destroy become detectably stale and every operation on them
// is a silent no-op.
//
// # Scene graph
//
// [SceneGraph.Attach] parents entities; world matrices are cached per slot
// and recomputed lazily ([SceneGraph.WorldMatrix]) or in bulk once per tick
// ([SceneGraph.UpdateAll]). Mutating a transform dirties the whole subtree.
//
// # Graphs
//
// The graph package compiles node-and-connection documents into linear
// execution plans. The same compiler feeds two consumers: a per-tick
// interpreter with per-step failure isolation, and a Kage source generator
// for material previews with [Ebitengine]. Ease curves come from [gween];
// the optional Script node kind embeds [gopher-lua].
//
// Rendering lives behind the [RenderBackend] interface (ti3d/preview
// implements it on Ebitengine), scene persistence is YAML ([Engine.SaveScene]),
// runtime config is TOML ([LoadConfig]), and ECS integration is a [Donburi]
// adapter in ti3d/ecs.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [gopher-lua]: https://github.com/yuin/gopher-lua
// [Donburi]: https://github.com/yohamta/donburi
package ti3d
