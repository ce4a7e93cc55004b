package ti3d

import "github.com/tiyun2012/ti3d/math3"

// SceneGraph owns the parent/child forest between entities and keeps the
// Store's world-matrix cache consistent with its local-transform columns.
//
// An entity's world matrix is always worldMatrix(parent) * localTransform
// (or just the local transform for roots). The cache entry is valid while the
// entity's dirty flag is clear; any local mutation or reparent dirties the
// whole descendant subtree, so reads only ever check their own flag.
//
// Reparenting an ancestor under its own descendant would create a cycle.
// Attach does not walk the ancestor chain to detect this; acyclic input is an
// assumed precondition, enforced by the editor layer.
type SceneGraph struct {
	store    *Store
	parent   []int32    // per slot; -1 = root or untracked
	children [][]uint32 // per slot, ordered
	roots    map[uint32]struct{}

	// Reused traversal buffers, sized once and kept across calls to bound
	// per-frame allocation.
	dirtyStack []uint32
	chain      []uint32
	frames     []updateFrame
}

type updateFrame struct {
	slot   uint32
	parent math3.Matrix
	dirty  bool // an ancestor was recomputed this pass
}

// NewSceneGraph creates an empty forest backed by store.
func NewSceneGraph(store *Store) *SceneGraph {
	return &SceneGraph{
		store: store,
		roots: make(map[uint32]struct{}),
	}
}

// Adopt registers a freshly created entity as a root with no children.
// Must be called once per Store.Create before any hierarchy operation on the
// entity; it also clears any parent/child state left over from a previous
// occupant of the same slot.
func (g *SceneGraph) Adopt(e Entity) {
	slot, ok := g.store.index(e)
	if !ok {
		return
	}
	g.ensure(slot)
	g.parent[slot] = -1
	g.children[slot] = g.children[slot][:0]
	g.roots[slot] = struct{}{}
}

// Remove detaches the entity from the forest ahead of Store.Destroy. Its
// children are promoted to roots; they keep their world placement stale until
// the next recompute.
func (g *SceneGraph) Remove(e Entity) {
	slot, ok := g.store.index(e)
	if !ok || int(slot) >= len(g.parent) {
		return
	}
	g.detach(slot)
	delete(g.roots, slot)
	for _, c := range g.children[slot] {
		g.parent[c] = -1
		g.roots[c] = struct{}{}
		g.markSubtreeDirty(c)
	}
	g.children[slot] = g.children[slot][:0]
}

// Attach reparents child under parent, or back to the root set when parent is
// None. The child is first detached from its current parent (or the roots),
// then attached, then its whole subtree is marked dirty. Stale handles make
// the call a silent no-op: the editor may hold references to entities that
// were deleted mid-interaction.
func (g *SceneGraph) Attach(child, parent Entity) {
	cslot, ok := g.store.index(child)
	if !ok || int(cslot) >= len(g.parent) {
		return
	}
	if parent == None {
		g.detach(cslot)
		g.parent[cslot] = -1
		g.roots[cslot] = struct{}{}
		g.markSubtreeDirty(cslot)
		return
	}
	pslot, ok := g.store.index(parent)
	if !ok || int(pslot) >= len(g.parent) || pslot == cslot {
		return
	}
	g.detach(cslot)
	delete(g.roots, cslot)
	g.parent[cslot] = int32(pslot)
	g.children[pslot] = append(g.children[pslot], cslot)
	g.markSubtreeDirty(cslot)
}

// Detach makes the entity a root. Equivalent to Attach(e, None).
func (g *SceneGraph) Detach(e Entity) {
	g.Attach(e, None)
}

// Parent returns the entity's parent, or (None, false) for roots and stale
// handles.
func (g *SceneGraph) Parent(e Entity) (Entity, bool) {
	slot, ok := g.store.index(e)
	if !ok || int(slot) >= len(g.parent) {
		return None, false
	}
	p := g.parent[slot]
	if p < 0 {
		return None, false
	}
	return Entity{Slot: uint32(p), Gen: g.store.gens[p]}, true
}

// Children returns the entity's children in attach order.
func (g *SceneGraph) Children(e Entity) []Entity {
	slot, ok := g.store.index(e)
	if !ok || int(slot) >= len(g.children) {
		return nil
	}
	out := make([]Entity, 0, len(g.children[slot]))
	for _, c := range g.children[slot] {
		out = append(out, Entity{Slot: c, Gen: g.store.gens[c]})
	}
	return out
}

// Roots returns the current root entities. Order is unspecified.
func (g *SceneGraph) Roots() []Entity {
	out := make([]Entity, 0, len(g.roots))
	for slot := range g.roots {
		out = append(out, Entity{Slot: slot, Gen: g.store.gens[slot]})
	}
	return out
}

// SetDirty marks the entity and every descendant dirty. Call after mutating
// the entity's transform fields directly on the Store.
func (g *SceneGraph) SetDirty(e Entity) {
	slot, ok := g.store.index(e)
	if !ok || int(slot) >= len(g.parent) {
		return
	}
	g.store.dirty[slot] = true
	g.markSubtreeDirty(slot)
}

// WorldMatrix returns the entity's current world matrix, recomputing any
// stale ancestors first. Reads are self-healing: correctness never depends on
// a prior UpdateAll. Stale handles return the identity matrix.
func (g *SceneGraph) WorldMatrix(e Entity) math3.Matrix {
	slot, ok := g.store.index(e)
	if !ok {
		return math3.Identity()
	}
	if int(slot) >= len(g.parent) {
		// Tracked by the store but never adopted: treat as a bare root.
		return g.store.localAt(slot)
	}
	return g.worldMatrixSlot(slot)
}

// WorldPosition returns the translation column of the entity's world matrix.
func (g *SceneGraph) WorldPosition(e Entity) math3.Vec3 {
	return g.WorldMatrix(e).Position()
}

// worldMatrixSlot resolves the cached world matrix for slot, walking up the
// ancestor chain only as far as the nearest clean ancestor and recomposing
// downward from there.
func (g *SceneGraph) worldMatrixSlot(slot uint32) math3.Matrix {
	if !g.store.dirty[slot] {
		return g.store.worldAt(slot)
	}

	chain := g.chain[:0]
	cur := slot
	for {
		chain = append(chain, cur)
		p := g.parent[cur]
		if p < 0 || !g.store.dirty[p] {
			break
		}
		cur = uint32(p)
	}
	g.chain = chain[:0]

	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		local := g.store.localAt(s)
		var world math3.Matrix
		if p := g.parent[s]; p >= 0 {
			world = g.store.worldAt(uint32(p)).Mul(local)
		} else {
			world = local
		}
		g.store.setWorldAt(s, world)
		g.store.dirty[s] = false
	}
	return g.store.worldAt(slot)
}

// UpdateAll refreshes every cached world matrix in a single pass: a
// depth-first traversal from each root with an explicit stack carrying the
// inherited parent matrix and an inherited-dirty flag. An entity is
// recomputed when its own flag is set or an ancestor was recomputed this
// pass, so the whole forest settles in O(entities) with no revisits.
func (g *SceneGraph) UpdateAll() {
	stack := g.frames[:0]
	id := math3.Identity()
	for root := range g.roots {
		stack = append(stack, updateFrame{slot: root, parent: id})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		recompute := g.store.dirty[f.slot] || f.dirty
		var world math3.Matrix
		if recompute {
			world = f.parent.Mul(g.store.localAt(f.slot))
			g.store.setWorldAt(f.slot, world)
			g.store.dirty[f.slot] = false
		} else {
			world = g.store.worldAt(f.slot)
		}
		for _, c := range g.children[f.slot] {
			stack = append(stack, updateFrame{slot: c, parent: world, dirty: recompute})
		}
	}
	g.frames = stack[:0]
}

// Sync reconciles the forest with the store after a bulk state swap such as
// Store.Restore: slots that died leave the forest (their children are
// promoted to roots), slots that came back to life rejoin as roots, and
// every live slot is marked dirty. Hierarchy between entities live on both
// sides of the swap is preserved.
func (g *SceneGraph) Sync() {
	for slot := range g.store.active {
		us := uint32(slot)
		if !g.store.active[slot] {
			if int(us) >= len(g.parent) {
				continue
			}
			g.detach(us)
			delete(g.roots, us)
			for _, c := range g.children[us] {
				g.parent[c] = -1
				g.roots[c] = struct{}{}
			}
			g.children[us] = g.children[us][:0]
			continue
		}
		g.ensure(us)
		if p := g.parent[us]; p >= 0 && !g.store.active[p] {
			g.detach(us)
		}
		if g.parent[us] < 0 {
			g.roots[us] = struct{}{}
		}
		g.store.dirty[us] = true
	}
}

// detach removes slot from its parent's child list (or from the roots) without
// touching dirty flags.
func (g *SceneGraph) detach(slot uint32) {
	p := g.parent[slot]
	if p < 0 {
		delete(g.roots, slot)
		return
	}
	siblings := g.children[p]
	for i, c := range siblings {
		if c == slot {
			copy(siblings[i:], siblings[i+1:])
			g.children[p] = siblings[:len(siblings)-1]
			break
		}
	}
	g.parent[slot] = -1
}

// markSubtreeDirty sets the dirty flag on slot's descendants using an
// explicit work stack. Deep hierarchies must not recurse: editor scenes nest
// arbitrarily and stack depth has to stay bounded.
func (g *SceneGraph) markSubtreeDirty(slot uint32) {
	g.store.dirty[slot] = true
	stack := append(g.dirtyStack[:0], g.children[slot]...)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.store.dirty[s] = true
		stack = append(stack, g.children[s]...)
	}
	g.dirtyStack = stack[:0]
}

// ensure grows the per-slot arrays to cover slot.
func (g *SceneGraph) ensure(slot uint32) {
	for int(slot) >= len(g.parent) {
		g.parent = append(g.parent, -1)
		g.children = append(g.children, nil)
	}
}
