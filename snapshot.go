package ti3d

import "github.com/tiyun2012/ti3d/math3"

// Snapshot is an opaque deep copy of the Store's full state, used by the
// editor's undo/redo stack. Create with Store.Snapshot and apply with
// Store.Restore.
type Snapshot struct {
	posX, posY, posZ []float64
	rotX, rotY, rotZ []float64
	sclX, sclY, sclZ []float64

	colR, colG, colB, colA []float64
	mesh, material         []int32
	selected               []bool

	mass      []float64
	physFlags []uint32

	active []bool
	gens   []uint32
	names  []string
	ids    []string

	free   []uint32
	live   int
	nextID uint64
}

// Snapshot deep-copies every backing column up to the current length. The
// cached world matrices are deliberately not captured: they are derived data
// and Restore recomputes them by marking every slot dirty.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{
		posX: cloneCol(s.posX), posY: cloneCol(s.posY), posZ: cloneCol(s.posZ),
		rotX: cloneCol(s.rotX), rotY: cloneCol(s.rotY), rotZ: cloneCol(s.rotZ),
		sclX: cloneCol(s.sclX), sclY: cloneCol(s.sclY), sclZ: cloneCol(s.sclZ),
		colR: cloneCol(s.colR), colG: cloneCol(s.colG), colB: cloneCol(s.colB), colA: cloneCol(s.colA),
		mesh: cloneCol(s.mesh), material: cloneCol(s.material),
		selected:  cloneCol(s.selected),
		mass:      cloneCol(s.mass),
		physFlags: cloneCol(s.physFlags),
		active:    cloneCol(s.active),
		gens:      cloneCol(s.gens),
		names:     cloneCol(s.names),
		ids:       cloneCol(s.ids),
		free:      cloneCol(s.free),
		live:      s.live,
		nextID:    s.nextID,
	}
}

// Restore overwrites the store's state with the snapshot's. Columns keep
// their high-water length: slots created after the snapshot are deactivated
// and returned to the free list rather than cut off, so forest state that
// still references them indexes safely and resolves as stale. Every slot is
// marked dirty afterwards: the world-matrix cache is not portable across
// restores and must be recomputed on next access.
func (s *Store) Restore(snap *Snapshot) {
	n := len(snap.active)

	s.posX = restoreCol(s.posX, snap.posX)
	s.posY = restoreCol(s.posY, snap.posY)
	s.posZ = restoreCol(s.posZ, snap.posZ)
	s.rotX = restoreCol(s.rotX, snap.rotX)
	s.rotY = restoreCol(s.rotY, snap.rotY)
	s.rotZ = restoreCol(s.rotZ, snap.rotZ)
	s.sclX = restoreCol(s.sclX, snap.sclX)
	s.sclY = restoreCol(s.sclY, snap.sclY)
	s.sclZ = restoreCol(s.sclZ, snap.sclZ)
	s.colR = restoreCol(s.colR, snap.colR)
	s.colG = restoreCol(s.colG, snap.colG)
	s.colB = restoreCol(s.colB, snap.colB)
	s.colA = restoreCol(s.colA, snap.colA)
	s.mesh = restoreCol(s.mesh, snap.mesh)
	s.material = restoreCol(s.material, snap.material)
	s.selected = restoreCol(s.selected, snap.selected)
	s.mass = restoreCol(s.mass, snap.mass)
	s.physFlags = restoreCol(s.physFlags, snap.physFlags)
	s.active = restoreCol(s.active, snap.active)
	// Generations past the snapshot stay as they are: Create bumps them when
	// the freed slot is reclaimed, which is what invalidates old handles.
	s.gens = restoreCol(s.gens, snap.gens)
	s.names = restoreCol(s.names, snap.names)
	s.ids = restoreCol(s.ids, snap.ids)

	s.free = append(s.free[:0], snap.free...)
	for slot := n; slot < len(s.active); slot++ {
		s.active[slot] = false
		s.free = append(s.free, uint32(slot))
	}
	s.live = snap.live
	s.nextID = snap.nextID

	for len(s.dirty) < len(s.active) {
		s.dirty = append(s.dirty, false)
		s.world = append(s.world, make([]float64, 16)...)
	}
	ident := math3.Identity()
	for slot := range s.active {
		s.dirty[slot] = true
		s.setWorldAt(uint32(slot), ident)
	}

	s.byID = make(map[string]uint32, snap.live)
	for slot, id := range s.ids {
		if s.active[slot] {
			s.byID[id] = uint32(slot)
		}
	}
}

// cloneCol deep-copies one backing column.
func cloneCol[T any](src []T) []T {
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}

// restoreCol copies src over the head of dst, growing dst when it is shorter
// but never shrinking it. Elements past len(src) keep their current values.
func restoreCol[T any](dst, src []T) []T {
	if len(dst) < len(src) {
		dst = append(dst, make([]T, len(src)-len(dst))...)
	}
	copy(dst, src)
	return dst
}
