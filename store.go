package ti3d

import (
	"fmt"

	"github.com/tiyun2012/ti3d/math3"
)

// Entity is a handle to a slot in the Store: the slot index plus the
// generation the slot had when the handle was obtained. A handle whose
// generation no longer matches the slot's current generation is stale and is
// silently ignored by every Store and SceneGraph operation.
type Entity struct {
	Slot uint32
	Gen  uint32
}

// None is the zero Entity. It never refers to a live slot (generations start
// at 1) and is used where "no entity" is meant, e.g. Attach to the root set.
var None = Entity{}

// Store owns all per-entity scalar data in parallel columns: one contiguous
// slice per field, where the same index denotes the same entity across every
// column. This keeps per-field iteration cache-friendly for tens of thousands
// of live entities.
//
// Slots are reused through a free list. The slot's generation increments when
// a freed slot is reclaimed by Create, so handles embedding the old
// generation become detectably stale only once the slot is actually recycled.
type Store struct {
	// Transform columns.
	posX, posY, posZ []float64
	rotX, rotY, rotZ []float64
	sclX, sclY, sclZ []float64

	// Render columns.
	colR, colG, colB, colA []float64
	mesh, material         []int32
	selected               []bool

	// Physics columns.
	mass      []float64
	physFlags []uint32

	// Cached world matrix, 16 elements per slot, and its validity flag.
	world []float64
	dirty []bool

	// Bookkeeping columns.
	active []bool
	gens   []uint32
	names  []string
	ids    []string

	free   []uint32
	byID   map[string]uint32
	live   int
	nextID uint64
}

// NewStore creates a store with backing columns preallocated for capacity
// entities. The store grows (doubling) past the initial capacity as needed.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	s := &Store{byID: make(map[string]uint32, capacity)}
	s.posX = make([]float64, 0, capacity)
	s.posY = make([]float64, 0, capacity)
	s.posZ = make([]float64, 0, capacity)
	s.rotX = make([]float64, 0, capacity)
	s.rotY = make([]float64, 0, capacity)
	s.rotZ = make([]float64, 0, capacity)
	s.sclX = make([]float64, 0, capacity)
	s.sclY = make([]float64, 0, capacity)
	s.sclZ = make([]float64, 0, capacity)
	s.colR = make([]float64, 0, capacity)
	s.colG = make([]float64, 0, capacity)
	s.colB = make([]float64, 0, capacity)
	s.colA = make([]float64, 0, capacity)
	s.mesh = make([]int32, 0, capacity)
	s.material = make([]int32, 0, capacity)
	s.selected = make([]bool, 0, capacity)
	s.mass = make([]float64, 0, capacity)
	s.physFlags = make([]uint32, 0, capacity)
	s.world = make([]float64, 0, capacity*16)
	s.dirty = make([]bool, 0, capacity)
	s.active = make([]bool, 0, capacity)
	s.gens = make([]uint32, 0, capacity)
	s.names = make([]string, 0, capacity)
	s.ids = make([]string, 0, capacity)
	return s
}

// Create returns a handle to a fresh entity. A slot is reused from the free
// list when one is available (incrementing its generation); otherwise every
// column grows by one. Transform defaults to zero position/rotation and unit
// scale; the slot is marked active and dirty.
func (s *Store) Create(name string) Entity {
	return s.CreateWithID(name, s.generateID())
}

// CreateWithID is Create with a caller-supplied external identifier. Used by
// scene loading, which must preserve identifiers across sessions.
func (s *Store) CreateWithID(name, id string) Entity {
	var slot uint32
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
		s.gens[slot]++
	} else {
		slot = uint32(len(s.active))
		s.appendSlot()
	}
	s.resetSlot(slot, name, id)
	s.live++
	return Entity{Slot: slot, Gen: s.gens[slot]}
}

// Destroy releases the entity's slot back to the free list. Component data is
// not zeroed, only ignored until the slot is reused; the generation bumps at
// the next Create that reclaims the slot, so live handles stay resolvable
// until then.
func (s *Store) Destroy(e Entity) {
	slot, ok := s.index(e)
	if !ok {
		return
	}
	s.active[slot] = false
	delete(s.byID, s.ids[slot])
	s.free = append(s.free, slot)
	s.live--
}

// Alive reports whether e refers to a live slot with a matching generation.
func (s *Store) Alive(e Entity) bool {
	_, ok := s.index(e)
	return ok
}

// appendSlot grows every column by one element. Append doubles the backing
// arrays when full; columns never shrink.
func (s *Store) appendSlot() {
	s.posX = append(s.posX, 0)
	s.posY = append(s.posY, 0)
	s.posZ = append(s.posZ, 0)
	s.rotX = append(s.rotX, 0)
	s.rotY = append(s.rotY, 0)
	s.rotZ = append(s.rotZ, 0)
	s.sclX = append(s.sclX, 0)
	s.sclY = append(s.sclY, 0)
	s.sclZ = append(s.sclZ, 0)
	s.colR = append(s.colR, 0)
	s.colG = append(s.colG, 0)
	s.colB = append(s.colB, 0)
	s.colA = append(s.colA, 0)
	s.mesh = append(s.mesh, 0)
	s.material = append(s.material, 0)
	s.selected = append(s.selected, false)
	s.mass = append(s.mass, 0)
	s.physFlags = append(s.physFlags, 0)
	s.world = append(s.world, make([]float64, 16)...)
	s.dirty = append(s.dirty, false)
	s.active = append(s.active, false)
	s.gens = append(s.gens, 1)
	s.names = append(s.names, "")
	s.ids = append(s.ids, "")
}

// resetSlot writes creation defaults into a (fresh or reused) slot.
func (s *Store) resetSlot(slot uint32, name, id string) {
	s.posX[slot], s.posY[slot], s.posZ[slot] = 0, 0, 0
	s.rotX[slot], s.rotY[slot], s.rotZ[slot] = 0, 0, 0
	s.sclX[slot], s.sclY[slot], s.sclZ[slot] = 1, 1, 1
	s.colR[slot], s.colG[slot], s.colB[slot], s.colA[slot] = 1, 1, 1, 1
	s.mesh[slot], s.material[slot] = -1, -1
	s.selected[slot] = false
	s.mass[slot] = 0
	s.physFlags[slot] = 0
	s.active[slot] = true
	s.dirty[slot] = true
	// Identity until the first refresh lands, so a render that beats the
	// first tick submits a usable matrix rather than zeros.
	s.setWorldAt(slot, math3.Identity())
	s.names[slot] = name
	s.ids[slot] = id
	s.byID[id] = slot
}

func (s *Store) generateID() string {
	s.nextID++
	return fmt.Sprintf("ent-%d", s.nextID)
}

// index resolves a handle to its slot. Stale or out-of-range handles return
// ok = false; callers treat that as a silent no-op.
func (s *Store) index(e Entity) (uint32, bool) {
	if int(e.Slot) >= len(s.active) {
		return 0, false
	}
	if !s.active[e.Slot] || s.gens[e.Slot] != e.Gen {
		return 0, false
	}
	return e.Slot, true
}

// --- Transform access ---

// SetPosition writes the entity's local position and marks it dirty. The
// store knows nothing about hierarchy: the SceneGraph is responsible for
// propagating dirtiness to descendants afterwards.
func (s *Store) SetPosition(e Entity, v math3.Vec3) {
	if slot, ok := s.index(e); ok {
		s.posX[slot], s.posY[slot], s.posZ[slot] = v.X, v.Y, v.Z
		s.dirty[slot] = true
	}
}

// SetRotation writes the entity's local Euler rotation (radians) and marks it
// dirty.
func (s *Store) SetRotation(e Entity, v math3.Vec3) {
	if slot, ok := s.index(e); ok {
		s.rotX[slot], s.rotY[slot], s.rotZ[slot] = v.X, v.Y, v.Z
		s.dirty[slot] = true
	}
}

// SetScale writes the entity's local scale and marks it dirty.
func (s *Store) SetScale(e Entity, v math3.Vec3) {
	if slot, ok := s.index(e); ok {
		s.sclX[slot], s.sclY[slot], s.sclZ[slot] = v.X, v.Y, v.Z
		s.dirty[slot] = true
	}
}

// Position returns the entity's local position, or the zero vector for a
// stale handle.
func (s *Store) Position(e Entity) math3.Vec3 {
	if slot, ok := s.index(e); ok {
		return math3.Vec3{X: s.posX[slot], Y: s.posY[slot], Z: s.posZ[slot]}
	}
	return math3.Vec3{}
}

// Rotation returns the entity's local Euler rotation in radians.
func (s *Store) Rotation(e Entity) math3.Vec3 {
	if slot, ok := s.index(e); ok {
		return math3.Vec3{X: s.rotX[slot], Y: s.rotY[slot], Z: s.rotZ[slot]}
	}
	return math3.Vec3{}
}

// Scale returns the entity's local scale.
func (s *Store) Scale(e Entity) math3.Vec3 {
	if slot, ok := s.index(e); ok {
		return math3.Vec3{X: s.sclX[slot], Y: s.sclY[slot], Z: s.sclZ[slot]}
	}
	return math3.Vec3{X: 1, Y: 1, Z: 1}
}

// localAt composes the slot's local transform matrix.
func (s *Store) localAt(slot uint32) math3.Matrix {
	return math3.Compose(
		math3.Vec3{X: s.posX[slot], Y: s.posY[slot], Z: s.posZ[slot]},
		math3.Vec3{X: s.rotX[slot], Y: s.rotY[slot], Z: s.rotZ[slot]},
		math3.Vec3{X: s.sclX[slot], Y: s.sclY[slot], Z: s.sclZ[slot]},
	)
}

// worldAt reads the slot's cached world matrix.
func (s *Store) worldAt(slot uint32) math3.Matrix {
	if globalDebug {
		debugCheckSlot(s, slot, "worldAt")
	}
	var m math3.Matrix
	copy(m[:], s.world[slot*16:slot*16+16])
	return m
}

// setWorldAt writes the slot's cached world matrix.
func (s *Store) setWorldAt(slot uint32, m math3.Matrix) {
	if globalDebug {
		debugCheckSlot(s, slot, "setWorldAt")
	}
	copy(s.world[slot*16:slot*16+16], m[:])
}

// --- Render and physics access ---

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// SetColor sets the entity's render color.
func (s *Store) SetColor(e Entity, c Color) {
	if slot, ok := s.index(e); ok {
		s.colR[slot], s.colG[slot], s.colB[slot], s.colA[slot] = c.R, c.G, c.B, c.A
	}
}

// Color returns the entity's render color.
func (s *Store) Color(e Entity) Color {
	if slot, ok := s.index(e); ok {
		return Color{s.colR[slot], s.colG[slot], s.colB[slot], s.colA[slot]}
	}
	return Color{}
}

// SetMesh sets the entity's mesh reference (-1 = none).
func (s *Store) SetMesh(e Entity, ref int32) {
	if slot, ok := s.index(e); ok {
		s.mesh[slot] = ref
	}
}

// Mesh returns the entity's mesh reference.
func (s *Store) Mesh(e Entity) int32 {
	if slot, ok := s.index(e); ok {
		return s.mesh[slot]
	}
	return -1
}

// SetMaterial sets the entity's material reference (-1 = none).
func (s *Store) SetMaterial(e Entity, ref int32) {
	if slot, ok := s.index(e); ok {
		s.material[slot] = ref
	}
}

// Material returns the entity's material reference.
func (s *Store) Material(e Entity) int32 {
	if slot, ok := s.index(e); ok {
		return s.material[slot]
	}
	return -1
}

// SetSelected sets the editor selection flag consumed by the render backend.
func (s *Store) SetSelected(e Entity, sel bool) {
	if slot, ok := s.index(e); ok {
		s.selected[slot] = sel
	}
}

// Selected returns the editor selection flag.
func (s *Store) Selected(e Entity) bool {
	if slot, ok := s.index(e); ok {
		return s.selected[slot]
	}
	return false
}

// SetMass sets the entity's physics mass.
func (s *Store) SetMass(e Entity, m float64) {
	if slot, ok := s.index(e); ok {
		s.mass[slot] = m
	}
}

// Mass returns the entity's physics mass.
func (s *Store) Mass(e Entity) float64 {
	if slot, ok := s.index(e); ok {
		return s.mass[slot]
	}
	return 0
}

// SetPhysicsFlags sets the entity's physics flag bits.
func (s *Store) SetPhysicsFlags(e Entity, f uint32) {
	if slot, ok := s.index(e); ok {
		s.physFlags[slot] = f
	}
}

// PhysicsFlags returns the entity's physics flag bits.
func (s *Store) PhysicsFlags(e Entity) uint32 {
	if slot, ok := s.index(e); ok {
		return s.physFlags[slot]
	}
	return 0
}

// --- Metadata ---

// Name returns the entity's display name.
func (s *Store) Name(e Entity) string {
	if slot, ok := s.index(e); ok {
		return s.names[slot]
	}
	return ""
}

// SetName sets the entity's display name.
func (s *Store) SetName(e Entity, name string) {
	if slot, ok := s.index(e); ok {
		s.names[slot] = name
	}
}

// ID returns the entity's stable external identifier.
func (s *Store) ID(e Entity) string {
	if slot, ok := s.index(e); ok {
		return s.ids[slot]
	}
	return ""
}

// ByID resolves an external identifier to a live handle.
func (s *Store) ByID(id string) (Entity, bool) {
	slot, ok := s.byID[id]
	if !ok || !s.active[slot] {
		return None, false
	}
	return Entity{Slot: slot, Gen: s.gens[slot]}, true
}

// Each calls fn for every live entity in slot order.
func (s *Store) Each(fn func(Entity)) {
	for slot := range s.active {
		if s.active[slot] {
			fn(Entity{Slot: uint32(slot), Gen: s.gens[slot]})
		}
	}
}

// FindByPrefix returns every live entity whose name starts with prefix, in
// slot order. An empty prefix matches everything.
func (s *Store) FindByPrefix(prefix string) []Entity {
	var out []Entity
	for slot := range s.active {
		if s.active[slot] && hasPrefix(s.names[slot], prefix) {
			out = append(out, Entity{Slot: uint32(slot), Gen: s.gens[slot]})
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return s.live
}

// Cap returns the high-water slot count (live + free slots).
func (s *Store) Cap() int {
	return len(s.active)
}

// Stats describes store occupancy for editor HUDs.
type Stats struct {
	Live      int
	Slots     int
	FreeSlots int
}

// Stats returns current occupancy numbers.
func (s *Store) Stats() Stats {
	return Stats{Live: s.live, Slots: len(s.active), FreeSlots: len(s.free)}
}
