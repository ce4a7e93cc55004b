package ti3d

import (
	"testing"

	"github.com/tiyun2012/ti3d/math3"
)

const epsilon = 1e-9

func assertVec(t *testing.T, name string, got, want math3.Vec3) {
	t.Helper()
	if !got.Near(want, epsilon) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want math3.Matrix) {
	t.Helper()
	if !got.Near(want, epsilon) {
		t.Errorf("%s =\n%v\nwant\n%v", name, got, want)
	}
}

// --- Create / Destroy ---

func TestCreateDefaults(t *testing.T) {
	s := NewStore(8)
	e := s.Create("cube")

	if !s.Alive(e) {
		t.Fatal("freshly created entity should be alive")
	}
	if s.Name(e) != "cube" {
		t.Errorf("Name = %q, want %q", s.Name(e), "cube")
	}
	if s.ID(e) == "" {
		t.Error("external ID should be non-empty")
	}
	assertVec(t, "position", s.Position(e), math3.Vec3{})
	assertVec(t, "rotation", s.Rotation(e), math3.Vec3{})
	assertVec(t, "scale", s.Scale(e), math3.Vec3{X: 1, Y: 1, Z: 1})
	if got := s.Color(e); got != (Color{1, 1, 1, 1}) {
		t.Errorf("Color = %v, want white", got)
	}
	if s.Mesh(e) != -1 || s.Material(e) != -1 {
		t.Error("mesh/material refs should default to -1")
	}
	if !s.dirty[e.Slot] {
		t.Error("new entity should be marked dirty")
	}
}

func TestDestroyInvalidatesHandleOnReuse(t *testing.T) {
	s := NewStore(2)
	a := s.Create("a")
	s.Destroy(a)

	if s.Alive(a) {
		t.Fatal("destroyed entity should not be alive")
	}

	// The slot is recycled by the next create; the generation bump makes the
	// old handle detectably stale.
	b := s.Create("b")
	if b.Slot != a.Slot {
		t.Fatalf("expected slot %d to be reused, got %d", a.Slot, b.Slot)
	}
	if b.Gen == a.Gen {
		t.Error("reused slot should carry a new generation")
	}
	if s.Alive(a) {
		t.Error("stale handle resolves after slot reuse")
	}
	if s.Name(a) != "" {
		t.Errorf("stale handle read Name = %q, want empty", s.Name(a))
	}
	if s.Name(b) != "b" {
		t.Errorf("Name(b) = %q, want %q", s.Name(b), "b")
	}
}

func TestNoTwoLiveEntitiesShareASlot(t *testing.T) {
	s := NewStore(4)
	var handles []Entity
	// Churn: interleave creates and destroys, then verify slot uniqueness.
	for i := 0; i < 100; i++ {
		e := s.Create("churn")
		handles = append(handles, e)
		if i%3 == 0 {
			s.Destroy(handles[len(handles)/2])
		}
	}
	seen := make(map[uint32]bool)
	s.Each(func(e Entity) {
		if seen[e.Slot] {
			t.Fatalf("slot %d reported live twice", e.Slot)
		}
		seen[e.Slot] = true
	})
	if len(seen) != s.Len() {
		t.Errorf("Each visited %d entities, Len = %d", len(seen), s.Len())
	}
}

func TestDestroyStaleHandleIsNoOp(t *testing.T) {
	s := NewStore(2)
	a := s.Create("a")
	s.Destroy(a)
	b := s.Create("b")

	s.Destroy(a) // stale: same slot, old generation
	if !s.Alive(b) {
		t.Error("destroying a stale handle must not kill the slot's new occupant")
	}
}

func TestGrowthPreservesData(t *testing.T) {
	s := NewStore(1)
	var es []Entity
	for i := 0; i < 50; i++ {
		e := s.Create("e")
		s.SetPosition(e, math3.Vec3{X: float64(i)})
		es = append(es, e)
	}
	for i, e := range es {
		assertVec(t, "position after growth", s.Position(e), math3.Vec3{X: float64(i)})
	}
	if s.Len() != 50 {
		t.Errorf("Len = %d, want 50", s.Len())
	}
}

// --- Mutation marks dirty ---

func TestTransformSettersMarkDirty(t *testing.T) {
	s := NewStore(2)
	e := s.Create("e")
	s.dirty[e.Slot] = false

	s.SetPosition(e, math3.Vec3{X: 1})
	if !s.dirty[e.Slot] {
		t.Error("SetPosition did not mark dirty")
	}
	s.dirty[e.Slot] = false
	s.SetRotation(e, math3.Vec3{Z: 1})
	if !s.dirty[e.Slot] {
		t.Error("SetRotation did not mark dirty")
	}
	s.dirty[e.Slot] = false
	s.SetScale(e, math3.Vec3{X: 2, Y: 2, Z: 2})
	if !s.dirty[e.Slot] {
		t.Error("SetScale did not mark dirty")
	}
}

func TestRenderSettersDoNotMarkDirty(t *testing.T) {
	s := NewStore(2)
	e := s.Create("e")
	s.dirty[e.Slot] = false

	s.SetColor(e, Color{1, 0, 0, 1})
	s.SetMesh(e, 3)
	s.SetMaterial(e, 7)
	s.SetSelected(e, true)
	if s.dirty[e.Slot] {
		t.Error("render attribute writes must not invalidate the world matrix")
	}
	if s.Mesh(e) != 3 || s.Material(e) != 7 || !s.Selected(e) {
		t.Error("render attribute round-trip failed")
	}
}

// --- Lookup ---

func TestByID(t *testing.T) {
	s := NewStore(2)
	e := s.Create("named")
	id := s.ID(e)

	got, ok := s.ByID(id)
	if !ok || got != e {
		t.Fatalf("ByID(%q) = %v, %v; want %v, true", id, got, ok, e)
	}

	s.Destroy(e)
	if _, ok := s.ByID(id); ok {
		t.Error("ByID resolved a destroyed entity")
	}
}

func TestFindByPrefix(t *testing.T) {
	s := NewStore(4)
	s.Create("light.key")
	s.Create("light.fill")
	s.Create("camera")

	if got := len(s.FindByPrefix("light.")); got != 2 {
		t.Errorf("FindByPrefix(light.) = %d entities, want 2", got)
	}
	if got := len(s.FindByPrefix("")); got != 3 {
		t.Errorf("FindByPrefix(\"\") = %d entities, want 3", got)
	}
}

// --- Snapshot / Restore ---

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore(4)
	a := s.Create("a")
	b := s.Create("b")
	s.SetPosition(a, math3.Vec3{X: 1, Y: 2, Z: 3})
	s.SetColor(b, Color{0.5, 0.25, 0, 1})

	snap := s.Snapshot()

	s.SetPosition(a, math3.Vec3{X: 99})
	s.Destroy(b)
	s.Create("c")

	s.Restore(snap)

	assertVec(t, "restored position", s.Position(a), math3.Vec3{X: 1, Y: 2, Z: 3})
	if !s.Alive(b) {
		t.Error("entity destroyed after snapshot should be alive again")
	}
	if got := s.Color(b); got != (Color{0.5, 0.25, 0, 1}) {
		t.Errorf("restored Color = %v", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len after restore = %d, want 2", s.Len())
	}
}

func TestRestoreMarksEverythingDirty(t *testing.T) {
	s := NewStore(4)
	e := s.Create("e")
	snap := s.Snapshot()
	s.dirty[e.Slot] = false

	s.Restore(snap)
	if !s.dirty[e.Slot] {
		t.Error("restore must mark every slot dirty: the world-matrix cache is derived data")
	}
}

func TestRestoreKeepsHighWaterColumns(t *testing.T) {
	s := NewStore(2)
	a := s.Create("a")
	snap := s.Snapshot()
	b := s.Create("b")
	c := s.Create("c")

	s.Restore(snap)

	// Columns never shrink: slots created after the snapshot stay indexable
	// but dead, so handles and forest state pointing at them resolve as stale
	// instead of faulting.
	if s.Cap() != 3 {
		t.Fatalf("Cap after restore = %d, want high-water 3", s.Cap())
	}
	if s.Alive(b) || s.Alive(c) {
		t.Error("entities created after the snapshot survived the restore")
	}
	if !s.Alive(a) {
		t.Error("snapshotted entity lost by restore")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	// The dead slots are reclaimable, and reclaiming bumps the generation so
	// the pre-restore handles go stale for good.
	d := s.Create("d")
	if d.Slot != c.Slot {
		t.Fatalf("expected slot %d reused, got %d", c.Slot, d.Slot)
	}
	if s.Alive(c) {
		t.Error("pre-restore handle resolves after slot reuse")
	}
}

func TestCreateWorldCacheStartsAtIdentity(t *testing.T) {
	s := NewStore(2)
	a := s.Create("a")
	assertMatrix(t, "fresh world cache", s.worldAt(a.Slot), math3.Identity())

	// Reused slots are scrubbed too: the previous occupant's matrix must not
	// leak into a render that happens before the first refresh.
	s.setWorldAt(a.Slot, math3.Compose(math3.Vec3{X: 9}, math3.Vec3{}, math3.Vec3{X: 1, Y: 1, Z: 1}))
	s.Destroy(a)
	b := s.Create("b")
	assertMatrix(t, "reused world cache", s.worldAt(b.Slot), math3.Identity())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore(2)
	e := s.Create("e")
	snap := s.Snapshot()

	s.SetPosition(e, math3.Vec3{X: 42})
	s.Restore(snap)
	assertVec(t, "snapshot isolation", s.Position(e), math3.Vec3{})
}

// --- Benchmarks ---

func BenchmarkCreateDestroy(b *testing.B) {
	s := NewStore(1024)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e := s.Create("bench")
		s.Destroy(e)
	}
}

func BenchmarkSetPosition(b *testing.B) {
	s := NewStore(1)
	e := s.Create("bench")
	v := math3.Vec3{X: 1, Y: 2, Z: 3}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.SetPosition(e, v)
	}
}
