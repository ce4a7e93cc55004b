package preview

import (
	"math"
	"testing"

	"github.com/tiyun2012/ti3d"
	"github.com/tiyun2012/ti3d/math3"
)

func TestWorldGeoMTranslation(t *testing.T) {
	cam := Camera{OffsetX: 100, OffsetY: 200, Zoom: 10}
	m := math3.Compose(math3.Vec3{X: 2, Y: 3}, math3.Vec3{}, math3.One)
	g := worldGeoM(m, cam)

	x, y := g.Apply(0, 0)
	if x != 120 || y != 170 {
		t.Errorf("origin projects to (%v, %v), want (120, 170)", x, y)
	}
}

func TestWorldGeoMFlipsY(t *testing.T) {
	cam := Camera{Zoom: 1}
	m := math3.Compose(math3.Vec3{}, math3.Vec3{}, math3.One)
	g := worldGeoM(m, cam)

	// A point one world unit up must move up the screen (negative Y).
	_, y := g.Apply(0, 1)
	if y != -1 {
		t.Errorf("world +Y projects to screen y=%v, want -1", y)
	}
}

func TestWorldGeoMRotation(t *testing.T) {
	cam := Camera{Zoom: 1}
	m := math3.Compose(math3.Vec3{}, math3.Vec3{Z: math.Pi / 2}, math3.One)
	g := worldGeoM(m, cam)

	// World +X rotated 90° about Z becomes world +Y, i.e. screen up.
	x, y := g.Apply(1, 0)
	if math.Abs(x) > 1e-9 || math.Abs(y+1) > 1e-9 {
		t.Errorf("rotated +X projects to (%v, %v), want (0, -1)", x, y)
	}
}

func TestSubmitQueuesAndDepthSorts(t *testing.T) {
	r := New(nil)
	near := math3.Compose(math3.Vec3{Z: 1}, math3.Vec3{}, math3.One)
	far := math3.Compose(math3.Vec3{Z: -1}, math3.Vec3{}, math3.One)

	white := ti3d.Color{R: 1, G: 1, B: 1, A: 1}
	r.Submit(ti3d.Entity{Slot: 0, Gen: 1}, near, white, -1, -1, false)
	r.Submit(ti3d.Entity{Slot: 1, Gen: 1}, far, white, -1, -1, false)

	if len(r.queue) != 2 {
		t.Fatalf("queue has %d commands, want 2", len(r.queue))
	}
	if r.queue[0].depth != 1 || r.queue[1].depth != -1 {
		t.Errorf("depths = %v, %v", r.queue[0].depth, r.queue[1].depth)
	}
}
