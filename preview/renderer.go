// Package preview renders a ti3d scene with Ebitengine. It is a flat-shaded
// editor viewport, not a full 3D rasterizer: entities draw as colored quads
// placed by the XY part of their world matrix, depth-sorted by world Z, with
// an optional generated Kage shader as the material pass.
package preview

import (
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/tiyun2012/ti3d"
	"github.com/tiyun2012/ti3d/math3"
)

// Camera maps world units to screen pixels.
type Camera struct {
	OffsetX, OffsetY float64 // screen position of the world origin
	Zoom             float64 // pixels per world unit
}

// drawCmd is one queued entity draw.
type drawCmd struct {
	world    math3.Matrix
	color    ti3d.Color
	selected bool
	depth    float64
}

// Renderer implements ti3d.RenderBackend. Submit queues entity draws during
// ti3d.Engine.Render; Draw flushes the queue onto an Ebitengine image once per
// frame.
type Renderer struct {
	log    *zap.Logger
	Camera Camera

	shader    *ebiten.Shader
	shaderSrc string

	queue []drawCmd
}

// New creates a renderer. A nil logger disables logging.
func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		log:    log,
		Camera: Camera{Zoom: 48},
	}
}

// SetShaderSource compiles generated Kage source for the material pass. A
// source that fails to compile is logged and the previous shader kept, so a
// bad graph edit never blanks the viewport.
func (r *Renderer) SetShaderSource(src string) {
	if src == "" {
		r.shader = nil
		r.shaderSrc = ""
		return
	}
	s, err := ebiten.NewShader([]byte(src))
	if err != nil {
		r.log.Warn("shader compile failed, keeping previous", zap.Error(err))
		return
	}
	if r.shader != nil {
		r.shader.Deallocate()
	}
	r.shader = s
	r.shaderSrc = src
}

// Submit queues one entity for the next Draw.
func (r *Renderer) Submit(e ti3d.Entity, world math3.Matrix, color ti3d.Color, mesh, material int32, selected bool) {
	r.queue = append(r.queue, drawCmd{
		world:    world,
		color:    color,
		selected: selected,
		depth:    world.Position().Z,
	})
}

// Draw flushes queued entities onto screen, farthest Z first, then clears the
// queue. time feeds the material shader's Time uniform.
func (r *Renderer) Draw(screen *ebiten.Image, time float64) {
	if r.shader != nil {
		w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
		var op ebiten.DrawRectShaderOptions
		op.Uniforms = map[string]any{"Time": float32(time)}
		screen.DrawRectShader(w, h, r.shader, &op)
	}

	sort.SliceStable(r.queue, func(i, j int) bool {
		return r.queue[i].depth < r.queue[j].depth
	})

	var op ebiten.DrawImageOptions
	for i := range r.queue {
		cmd := &r.queue[i]
		if cmd.selected {
			r.drawQuad(screen, &op, cmd, 1.15, ti3d.Color{R: 1, G: 0.85, B: 0.2, A: 1})
		}
		r.drawQuad(screen, &op, cmd, 1, cmd.color)
	}
	r.queue = r.queue[:0]
}

// drawQuad draws a unit quad centered on the entity's origin, transformed by
// the XY part of its world matrix.
func (r *Renderer) drawQuad(screen *ebiten.Image, op *ebiten.DrawImageOptions, cmd *drawCmd, grow float64, c ti3d.Color) {
	op.GeoM.Reset()
	op.GeoM.Translate(-0.5, -0.5)
	op.GeoM.Scale(grow, grow)
	op.GeoM.Concat(worldGeoM(cmd.world, r.Camera))
	op.ColorScale.Reset()
	a := float32(c.A)
	op.ColorScale.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
	screen.DrawImage(ensureWhiteImage(), op)
}

// worldGeoM projects a world matrix to an Ebitengine affine: the XY components
// of the matrix's first two basis columns plus the translation, scaled into
// camera space. Screen Y grows downward, so world Y is flipped.
func worldGeoM(m math3.Matrix, cam Camera) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0]*cam.Zoom)
	g.SetElement(0, 1, m[4]*cam.Zoom)
	g.SetElement(1, 0, -m[1]*cam.Zoom)
	g.SetElement(1, 1, -m[5]*cam.Zoom)
	g.SetElement(0, 2, m[12]*cam.Zoom+cam.OffsetX)
	g.SetElement(1, 2, -m[13]*cam.Zoom+cam.OffsetY)
	return g
}

// Lazy 1x1 white source image (no sync.Once — the renderer is driven from the
// game loop goroutine only).
var whiteImage *ebiten.Image

func ensureWhiteImage() *ebiten.Image {
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(1, 1)
		whiteImage.Fill(color.White)
	}
	return whiteImage
}
