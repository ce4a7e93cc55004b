package preview

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/tiyun2012/ti3d"
)

// HUD overlays frame rate and store occupancy in the viewport corner.
// The text is transparently refreshed every ~0.5 seconds.
// It uses a small internal image and ebitenutil.DebugPrint for rendering.
type HUD struct {
	img   *ebiten.Image
	accum float64
}

// NewHUD creates an overlay widget.
func NewHUD() *HUD {
	// 160x48 is enough for three DebugPrint lines.
	return &HUD{img: ebiten.NewImage(160, 48), accum: 1}
}

// Draw blits the overlay onto the top-left of screen, refreshing the text
// when half a second of dt has accumulated.
func (h *HUD) Draw(screen *ebiten.Image, dt float64, stats ti3d.Stats) {
	h.accum += dt
	if h.accum >= 0.5 {
		h.accum = 0

		h.img.Clear()
		// Semi-transparent background for readability
		h.img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(h.img, fmt.Sprintf(
			"FPS: %.1f\nTPS: %.1f\nents: %d (%d slots, %d free)",
			ebiten.ActualFPS(), ebiten.ActualTPS(),
			stats.Live, stats.Slots, stats.FreeSlots))
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Translate(4, 4)
	screen.DrawImage(h.img, &op)
}
