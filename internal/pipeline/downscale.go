package pipeline

import (
	"image"
	"image/color"
	"math"

	"github.com/dunamismax/pixelshrink/internal/raster"
	"golang.org/x/image/draw"
)

const maxScaleSteps = 4

// scaleSteps is the number of passes for a downscale by scale: one per
// halving, capped at maxScaleSteps. It is zero when no resize is needed.
func scaleSteps(scale float64) int {
	if scale >= 1 {
		return 0
	}
	return min(maxScaleSteps, max(1, int(math.Ceil(math.Log2(1/scale)))))
}

// downscale shrinks src by scale in scaleSteps geometric passes, alternating
// between src and one scratch surface. The returned surface is exactly the
// size of its content. When scale is 1, src itself is returned.
func downscale(src *raster.Surface, scale float64, bg color.Color, interp draw.Interpolator) *raster.Surface {
	if scale >= 1 {
		return src
	}

	steps := scaleSteps(scale)
	factor := math.Pow(scale, 1/float64(steps))

	arena := [2]*raster.Surface{src, raster.New(src.Width(), src.Height())}
	cur := 0
	w, h := src.Width(), src.Height()

	for i := 0; i < steps; i++ {
		from, to := arena[cur], arena[1-cur]
		nw := max(1, int(float64(w)*factor))
		nh := max(1, int(float64(h)*factor))

		to.Clear(bg)
		to.DrawScaled(from, image.Rect(0, 0, w, h), image.Rect(0, 0, nw, nh), interp)

		if i == steps-1 {
			pix := to.ReadPixels(image.Rect(0, 0, nw, nh))
			to.Resize(nw, nh)
			to.WritePixels(pix, image.Point{})
		}

		cur = 1 - cur
		w, h = nw, nh
	}

	return arena[cur]
}
