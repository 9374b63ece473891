package pipeline

import (
	"image"
	"image/color"

	"github.com/dunamismax/pixelshrink/internal/orientation"
	"github.com/dunamismax/pixelshrink/internal/raster"
)

// normalize paints src upright onto a fresh surface with the orientation
// baked in.
func normalize(src image.Image, code orientation.Code, bg color.Color) *raster.Surface {
	b := src.Bounds()
	d := orientation.Resolve(code, b.Dx(), b.Dy())

	m := d.Matrix.Aff3()
	if b.Min != (image.Point{}) {
		minX, minY := float64(b.Min.X), float64(b.Min.Y)
		m[2] -= m[0]*minX + m[1]*minY
		m[5] -= m[3]*minX + m[4]*minY
	}

	s := raster.New(d.Width, d.Height)
	s.DrawOriented(src, m, bg)
	return s
}

// fitScale is the uniform factor that fits width x height inside the bounds
// without upscaling.
func fitScale(width, height, maxWidth, maxHeight int) float64 {
	return min(1, float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
}
