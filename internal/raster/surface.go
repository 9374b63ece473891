// Package raster provides the pixel surface the pipeline draws into: an
// RGBA buffer with affine and scaled draw operations backed by
// golang.org/x/image/draw.
package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Surface is a mutable RGBA pixel buffer anchored at the origin. Width and
// height are always at least 1.
type Surface struct {
	img *image.RGBA
}

func New(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, max(1, width), max(1, height)))}
}

// FromImage copies img into a new surface anchored at the origin.
func FromImage(img image.Image) *Surface {
	b := img.Bounds()
	s := New(b.Dx(), b.Dy())
	draw.Draw(s.img, s.img.Bounds(), img, b.Min, draw.Src)
	return s
}

func (s *Surface) Width() int {
	return s.img.Rect.Dx()
}

func (s *Surface) Height() int {
	return s.img.Rect.Dy()
}

func (s *Surface) Bounds() image.Rectangle {
	return s.img.Rect
}

// Image exposes the backing buffer. Callers must not retain it past the
// surface's next mutation.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Background is opaque white for outputs without an alpha channel and fully
// transparent otherwise.
func Background(opaque bool) color.Color {
	if opaque {
		return color.White
	}
	return color.Transparent
}

func (s *Surface) Clear(bg color.Color) {
	draw.Draw(s.img, s.img.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
}

// DrawOriented paints src through the source-to-destination matrix m. The
// region src covers after transformation is first filled with bg under the
// same matrix, then src is composited over it. Nearest-neighbour sampling
// keeps flips and quarter turns lossless.
func (s *Surface) DrawOriented(src image.Image, m f64.Aff3, bg color.Color) {
	sr := src.Bounds()
	draw.NearestNeighbor.Transform(s.img, m, image.NewUniform(bg), sr, draw.Src, nil)
	draw.NearestNeighbor.Transform(s.img, m, src, sr, draw.Over, nil)
}

// DrawScaled resamples the sr region of src into the dr region of s.
func (s *Surface) DrawScaled(src *Surface, sr, dr image.Rectangle, interp draw.Interpolator) {
	if interp == nil {
		interp = draw.BiLinear
	}
	interp.Scale(s.img, dr, src.img, sr, draw.Over, nil)
}

// ReadPixels returns a copy of the pixels inside r, re-anchored at the origin.
func (s *Surface) ReadPixels(r image.Rectangle) *image.RGBA {
	r = r.Intersect(s.img.Rect)
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Rect, s.img, r.Min, draw.Src)
	return out
}

// Resize reallocates the backing buffer. Existing content is discarded and the
// new buffer is fully transparent.
func (s *Surface) Resize(width, height int) {
	s.img = image.NewRGBA(image.Rect(0, 0, max(1, width), max(1, height)))
}

// WritePixels copies p into s with p's origin placed at at.
func (s *Surface) WritePixels(p *image.RGBA, at image.Point) {
	dr := image.Rectangle{Min: at, Max: at.Add(p.Rect.Size())}
	draw.Draw(s.img, dr, p, p.Rect.Min, draw.Src)
}
