// Package orientation maps EXIF orientation codes to the affine transform
// that paints a stored pixel grid upright.
package orientation

import "golang.org/x/image/math/f64"

// Code is an EXIF orientation value. Only 1..8 carry meaning; anything else is
// treated as Identity.
type Code int

const (
	Identity       Code = 1
	FlipHorizontal Code = 2
	Rotate180      Code = 3
	FlipVertical   Code = 4
	Transpose      Code = 5
	Rotate90       Code = 6
	Transverse     Code = 7
	Rotate270      Code = 8
)

func (c Code) Valid() bool {
	return c >= Identity && c <= Rotate270
}

// Swaps reports whether the upright image has its width and height exchanged.
func (c Code) Swaps() bool {
	return c >= Transpose && c <= Rotate270
}

// Matrix holds (a, b, c, d, e, f) in canvas order:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix [6]float64

func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Aff3 converts m to the row-major source-to-destination form used by
// golang.org/x/image/draw.
func (m Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{
		m[0], m[2], m[4],
		m[1], m[3], m[5],
	}
}

// Descriptor is the transform for one orientation, resolved against concrete
// source dimensions.
type Descriptor struct {
	Width  int
	Height int
	Swap   bool
	Matrix Matrix
}

// Resolve returns the descriptor for code applied to a width x height source.
func Resolve(code Code, width, height int) Descriptor {
	w, h := float64(width), float64(height)

	switch code {
	case FlipHorizontal:
		return Descriptor{Width: width, Height: height, Matrix: Matrix{-1, 0, 0, 1, w, 0}}
	case Rotate180:
		return Descriptor{Width: width, Height: height, Matrix: Matrix{-1, 0, 0, -1, w, h}}
	case FlipVertical:
		return Descriptor{Width: width, Height: height, Matrix: Matrix{1, 0, 0, -1, 0, h}}
	case Transpose:
		return Descriptor{Width: height, Height: width, Swap: true, Matrix: Matrix{0, 1, 1, 0, 0, 0}}
	case Rotate90:
		return Descriptor{Width: height, Height: width, Swap: true, Matrix: Matrix{0, 1, -1, 0, h, 0}}
	case Transverse:
		return Descriptor{Width: height, Height: width, Swap: true, Matrix: Matrix{0, -1, -1, 0, h, w}}
	case Rotate270:
		return Descriptor{Width: height, Height: width, Swap: true, Matrix: Matrix{0, -1, 1, 0, 0, w}}
	default:
		return Descriptor{Width: width, Height: height, Matrix: Matrix{1, 0, 0, 1, 0, 0}}
	}
}
