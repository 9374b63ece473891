//go:build !cgo

package codec

import (
	"fmt"
	"image"
	"io"
)

const webpSupported = false

func encodeWebP(_ io.Writer, _ image.Image, _ float64) error {
	return fmt.Errorf("%w: webp export requires cgo", ErrUnsupportedType)
}
