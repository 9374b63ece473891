//go:build cgo && !govips

package codec

import (
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
)

const webpSupported = true

func encodeWebP(w io.Writer, img image.Image, quality float64) error {
	if err := webp.Encode(w, img, &webp.Options{Quality: float32(qualityPercent(quality))}); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}
