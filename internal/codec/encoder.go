package codec

import (
	"errors"
	"image"
	"math"
)

// DefaultQuality is used when a requested quality falls outside [0, 1].
const DefaultQuality = 92

var ErrUnsupportedType = errors.New("unsupported output type")

type Encoder interface {
	Encode(img image.Image, mimeType string, quality float64) ([]byte, error)
}

// qualityPercent maps a [0, 1] quality onto the 1..100 scale used by the
// encoders. Values outside the range select DefaultQuality.
func qualityPercent(quality float64) int {
	if math.IsNaN(quality) || quality < 0 || quality > 1 {
		return DefaultQuality
	}
	return max(1, int(math.Round(quality*100)))
}
