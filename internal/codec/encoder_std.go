//go:build !govips || !cgo

package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/dunamismax/pixelshrink/internal/domain"
)

type stdEncoder struct{}

func (stdEncoder) Encode(img image.Image, mimeType string, quality float64) ([]byte, error) {
	var buf bytes.Buffer

	switch mimeType {
	case domain.MIMEJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: qualityPercent(quality)}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case domain.MIMEPNG:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case domain.MIMEWebP:
		if err := encodeWebP(&buf, img, quality); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	return buf.Bytes(), nil
}
