//go:build govips && cgo

package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/pixelshrink/internal/domain"
)

type govipsEncoder struct{}

// Encode hands the surface to libvips as a lossless PNG and exports it in the
// requested format.
func (govipsEncoder) Encode(img image.Image, mimeType string, quality float64) ([]byte, error) {
	if !domain.IsSupportedType(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	var staged bytes.Buffer
	stager := png.Encoder{CompressionLevel: png.NoCompression}
	if err := stager.Encode(&staged, img); err != nil {
		return nil, fmt.Errorf("stage image for libvips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(staged.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load staged image: %w", err)
	}
	defer ref.Close()

	q := qualityPercent(quality)

	switch mimeType {
	case domain.MIMEJPEG:
		params := vips.NewJpegExportParams()
		params.Quality = q
		data, _, err := ref.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case domain.MIMEWebP:
		params := vips.NewWebpExportParams()
		params.Quality = q
		data, _, err := ref.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	default:
		data, _, err := ref.ExportPng(vips.NewPngExportParams())
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	}
}
