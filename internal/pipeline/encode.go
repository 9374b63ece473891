package pipeline

import (
	"github.com/dunamismax/pixelshrink/internal/codec"
	"github.com/dunamismax/pixelshrink/internal/domain"
	"github.com/dunamismax/pixelshrink/internal/raster"
)

func encode(enc codec.Encoder, s *raster.Surface, mimeType string, quality float64) (domain.ImageInfo, error) {
	data, err := enc.Encode(s.Image(), mimeType, quality)
	if err != nil {
		return domain.ImageInfo{}, err
	}
	return domain.ImageInfo{
		Blob:   domain.Blob{Type: mimeType, Data: data},
		Width:  s.Width(),
		Height: s.Height(),
	}, nil
}
