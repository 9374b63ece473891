package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/pixelshrink/internal/orientation"
	"github.com/rwcarlsen/goexif/exif"
)

var ErrNoOrientation = errors.New("orientation metadata unavailable")

// Reader extracts the EXIF orientation tag from encoded image bytes.
type Reader struct {
	// Timeout bounds a single extraction. Zero means no bound beyond ctx.
	Timeout time.Duration
}

type orientationResult struct {
	code orientation.Code
	err  error
}

// Orientation returns the orientation stored in data. Every failure path
// returns orientation.Identity alongside the error, so callers may ignore the
// error and still get a usable code.
func (r Reader) Orientation(ctx context.Context, data []byte) (orientation.Code, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	done := make(chan orientationResult, 1)
	go func() {
		code, err := decodeOrientation(data)
		done <- orientationResult{code: code, err: err}
	}()

	select {
	case <-ctx.Done():
		return orientation.Identity, fmt.Errorf("read orientation: %w", ctx.Err())
	case res := <-done:
		return res.code, res.err
	}
}

func decodeOrientation(data []byte) (orientation.Code, error) {
	if len(data) == 0 {
		return orientation.Identity, fmt.Errorf("%w: empty input", ErrNoOrientation)
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return orientation.Identity, fmt.Errorf("%w: %v", ErrNoOrientation, err)
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return orientation.Identity, fmt.Errorf("%w: %v", ErrNoOrientation, err)
	}

	value, err := tag.Int(0)
	if err != nil {
		return orientation.Identity, fmt.Errorf("%w: %v", ErrNoOrientation, err)
	}

	code := orientation.Code(value)
	if !code.Valid() {
		return orientation.Identity, fmt.Errorf("%w: out of range value %d", ErrNoOrientation, value)
	}
	return code, nil
}
