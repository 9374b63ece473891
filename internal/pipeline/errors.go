package pipeline

import "errors"

var (
	ErrMissingInput         = errors.New("file blob is required")
	ErrUnsupportedInputType = errors.New("unsupported file type")
	ErrDecode               = errors.New("image load error")
	ErrEncode               = errors.New("image encode error")
	ErrConfiguration        = errors.New("pipeline misconfigured")
)
