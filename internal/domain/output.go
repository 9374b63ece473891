package domain

import (
	"fmt"
	"strings"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"

	DefaultOutputType    = MIMEJPEG
	DefaultOutputWidth   = 1000
	DefaultOutputHeight  = 618
	DefaultOutputQuality = 0.9
)

var supportedTypes = map[string]string{
	MIMEJPEG: "jpeg",
	MIMEPNG:  "png",
	MIMEWebP: "webp",
}

// IsSupportedType reports whether mimeType can be produced as output.
func IsSupportedType(mimeType string) bool {
	_, ok := supportedTypes[mimeType]
	return ok
}

// IsImageType reports whether a declared input type names an image.
func IsImageType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image")
}

// Extension returns the file extension used for an output type.
func Extension(mimeType string) string {
	if ext, ok := supportedTypes[mimeType]; ok {
		return ext
	}
	return "bin"
}

// Opaque reports whether mimeType cannot carry an alpha channel.
func Opaque(mimeType string) bool {
	return mimeType == MIMEJPEG
}

// OutputSpec is the caller's encode target. Zero fields take the defaults.
type OutputSpec struct {
	Type    string  `json:"type,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Quality float64 `json:"quality,omitempty"`
}

// Resolve fills defaults and substitutes DefaultOutputType for a type outside
// the allow-list. The returned warning is non-empty when that substitution
// happened.
func (s OutputSpec) Resolve() (OutputSpec, string) {
	out := s
	var warning string

	out.Type = strings.ToLower(strings.TrimSpace(out.Type))
	switch {
	case out.Type == "":
		out.Type = DefaultOutputType
	case !IsSupportedType(out.Type):
		warning = fmt.Sprintf("unsupported output type %q, falling back to %s", s.Type, DefaultOutputType)
		out.Type = DefaultOutputType
	}
	if out.Width == 0 {
		out.Width = DefaultOutputWidth
	}
	if out.Height == 0 {
		out.Height = DefaultOutputHeight
	}
	if out.Quality == 0 {
		out.Quality = DefaultOutputQuality
	}
	return out, warning
}
