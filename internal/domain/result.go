package domain

// Blob is an encoded image along with the MIME type it was declared as.
type Blob struct {
	Type string
	Data []byte
}

func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

type ImageInfo struct {
	Blob
	Width  int
	Height int
}

// Result pairs the untouched input with the compressed output. Source
// dimensions are the raw decoded ones, before orientation is applied.
type Result struct {
	Source ImageInfo
	Result ImageInfo
}
