//go:build !govips || !cgo

package codec

func Startup() error {
	return nil
}

func Shutdown() {}

func NewEncoder() (Encoder, error) {
	return stdEncoder{}, nil
}
