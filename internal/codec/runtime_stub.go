//go:build !govips || !cgo

package codec

import "github.com/dunamismax/chromaflow/internal/colorspace"

func Startup() error {
	return nil
}

func Shutdown() {}

func encodeWebP(_ *colorspace.Raster, _ options) ([]byte, error) {
	return nil, ErrWebPUnavailable
}
