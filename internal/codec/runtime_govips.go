//go:build govips && cgo

package codec

import (
	"bytes"
	"fmt"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	"github.com/dunamismax/chromaflow/internal/colorspace"
)

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

func Startup() error {
	startupOnce.Do(func() {
		vips.Startup(&vips.Config{
			MaxCacheFiles: 0,
			MaxCacheMem:   128 * 1024 * 1024,
			MaxCacheSize:  100,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

// libvips has no raw RGB loader in govips, so the raster is staged as an
// uncompressed PNG first.
func encodeWebP(r *colorspace.Raster, _ options) ([]byte, error) {
	if err := Startup(); err != nil {
		return nil, err
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", r.Width, r.Height)
	}

	var staged bytes.Buffer
	if err := imaging.Encode(&staged, r.RGBA(), imaging.PNG, imaging.PNGCompressionLevel(png.NoCompression)); err != nil {
		return nil, fmt.Errorf("stage png: %w", err)
	}

	img, err := vips.NewImageFromBuffer(staged.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load staged image: %w", err)
	}
	defer img.Close()

	params := vips.NewWebpExportParams()
	params.Lossless = true
	data, _, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("export webp: %w", err)
	}
	return data, nil
}
