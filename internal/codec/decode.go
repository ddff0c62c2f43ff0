package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode parses data, already identified as f, into an RGB raster. Palette,
// grayscale and alpha-bearing sources are normalized to three channels.
// The header is checked against the pixel budget before any pixel buffer is
// allocated.
func Decode(data []byte, f Format, opts ...Option) (*colorspace.Raster, error) {
	if !decodable(f) {
		return nil, &Error{Kind: KindUnsupportedFormat, Format: f, Err: fmt.Errorf("no decoder for %s", f)}
	}

	cfg := newOptions(opts)
	if err := checkHeader(data, f, cfg.maxPixels); err != nil {
		return nil, &Error{Kind: KindDecode, Format: f, Err: err}
	}

	var (
		img image.Image
		err error
	)
	if f == FormatPNM {
		img, err = netpbm.Decode(bytes.NewReader(data), &netpbm.DecodeOptions{Target: netpbm.PPM})
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, &Error{Kind: KindDecode, Format: f, Err: err}
	}

	return colorspace.FromImage(img), nil
}

func decodable(f Format) bool {
	switch f {
	case FormatPNM, FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatWebP:
		return true
	default:
		return false
	}
}

func checkHeader(data []byte, f Format, maxPixels int64) error {
	var (
		hdr image.Config
		err error
	)
	if f == FormatPNM {
		hdr, err = netpbm.DecodeConfig(bytes.NewReader(data))
	} else {
		hdr, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return err
	}

	if hdr.Width < 0 || hdr.Height < 0 {
		return fmt.Errorf("%w: %dx%d", errBadDimensions, hdr.Width, hdr.Height)
	}
	pixels := int64(hdr.Width) * int64(hdr.Height)
	if pixels > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", errTooLarge, hdr.Width, hdr.Height, maxPixels)
	}

	if f == FormatPNM {
		if need := minPNMBody(data, int64(hdr.Width), int64(hdr.Height)); int64(len(data)) < need {
			return fmt.Errorf("%w: %d bytes for %dx%d", errTruncated, len(data), hdr.Width, hdr.Height)
		}
	}
	return nil
}

// minPNMBody is a lower bound on the raster bytes a PNM of w x h carries.
// Plain variants spend at least one byte per pixel.
func minPNMBody(data []byte, w, h int64) int64 {
	if len(data) < 2 {
		return 0
	}
	switch data[1] {
	case '4':
		return (w + 7) / 8 * h
	case '6':
		return 3 * w * h
	default:
		return w * h
	}
}
