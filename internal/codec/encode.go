package codec

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/chromaflow/internal/colorspace"
)

// Encode serializes r back into f. PNM goes through WritePNM, WebP through
// libvips when available, everything else through imaging.
func Encode(r *colorspace.Raster, f Format, opts ...Option) ([]byte, error) {
	cfg := newOptions(opts)

	var buf bytes.Buffer
	buf.Grow(r.Len()*3 + 32)

	switch f {
	case FormatPNM:
		if err := WritePNM(&buf, r); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatWebP:
		data, err := encodeWebP(r, cfg)
		if err != nil {
			return nil, &Error{Kind: KindEncode, Format: f, Err: err}
		}
		return data, nil
	}

	target, ok := imagingFormats[f]
	if !ok {
		return nil, &Error{Kind: KindUnsupportedFormat, Format: f, Err: fmt.Errorf("no encoder for %s", f)}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, &Error{Kind: KindEncode, Format: f, Err: fmt.Errorf("invalid dimensions %dx%d", r.Width, r.Height)}
	}

	if err := imaging.Encode(&buf, r.RGBA(), target, imaging.JPEGQuality(cfg.jpegQuality)); err != nil {
		return nil, &Error{Kind: KindEncode, Format: f, Err: err}
	}
	return buf.Bytes(), nil
}

var imagingFormats = map[Format]imaging.Format{
	FormatPNG:  imaging.PNG,
	FormatJPEG: imaging.JPEG,
	FormatGIF:  imaging.GIF,
	FormatBMP:  imaging.BMP,
	FormatTIFF: imaging.TIFF,
}
