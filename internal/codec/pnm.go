package codec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dunamismax/chromaflow/internal/colorspace"
)

const pnmMagic = "P6"

// WritePNM serializes r as a binary PPM: a three line text header (magic,
// "width height", max value 255) followed by the raw channel triplets in
// row-major order. Channels are written as stored, whatever they encode.
func WritePNM(w io.Writer, r *colorspace.Raster) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", pnmMagic, r.Width, r.Height); err != nil {
		return &Error{Kind: KindWrite, Format: FormatPNM, Err: fmt.Errorf("write header: %w", err)}
	}
	for _, p := range r.Pix {
		if _, err := bw.Write(p[:]); err != nil {
			return &Error{Kind: KindWrite, Format: FormatPNM, Err: fmt.Errorf("write pixels: %w", err)}
		}
	}
	if err := bw.Flush(); err != nil {
		return &Error{Kind: KindWrite, Format: FormatPNM, Err: fmt.Errorf("flush: %w", err)}
	}
	return nil
}
