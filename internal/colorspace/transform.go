package colorspace

import (
	"github.com/anthonynsimon/bild/parallel"
	"github.com/chewxy/math32"
)

// Transform maps every pixel of src through the transform selected by mode
// and returns a new raster of the same dimensions. It never fails; unknown
// modes behave like ModeIdentity.
//
// Rows are split across goroutines. Each worker reads only its own input
// pixels and writes only the matching output slots.
func Transform(src *Raster, mode Mode) *Raster {
	dst := NewRaster(src.Width, src.Height)

	var fn func(Pixel) Pixel
	switch mode {
	case ModeYCbCr:
		fn = YCbCr
	case ModeHSV:
		fn = HSV
	default:
		// identity and lab
		copy(dst.Pix, src.Pix)
		return dst
	}

	width := src.Width
	parallel.Line(src.Height, func(start, end int) {
		for i := start * width; i < end*width; i++ {
			dst.Pix[i] = fn(src.Pix[i])
		}
	})
	return dst
}

// YCbCr converts one RGB pixel to full-range (Y, Cb, Cr).
func YCbCr(p Pixel) Pixel {
	r, g, b := normalize(p)

	// Each product is rounded to float32 on its own so the result does not
	// depend on whether the platform fuses multiply-adds.
	y := float32(0.299*r) + float32(0.587*g) + float32(0.114*b)
	cb := float32(-0.168736*r) + float32(-0.331264*g) + float32(0.5*b) + 0.5
	cr := float32(0.5*r) + float32(-0.418688*g) + float32(-0.081312*b) + 0.5

	return Pixel{quantize(float32(y * 255)), quantize(float32(cb * 255)), quantize(float32(cr * 255))}
}

// HSV converts one RGB pixel to (H, S, V), with hue scaled from degrees to
// 0..255. Achromatic pixels get hue 0. When several channels share the
// maximum, red wins over green and green over blue.
func HSV(p Pixel) Pixel {
	r, g, b := normalize(p)

	maxCh := math32.Max(math32.Max(r, g), b)
	minCh := math32.Min(math32.Min(r, g), b)
	diff := maxCh - minCh

	v := maxCh
	var s float32
	if maxCh != 0 {
		s = diff / maxCh
	}

	var h float32
	switch {
	case diff == 0:
		h = 0
	case v == r:
		h = float32(60*(g-b)) / diff
	case v == g:
		h = float32(60*(b-r))/diff + 120
	default:
		h = float32(60*(r-g))/diff + 240
	}
	if h < 0 {
		h += 360
	}

	return Pixel{quantize(float32(h/360) * 255), quantize(float32(s * 255)), quantize(float32(v * 255))}
}

func normalize(p Pixel) (float32, float32, float32) {
	return float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255
}

// quantize truncates toward zero and saturates to the channel range.
func quantize(v float32) uint8 {
	switch {
	case math32.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math32.Trunc(v))
	}
}
