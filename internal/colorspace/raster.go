package colorspace

import (
	"image"
	"image/color"
)

// Pixel holds three 8-bit channels. Their meaning (RGB, YCbCr, HSV) depends
// on the transform that produced the raster.
type Pixel [3]uint8

// Raster is a row-major grid of Pixels with its origin at the top-left.
// len(Pix) is always Width*Height.
type Raster struct {
	Width  int
	Height int
	Pix    []Pixel
}

func NewRaster(width, height int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, width*height),
	}
}

func (r *Raster) Set(x, y int, p Pixel) {
	r.Pix[y*r.Width+x] = p
}

func (r *Raster) Len() int {
	return r.Width * r.Height
}

// RGBA exposes the raster as an opaque *image.RGBA so that standard encoders
// can serialize it. Channels are copied verbatim whatever their meaning.
func (r *Raster) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, p := range r.Pix {
		off := i * 4
		img.Pix[off] = p[0]
		img.Pix[off+1] = p[1]
		img.Pix[off+2] = p[2]
		img.Pix[off+3] = 0xff
	}
	return img
}

// FromImage normalizes any decoded image to three RGB channels. Alpha is
// dropped after un-premultiplying, so translucent sources keep their color.
func FromImage(src image.Image) *Raster {
	bounds := src.Bounds()
	out := NewRaster(bounds.Dx(), bounds.Dy())

	switch img := src.(type) {
	case *image.NRGBA:
		for y := 0; y < out.Height; y++ {
			off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := img.Pix[off : off+out.Width*4]
			for x := 0; x < out.Width; x++ {
				out.Set(x, y, Pixel{row[x*4], row[x*4+1], row[x*4+2]})
			}
		}
		return out
	case *image.Gray:
		for y := 0; y < out.Height; y++ {
			off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := img.Pix[off : off+out.Width]
			for x, v := range row {
				out.Set(x, y, Pixel{v, v, v})
			}
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			out.Set(x, y, Pixel{c.R, c.G, c.B})
		}
	}
	return out
}
