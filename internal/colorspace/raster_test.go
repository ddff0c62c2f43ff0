package colorspace

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromImageHonorsSubImageBounds(t *testing.T) {
	full := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			full.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 9, A: 255})
		}
	}
	sub := full.SubImage(image.Rect(1, 2, 3, 4))

	r := FromImage(sub)
	require.Equal(t, 2, r.Width)
	require.Equal(t, 2, r.Height)
	require.Equal(t, []Pixel{{1, 2, 9}, {2, 2, 9}, {1, 3, 9}, {2, 3, 9}}, r.Pix)
}

func TestFromImageGenericPath(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA64{R: 0xffff, A: 0xffff})
	img.Set(1, 0, color.RGBA64{G: 0x8080, B: 0x1010, A: 0xffff})

	r := FromImage(img)
	require.Equal(t, []Pixel{{255, 0, 0}, {0, 128, 16}}, r.Pix)
}

func TestRasterSetIsRowMajor(t *testing.T) {
	r := NewRaster(3, 2)
	r.Set(2, 1, Pixel{7, 8, 9})
	require.Equal(t, Pixel{7, 8, 9}, r.Pix[5])
	require.Equal(t, 6, r.Len())
}
