package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/stretchr/testify/require"
)

func TestConvertIsDeterministic(t *testing.T) {
	src := buildTestPNG(t, 48, 32)

	for _, mode := range []colorspace.Mode{colorspace.ModeIdentity, colorspace.ModeYCbCr, colorspace.ModeHSV, colorspace.ModeLab} {
		first, err := Convert(src, mode)
		require.NoError(t, err)
		second, err := Convert(src, mode)
		require.NoError(t, err)
		require.Equal(t, first, second, mode.String())
	}
}

func TestConvertKeepsContainerFormat(t *testing.T) {
	src := buildTestPNG(t, 10, 10)

	out, err := ConvertImage(src, colorspace.ModeHSV)
	require.NoError(t, err)
	require.Equal(t, codec.FormatPNG, out.Format)
	require.Equal(t, 10, out.Width)
	require.Equal(t, 10, out.Height)

	detected, err := codec.Detect(out.Data)
	require.NoError(t, err)
	require.Equal(t, codec.FormatPNG, detected)
}

func TestConvertIdentityRoundTripsPixels(t *testing.T) {
	src := buildTestPNG(t, 13, 7)

	out, err := Convert(src, colorspace.ModeIdentity)
	require.NoError(t, err)

	before, err := codec.Decode(src, codec.FormatPNG)
	require.NoError(t, err)
	after, err := codec.Decode(out, codec.FormatPNG)
	require.NoError(t, err)
	require.Equal(t, before.Pix, after.Pix)
}

func TestConvertPNMKnownVector(t *testing.T) {
	src := []byte("P6\n1 1\n255\n\x64\x32\xc8")

	ycbcr, err := Convert(src, colorspace.ModeYCbCr)
	require.NoError(t, err)
	require.Equal(t, []byte("P6\n1 1\n255\n\x52\xc2\x8c"), ycbcr)

	hsv, err := Convert(src, colorspace.ModeHSV)
	require.NoError(t, err)
	require.Equal(t, []byte("P6\n1 1\n255\n\xb8\xbf\xc8"), hsv)
}

func TestConvertPlainPNMIsWrittenAsBinary(t *testing.T) {
	out, err := Convert([]byte("P3\n2 1\n255\n1 2 3  4 5 6\n"), colorspace.ModeIdentity)
	require.NoError(t, err)
	require.Equal(t, []byte("P6\n2 1\n255\n\x01\x02\x03\x04\x05\x06"), out)
}

func TestConvertErrorKinds(t *testing.T) {
	_, err := Convert(make([]byte, 128), colorspace.ModeHSV)
	require.ErrorIs(t, err, codec.ErrUnsupportedFormat)

	valid := buildTestPNG(t, 16, 16)
	_, err = Convert(valid[:40], colorspace.ModeHSV)
	require.ErrorIs(t, err, codec.ErrDecode)
	require.Equal(t, codec.KindDecode, codec.KindOf(err))
}

func TestConvertPassesPixelBudgetToDecoder(t *testing.T) {
	_, err := Convert([]byte("P6\n60000 60000\n255\n"), colorspace.ModeYCbCr)
	require.ErrorIs(t, err, codec.ErrDecode)

	src := buildTestPNG(t, 8, 8)
	_, err = Convert(src, colorspace.ModeHSV, codec.MaxPixels(32))
	require.ErrorIs(t, err, codec.ErrDecode)

	_, err = Convert(src, colorspace.ModeHSV, codec.MaxPixels(64))
	require.NoError(t, err)
}

func buildTestPNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}
