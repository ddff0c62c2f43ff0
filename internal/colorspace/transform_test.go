package colorspace

import (
	"math/rand"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"
)

func TestTransformKnownVectors(t *testing.T) {
	src := &Raster{Width: 1, Height: 1, Pix: []Pixel{{100, 50, 200}}}

	require.Equal(t, []Pixel{{82, 194, 140}}, Transform(src, ModeYCbCr).Pix)
	require.Equal(t, []Pixel{{184, 191, 200}}, Transform(src, ModeHSV).Pix)
}

func TestTransformPreservesDimensions(t *testing.T) {
	src := randomRaster(t, 37, 19)

	for _, mode := range []Mode{ModeIdentity, ModeYCbCr, ModeHSV, ModeLab} {
		out := Transform(src, mode)
		require.Equal(t, src.Width, out.Width, mode.String())
		require.Equal(t, src.Height, out.Height, mode.String())
		require.Len(t, out.Pix, src.Len(), mode.String())
	}
}

func TestTransformIdentityCopies(t *testing.T) {
	src := randomRaster(t, 16, 16)

	out := Transform(src, ModeIdentity)
	require.Equal(t, src.Pix, out.Pix)

	out.Pix[0] = Pixel{1, 2, 3}
	src.Pix[0] = Pixel{4, 5, 6}
	require.NotEqual(t, src.Pix[0], out.Pix[0], "output must not alias the input")
}

// Lab has no real transform yet; this pins the pass-through so that adding
// one is a visible behavior change.
func TestTransformLabIsPassThrough(t *testing.T) {
	src := randomRaster(t, 8, 8)
	require.Equal(t, src.Pix, Transform(src, ModeLab).Pix)
}

func TestTransformDeterministicAcrossRuns(t *testing.T) {
	// Tall enough for parallel.Line to fan out on multi-core machines.
	src := randomRaster(t, 64, 512)

	for _, mode := range []Mode{ModeYCbCr, ModeHSV} {
		first := Transform(src, mode)
		for i := 0; i < 3; i++ {
			require.Equal(t, first.Pix, Transform(src, mode).Pix, mode.String())
		}
		for i, p := range src.Pix {
			var want Pixel
			if mode == ModeYCbCr {
				want = YCbCr(p)
			} else {
				want = HSV(p)
			}
			require.Equal(t, want, first.Pix[i], "pixel %d mode %s", i, mode)
		}
	}
}

func TestTransformEmptyRaster(t *testing.T) {
	out := Transform(NewRaster(0, 0), ModeHSV)
	require.Zero(t, out.Width)
	require.Zero(t, out.Height)
	require.Empty(t, out.Pix)
}

func TestHSVAchromaticHasZeroHue(t *testing.T) {
	for _, v := range []uint8{0, 1, 127, 255} {
		got := HSV(Pixel{v, v, v})
		require.Zero(t, got[0])
		require.Zero(t, got[1])
	}
}

func TestHSVTieBreakPrefersRed(t *testing.T) {
	// max shared by red and blue: red region gives 60*(g-b)/diff = -60 -> 300 degrees.
	require.Equal(t, uint8(212), HSV(Pixel{255, 0, 255})[0])
	// max shared by green and blue: green region gives 60*(b-r)/diff + 120 = 180 degrees.
	require.Equal(t, uint8(127), HSV(Pixel{0, 255, 255})[0])
}

func TestHSVMatchesReferenceLibrary(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		p := Pixel{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
		if p[0] == p[1] || p[1] == p[2] || p[0] == p[2] {
			continue
		}

		h, s, v := colorful.Color{
			R: float64(p[0]) / 255,
			G: float64(p[1]) / 255,
			B: float64(p[2]) / 255,
		}.Hsv()

		got := HSV(p)
		requireWithin(t, got[0], h/360*255, p)
		requireWithin(t, got[1], s*255, p)
		requireWithin(t, got[2], v*255, p)
	}
}

func TestYCbCrRanges(t *testing.T) {
	require.Equal(t, Pixel{0, 127, 127}, YCbCr(Pixel{0, 0, 0}))

	// Pure primaries push the chroma channels to their extremes.
	blue := YCbCr(Pixel{0, 0, 255})
	require.GreaterOrEqual(t, blue[1], uint8(254))
	red := YCbCr(Pixel{255, 0, 0})
	require.GreaterOrEqual(t, red[2], uint8(254))
}

func TestQuantizeTruncatesAndSaturates(t *testing.T) {
	require.Equal(t, uint8(0), quantize(-3.7))
	require.Equal(t, uint8(12), quantize(12.99))
	require.Equal(t, uint8(255), quantize(255.0001))
	require.Equal(t, uint8(255), quantize(1000))
}

func requireWithin(t *testing.T, got uint8, want float64, p Pixel) {
	t.Helper()
	diff := float64(got) - want
	require.Truef(t, diff > -1.001 && diff < 1.001, "pixel %v: got %d want ~%.3f", p, got, want)
}

func randomRaster(t *testing.T, w, h int) *Raster {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(w*h + 1)))
	r := NewRaster(w, h)
	for i := range r.Pix {
		r.Pix[i] = Pixel{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	}
	return r
}
