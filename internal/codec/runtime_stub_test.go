//go:build !govips || !cgo

package codec

import (
	"testing"

	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/stretchr/testify/require"
)

func TestEncodeWebPWithoutLibvips(t *testing.T) {
	_, err := Encode(colorspace.NewRaster(2, 2), FormatWebP)
	require.ErrorIs(t, err, ErrEncode)
	require.ErrorIs(t, err, ErrWebPUnavailable)
}
