package pipeline

import (
	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/colorspace"
)

type Converted struct {
	Data   []byte
	Format codec.Format
	Width  int
	Height int
}

// Convert detects the container format of data, applies mode to every pixel
// and re-encodes the result in the same format. Failures are *codec.Error
// values and are never transient.
func Convert(data []byte, mode colorspace.Mode, opts ...codec.Option) ([]byte, error) {
	out, err := ConvertImage(data, mode, opts...)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func ConvertImage(data []byte, mode colorspace.Mode, opts ...codec.Option) (Converted, error) {
	format, err := codec.Detect(data)
	if err != nil {
		return Converted{}, err
	}

	raster, err := codec.Decode(data, format, opts...)
	if err != nil {
		return Converted{}, err
	}

	transformed := colorspace.Transform(raster, mode)

	encoded, err := codec.Encode(transformed, format, opts...)
	if err != nil {
		return Converted{}, err
	}

	return Converted{
		Data:   encoded,
		Format: format,
		Width:  transformed.Width,
		Height: transformed.Height,
	}, nil
}
