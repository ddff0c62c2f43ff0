package codec

import "bytes"

var (
	magicPNG    = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	magicJPEG   = []byte{0xFF, 0xD8, 0xFF}
	magicGIF87  = []byte("GIF87a")
	magicGIF89  = []byte("GIF89a")
	magicBMP    = []byte("BM")
	magicTIFFLE = []byte{'I', 'I', 0x2A, 0x00}
	magicTIFFBE = []byte{'M', 'M', 0x00, 0x2A}
	magicRIFF   = []byte("RIFF")
	magicWEBP   = []byte("WEBP")
)

// Detect identifies the container format from the leading bytes of data.
// File names and extensions play no part.
func Detect(data []byte) (Format, error) {
	switch {
	case isPNM(data):
		return FormatPNM, nil
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG, nil
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPEG, nil
	case bytes.HasPrefix(data, magicGIF87), bytes.HasPrefix(data, magicGIF89):
		return FormatGIF, nil
	case len(data) >= 12 && bytes.HasPrefix(data, magicRIFF) && bytes.Equal(data[8:12], magicWEBP):
		return FormatWebP, nil
	case bytes.HasPrefix(data, magicTIFFLE), bytes.HasPrefix(data, magicTIFFBE):
		return FormatTIFF, nil
	case bytes.HasPrefix(data, magicBMP):
		return FormatBMP, nil
	}
	return FormatUnknown, &Error{Kind: KindUnsupportedFormat, Err: errNoSignature}
}

// Netpbm magic is 'P', a digit 1-7, then whitespace.
func isPNM(data []byte) bool {
	if len(data) < 3 || data[0] != 'P' || data[1] < '1' || data[1] > '7' {
		return false
	}
	switch data[2] {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
