package codec

import "strings"

// Format is a container encoding recognized by Detect.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNM
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatBMP
	FormatTIFF
	FormatWebP
)

var formatNames = map[Format]string{
	FormatPNM:  "pnm",
	FormatPNG:  "png",
	FormatJPEG: "jpeg",
	FormatGIF:  "gif",
	FormatBMP:  "bmp",
	FormatTIFF: "tiff",
	FormatWebP: "webp",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNM:
		return "image/x-portable-pixmap"
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	case FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pnm", "ppm", "pgm", "pbm", "pam":
		return FormatPNM
	case "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPEG
	case "gif":
		return FormatGIF
	case "bmp":
		return FormatBMP
	case "tif", "tiff":
		return FormatTIFF
	case "webp":
		return FormatWebP
	default:
		return FormatUnknown
	}
}
