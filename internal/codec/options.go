package codec

const (
	DefaultJPEGQuality = 95

	// DefaultMaxPixels bounds the decoded size of a single image, roughly
	// 128 MiB of RGBA plus the 96 MiB RGB raster.
	DefaultMaxPixels = 1 << 25
)

type options struct {
	jpegQuality int
	maxPixels   int64
}

type Option func(*options)

func newOptions(opts []Option) options {
	cfg := options{
		jpegQuality: DefaultJPEGQuality,
		maxPixels:   DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// JPEGQuality sets the JPEG quality (1-100). Out of range values keep the
// default.
func JPEGQuality(quality int) Option {
	return func(c *options) {
		if quality > 0 && quality <= 100 {
			c.jpegQuality = quality
		}
	}
}

// MaxPixels caps width*height accepted by Decode. Non-positive values keep
// the default.
func MaxPixels(n int) Option {
	return func(c *options) {
		if n > 0 {
			c.maxPixels = int64(n)
		}
	}
}
