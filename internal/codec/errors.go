package codec

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure. Every kind is terminal; retrying the
// same bytes gives the same result.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFormat
	KindDecode
	KindEncode
	KindWrite
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("decode image")
	ErrEncode            = errors.New("encode image")
	ErrWrite             = errors.New("write image")

	// ErrWebPUnavailable is wrapped in a KindEncode error when the binary
	// was built without the govips tag.
	ErrWebPUnavailable = errors.New("webp export requires govips build tag")

	errNoSignature   = errors.New("no known signature matched")
	errTooLarge      = errors.New("image dimensions exceed pixel budget")
	errTruncated     = errors.New("pixel data shorter than header declares")
	errBadDimensions = errors.New("invalid image dimensions")
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindDecode:
		return "decode_error"
	case KindEncode:
		return "encode_error"
	case KindWrite:
		return "write_error"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindDecode:
		return ErrDecode
	case KindEncode:
		return ErrEncode
	case KindWrite:
		return ErrWrite
	default:
		return nil
	}
}

type Error struct {
	Kind   Kind
	Format Format
	Err    error
}

func (e *Error) Error() string {
	prefix := e.Kind.sentinel()
	msg := "codec failure"
	if prefix != nil {
		msg = prefix.Error()
	}
	if e.Format != FormatUnknown {
		msg = fmt.Sprintf("%s format=%s", msg, e.Format)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an *Error against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf reports the Kind carried by err, or KindUnknown when err is not a
// codec error.
func KindOf(err error) Kind {
	var codecErr *Error
	if errors.As(err, &codecErr) {
		return codecErr.Kind
	}
	return KindUnknown
}
