package storage

import (
	"errors"
	"path"
	"strings"

	"github.com/dunamismax/chromaflow/internal/codec"
)

var ErrInvalidPath = errors.New("invalid blob path")

// objectKey normalizes a blob path so "/a.png" and "a.png" name the same
// object. Paths escaping the root are rejected.
func objectKey(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	if p == "" {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean("/" + p)
	key := strings.TrimPrefix(cleaned, "/")
	if key == "" || key == "." {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	return key, nil
}

// ContentType sniffs the stored bytes rather than trusting the file name.
func ContentType(data []byte) string {
	f, err := codec.Detect(data)
	if err != nil {
		return "application/octet-stream"
	}
	return f.ContentType()
}
