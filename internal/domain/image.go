package domain

import (
	"errors"
	"strings"
	"time"
)

const convertedPrefix = "converted_"

// ImageRecord maps an image id to the blob names of its source and, once a
// conversion has run, its converted output.
type ImageRecord struct {
	ID            int64     `json:"id"`
	RawName       string    `json:"raw_name"`
	ConvertedName string    `json:"converted_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type RegisterImageRequest struct {
	ID      int64  `json:"id"`
	RawName string `json:"raw_name"`
}

func (r RegisterImageRequest) Validate() error {
	if r.ID <= 0 {
		return errors.New("id must be positive")
	}
	name := strings.TrimSpace(r.RawName)
	if name == "" {
		return errors.New("raw_name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.New("raw_name must be a plain file name")
	}
	return nil
}

func ConvertedName(rawName string) string {
	return convertedPrefix + rawName
}

// BlobPath is the blob store path for a record file name.
func BlobPath(name string) string {
	return "/" + strings.TrimLeft(name, "/")
}
