package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendMinio = "minio"
	BackendLocal = "local"
)

// Backend is a blob store the services read sources from and write
// converted outputs to.
type Backend interface {
	Exists(ctx context.Context, path string) (bool, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
	Store(ctx context.Context, data []byte, path string) error
}

func Open(ctx context.Context, backend, localDir string, cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendLocal:
		if strings.TrimSpace(localDir) == "" {
			return nil, fmt.Errorf("local storage requires a directory")
		}
		return LocalDir{Root: localDir}, nil
	case BackendMinio, "":
		client, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}
