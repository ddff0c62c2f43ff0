package store

import (
	"context"
	"strings"
)

// Store is the record and job persistence used by the services.
type Store interface {
	RecordStore
	JobStore
	Close() error
}

// Open connects to postgres when dsn is set and falls back to memory.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return NewMemoryStore(), nil
	}
	pg, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return pg, nil
}
