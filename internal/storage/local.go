package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalDir is a blob store rooted at a directory on the local filesystem.
type LocalDir struct {
	Root string
}

func (d LocalDir) resolve(path string) (string, error) {
	if strings.TrimSpace(d.Root) == "" {
		return "", errors.New("local storage root is required")
	}
	key, err := objectKey(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.Root, filepath.FromSlash(key)), nil
}

func (d LocalDir) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := d.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", full, err)
	}
	return true, nil
}

func (d LocalDir) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("read file %s: %w", full, err)
	}
	return data, nil
}

func (d LocalDir) Store(ctx context.Context, data []byte, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Each writer gets its own temp file; the rename publishes it whole.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", full, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write file %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
