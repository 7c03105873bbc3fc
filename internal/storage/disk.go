package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type DiskStorage struct {
	dir     string
	baseURL string
}

func NewDiskStorage(dir, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes to a temp file first and renames into place, so a crashed
// upload never leaves a half-written object at a servable path.
func (d *DiskStorage) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		slog.Info(err.Error())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	dst := filepath.Join(d.dir, key)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return d.baseURL + "/media/" + key, nil
}

func (d *DiskStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(d.dir, key))
	if err != nil && !os.IsNotExist(err) {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Dir exposes the root so the server can mount it as a static route.
func (d *DiskStorage) Dir() string {
	return d.dir
}
