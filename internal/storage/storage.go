// Package storage abstracts where uploaded media bytes live. The disk driver
// serves development and single-node deployments; the s3 driver targets any
// S3-compatible CDN bucket.
package storage

import (
	"context"
	"fmt"
	"io"

	config "github.com/beardedvibes/beardedvibes/configs"
)

type Storage interface {
	// Save writes the object under key and returns its public URL.
	Save(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// New selects the driver from config. Unknown drivers fail at startup rather
// than at first upload.
func New(conf *config.Config) (Storage, error) {
	switch conf.StorageDriver {
	case "disk":
		return NewDiskStorage(conf.UploadDir, conf.PublicBaseURL)
	case "s3":
		return NewS3Storage(&conf.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.StorageDriver)
	}
}
