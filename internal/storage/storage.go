// Package storage keeps uploaded image bytes, either on the local disk
// (served by the HTTP server under the public path) or in an S3 compatible
// bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/recipe-share/internal/config"
)

// ErrNotExist is returned by Delete when the object is already gone.
var ErrNotExist = errors.New("storage: object does not exist")

// Store writes, removes and addresses objects by key. Keys are flat file
// names produced by the image service.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocal(cfg.UploadDir, cfg.PublicPath), nil
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

// validKey rejects keys that could escape the upload directory or bucket prefix.
func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}
