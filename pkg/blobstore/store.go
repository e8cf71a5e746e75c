// Package blobstore holds song documents keyed by their content fingerprint.
// Writes are create-if-absent: storing a key that already exists is a no-op
// success, since identical keys always carry identical bytes.
package blobstore

import (
	"context"
	"io"
	"strings"

	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

type Store interface {
	// Put stores data under key unless the key is already present.
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns every stored key.
	List(ctx context.Context) ([]string, error)
}

// New builds the store selected by cfg.BlobStoreDriver.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobStoreDriver {
	case config.BlobStoreDriverFilesystem:
		return NewFilesystem(cfg.BlobStoreDir)
	case config.BlobStoreDriverMinio:
		return NewMinio(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, errors.Errorf("unknown blob store driver %q", cfg.BlobStoreDriver)
	}
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return errors.Errorf("invalid blob key %q", key)
	}
	return nil
}
