package blobstore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const tempPrefix = ".tmp-"

// Filesystem stores blobs under a root directory, sharded into
// subdirectories by the first two characters of the key.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Filesystem{root: root}, nil
}

func (f *Filesystem) path(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(f.root, shard, key)
}

// Put writes data to a temporary file and hard-links it into place, so a
// concurrent writer of the same key either wins or finds the finished file.
func (f *Filesystem) Put(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	target := f.path(key)
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	if err := os.Link(tmpPath, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return errors.WithStack(err)
	}
	return nil
}

func (f *Filesystem) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

func (f *Filesystem) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

func (f *Filesystem) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(f.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		keys = append(keys, d.Name())
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Strings(keys)
	return keys, nil
}
