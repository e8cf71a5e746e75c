package blobstore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const (
	blobContentType = "application/vnd.recordare.musicxml+xml"
	codeNoSuchKey   = "NoSuchKey"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Minio stores blobs as objects in a single S3-compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the object store and creates the bucket if it doesn't
// exist yet.
func NewMinio(ctx context.Context, opts MinioOptions) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check bucket %s", opts.Bucket)
	}
	if !exists {
		err = client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create bucket %s", opts.Bucket)
		}
	}

	return &Minio{client: client, bucket: opts.Bucket}, nil
}

// Put uploads data unless an object already exists under key. Two racing
// writers may both upload; they write identical bytes.
func (m *Minio) Put(ctx context.Context, key string, data []byte) error {
	exists, err := m.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: blobContentType,
	})
	return errors.WithStack(err)
}

func (m *Minio) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return true, nil
}

func (m *Minio) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// GetObject is lazy; Stat surfaces a missing key up front.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return obj, nil
}

func (m *Minio) List(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.WithStack(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
