package backup

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// MinioStore implements Store on top of any S3-compatible endpoint via
// minio-go, adapted from blobstore/minio's Store the same way S3Store
// was adapted from blobstore/s3's: whole-object Put/Get in place of the
// Open/WritableBlob split.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore creates a MinioStore. rootPrefix is prepended to every
// key.
func NewMinioStore(client *minio.Client, bucket, rootPrefix string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *MinioStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put implements Store.
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key), r, size, minio.PutObjectOptions{})
	return err
}

// Get implements Store.
func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioError(err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, translateMinioError(err)
	}
	return obj, nil
}

// Delete implements Store.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.key(key), minio.RemoveObjectOptions{})
}

// List implements Store.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	fullPrefix := s.key(prefix)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: fullPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		rel := obj.Key
		if len(s.prefix) > 0 && len(rel) >= len(s.prefix) {
			rel = rel[len(s.prefix):]
		}
		keys = append(keys, rel)
	}
	return keys, nil
}

func translateMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return ErrNotFound
	}
	return err
}

var _ Store = (*MinioStore)(nil)
