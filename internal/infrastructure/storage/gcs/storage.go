package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

// Storage keeps uploaded images as objects under an optional prefix.
type Storage struct {
	bucket *storage.BucketHandle
	prefix string
}

func New(client *storage.Client, bucket, prefix string) *Storage {
	return &Storage{bucket: client.Bucket(bucket), prefix: prefix}
}

func (s *Storage) object(key string) *storage.ObjectHandle {
	return s.bucket.Object(path.Join(s.prefix, key))
}

// Save never overwrites; an existing object is a conflict.
func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	writer := s.object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, data); err != nil {
		_ = writer.Close()
		return classify("write object", key, err)
	}
	if err := writer.Close(); err != nil {
		return classify("finalize object", key, err)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.object(key).NewReader(ctx)
	if err != nil {
		return nil, classify("open object", key, err)
	}
	return reader, nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return classify("delete object", key, err)
	}
	return nil
}

func classify(op, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("object %s: %w", key, err))
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusPreconditionFailed:
			return domain.WrapError(domain.ErrConflict, op, fmt.Errorf("object %s already exists", key))
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return domain.WrapError(domain.ErrTemporary, op, err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}
