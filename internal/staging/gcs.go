package staging

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	"github.com/driveturbo/transcriber/internal/logging"
)

// ObjectStore stages audio in a Cloud Storage bucket for URI-based
// long-running recognition.
type ObjectStore struct {
	svc    *gstorage.Service
	bucket string
	logger *logging.Logger
}

// NewObjectStore creates a store over the given bucket.
func NewObjectStore(ctx context.Context, bucket string, logger *logging.Logger, opts ...option.ClientOption) (*ObjectStore, error) {
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("staging: create storage service: %w", err)
	}
	return &ObjectStore{
		svc:    svc,
		bucket: bucket,
		logger: logger.With("component", "staging"),
	}, nil
}

// Upload writes data under key and returns the gs:// URI referencing it.
func (s *ObjectStore) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	obj := &gstorage.Object{Name: key, ContentType: contentType}
	_, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("staging: upload %s: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// Delete removes a staged object. Best-effort: failures are logged, never
// surfaced, because the transcript has already been computed by the time the
// staged copy is discarded.
func (s *ObjectStore) Delete(ctx context.Context, key string) {
	if err := s.svc.Objects.Delete(s.bucket, key).Context(ctx).Do(); err != nil {
		s.logger.Warn("failed to delete staged object", "key", key, "error", err)
	}
}
