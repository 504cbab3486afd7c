package evidence

import (
	"context"
	"io"
)

type bucketUploader interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PublicURL(key string) string
}

// BucketStore adapts the object storage client to BlobStore.
type BucketStore struct {
	bucket bucketUploader
}

func NewBucketStore(bucket bucketUploader) *BucketStore {
	return &BucketStore{bucket: bucket}
}

func (s *BucketStore) UploadBlob(ctx context.Context, key string, body io.Reader, contentType string) error {
	return s.bucket.Upload(ctx, key, body, contentType)
}

func (s *BucketStore) PublicURL(key string) string {
	return s.bucket.PublicURL(key)
}
