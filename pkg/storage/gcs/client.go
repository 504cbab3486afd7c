package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// ErrObjectExists is returned when an upload would overwrite an existing object.
var ErrObjectExists = errors.New("object already exists")

// ObjectInfo is the subset of object attributes the sweep needs.
type ObjectInfo struct {
	Key       string
	Size      int64
	CreatedAt time.Time
}

// UploadOptions carries per-object metadata.
type UploadOptions struct {
	ContentType  string
	CacheControl string
}

// bucketAPI is the slice of the storage SDK used by Client; tests replace it.
type bucketAPI interface {
	newWriter(ctx context.Context, key string, opts UploadOptions) io.WriteCloser
	list(ctx context.Context, prefix string) ([]ObjectInfo, error)
	delete(ctx context.Context, key string) error
	attrs(ctx context.Context) error
}

type Client struct {
	raw          *storage.Client
	bucket       bucketAPI
	bucketName   string
	publicBase   string
	cacheControl string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient opens a storage client for the configured bucket. Credentials come
// from the inline JSON, the credentials file, or application default credentials.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	raw, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	client := newClient(&sdkBucket{handle: raw.Bucket(cfg.BucketName)}, cfg)
	client.raw = raw

	if err := client.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func newClient(bucket bucketAPI, cfg config.GCSConfig) *Client {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return &Client{
		bucket:       bucket,
		bucketName:   cfg.BucketName,
		publicBase:   base,
		cacheControl: cfg.CacheControl(),
	}
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucketName
}

// Upload writes r under key. The write is conditional on the object not existing
// yet; a collision surfaces as ErrObjectExists. A failing reader leaves no object.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if c == nil || c.bucket == nil {
		return errors.New("gcs client not initialized")
	}
	if key == "" {
		return errors.New("object key is required")
	}

	// Cancelling the writer context abandons the upload; Close alone would commit
	// whatever was copied so far.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.bucket.newWriter(ctx, key, UploadOptions{ContentType: contentType, CacheControl: c.cacheControl})
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return mapWriteErr(key, err)
	}
	if err := w.Close(); err != nil {
		return mapWriteErr(key, err)
	}
	return nil
}

func mapWriteErr(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%s: %w", key, ErrObjectExists)
	}
	return fmt.Errorf("write object %s: %w", key, err)
}

// PublicURL resolves the durable public URL of key.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucketName, escapeKey(key))
}

// KeyFromURL is the inverse of PublicURL; ok is false for foreign URLs.
func (c *Client) KeyFromURL(raw string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", c.publicBase, c.bucketName)
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(raw, prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// ListCreatedBefore returns objects under prefix created before cutoff.
func (c *Client) ListCreatedBefore(ctx context.Context, prefix string, cutoff time.Time) ([]ObjectInfo, error) {
	if c == nil || c.bucket == nil {
		return nil, errors.New("gcs client not initialized")
	}
	objects, err := c.bucket.list(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	out := make([]ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.CreatedAt.Before(cutoff) {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Delete removes key; a missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.bucket == nil {
		return errors.New("gcs client not initialized")
	}
	if err := c.bucket.delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.bucket == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.bucket.attrs(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

type sdkBucket struct {
	handle *storage.BucketHandle
}

func (b *sdkBucket) newWriter(ctx context.Context, key string, opts UploadOptions) io.WriteCloser {
	w := b.handle.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.CacheControl = opts.CacheControl
	return w
}

func (b *sdkBucket) list(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size", "Created"}); err != nil {
		return nil, err
	}
	it := b.handle.Objects(ctx, query)
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectInfo{Key: attrs.Name, Size: attrs.Size, CreatedAt: attrs.Created})
	}
	return out, nil
}

func (b *sdkBucket) delete(ctx context.Context, key string) error {
	return b.handle.Object(key).Delete(ctx)
}

func (b *sdkBucket) attrs(ctx context.Context) error {
	_, err := b.handle.Attrs(ctx)
	return err
}
