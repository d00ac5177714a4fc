// Package gcs stores archive objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// ProviderType is the storage type handled by this package.
const ProviderType = "gcs"

type gcsAdapter struct {
	client *gstorage.Client
	cfg    config.StorageConfig
	name   string
}

var _ storage.StorageConnection = (*gcsAdapter)(nil)

// NewGCSAdapter opens a client for cfg.BucketName. Without a credentials file the
// client falls back to application default credentials.
func NewGCSAdapter(ctx context.Context, cfg config.StorageConfig, name string) (storage.StorageConnection, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs storage '%s': bucket_name must be set", name)
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage '%s': create client: %w", name, err)
	}
	return &gcsAdapter{client: client, cfg: cfg, name: name}, nil
}

func (a *gcsAdapter) Name() string { return a.name }
func (a *gcsAdapter) Type() string { return ProviderType }
func (a *gcsAdapter) Close() error { return a.client.Close() }

func (a *gcsAdapter) bucket(name string) *gstorage.BucketHandle {
	if name == "" {
		name = a.cfg.BucketName
	}
	return a.client.Bucket(name)
}

// Upload streams data into the object. The object only becomes visible once the
// writer closes successfully.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w", w.Bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", w.Bucket, objectName, err)
	}
	logger.Debugf("Uploaded gs://%s/%s (gcs storage '%s').", w.Bucket, objectName, a.name)
	return nil
}

func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := a.bucket(bucket).Object(objectName).NewReader(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", objectName, storage.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", objectName, err)
	}
	return r, nil
}

func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	it := a.bucket(bucket).Objects(ctx, &gstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.bucket(bucket).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gstorage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}

// Provider opens GCS connections.
type Provider struct {
	cache *storage.ConnectionCache
}

// NewProvider returns a GCS storage provider.
func NewProvider() storage.StorageProvider {
	return &Provider{cache: storage.NewConnectionCache()}
}

func (p *Provider) Type() string { return ProviderType }

func (p *Provider) GetConnection(ctx context.Context, name string, cfg config.StorageConfig) (storage.StorageConnection, error) {
	if cfg.Type != ProviderType {
		return nil, fmt.Errorf("storage '%s' has type %q, not %q", name, cfg.Type, ProviderType)
	}
	return p.cache.Get(name, func() (storage.StorageConnection, error) {
		return NewGCSAdapter(ctx, cfg, name)
	})
}

func (p *Provider) CloseAll() error { return p.cache.CloseAll() }
