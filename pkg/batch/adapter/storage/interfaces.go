// Package storage defines the object storage abstraction the archive job writes to.
// Backends (local file system, Google Cloud Storage) live in sub-packages and
// register a StorageProvider in the storage_providers fx group.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
)

// ErrObjectNotFound is returned by Download when the object does not exist.
var ErrObjectNotFound = errors.New("storage object not found")

// StorageExecutor defines the object operations of a backend.
type StorageExecutor interface {
	// Upload writes data to objectName in bucket. An empty bucket means the configured default.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download opens objectName for reading. The caller closes the reader.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object under prefix, stopping at the first error fn returns.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes objectName. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageConnection is one named, open storage backend.
type StorageConnection interface {
	StorageExecutor
	// Name returns the connection name.
	Name() string
	// Type returns the backend type, e.g. "local" or "gcs".
	Type() string
	// Close releases the backend client.
	Close() error
}

// StorageProvider opens connections of one backend type.
type StorageProvider interface {
	// Type returns the backend type handled by this provider.
	Type() string
	// GetConnection returns the named connection, opening it with cfg on first use.
	GetConnection(ctx context.Context, name string, cfg config.StorageConfig) (StorageConnection, error)
	// CloseAll closes every connection opened by this provider.
	CloseAll() error
}

// StorageProviderGroup is the fx value group collecting every StorageProvider.
const StorageProviderGroup = "storage_providers"
