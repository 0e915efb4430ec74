// Package files abstracts where report file bytes live. The core only needs
// store, retrieve and delete; everything else about blobs is the storage
// collaborator's business.
package files

import "context"

// BlobStore holds the binary content of report files, keyed by an opaque
// storage key chosen by the caller.
type BlobStore interface {
	Store(ctx context.Context, key string, contentType string, content []byte) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
