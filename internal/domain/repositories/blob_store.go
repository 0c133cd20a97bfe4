package repositories

import "context"

// Blob is raw stored content plus the revision token it was read at
type Blob struct {
	Content  []byte
	Revision string
}

// BlobStore reads and conditionally writes opaque blobs at string paths.
//
// Implementations encode and decode any wire representation so callers
// always see raw bytes.
type BlobStore interface {
	// FetchBlob returns the blob at path, or domain.ErrBlobNotFound.
	// Any other failure is a *domain.TransportError.
	FetchBlob(ctx context.Context, path string) (*Blob, error)

	// WriteBlob stores content at path and returns the new revision.
	// An empty revision means create; it fails with domain.ErrRevisionConflict
	// if something already exists. A non-empty revision must match the
	// current one, else domain.ErrRevisionConflict.
	WriteBlob(ctx context.Context, path string, content []byte, revision, message string) (string, error)

	// ListBlobs returns the paths of blobs directly under dir.
	// A missing directory yields an empty list.
	ListBlobs(ctx context.Context, dir string) ([]string, error)
}
