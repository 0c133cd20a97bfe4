// Package memory is an in-process BlobStore with the same revision semantics
// as the remote stores. Used for local development and tests.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"notebin/internal/domain"
	"notebin/internal/domain/repositories"
)

type entry struct {
	content  []byte
	revision string
}

// Store keeps blobs in a map guarded by a mutex
type Store struct {
	mu         sync.Mutex
	blobs      map[string]entry
	generation int
}

var _ repositories.BlobStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{blobs: make(map[string]entry)}
}

// FetchBlob implements repositories.BlobStore
func (s *Store) FetchBlob(ctx context.Context, p string) (*repositories.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.TransportError{Op: "fetch", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.blobs[p]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return &repositories.Blob{Content: append([]byte(nil), e.content...), Revision: e.revision}, nil
}

// WriteBlob implements repositories.BlobStore
func (s *Store) WriteBlob(ctx context.Context, p string, content []byte, revision, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.blobs[p]
	if exists && current.revision != revision {
		return "", domain.ErrRevisionConflict
	}
	if !exists && revision != "" {
		return "", domain.ErrRevisionConflict
	}

	s.generation++
	rev := revisionOf(content, s.generation)
	s.blobs[p] = entry{content: append([]byte(nil), content...), revision: rev}
	return rev, nil
}

// ListBlobs implements repositories.BlobStore
func (s *Store) ListBlobs(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.TransportError{Op: "list", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir = strings.Trim(dir, "/")
	paths := []string{}
	for p := range s.blobs {
		if path.Dir(p) == dir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// revisionOf mixes in a generation so rewriting identical content still
// produces a new revision
func revisionOf(content []byte, generation int) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte(strconv.Itoa(generation)))
	return hex.EncodeToString(h.Sum(nil))[:40]
}
