// Package codec converts record collections to and from the blob bytes kept
// in the remote store.
//
// A collection is stored as one JSON object keyed by record ID:
//
//	{
//	  "3f0c...": {"title": "Untitled", "content": "hello", "created_at": "..."}
//	}
//
// The ID lives only in the key and is restored on decode.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"notebin/internal/domain"
	"notebin/internal/domain/models"
)

// storedRecord is a record minus its ID
type storedRecord struct {
	Title     string     `json:"title"`
	Content   *string    `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// EncodeCollection serializes a collection. Output is deterministic: keys are
// sorted and the document ends with a newline.
func EncodeCollection(c *models.Collection) ([]byte, error) {
	out := make(map[string]storedRecord, c.Len())
	for _, r := range c.List() {
		content := r.Content
		out[r.ID] = storedRecord{
			Title:     r.Title,
			Content:   &content,
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: utcPtr(r.UpdatedAt),
		}
	}

	// scripts are full of <, > and &; escaping them would inflate the blob
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, &domain.CodecError{Message: "encode collection", Err: err}
	}
	return buf.Bytes(), nil
}

// DecodeCollection parses a collection blob. An empty or whitespace-only blob
// is an empty collection.
func DecodeCollection(data []byte) (*models.Collection, error) {
	c := models.NewCollection()
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}

	var raw map[string]storedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.CodecError{Message: "malformed collection", Err: err}
	}

	for id, sr := range raw {
		if id == "" {
			return nil, &domain.CodecError{Message: "record with empty id"}
		}
		if sr.Content == nil || *sr.Content == "" {
			return nil, &domain.CodecError{Message: fmt.Sprintf("record %s has no content", id)}
		}
		title := sr.Title
		if strings.TrimSpace(title) == "" {
			title = models.DefaultTitle
		}
		c.Put(&models.Record{
			ID:        id,
			Title:     title,
			Content:   *sr.Content,
			CreatedAt: sr.CreatedAt,
			UpdatedAt: sr.UpdatedAt,
		})
	}

	return c, nil
}

// DecodeLegacyFile decodes one file of the legacy one-file-per-record layout
// (e.g. "notes/<id>.txt"). The ID is the file name without its extension and
// the whole file body is the content.
func DecodeLegacyFile(filePath string, data []byte, createdAt time.Time) (*models.Record, error) {
	base := path.Base(filePath)
	id := strings.TrimSuffix(base, path.Ext(base))
	if id == "" || id == "." || id == "/" {
		return nil, &domain.CodecError{Message: fmt.Sprintf("cannot derive id from %q", filePath)}
	}
	if len(data) == 0 {
		return nil, &domain.CodecError{Message: fmt.Sprintf("legacy file %s has no content", filePath)}
	}

	return &models.Record{
		ID:        id,
		Title:     models.DefaultTitle,
		Content:   string(data),
		CreatedAt: createdAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
