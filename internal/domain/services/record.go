package services

import (
	"context"

	"notebin/internal/domain/models"
)

// RecordService handles note/paste business logic
type RecordService interface {
	// ListRecords returns all records
	ListRecords(ctx context.Context) ([]models.Record, error)

	// CreateRecord validates, runs the content pipeline and stores a new record
	CreateRecord(ctx context.Context, req *CreateRecordRequest) (*models.Record, error)

	// GetRecord retrieves a record by ID
	GetRecord(ctx context.Context, id string) (*models.Record, error)

	// UpdateRecord replaces a record's content (and optionally its title)
	UpdateRecord(ctx context.Context, id string, req *UpdateRecordRequest) (*models.Record, error)
}

// ImportService imports records from the legacy one-file-per-record layout
type ImportService interface {
	ImportLegacy(ctx context.Context, dir string) (*ImportResult, error)
}

// CreateRecordRequest represents a record creation request
type CreateRecordRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// OptionalTitle tracks tri-state semantics for title updates.
// Transport-agnostic - handler maps from httputil.OptionalString.
//   - Present=false: keep current title
//   - Present=true, Value=nil: reset to the default title
//   - Present=true, Value=&"text": set
type OptionalTitle struct {
	Present bool
	Value   *string
}

// UpdateRecordRequest represents a record replace request
type UpdateRecordRequest struct {
	Title   OptionalTitle
	Content string
}

// ImportResult summarises a legacy import
type ImportResult struct {
	Scanned  int      `json:"scanned"`
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"` // paths that could not be decoded
}

// ContentHook transforms text before it is stored.
// Implementations must be safe for concurrent use.
type ContentHook interface {
	Name() string
	Transform(ctx context.Context, text string) (string, error)
}

// ContentPipeline applies hooks to content. Run never fails: on any hook
// error the original text is returned.
type ContentPipeline interface {
	Run(ctx context.Context, text string) string
}

// Notifier announces created records. Failures are logged, never returned.
type Notifier interface {
	RecordCreated(ctx context.Context, record *models.Record)
}
