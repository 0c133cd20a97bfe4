package repositories

import (
	"context"

	"notebin/internal/domain/models"
)

// RecordRepository defines data access operations for records.
// Every mutation goes through an optimistic read-modify-write of the
// collection blob.
type RecordRepository interface {
	// List returns all records in creation order
	List(ctx context.Context) ([]models.Record, error)

	// GetByID retrieves a record by ID
	// Returns domain.ErrNotFound if it does not exist
	GetByID(ctx context.Context, id string) (*models.Record, error)

	// Create appends a new record. The ID must not already exist.
	Create(ctx context.Context, record *models.Record) error

	// Update applies fn to the freshly fetched record with the given ID and
	// stores the result. fn may run more than once (once per write attempt)
	// and must not change the ID. Returns the committed record, or
	// domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, id string, fn func(*models.Record) error) (*models.Record, error)

	// Import adds records that are not yet present and returns how many were added
	Import(ctx context.Context, records []models.Record) (int, error)
}
