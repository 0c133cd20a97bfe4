package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"notebin/internal/domain"
	"notebin/internal/domain/models"
	"notebin/internal/domain/repositories"
)

// ErrDuplicateID is returned when creating a record whose ID is already taken
var ErrDuplicateID = errors.New("record id already exists")

// cacheEntry is a decoded collection and when it was fetched
type cacheEntry struct {
	snapshot  *Snapshot
	fetchedAt time.Time
}

// RecordRepository implements repositories.RecordRepository over a single
// collection blob. Reads may be served from a short-lived cache; all writes go
// through the Coordinator and invalidate it.
type RecordRepository struct {
	coord  *Coordinator
	ttl    time.Duration
	logger *slog.Logger

	mu         sync.Mutex
	cache      *cacheEntry
	generation uint64 // bumped on every invalidation
	now        func() time.Time
}

var _ repositories.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a repository. A zero ttl disables caching.
func NewRecordRepository(coord *Coordinator, ttl time.Duration, logger *slog.Logger) *RecordRepository {
	return &RecordRepository{
		coord:  coord,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// List implements repositories.RecordRepository
func (r *RecordRepository) List(ctx context.Context) ([]models.Record, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return snap.Collection.List(), nil
}

// GetByID implements repositories.RecordRepository
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	rec, ok := snap.Collection.Get(id)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("record %s not found", id)}
	}
	return rec, nil
}

// Create implements repositories.RecordRepository
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	_, err := r.apply(ctx, func(c *models.Collection) error {
		if c.Has(record.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
		}
		c.Put(record)
		return nil
	}, fmt.Sprintf("Add note: %s", record.ID))
	return err
}

// Update implements repositories.RecordRepository
func (r *RecordRepository) Update(ctx context.Context, id string, fn func(*models.Record) error) (*models.Record, error) {
	var updated *models.Record
	_, err := r.apply(ctx, func(c *models.Collection) error {
		rec, ok := c.Get(id)
		if !ok {
			return &domain.NotFoundError{Message: fmt.Sprintf("record %s not found", id)}
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		c.Put(rec)
		updated = rec
		return nil
	}, fmt.Sprintf("Update note: %s", id))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Import implements repositories.RecordRepository
func (r *RecordRepository) Import(ctx context.Context, records []models.Record) (int, error) {
	var added int
	_, err := r.apply(ctx, func(c *models.Collection) error {
		// the mutation can run more than once; count from scratch each round
		added = 0
		for i := range records {
			if c.Has(records[i].ID) {
				continue
			}
			c.Put(&records[i])
			added++
		}
		return nil
	}, fmt.Sprintf("Import %d legacy note(s)", len(records)))
	if err != nil {
		return 0, err
	}
	return added, nil
}

// apply runs a mutation through the coordinator and invalidates the cache
func (r *RecordRepository) apply(ctx context.Context, mutate Mutation, message string) (*Committed, error) {
	committed, err := r.coord.Apply(ctx, mutate, message)
	r.invalidate()
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// snapshot returns the cached collection if fresh, else fetches it
func (r *RecordRepository) snapshot(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	if r.ttl > 0 && r.cache != nil && r.now().Sub(r.cache.fetchedAt) < r.ttl {
		snap := r.cache.snapshot
		r.mu.Unlock()
		return snap, nil
	}
	gen := r.generation
	r.mu.Unlock()

	snap, err := r.coord.Load(ctx)
	if err != nil {
		return nil, err
	}

	if r.ttl > 0 {
		r.mu.Lock()
		// a write that committed while we were fetching makes this snapshot stale
		if r.generation == gen {
			r.cache = &cacheEntry{snapshot: snap, fetchedAt: r.now()}
		}
		r.mu.Unlock()
	}
	return snap, nil
}

func (r *RecordRepository) invalidate() {
	r.mu.Lock()
	r.cache = nil
	r.generation++
	r.mu.Unlock()
}
