package remote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"notebin/internal/codec"
	"notebin/internal/domain"
	"notebin/internal/domain/models"
	"notebin/internal/domain/repositories"
	"notebin/internal/metrics"
)

const (
	// DefaultMaxAttempts is how many fetch-mutate-write rounds Apply makes
	DefaultMaxAttempts = 3
	// DefaultRetryBackoff is multiplied by the attempt number between rounds
	DefaultRetryBackoff = 50 * time.Millisecond
)

// Mutation changes a freshly fetched collection in place. An error returned
// by a mutation aborts the write and is returned to the caller unchanged.
type Mutation func(c *models.Collection) error

// Committed is the result of a successful Apply
type Committed struct {
	Collection *models.Collection
	Revision   string
	Attempts   int
}

// Snapshot is a collection as read from the store
type Snapshot struct {
	Collection *models.Collection
	Revision   string // empty when nothing is stored yet
}

// Coordinator applies mutations to the collection blob at one path using the
// blob revision as a compare-and-swap guard. It is the only writer of that
// path.
type Coordinator struct {
	store        repositories.BlobStore
	path         string
	maxAttempts  int
	retryBackoff time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// CoordinatorOption configures a Coordinator
type CoordinatorOption func(*Coordinator)

// WithMaxAttempts sets the attempt limit (values < 1 are ignored)
func WithMaxAttempts(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between attempts
func WithRetryBackoff(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d >= 0 {
			c.retryBackoff = d
		}
	}
}

// WithMetrics enables attempt/outcome counters
func WithMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator for the collection at path
func NewCoordinator(store repositories.BlobStore, path string, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:        store,
		path:         path,
		maxAttempts:  DefaultMaxAttempts,
		retryBackoff: DefaultRetryBackoff,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the store path this coordinator owns
func (c *Coordinator) Path() string {
	return c.path
}

// Load fetches and decodes the current collection. A missing blob is an empty
// collection with no revision.
func (c *Coordinator) Load(ctx context.Context) (*Snapshot, error) {
	blob, err := c.store.FetchBlob(ctx, c.path)
	if errors.Is(err, domain.ErrBlobNotFound) {
		return &Snapshot{Collection: models.NewCollection()}, nil
	}
	if err != nil {
		return nil, err
	}

	coll, err := codec.DecodeCollection(blob.Content)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Collection: coll, Revision: blob.Revision}, nil
}

// Apply runs fetch, mutate, encode, conditional write. On a revision conflict
// the in-memory result is discarded and the round starts over from a fresh
// fetch. Transport and codec errors end the loop at once; every failure
// other than a mutation error comes back as *domain.WriteFailedError.
func (c *Coordinator) Apply(ctx context.Context, mutate Mutation, message string) (*Committed, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, attempt); err != nil {
				lastErr = &domain.TransportError{Op: "write", Err: err}
				return nil, c.failed(attempt-1, lastErr)
			}
		}

		snap, err := c.Load(ctx)
		if err != nil {
			c.countAttempt("error")
			return nil, c.failed(attempt, err)
		}

		if err := mutate(snap.Collection); err != nil {
			c.countOutcome("rejected")
			return nil, err
		}

		data, err := codec.EncodeCollection(snap.Collection)
		if err != nil {
			c.countAttempt("error")
			return nil, c.failed(attempt, err)
		}

		revision, err := c.store.WriteBlob(ctx, c.path, data, snap.Revision, message)
		if err == nil {
			c.countAttempt("committed")
			c.countOutcome("committed")
			c.logger.Debug("collection committed",
				"path", c.path,
				"revision", revision,
				"attempt", attempt,
				"records", snap.Collection.Len(),
			)
			return &Committed{Collection: snap.Collection, Revision: revision, Attempts: attempt}, nil
		}

		if !errors.Is(err, domain.ErrRevisionConflict) {
			c.countAttempt("error")
			return nil, c.failed(attempt, err)
		}

		c.countAttempt("conflict")
		c.logger.Info("revision conflict, retrying",
			"path", c.path,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"revision", snap.Revision,
		)
		lastErr = err
	}

	return nil, c.failed(c.maxAttempts, lastErr)
}

func (c *Coordinator) wait(ctx context.Context, attempt int) error {
	if c.retryBackoff == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.retryBackoff * time.Duration(attempt-1))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Coordinator) failed(attempts int, err error) error {
	c.countOutcome("failed")
	c.logger.Warn("collection write failed",
		"path", c.path,
		"attempts", attempts,
		"error", err,
	)
	return &domain.WriteFailedError{Path: c.path, Attempts: attempts, Err: err}
}

func (c *Coordinator) countAttempt(result string) {
	if c.metrics != nil {
		c.metrics.WriteAttempts.WithLabelValues(result).Inc()
	}
}

func (c *Coordinator) countOutcome(outcome string) {
	if c.metrics != nil {
		c.metrics.WriteOutcomes.WithLabelValues(outcome).Inc()
	}
}
