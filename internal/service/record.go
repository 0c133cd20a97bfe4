package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"notebin/internal/config"
	"notebin/internal/domain"
	"notebin/internal/domain/models"
	"notebin/internal/domain/repositories"
	"notebin/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// titlePolicy strips all markup from titles; content is stored verbatim
var titlePolicy = bluemonday.StrictPolicy()

// recordService implements the RecordService interface
type recordService struct {
	repo     repositories.RecordRepository
	pipeline services.ContentPipeline
	notifier services.Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewRecordService creates a new record service. notifier may be nil.
func NewRecordService(
	repo repositories.RecordRepository,
	pipeline services.ContentPipeline,
	notifier services.Notifier,
	logger *slog.Logger,
) services.RecordService {
	return &recordService{
		repo:     repo,
		pipeline: pipeline,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ListRecords returns all records in creation order
func (s *recordService) ListRecords(ctx context.Context) ([]models.Record, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateRecord validates the request, runs the content pipeline once and
// appends the record through the optimistic write path
func (s *recordService) CreateRecord(ctx context.Context, req *services.CreateRecordRequest) (*models.Record, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	content := s.pipeline.Run(ctx, req.Content)

	record := &models.Record{
		ID:        s.newID(),
		Title:     normalizeTitle(req.Title),
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.logger.Info("record created",
		"id", record.ID,
		"bytes", len(record.Content),
		"transformed", content != req.Content,
	)

	if s.notifier != nil {
		s.notifier.RecordCreated(ctx, record)
	}

	return record, nil
}

// GetRecord retrieves a record by ID
func (s *recordService) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateRecord replaces a record's content, keeping its ID and creation time.
// The title rule is applied to the record as fetched inside the write, so a
// concurrent title change is never overwritten by a stale copy.
func (s *recordService) UpdateRecord(ctx context.Context, id string, req *services.UpdateRecordRequest) (*models.Record, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// fail fast on unknown IDs before calling out to content hooks
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	content := s.pipeline.Run(ctx, req.Content)

	updated, err := s.repo.Update(ctx, id, func(rec *models.Record) error {
		now := s.now().UTC()
		rec.Content = content
		rec.UpdatedAt = &now
		if req.Title.Present {
			if req.Title.Value == nil {
				rec.Title = models.DefaultTitle
			} else {
				rec.Title = normalizeTitle(*req.Title.Value)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update record: %w", err)
	}

	s.logger.Info("record updated", "id", id, "bytes", len(updated.Content))
	return updated, nil
}

// validateCreateRequest validates create record request
func (s *recordService) validateCreateRequest(req *services.CreateRecordRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Content,
			validation.Required.Error("content is required"),
			validation.By(maxBytes(config.MaxContentBytes)),
		),
		validation.Field(&req.Title,
			validation.RuneLength(0, config.MaxTitleLength),
		),
	)
}

// validateUpdateRequest validates update record request
func (s *recordService) validateUpdateRequest(req *services.UpdateRecordRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Content,
			validation.Required.Error("content is required"),
			validation.By(maxBytes(config.MaxContentBytes)),
		),
	)
	if err != nil {
		return err
	}
	if req.Title.Present && req.Title.Value != nil && utf8.RuneCountInString(*req.Title.Value) > config.MaxTitleLength {
		return fmt.Errorf("title: the length must be no more than %d", config.MaxTitleLength)
	}
	return nil
}

// maxBytes limits a string's size in bytes
func maxBytes(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > limit {
			return fmt.Errorf("must be at most %d bytes", limit)
		}
		return nil
	}
}

// normalizeTitle strips markup, trims and falls back to the default
func normalizeTitle(title string) string {
	title = strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(title)))
	if title == "" {
		return models.DefaultTitle
	}
	return title
}
