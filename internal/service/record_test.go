package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebin/internal/config"
	"notebin/internal/domain"
	"notebin/internal/domain/models"
	"notebin/internal/domain/repositories"
	"notebin/internal/domain/services"
	"notebin/internal/pipeline"
	"notebin/internal/repository/remote"
	"notebin/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingStore counts calls to the wrapped store
type countingStore struct {
	repositories.BlobStore
	fetches atomic.Int32
	writes  atomic.Int32
}

func (s *countingStore) FetchBlob(ctx context.Context, path string) (*repositories.Blob, error) {
	s.fetches.Add(1)
	return s.BlobStore.FetchBlob(ctx, path)
}

func (s *countingStore) WriteBlob(ctx context.Context, path string, content []byte, revision, message string) (string, error) {
	s.writes.Add(1)
	return s.BlobStore.WriteBlob(ctx, path, content, revision, message)
}

// failingHook always errors
type failingHook struct{ calls atomic.Int32 }

func (h *failingHook) Name() string { return "failing" }
func (h *failingHook) Transform(context.Context, string) (string, error) {
	h.calls.Add(1)
	return "", errors.New("service unavailable")
}

// upperHook upper-cases text
type upperHook struct{}

func (upperHook) Name() string { return "upper" }
func (upperHook) Transform(_ context.Context, s string) (string, error) {
	return strings.ToUpper(s), nil
}

// recordingNotifier captures created records
type recordingNotifier struct {
	mu      sync.Mutex
	created []string
}

func (n *recordingNotifier) RecordCreated(_ context.Context, r *models.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, r.ID)
}

type fixture struct {
	svc      services.RecordService
	store    *countingStore
	notifier *recordingNotifier
}

func newFixture(t *testing.T, obfuscator, filter services.ContentHook) *fixture {
	t.Helper()
	store := &countingStore{BlobStore: memory.NewStore()}
	coord := remote.NewCoordinator(store, "data/notes.json", discardLogger(), remote.WithRetryBackoff(0))
	repo := remote.NewRecordRepository(coord, 0, discardLogger())

	classifier, err := pipeline.LoadDefaultClassifier(nil)
	require.NoError(t, err)
	p := pipeline.NewPipeline(classifier, obfuscator, filter, nil, discardLogger())

	notifier := &recordingNotifier{}
	return &fixture{
		svc:      NewRecordService(repo, p, notifier, discardLogger()),
		store:    store,
		notifier: notifier,
	}
}

func TestCreateRecord(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	rec, err := f.svc.CreateRecord(ctx, &services.CreateRecordRequest{Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, models.DefaultTitle, rec.Title)
	assert.Equal(t, "hello", rec.Content)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := f.svc.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, []string{rec.ID}, f.notifier.created)
}

func TestCreateRecord_ValidationProducesNoWrite(t *testing.T) {
	f := newFixture(t, nil, nil)

	tests := []struct {
		name string
		req  services.CreateRecordRequest
	}{
		{name: "empty content", req: services.CreateRecordRequest{Content: ""}},
		{name: "absent content with title", req: services.CreateRecordRequest{Title: "t"}},
		{name: "content too large", req: services.CreateRecordRequest{Content: strings.Repeat("x", config.MaxContentBytes+1)}},
		{name: "title too long", req: services.CreateRecordRequest{Content: "x", Title: strings.Repeat("t", config.MaxTitleLength+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRecord(context.Background(), &tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	assert.Equal(t, int32(0), f.store.writes.Load())
	assert.Equal(t, int32(0), f.store.fetches.Load())
	assert.Empty(t, f.notifier.created)
}

func TestCreateRecord_PipelineFallbackStoresOriginal(t *testing.T) {
	hook := &failingHook{}
	f := newFixture(t, hook, nil)
	ctx := context.Background()

	in := "local plr = game.Players.LocalPlayer"
	rec, err := f.svc.CreateRecord(ctx, &services.CreateRecordRequest{Content: in})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hook.calls.Load())
	assert.Equal(t, in, rec.Content)

	stored, err := f.svc.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, in, stored.Content)
}

func TestCreateRecord_PipelineTransforms(t *testing.T) {
	f := newFixture(t, nil, upperHook{})

	rec, err := f.svc.CreateRecord(context.Background(), &services.CreateRecordRequest{Content: "quiet note"})
	require.NoError(t, err)
	assert.Equal(t, "QUIET NOTE", rec.Content)
}

func TestGetRecord_Missing(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.GetRecord(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRecord(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	rec, err := f.svc.CreateRecord(ctx, &services.CreateRecordRequest{Title: "first", Content: "v1"})
	require.NoError(t, err)

	// title absent: keep it
	updated, err := f.svc.UpdateRecord(ctx, rec.ID, &services.UpdateRecordRequest{Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, "first", updated.Title)
	assert.Equal(t, "v2", updated.Content)
	assert.True(t, rec.CreatedAt.Equal(updated.CreatedAt), "created_at is preserved")
	require.NotNil(t, updated.UpdatedAt)

	// title null: reset
	updated, err = f.svc.UpdateRecord(ctx, rec.ID, &services.UpdateRecordRequest{
		Content: "v3",
		Title:   services.OptionalTitle{Present: true},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTitle, updated.Title)

	// title set
	title := "renamed"
	updated, err = f.svc.UpdateRecord(ctx, rec.ID, &services.UpdateRecordRequest{
		Content: "v4",
		Title:   services.OptionalTitle{Present: true, Value: &title},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	stored, err := f.svc.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "v4", stored.Content)
	assert.Equal(t, "renamed", stored.Title)
}

func TestUpdateRecord_Errors(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.svc.UpdateRecord(ctx, "missing", &services.UpdateRecordRequest{Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rec, err := f.svc.CreateRecord(ctx, &services.CreateRecordRequest{Content: "v1"})
	require.NoError(t, err)
	writes := f.store.writes.Load()

	_, err = f.svc.UpdateRecord(ctx, rec.ID, &services.UpdateRecordRequest{Content: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, writes, f.store.writes.Load())
}

// interleavingStore runs afterFirstFetch once, right after the first fetch returns
type interleavingStore struct {
	repositories.BlobStore
	once            sync.Once
	afterFirstFetch func()
}

func (s *interleavingStore) FetchBlob(ctx context.Context, path string) (*repositories.Blob, error) {
	blob, err := s.BlobStore.FetchBlob(ctx, path)
	if err == nil && s.afterFirstFetch != nil {
		s.once.Do(s.afterFirstFetch)
	}
	return blob, err
}

func TestUpdateRecord_KeepsTitleCommittedBetweenReads(t *testing.T) {
	const path = "data/notes.json"
	backing := memory.NewStore()
	classifier, err := pipeline.LoadDefaultClassifier(nil)
	require.NoError(t, err)
	newService := func(store repositories.BlobStore) services.RecordService {
		coord := remote.NewCoordinator(store, path, discardLogger(), remote.WithRetryBackoff(0))
		repo := remote.NewRecordRepository(coord, 0, discardLogger())
		return NewRecordService(repo, pipeline.NewPipeline(classifier, nil, nil, nil, discardLogger()), nil, discardLogger())
	}
	ctx := context.Background()

	writerA := newService(backing)
	rec, err := writerA.CreateRecord(ctx, &services.CreateRecordRequest{Title: "old", Content: "v1"})
	require.NoError(t, err)

	store := &interleavingStore{BlobStore: backing}
	store.afterFirstFetch = func() {
		title := "renamed by A"
		_, err := writerA.UpdateRecord(ctx, rec.ID, &services.UpdateRecordRequest{
			Content: "v1",
			Title:   services.OptionalTitle{Present: true, Value: &title},
		})
		require.NoError(t, err)
	}
	writerB := newService(store)

	updated, err := writerB.UpdateRecord(ctx, rec.ID, &services.UpdateRecordRequest{Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "renamed by A", updated.Title)
	assert.Equal(t, "v2", updated.Content)

	stored, err := writerA.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed by A", stored.Title)
	assert.Equal(t, "v2", stored.Content)
}

func TestListRecords_Order(t *testing.T) {
	f := newFixture(t, nil, nil)
	svc := f.svc.(*recordService)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		_, err := svc.CreateRecord(ctx, &services.CreateRecordRequest{Content: content})
		require.NoError(t, err)
	}

	list, err := svc.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Content)
	assert.Equal(t, "c", list[2].Content)
}

func TestCreateRecord_ConcurrentNoLostUpdates(t *testing.T) {
	const n = 10
	store := &countingStore{BlobStore: memory.NewStore()}
	coord := remote.NewCoordinator(store, "data/notes.json", discardLogger(),
		remote.WithMaxAttempts(n), remote.WithRetryBackoff(0))
	repo := remote.NewRecordRepository(coord, 0, discardLogger())
	classifier, err := pipeline.LoadDefaultClassifier(nil)
	require.NoError(t, err)
	svc := NewRecordService(repo, pipeline.NewPipeline(classifier, nil, nil, nil, discardLogger()), nil, discardLogger())

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateRecord(context.Background(), &services.CreateRecordRequest{Content: "note"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := svc.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, n)
}

func TestCreateRecord_TitleMarkupStripped(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, err := f.svc.CreateRecord(context.Background(), &services.CreateRecordRequest{
		Title:   `<script>alert(1)</script><b>Tips</b> & tricks`,
		Content: "<b>kept as is</b>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tips & tricks", rec.Title)
	assert.Equal(t, "<b>kept as is</b>", rec.Content)

	rec, err = f.svc.CreateRecord(context.Background(), &services.CreateRecordRequest{
		Title:   "<i></i>",
		Content: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTitle, rec.Title)
}
