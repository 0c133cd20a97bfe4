package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebin/internal/domain"
	"notebin/internal/domain/models"
	"notebin/internal/repository/remote"
	"notebin/internal/store/memory"
)

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.WriteBlob(ctx, "notes/abc.txt", []byte("first legacy note"), "", "seed")
	require.NoError(t, err)
	_, err = store.WriteBlob(ctx, "notes/def.txt", []byte("second legacy note"), "", "seed")
	require.NoError(t, err)
	_, err = store.WriteBlob(ctx, "notes/empty.txt", []byte{}, "", "seed")
	require.NoError(t, err)
	_, err = store.WriteBlob(ctx, "notes/nested/ghi.txt", []byte("not a direct child"), "", "seed")
	require.NoError(t, err)

	coord := remote.NewCoordinator(store, "data/notes.json", discardLogger(), remote.WithRetryBackoff(0))
	repo := remote.NewRecordRepository(coord, 0, discardLogger())

	// abc already lives in the collection and must not be overwritten
	require.NoError(t, repo.Create(ctx, &models.Record{ID: "abc", Title: "kept", Content: "current"}))

	svc := NewImportService(store, repo, discardLogger())
	result, err := svc.ImportLegacy(ctx, "/notes/")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, []string{"notes/empty.txt"}, result.Skipped)

	abc, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "current", abc.Content)

	def, err := repo.GetByID(ctx, "def")
	require.NoError(t, err)
	assert.Equal(t, "second legacy note", def.Content)
	assert.Equal(t, models.DefaultTitle, def.Title)

	// a second run adds nothing
	result, err = svc.ImportLegacy(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
}

func TestImportLegacy_MissingDirImportsNothing(t *testing.T) {
	store := memory.NewStore()
	coord := remote.NewCoordinator(store, "data/notes.json", discardLogger())
	svc := NewImportService(store, remote.NewRecordRepository(coord, 0, discardLogger()), discardLogger())

	result, err := svc.ImportLegacy(context.Background(), "notes")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Scanned)
	assert.Equal(t, 0, result.Imported)
}

func TestImportLegacy_RequiresDir(t *testing.T) {
	store := memory.NewStore()
	coord := remote.NewCoordinator(store, "data/notes.json", discardLogger())
	svc := NewImportService(store, remote.NewRecordRepository(coord, 0, discardLogger()), discardLogger())

	_, err := svc.ImportLegacy(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
