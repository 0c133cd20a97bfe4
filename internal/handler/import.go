package handler

import (
	"log/slog"
	"net/http"

	"notebin/internal/domain/services"
	"notebin/internal/httputil"
)

// ImportHandler handles legacy import HTTP requests
type ImportHandler struct {
	importService services.ImportService
	defaultDir    string
	logger        *slog.Logger
}

// NewImportHandler creates a new import handler. defaultDir is used when the
// request does not name a directory.
func NewImportHandler(importService services.ImportService, defaultDir string, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		defaultDir:    defaultDir,
		logger:        logger,
	}
}

// ImportLegacy folds legacy one-file-per-note blobs into the collection.
// POST /api/import
//
// Query parameters:
//   - dir: optional, directory to scan (defaults to LEGACY_DIR)
func (h *ImportHandler) ImportLegacy(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		dir = h.defaultDir
	}

	result, err := h.importService.ImportLegacy(r.Context(), dir)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("legacy import failed", "dir", dir, "error", err)
		}
		handleError(w, err)
		return
	}

	h.logger.Info("legacy import requested",
		"dir", dir,
		"user", httputil.GetUserID(r),
		"imported", result.Imported,
	)
	httputil.RespondJSON(w, http.StatusOK, result)
}
