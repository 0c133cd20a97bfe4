package handler

import (
	"log/slog"
	"net/http"
	"time"

	"notebin/internal/auth"
	"notebin/internal/config"
	"notebin/internal/domain"
	"notebin/internal/domain/services"
	"notebin/internal/httputil"
)

// RecordHandler handles note HTTP requests
type RecordHandler struct {
	service services.RecordService
	filter  *auth.ClientFilter
	logger  *slog.Logger
}

// NewRecordHandler creates a new record handler. filter may be nil.
func NewRecordHandler(service services.RecordService, filter *auth.ClientFilter, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		service: service,
		filter:  filter,
		logger:  logger,
	}
}

// recordBody is the JSON shape accepted by create and replace
type recordBody struct {
	Title   httputil.OptionalString `json:"title"`
	Content string                  `json:"content"`
}

// ListRecords returns all records
// GET /api/items
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListRecords(r.Context())
	if err != nil {
		h.logFailure(r, "list records", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, records)
}

// CreateRecord stores a new record from a JSON or form body
// POST /api/items
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := parseRecordBody(w, r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	req := &services.CreateRecordRequest{Content: body.Content}
	if body.Title.Value != nil {
		req.Title = *body.Title.Value
	}

	record, err := h.service.CreateRecord(r.Context(), req)
	if err != nil {
		h.logFailure(r, "create record", err)
		handleError(w, err)
		return
	}

	w.Header().Set("Location", "/api/items/"+record.ID)
	httputil.RespondJSON(w, http.StatusCreated, record)
}

// GetRecord returns a record's raw content as plain text
// GET /api/items/{id}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	// filtered clients see the same response as a missing record
	if !h.filter.Allows(r) {
		respondReason(w, http.StatusNotFound, "record not found", domain.ReasonNotFound)
		return
	}

	record, err := h.service.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logFailure(r, "get record", err)
		handleError(w, err)
		return
	}

	httputil.RespondText(w, http.StatusOK, record.Content)
}

// GetRecordMeta returns a record as JSON
// GET /api/items/{id}/meta
func (h *RecordHandler) GetRecordMeta(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logFailure(r, "get record", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, record)
}

// UpdateRecord replaces a record's content. An absent title keeps the
// current one; a JSON null resets it.
// PUT /api/items/{id}
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := parseRecordBody(w, r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	req := &services.UpdateRecordRequest{
		Content: body.Content,
		Title: services.OptionalTitle{
			Present: body.Title.Present,
			Value:   body.Title.Value,
		},
	}

	record, err := h.service.UpdateRecord(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.logFailure(r, "update record", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, record)
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseRecordBody reads a form (browser submissions) or JSON body
func parseRecordBody(w http.ResponseWriter, r *http.Request) (*recordBody, error) {
	var body recordBody

	if httputil.IsFormRequest(r) {
		if err := httputil.ParseForm(w, r, config.MaxRequestBytes); err != nil {
			return nil, err
		}
		body.Content = r.PostFormValue("content")
		if _, ok := r.PostForm["title"]; ok {
			title := r.PostFormValue("title")
			body.Title = httputil.OptionalString{Present: true, Value: &title}
		}
		return &body, nil
	}

	if err := httputil.ParseJSON(w, r, &body, config.MaxRequestBytes); err != nil {
		return nil, err
	}
	return &body, nil
}

// logFailure logs server-side failures; client errors are not logged
func (h *RecordHandler) logFailure(r *http.Request, op string, err error) {
	if isClientError(err) {
		return
	}
	h.logger.Error(op+" failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}
