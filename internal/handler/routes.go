package handler

import "net/http"

// RegisterRoutes mounts the note API on mux. requireWrite wraps every route
// that changes stored data.
func RegisterRoutes(mux *http.ServeMux, records *RecordHandler, imports *ImportHandler, requireWrite func(http.Handler) http.Handler) {
	// Health check
	mux.HandleFunc("GET /health", HealthCheck)

	// Record routes
	mux.HandleFunc("GET /api/items", records.ListRecords)
	mux.Handle("POST /api/items", requireWrite(http.HandlerFunc(records.CreateRecord)))
	mux.HandleFunc("GET /api/items/{id}", records.GetRecord)
	mux.HandleFunc("GET /api/items/{id}/meta", records.GetRecordMeta)
	mux.Handle("PUT /api/items/{id}", requireWrite(http.HandlerFunc(records.UpdateRecord)))

	// Import routes
	if imports != nil {
		mux.Handle("POST /api/import", requireWrite(http.HandlerFunc(imports.ImportLegacy)))
	}
}
