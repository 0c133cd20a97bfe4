package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const callerIDKey contextKey = "callerID"

// WithUserID records the authenticated writer on the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), callerIDKey, userID))
}

// GetUserID returns the authenticated writer, or "" on unauthenticated routes
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(callerIDKey).(string)
	return userID
}
