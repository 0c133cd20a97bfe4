package handler

import (
	"errors"
	"net/http"

	"notebin/internal/domain"
	"notebin/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses with a stable reason
func handleError(w http.ResponseWriter, err error) {
	var (
		writeFailed *domain.WriteFailedError
		transport   *domain.TransportError
		codecErr    *domain.CodecError
	)

	switch {
	case errors.Is(err, domain.ErrValidation):
		respondReason(w, http.StatusBadRequest, err.Error(), domain.ReasonValidation)
	case errors.Is(err, domain.ErrNotFound):
		respondReason(w, http.StatusNotFound, err.Error(), domain.ReasonNotFound)
	case errors.Is(err, domain.ErrUnauthorized):
		respondReason(w, http.StatusUnauthorized, "write access denied", domain.ReasonUnauthorized)
	// checked before transport/codec: a failed write wraps its cause
	case errors.As(err, &writeFailed):
		respondReason(w, writeFailed.StatusCode(), "failed to save record", writeFailed.Reason())
	case errors.As(err, &codecErr):
		respondReason(w, codecErr.StatusCode(), "stored data could not be read", codecErr.Reason())
	case errors.As(err, &transport):
		respondReason(w, transport.StatusCode(), "storage backend unavailable", transport.Reason())
	default:
		respondReason(w, http.StatusInternalServerError, "internal server error", domain.ReasonInternal)
	}
}

func respondReason(w http.ResponseWriter, status int, detail, reason string) {
	httputil.RespondErrorWithExtras(w, status, detail, map[string]interface{}{
		"reason": reason,
	})
}

// respondBadRequest reports a malformed request body
func respondBadRequest(w http.ResponseWriter, err error) {
	if errors.Is(err, httputil.ErrBodyTooLarge) {
		respondReason(w, http.StatusRequestEntityTooLarge, err.Error(), domain.ReasonValidation)
		return
	}
	respondReason(w, http.StatusBadRequest, "invalid request body", domain.ReasonValidation)
}

// isClientError reports whether err maps to a 4xx response
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUnauthorized)
}
