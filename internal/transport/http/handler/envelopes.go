package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/servicelink-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	AccessToken string       `json:"access_token,omitempty"`
	User        *domain.User `json:"user,omitempty"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to HTTP responses. Anything unmapped is a
// persistence or infrastructure failure: log the detail, answer generically
// so internals never reach the client.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrCodeNotFound),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrCodeMismatch),
		errors.Is(err, domain.ErrCodeConsumed):
		writeError(w, http.StatusUnauthorized, userMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, userMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, userMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, userMessage(err))
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, userMessage(err))
	case errors.Is(err, domain.ErrDelivery):
		writeError(w, http.StatusBadGateway, "we could not send the code, please request a new one")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

// userMessage returns the wrapped message for sentinel-tagged errors. These
// messages are written for users; internal detail lives in wrapped causes
// that never take this path.
func userMessage(err error) string {
	return err.Error()
}
