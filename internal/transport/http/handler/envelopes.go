package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/landing-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionEnvelope reports the current session. User is null when the session
// is valid but the account could not be loaded.
type SessionEnvelope struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.AccountView `json:"user"`
}

type AnonymousEnvelope struct {
	Authenticated bool `json:"authenticated"`
}

type SuccessEnvelope struct {
	Success bool `json:"success"`
}

type IDEnvelope struct {
	ID string `json:"id"`
}

type ImageEnvelope struct {
	Image string `json:"image"`
}

const msgUnexpected = "An unexpected error occurred"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps err to a status code and writes its public message.
// Errors without one fall back to a generic message and are logged.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg, ok := domain.PublicMessage(err)
	if !ok {
		msg = msgUnexpected
		if status < http.StatusInternalServerError {
			msg = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, msg)
}

// statusFor maps the outermost *domain.Error kind, so a wrapped store cause
// never decides the status. Bare sentinels fall through to errors.Is.
func statusFor(err error) int {
	var de *domain.Error
	if errors.As(err, &de) {
		return statusForKind(de.Kind)
	}
	return statusForKind(err)
}

func statusForKind(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
