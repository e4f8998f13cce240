package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/landing-auth/internal/application/session"
	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/pkg/validate"
	"github.com/landing-auth/internal/transport/http/cookie"
)

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc session.Service
	jar *cookie.Jar
}

func NewSessionHandler(svc session.Service, jar *cookie.Jar) *SessionHandler {
	return &SessionHandler{svc: svc, jar: jar}
}

// Create exchanges a Google ID token for a session cookie.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "idToken is required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "idToken is required")
		return
	}
	token, err := h.svc.CreateOAuthSession(r.Context(), req.IDToken)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.jar.Set(w, r, token)
	writeJSON(w, http.StatusOK, AnonymousEnvelope{Authenticated: true})
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	view, ok := h.svc.Current(r.Context(), h.jar.Read(r))
	if !ok {
		writeJSON(w, http.StatusOK, AnonymousEnvelope{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Authenticated: true, User: view})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), h.jar.Read(r)); err != nil {
		slog.WarnContext(r.Context(), "logout revoke failed", "err", err)
	}
	h.jar.Clear(w, r)
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true})
}
