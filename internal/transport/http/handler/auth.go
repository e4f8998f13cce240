package handler

import (
	"encoding/json"
	"net/http"

	"github.com/landing-auth/internal/application/auth"
	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/transport/http/cookie"
)

// AuthHandler serves the OTP endpoints.
type AuthHandler struct {
	svc auth.Service
	jar *cookie.Jar
}

func NewAuthHandler(svc auth.Service, jar *cookie.Jar) *AuthHandler {
	return &AuthHandler{svc: svc, jar: jar}
}

// Verification mails a login code to a registered account.
func (h *AuthHandler) Verification(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := h.svc.RequestLoginCode(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: auth.MsgLoginCodeSent})
}

// Signup mails a signup code, creating a pending account if needed.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := h.svc.RequestSignupCode(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: auth.MsgSignupCodeSent})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}
	token, err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.jar.Set(w, r, token)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP is valid"})
}
