package handler

import (
	"errors"
	"net/http"

	"github.com/landing-auth/internal/application/account"
	"github.com/landing-auth/internal/transport/http/cookie"
	"github.com/landing-auth/internal/transport/http/middleware"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

type AccountHandler struct {
	svc account.Service
	jar *cookie.Jar
}

func NewAccountHandler(svc account.Service, jar *cookie.Jar) *AccountHandler {
	return &AccountHandler{svc: svc, jar: jar}
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), a.AccountID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.jar.Clear(w, r)
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true})
}

// UploadImage accepts a multipart form with an "image" file.
func (h *AccountHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, account.MaxImageSize+formOverhead)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, "Image must be 5MB or smaller")
			return
		}
		writeError(w, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	url, err := h.svc.UploadImage(r.Context(), a.AccountID, file)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ImageEnvelope{Image: url})
}
