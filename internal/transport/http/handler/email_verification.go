package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicelink-api/internal/application/account"
	"github.com/servicelink-api/internal/transport/http/middleware"
)

// EmailVerificationHandler handles the email verification flow.
type EmailVerificationHandler struct {
	svc account.Service
}

func NewEmailVerificationHandler(svc account.Service) *EmailVerificationHandler {
	return &EmailVerificationHandler{svc: svc}
}

func (h *EmailVerificationHandler) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	switch chi.URLParam(r, "action") {
	case "request":
		var body struct {
			Channel string `json:"channel"` // "email" (default) or "sms"
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		if err := h.svc.RequestEmailVerification(r.Context(), claims.UserID, body.Channel == "sms"); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
	case "confirm":
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.svc.ConfirmEmail(r.Context(), claims.UserID, body.Code); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
