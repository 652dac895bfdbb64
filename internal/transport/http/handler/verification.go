package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicelink-api/internal/application/verification"
	"github.com/servicelink-api/internal/transport/http/middleware"
)

// maxSubmissionForm caps the parsed multipart form: two 5 MB images plus
// headroom for the notes field.
const maxSubmissionForm = 12 << 20

// VerificationHandler handles identity-document submission and review.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// Status returns the caller's own submission state.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sub, err := h.svc.Status(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Submit accepts a multipart form with "front" and "back" image files and an
// optional "notes" field.
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxSubmissionForm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	front, err := formDocument(r, "front")
	if err != nil {
		writeError(w, http.StatusBadRequest, "front image file is required")
		return
	}
	defer front.close()
	back, err := formDocument(r, "back")
	if err != nil {
		writeError(w, http.StatusBadRequest, "back image file is required")
		return
	}
	defer back.close()

	sub, err := h.svc.Submit(r.Context(), claims.UserID, front.doc, back.doc, r.FormValue("notes"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "documents received, verification is now pending review",
		"submission": sub,
	})
}

// AdminGet returns any user's submission plus short-lived document links.
func (h *VerificationHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sub, err := h.svc.Status(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	resp := map[string]interface{}{"submission": sub}
	if sub.FrontImageKey != "" {
		links, err := h.svc.Links(r.Context(), userID)
		if err != nil {
			httpError(w, err)
			return
		}
		resp["documents"] = links
	}
	writeJSON(w, http.StatusOK, resp)
}

// Review records an approve/reject decision on a pending submission.
func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Approve bool   `json:"approve"`
		Notes   string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := h.svc.Review(r.Context(), chi.URLParam(r, "userID"), claims.UserID, body.Approve, body.Notes)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type formDoc struct {
	doc   verification.Document
	close func() error
}

func formDocument(r *http.Request, field string) (*formDoc, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	return &formDoc{
		doc:   verification.Document{Reader: f, Size: header.Size},
		close: f.Close,
	}, nil
}
