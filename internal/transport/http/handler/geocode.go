package handler

import (
	"context"
	"net/http"
	"strconv"
)

// reverseGeocoder fetches raw reverse-geocode JSON for coordinates.
type reverseGeocoder interface {
	Reverse(ctx context.Context, lat, lng float64) ([]byte, error)
}

// GeocodeHandler proxies reverse-geocoding lookups. Stateless: upstream JSON
// is returned verbatim.
type GeocodeHandler struct {
	client reverseGeocoder
}

func NewGeocodeHandler(client reverseGeocoder) *GeocodeHandler {
	return &GeocodeHandler{client: client}
}

func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lng must be a number")
		return
	}
	body, err := h.client.Reverse(r.Context(), lat, lng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reverse geocoding failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
