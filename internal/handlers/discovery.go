package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kimbucha/roomiesBolt-sub000/internal/middleware"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type discoveryPage struct {
	Profiles []models.DiscoveryRecord `json:"profiles"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

func (h *Handler) handleListDiscovery(w http.ResponseWriter, r *http.Request) {
	opts, ok := pageOptions(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be positive and offset non-negative")
		return
	}

	opts.ExcludeID = middleware.GetUserID(r.Context())
	profiles, err := h.accounts.ListDiscovery(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list discovery profiles")
		return
	}
	writeJSON(w, http.StatusOK, discoveryPage{Profiles: profiles, Limit: opts.Limit, Offset: opts.Offset})
}

func (h *Handler) handleGetDiscovery(w http.ResponseWriter, r *http.Request) {
	rec, err := h.accounts.GetDiscovery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load discovery profile")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func pageOptions(r *http.Request) (storage.ListOptions, bool) {
	opts := storage.ListOptions{Limit: defaultPageSize}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, false
		}
		opts.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, false
		}
		opts.Offset = n
	}
	return opts, true
}
