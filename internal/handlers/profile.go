package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kimbucha/roomiesBolt-sub000/internal/consistency"
	"github.com/kimbucha/roomiesBolt-sub000/internal/middleware"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/service"
)

type consistencyResponse struct {
	Differences []consistency.Difference `json:"differences"`
	Report      string                   `json:"report"`
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.GetAccount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch models.AccountPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	acct, err := h.accounts.UpdateUserAndProfile(r.Context(), middleware.GetUserID(r.Context()), patch, service.UpdateOptions{})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}

func (h *Handler) handleCompleteStep(w http.ResponseWriter, r *http.Request) {
	step := models.Step(chi.URLParam(r, "step"))
	var patch models.AccountPatch
	if r.ContentLength != 0 && !decodeBody(w, r, &patch) {
		return
	}
	acct, err := h.accounts.CompleteOnboardingStep(r.Context(), middleware.GetUserID(r.Context()), step, patch)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}

func (h *Handler) handleResetOnboarding(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.ResetOnboardingProgress(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to reset onboarding")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}

func (h *Handler) handleGetMyDiscovery(w http.ResponseWriter, r *http.Request) {
	rec, err := h.accounts.GetDiscovery(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load discovery profile")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleConsistency(w http.ResponseWriter, r *http.Request) {
	diffs, err := h.accounts.Audit(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to check consistency")
		return
	}
	report := consistency.Format(diffs)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report))
		return
	}
	if diffs == nil {
		diffs = []consistency.Difference{}
	}
	writeJSON(w, http.StatusOK, consistencyResponse{Differences: diffs, Report: report})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.Verify(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to verify account")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}

func (h *Handler) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.Upgrade(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to upgrade account")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.RefreshFromRemote(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to refresh profile")
		return
	}
	writeJSON(w, http.StatusOK, publicAccount(acct))
}
