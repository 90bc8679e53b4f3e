// Package handlers exposes the account and discovery services as a JSON API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kimbucha/roomiesBolt-sub000/internal/auth"
	"github.com/kimbucha/roomiesBolt-sub000/internal/middleware"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/remote"
	"github.com/kimbucha/roomiesBolt-sub000/internal/service"
	"github.com/kimbucha/roomiesBolt-sub000/internal/validation"
)

// Handler serves the HTTP API.
type Handler struct {
	accounts   *service.AccountService
	auth       *service.AuthService
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// New creates a Handler.
func New(accounts *service.AccountService, authService *service.AuthService, jwtManager *auth.JWTManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		accounts:   accounts,
		auth:       authService,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/password-reset", h.handlePasswordReset)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtManager))
		r.Get("/me", h.handleGetMe)
		r.Patch("/me", h.handleUpdateMe)
		r.Post("/me/onboarding/reset", h.handleResetOnboarding)
		r.Post("/me/onboarding/{step}", h.handleCompleteStep)
		r.Get("/me/discovery", h.handleGetMyDiscovery)
		r.Get("/me/consistency", h.handleConsistency)
		r.Post("/me/verify", h.handleVerify)
		r.Post("/me/upgrade", h.handleUpgrade)
		r.Post("/me/refresh", h.handleRefresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(h.jwtManager))
		r.Get("/discovery", h.handleListDiscovery)
		r.Get("/discovery/{id}", h.handleGetDiscovery)
	})
}

type errorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors onto status codes. Anything
// unrecognized is logged and answered with fallback.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *validation.Error
	var rerr *remote.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Error(), Reasons: verr.Reasons})
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrDiscoveryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rerr):
		h.logger.Warn("Remote backend rejected request", "path", r.URL.Path, "op", rerr.Op, "status", rerr.Status, "error", rerr.Message)
		writeError(w, http.StatusBadGateway, rerr.Message)
	default:
		h.logger.Error(fallback, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// publicAccount strips credentials before an account leaves the service.
func publicAccount(acct *models.AccountRecord) models.AccountRecord {
	out := *acct
	out.PasswordHash = ""
	return out
}
