package handlers

import (
	"net/http"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Token   string               `json:"token"`
	Account models.AccountRecord `json:"account"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := h.auth.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to sign up")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: session.Token, Account: publicAccount(session.Account)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, Account: publicAccount(session.Account)})
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, r, err, "failed to request password reset")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
