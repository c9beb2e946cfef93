package handler

import (
	"net/http"
)

const maxJSONBody = 1 << 20

type credentialsRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handler.register"

	var req credentialsRequest
	if err := decodeJSON(w, r, op, maxJSONBody, &req); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	if err := validateRequest(op, req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	token, err := h.Auth.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.Log.Info("account.register", "login", req.Login)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handler.login"

	var req credentialsRequest
	if err := decodeJSON(w, r, op, maxJSONBody, &req); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	if err := validateRequest(op, req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
