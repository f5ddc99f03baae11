package handler

import (
	"net/http"
	"strings"
)

// Signup registers a new account and returns a bearer token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case len(req.Name) < 2:
		respondError(w, http.StatusBadRequest, "name is too short")
		return
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	case len(req.Password) < 6:
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	token, _, err := h.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, map[string]string{"token": token})
}

// Signin verifies credentials and returns a bearer token.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	token, _, err := h.auth.Signin(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"token": token})
}
