// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/models"
	"alcoholdb/internal/session"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// authResponse carries the session token issued on register and login.
type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a regular user account and signs it in.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := a.Users.Create(r.Context(), email, req.Password, strings.TrimSpace(req.DisplayName), models.RoleUser)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := a.startSession(w, r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login checks credentials and issues a session token.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	user, err := a.Users.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !a.Users.CheckPassword(user, req.Password) {
		slog.Warn("failed login attempt", "email", req.Email, "ip", r.RemoteAddr)
		writeError(w, r, apperr.Wrap(apperr.KindUnauthenticated, "invalid email or password", nil))
		return
	}
	token, err := a.startSession(w, r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Logout ends the current session.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context(), w, r); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request, user *models.User) (string, error) {
	return a.Sessions.Create(r.Context(), w, &session.Data{
		UserID: user.ID,
		Role:   string(user.Role),
	})
}
