// Package user provides the HTTP handlers for console account management:
// listing, creating, enabling/locking, and password changes. Passwords are
// bcrypt-hashed at the boundary and never leave the service.
package user

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/OceanLab-Technology/masterJGS/internal/api"
	"github.com/OceanLab-Technology/masterJGS/internal/model"
	"github.com/OceanLab-Technology/masterJGS/internal/store"
)

const (
	minNicknameLen = 3
	minPasswordLen = 6
)

// Service handles user account management.
type Service struct {
	store store.Store
}

// NewService creates a new user service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// CreateUserRequest is the JSON body for POST /api/users.
type CreateUserRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// UpdateUserRequest is the JSON body for PUT /api/users/{id}.
type UpdateUserRequest struct {
	Nickname string `json:"nickname"`
	Enabled  bool   `json:"enabled"`
	Locked   bool   `json:"locked"`
}

// ChangePasswordRequest is the JSON body for POST /api/users/{id}/change-password.
type ChangePasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// List handles GET /api/users
func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	api.WriteJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users
// New accounts start enabled and unlocked, always typed "Client".
func (s *Service) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Nickname) < minNicknameLen {
		api.Error(w, model.Invalid("nickname", "must be at least 3 characters"))
		return
	}
	if len(req.Password) < minPasswordLen {
		api.Error(w, model.Invalid("password", "must be at least 6 characters"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.Error(w, err)
		return
	}

	u := model.User{
		Nickname:     req.Nickname,
		Type:         "Client",
		Enabled:      true,
		Locked:       false,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(r.Context(), &u); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("user created", "id", u.ID, "nickname", u.Nickname)
	api.WriteJSON(w, http.StatusCreated, u)
}

// Update handles PUT /api/users/{id}
func (s *Service) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Nickname) < minNicknameLen {
		api.Error(w, model.Invalid("nickname", "must be at least 3 characters"))
		return
	}

	ctx := r.Context()
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	u.Nickname = req.Nickname
	u.Enabled = req.Enabled
	u.Locked = req.Locked
	if err := s.store.SaveUser(ctx, *u); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("user updated", "id", id, "enabled", u.Enabled, "locked", u.Locked)
	api.WriteJSON(w, http.StatusOK, u)
}

// ChangePassword handles POST /api/users/{id}/change-password
func (s *Service) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		api.Error(w, model.Invalid("newPassword", "must be at least 6 characters"))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		api.Error(w, model.Invalid("confirmPassword", "passwords do not match"))
		return
	}

	ctx := r.Context()
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		api.Error(w, err)
		return
	}

	u.PasswordHash = string(hash)
	if err := s.store.SaveUser(ctx, *u); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("password changed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
