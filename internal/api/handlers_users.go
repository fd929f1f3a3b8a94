/**
 * @description
 * Authentication and user-management handlers: login, session introspection,
 * admin CRUD over the JSON-file user store, the stored upstream API key, and
 * password changes.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/users: The user store and token manager.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/walinzi/tps-gateway/internal/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// LoginHandler handles POST /api/v1/auth/login.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		log.Printf("level=warn component=api endpoint=login outcome=reject email=%s", req.Email)
		h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(rec.Email, rec.Role)
	if err != nil {
		log.Printf("level=error component=api endpoint=login msg=\"token issue failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to issue session token")
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Email:       rec.Email,
		Role:        rec.Role,
	})
}

// MeHandler handles GET /api/v1/auth/me.
func (h *Handlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Valid session token required")
		return
	}
	rec, err := h.users.Get(claims.Email)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Session user no longer exists")
		return
	}
	h.writeJSON(w, http.StatusOK, users.PublicRecord{
		Email:     rec.Email,
		Role:      rec.Role,
		FullName:  rec.FullName,
		CreatedAt: rec.CreatedAt,
		IsActive:  rec.IsActive,
	})
}

// ListUsersHandler handles GET /api/v1/auth/users.
func (h *Handlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.users.List())
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// CreateUserHandler handles POST /api/v1/auth/users.
func (h *Handlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	rec, err := h.users.Create(req.Email, req.Password, req.Role, req.FullName)
	if err != nil {
		if errors.Is(err, users.ErrUserAlreadyExists) {
			h.writeError(w, http.StatusConflict, "User already exists")
			return
		}
		log.Printf("level=error component=api endpoint=create_user err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.writeJSON(w, http.StatusCreated, users.PublicRecord{
		Email:     rec.Email,
		Role:      rec.Role,
		FullName:  rec.FullName,
		CreatedAt: rec.CreatedAt,
		IsActive:  rec.IsActive,
	})
}

type updateUserRequest struct {
	Role     *string `json:"role"`
	FullName *string `json:"full_name"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

// UpdateUserHandler handles PUT /api/v1/auth/users/{email}.
func (h *Handlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.users.ApplyUpdate(email, users.Update{
		Role:     req.Role,
		FullName: req.FullName,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=update_user email=%s err=%v", email, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	h.writeJSON(w, http.StatusOK, users.PublicRecord{
		Email:     rec.Email,
		Role:      rec.Role,
		FullName:  rec.FullName,
		CreatedAt: rec.CreatedAt,
		IsActive:  rec.IsActive,
	})
}

// DeleteUserHandler handles DELETE /api/v1/auth/users/{email}. Deleting the
// account behind the current session is rejected.
func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if claims, ok := SessionFromContext(r.Context()); ok && claims.Email == email {
		h.writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.users.Delete(email); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_user email=%s err=%v", email, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "User " + email + " deleted"})
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SetAPIKeyHandler handles POST /api/v1/auth/api-key: stores the upstream
// TMS API key on the calling admin's record.
func (h *Handlers) SetAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Valid session token required")
		return
	}

	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.APIKey == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "api_key is required")
		return
	}

	if err := h.users.SetAPIKey(claims.Email, req.APIKey); err != nil {
		log.Printf("level=error component=api endpoint=set_api_key email=%s err=%v", claims.Email, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to store API key")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "API key stored"})
}

// APIKeyStatusHandler handles GET /api/v1/auth/api-key/status.
func (h *Handlers) APIKeyStatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"configured": h.users.AdminAPIKey() != ""})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePasswordHandler handles POST /api/v1/auth/change-password.
func (h *Handlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Valid session token required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NewPassword == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "new_password is required")
		return
	}

	if _, err := h.users.Authenticate(claims.Email, req.CurrentPassword); err != nil {
		h.writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}
	if _, err := h.users.ApplyUpdate(claims.Email, users.Update{Password: &req.NewPassword}); err != nil {
		log.Printf("level=error component=api endpoint=change_password email=%s err=%v", claims.Email, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to change password")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}
