package api

import (
	"net/http"
	"testing"

	"github.com/walinzi/tps-gateway/internal/users"
)

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestLogin(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"admin@example.com","password":"admin123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decodeBody(t, rec, &resp)
	if resp.AccessToken == "" || resp.TokenType != "bearer" || resp.Role != users.RoleAdmin {
		t.Fatalf("resp = %+v", resp)
	}

	// The issued token works against a session-guarded route.
	rec = h.do(t, http.MethodGet, "/api/v1/auth/me", "", bearer(resp.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", rec.Code, rec.Body.String())
	}
	var me users.PublicRecord
	decodeBody(t, rec, &me)
	if me.Email != "admin@example.com" || me.Role != users.RoleAdmin {
		t.Errorf("me = %+v", me)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"admin@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUserCRUDRequiresAdmin(t *testing.T) {
	h := newHarness(t, nil)
	opToken := h.token(t, "op@example.com", users.RoleOperator)

	rec := h.do(t, http.MethodGet, "/api/v1/auth/users", "", bearer(opToken))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("operator list users: status = %d, want 403", rec.Code)
	}
}

func TestCreateUser(t *testing.T) {
	h := newHarness(t, nil)
	adminToken := h.token(t, "admin@example.com", users.RoleAdmin)

	body := `{"email":"new@example.com","password":"pw12345","role":"operator","full_name":"New Person"}`
	rec := h.do(t, http.MethodPost, "/api/v1/auth/users", body, bearer(adminToken))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// Duplicate email conflicts.
	rec = h.do(t, http.MethodPost, "/api/v1/auth/users", body, bearer(adminToken))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", rec.Code)
	}

	// Missing password is unprocessable.
	rec = h.do(t, http.MethodPost, "/api/v1/auth/users", `{"email":"x@example.com"}`, bearer(adminToken))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing password: status = %d, want 422", rec.Code)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	h := newHarness(t, nil)
	adminToken := h.token(t, "admin@example.com", users.RoleAdmin)

	rec := h.do(t, http.MethodPut, "/api/v1/auth/users/op@example.com", `{"is_active":false}`, bearer(adminToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated users.PublicRecord
	decodeBody(t, rec, &updated)
	if updated.IsActive {
		t.Error("user still active after update")
	}

	rec = h.do(t, http.MethodPut, "/api/v1/auth/users/ghost@example.com", `{}`, bearer(adminToken))
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing user: status = %d, want 404", rec.Code)
	}

	rec = h.do(t, http.MethodDelete, "/api/v1/auth/users/op@example.com", "", bearer(adminToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = h.do(t, http.MethodDelete, "/api/v1/auth/users/op@example.com", "", bearer(adminToken))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", rec.Code)
	}
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	h := newHarness(t, nil)
	adminToken := h.token(t, "admin@example.com", users.RoleAdmin)

	rec := h.do(t, http.MethodDelete, "/api/v1/auth/users/admin@example.com", "", bearer(adminToken))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAPIKeyStoreAndStatus(t *testing.T) {
	h := newHarness(t, nil)
	adminToken := h.token(t, "admin@example.com", users.RoleAdmin)

	rec := h.do(t, http.MethodGet, "/api/v1/auth/api-key/status", "", bearer(adminToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint: %d: %s", rec.Code, rec.Body.String())
	}
	var status map[string]bool
	decodeBody(t, rec, &status)
	if status["configured"] {
		t.Fatal("expected no key configured yet")
	}

	rec = h.do(t, http.MethodPost, "/api/v1/auth/api-key", `{"api_key":"tms-key"}`, bearer(adminToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("set key: %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/v1/auth/api-key/status", "", bearer(adminToken))
	decodeBody(t, rec, &status)
	if !status["configured"] {
		t.Fatal("expected key to be configured")
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t, nil)
	opToken := h.token(t, "op@example.com", users.RoleOperator)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/change-password", `{"current_password":"wrong","new_password":"next123"}`, bearer(opToken))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current password: status = %d, want 401", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/auth/change-password", `{"current_password":"op123","new_password":"next123"}`, bearer(opToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// New password now authenticates.
	rec = h.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"op@example.com","password":"next123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password: status = %d", rec.Code)
	}
}
