package users

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "users.json"))
}

func TestEnsureAdminSeedsEmptyStoreOnce(t *testing.T) {
	s := newTestStore(t)

	if err := s.EnsureAdmin("admin@example.com", "admin123"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	rec, err := s.Get("admin@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Role != RoleAdmin || !rec.IsActive {
		t.Fatalf("unexpected seeded admin: %+v", rec)
	}

	// A second call with different credentials must not overwrite.
	if err := s.EnsureAdmin("other@example.com", "pw"); err != nil {
		t.Fatalf("EnsureAdmin second call: %v", err)
	}
	if _, err := s.Get("other@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatal("EnsureAdmin overwrote a populated store")
	}
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("Ops@Example.com ", "s3cret", RoleOperator, "Ops Person"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Email lookup is case/whitespace-insensitive.
	rec, err := s.Authenticate("ops@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if rec.Role != RoleOperator {
		t.Errorf("role = %q", rec.Role)
	}

	if _, err := s.Authenticate("ops@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}

	inactive := false
	if _, err := s.ApplyUpdate("ops@example.com", Update{IsActive: &inactive}); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if _, err := s.Authenticate("ops@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("inactive user must not authenticate: err = %v", err)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("a@b.co", "pw", RoleOperator, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create("A@B.CO", "pw", RoleOperator, ""); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestUpdatePasswordTakesEffect(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("a@b.co", "old", RoleOperator, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	newPw := "newpassword"
	if _, err := s.ApplyUpdate("a@b.co", Update{Password: &newPw}); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if _, err := s.Authenticate("a@b.co", "old"); err == nil {
		t.Error("old password still valid")
	}
	if _, err := s.Authenticate("a@b.co", "newpassword"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("a@b.co", "pw", RoleOperator, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete("a@b.co"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("a@b.co"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestAdminAPIKeyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureAdmin("admin@example.com", "pw"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if _, err := s.Create("op@example.com", "pw", RoleOperator, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := s.AdminAPIKey(); got != "" {
		t.Fatalf("expected no key yet, got %q", got)
	}

	// Keys on non-admin records are ignored.
	if err := s.SetAPIKey("op@example.com", "operator-key"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if got := s.AdminAPIKey(); got != "" {
		t.Fatalf("operator key must not surface, got %q", got)
	}

	if err := s.SetAPIKey("admin@example.com", "tms-key-123"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if got := s.AdminAPIKey(); got != "tms-key-123" {
		t.Fatalf("AdminAPIKey = %q", got)
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	m, err := NewTokenManager("", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := m.Issue("admin@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "admin@example.com" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenRejectedAcrossManagers(t *testing.T) {
	m1, _ := NewTokenManager("", time.Hour)
	m2, _ := NewTokenManager("", time.Hour)

	token, err := m1.Issue("a@b.co", RoleOperator)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m2.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token verified with wrong secret: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m, err := NewTokenManager("fixed-secret", time.Nanosecond)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, err := m.Issue("a@b.co", RoleOperator)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}
