/**
 * @description
 * JSON-file-backed user store with role-based access. Two roles exist:
 * admin (full access including cluster operations, user management, and the
 * stored TMS API key) and operator (submit transactions and view results).
 * The file is small and rewritten whole on every mutation; a mutex
 * serializes access from concurrent handlers.
 *
 * @dependencies
 * - encoding/json, errors, os, strings, sync, time: Standard Go libraries.
 * - golang.org/x/crypto/bcrypt: Password hashing.
 */

package users

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Record is one stored user. HashedPassword never leaves this package.
type Record struct {
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password"`
	Role           string `json:"role"`
	FullName       string `json:"full_name"`
	CreatedAt      string `json:"created_at"`
	IsActive       bool   `json:"is_active"`
	// APIKey is the upstream TMS key an admin stores for the whole gateway.
	APIKey string `json:"api_key,omitempty"`
}

// PublicRecord is Record minus the password hash, safe to serve.
type PublicRecord struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
	IsActive  bool   `json:"is_active"`
}

// Update describes a partial user mutation; nil fields are left unchanged.
type Update struct {
	Role     *string
	FullName *string
	IsActive *bool
	Password *string
}

// Store is the JSON-file user store.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store over the given file path. The file is created on
// first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() map[string]Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("level=error component=user_store msg=\"failed to read users file\" path=%s err=%v", s.path, err)
		}
		return map[string]Record{}
	}
	users := map[string]Record{}
	if err := json.Unmarshal(data, &users); err != nil {
		log.Printf("level=error component=user_store msg=\"users file unparsable\" path=%s err=%v", s.path, err)
		return map[string]Record{}
	}
	return users
}

func (s *Store) save(users map[string]Record) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// EnsureAdmin seeds a default admin when the store is empty and returns its
// credentials so main can log the change-me warning.
func (s *Store) EnsureAdmin(email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.load()
	if len(users) > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	email = normalizeEmail(email)
	users[email] = Record{
		Email:          email,
		HashedPassword: hash,
		Role:           RoleAdmin,
		FullName:       "System Admin",
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		IsActive:       true,
	}
	if err := s.save(users); err != nil {
		return err
	}
	log.Printf("level=warn component=user_store msg=\"default admin created; change the password immediately\" email=%s", email)
	return nil
}

// Get returns one user by email.
func (s *Store) Get(email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.load()[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &rec, nil
}

// List returns all users without password hashes.
func (s *Store) List() []PublicRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.load()
	out := make([]PublicRecord, 0, len(users))
	for _, rec := range users {
		out = append(out, PublicRecord{
			Email:     rec.Email,
			Role:      rec.Role,
			FullName:  rec.FullName,
			CreatedAt: rec.CreatedAt,
			IsActive:  rec.IsActive,
		})
	}
	return out
}

// Create adds a new user.
func (s *Store) Create(email, password, role, fullName string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	users := s.load()
	if _, exists := users[email]; exists {
		return nil, ErrUserAlreadyExists
	}
	if role != RoleAdmin {
		role = RoleOperator
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	rec := Record{
		Email:          email,
		HashedPassword: hash,
		Role:           role,
		FullName:       fullName,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		IsActive:       true,
	}
	users[email] = rec
	if err := s.save(users); err != nil {
		return nil, err
	}
	log.Printf("level=info component=user_store msg=\"user created\" email=%s role=%s", email, role)
	return &rec, nil
}

// ApplyUpdate mutates a user in place.
func (s *Store) ApplyUpdate(email string, upd Update) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	users := s.load()
	rec, ok := users[email]
	if !ok {
		return nil, ErrUserNotFound
	}

	if upd.Role != nil {
		rec.Role = *upd.Role
	}
	if upd.FullName != nil {
		rec.FullName = *upd.FullName
	}
	if upd.IsActive != nil {
		rec.IsActive = *upd.IsActive
	}
	if upd.Password != nil {
		hash, err := hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		rec.HashedPassword = hash
	}

	users[email] = rec
	if err := s.save(users); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a user.
func (s *Store) Delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	users := s.load()
	if _, ok := users[email]; !ok {
		return ErrUserNotFound
	}
	delete(users, email)
	if err := s.save(users); err != nil {
		return err
	}
	log.Printf("level=info component=user_store msg=\"user deleted\" email=%s", email)
	return nil
}

// Authenticate verifies email + password for an active user.
func (s *Store) Authenticate(email, password string) (*Record, error) {
	rec, err := s.Get(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !rec.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return rec, nil
}

// SetAPIKey stores the TMS API key on a user's record.
func (s *Store) SetAPIKey(email, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	users := s.load()
	rec, ok := users[email]
	if !ok {
		return ErrUserNotFound
	}
	rec.APIKey = apiKey
	users[email] = rec
	return s.save(users)
}

// AdminAPIKey returns the TMS API key stored by any admin, empty when none.
func (s *Store) AdminAPIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.load() {
		if rec.Role == RoleAdmin && rec.APIKey != "" {
			return rec.APIKey
		}
	}
	return ""
}
