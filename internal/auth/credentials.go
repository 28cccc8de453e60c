// Package auth provides credential verification, signed bearer tokens and
// token revocation.
package auth

import (
	"fmt"
	"os"

	"github.com/atinyakov/CoverCatalog/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Credential is a single entry of the credential table.
type Credential struct {
	// Username is the principal the credential belongs to.
	Username string `yaml:"username"`
	// PasswordHash is a bcrypt hash of the secret.
	PasswordHash string `yaml:"password_hash"`
	// Role is granted to tokens issued for this principal.
	Role models.Role `yaml:"role"`
}

// DefaultUsers is the built-in principal table: username → (password, role).
var DefaultUsers = map[string]struct {
	Password string
	Role     models.Role
}{
	"admin": {Password: "admin123", Role: models.RoleAdmin},
	"user":  {Password: "user123", Role: models.RoleUser},
}

type credential struct {
	hash []byte
	role models.Role
}

// CredentialStore verifies principals against a fixed table of bcrypt hashes.
// It is immutable after construction.
type CredentialStore struct {
	users map[string]credential
	// dummy is compared against when the principal is unknown so that
	// lookups of unknown and known principals cost the same.
	dummy []byte
}

// NewCredentialStore builds a store from already hashed credentials.
func NewCredentialStore(creds []Credential) (*CredentialStore, error) {
	users := make(map[string]credential, len(creds))
	for _, c := range creds {
		if c.Username == "" {
			return nil, fmt.Errorf("credential without username")
		}
		if !c.Role.Valid() {
			return nil, fmt.Errorf("user %q: unknown role %q", c.Username, c.Role)
		}
		if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %q: invalid password hash: %w", c.Username, err)
		}
		if _, ok := users[c.Username]; ok {
			return nil, fmt.Errorf("user %q: duplicate entry", c.Username)
		}
		users[c.Username] = credential{hash: []byte(c.PasswordHash), role: c.Role}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), costOf(creds))
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &CredentialStore{users: users, dummy: dummy}, nil
}

// NewDefaultCredentialStore hashes DefaultUsers with the given bcrypt cost.
func NewDefaultCredentialStore(cost int) (*CredentialStore, error) {
	creds := make([]Credential, 0, len(DefaultUsers))
	for name, u := range DefaultUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", name, err)
		}
		creds = append(creds, Credential{Username: name, PasswordHash: string(hash), Role: u.Role})
	}
	return NewCredentialStore(creds)
}

// LoadCredentialStore reads a YAML users file of the form
//
//	users:
//	  - username: admin
//	    password_hash: $2a$10$...
//	    role: admin
func LoadCredentialStore(path string) (*CredentialStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var doc struct {
		Users []Credential `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	if len(doc.Users) == 0 {
		return nil, fmt.Errorf("users file %s defines no users", path)
	}
	return NewCredentialStore(doc.Users)
}

// Verify returns the role of principal if secret matches its stored hash.
// Unknown principals and wrong secrets both yield models.ErrInvalidCredentials.
func (s *CredentialStore) Verify(principal, secret string) (models.Role, error) {
	c, ok := s.users[principal]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(secret))
		return "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(secret)); err != nil {
		return "", models.ErrInvalidCredentials
	}
	return c.role, nil
}

// HashPassword returns a bcrypt hash suitable for a users file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func costOf(creds []Credential) int {
	for _, c := range creds {
		if cost, err := bcrypt.Cost([]byte(c.PasswordHash)); err == nil {
			return cost
		}
	}
	return bcrypt.DefaultCost
}
