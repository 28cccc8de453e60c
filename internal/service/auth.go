package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/CoverCatalog/internal/auth"
	"github.com/atinyakov/CoverCatalog/internal/models"
)

// CredentialVerifier checks a principal's secret and returns its role.
type CredentialVerifier interface {
	Verify(principal, secret string) (models.Role, error)
}

// TokenCodec issues, verifies and revokes bearer tokens.
type TokenCodec interface {
	Issue(principal string, role models.Role) (auth.Token, error)
	Verify(raw string) (models.Identity, error)
	Revoke(tokenID string, expiresAt time.Time)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	Principal string
	Role      models.Role
	ExpiresAt time.Time
}

// AuthService implements login, logout and token verification.
type AuthService struct {
	creds  CredentialVerifier
	tokens TokenCodec
}

// NewAuthService constructs an AuthService.
func NewAuthService(creds CredentialVerifier, tokens TokenCodec) *AuthService {
	return &AuthService{creds: creds, tokens: tokens}
}

// Login verifies the credentials and issues a token carrying the principal's role.
func (s *AuthService) Login(_ context.Context, principal, secret string) (Session, error) {
	role, err := s.creds.Verify(principal, secret)
	if err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.Issue(principal, role)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{
		Token:     tok.Raw,
		Principal: principal,
		Role:      role,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// Verify validates a raw bearer token.
func (s *AuthService) Verify(raw string) (models.Identity, error) {
	return s.tokens.Verify(raw)
}

// Logout revokes the token identified by id.
func (s *AuthService) Logout(_ context.Context, id models.Identity) error {
	s.tokens.Revoke(id.TokenID, id.ExpiresAt)
	return nil
}
