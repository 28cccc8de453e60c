package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/CoverCatalog/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the lifetime of every issued token.
const TokenTTL = time.Hour

// Claims is the JWT payload: registered claims plus the role.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Token is a freshly issued bearer token.
type Token struct {
	// Raw is the signed compact JWT.
	Raw string
	// ID is the jti claim.
	ID string
	// ExpiresAt is the exp claim.
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HS256 tokens and consults a RevocationSet.
type TokenCodec struct {
	secret  []byte
	ttl     time.Duration
	revoked *RevocationSet
	parser  *jwt.Parser
	now     func() time.Time
	newID   func() string
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// WithIDGenerator overrides the token id source.
func WithIDGenerator(gen func() string) CodecOption {
	return func(c *TokenCodec) {
		c.newID = gen
	}
}

// NewTokenCodec creates a codec signing with secret.
func NewTokenCodec(secret []byte, revoked *RevocationSet, opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{
		secret:  secret,
		ttl:     TokenTTL,
		revoked: revoked,
		// Expiry is checked by Verify after the revocation lookup.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateSecret returns a random 32-byte signing key.
func GenerateSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return b, nil
}

// Issue signs a new token for principal with the given role.
func (c *TokenCodec) Issue(principal string, role models.Role) (Token, error) {
	now := c.now()
	// JWT NumericDate has second precision.
	exp := now.Add(c.ttl).Truncate(time.Second)
	id := c.newID()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	})
	raw, err := tok.SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Raw: raw, ID: id, ExpiresAt: exp}, nil
}

// Verify checks, in order, the signature, the revocation set and the expiry.
func (c *TokenCodec) Verify(raw string) (models.Identity, error) {
	claims := &Claims{}
	tok, err := c.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return models.Identity{}, errors.Join(models.ErrTokenInvalid, err)
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil || !claims.Role.Valid() {
		return models.Identity{}, fmt.Errorf("%w: missing claims", models.ErrTokenInvalid)
	}

	if c.revoked.IsRevoked(claims.ID) {
		return models.Identity{}, models.ErrTokenRevoked
	}

	exp := claims.ExpiresAt.Time
	if c.now().After(exp) {
		return models.Identity{}, models.ErrTokenExpired
	}

	return models.Identity{
		Principal: claims.Subject,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: exp,
	}, nil
}

// Revoke invalidates the token with tokenID for the rest of the process lifetime.
func (c *TokenCodec) Revoke(tokenID string, expiresAt time.Time) {
	c.revoked.Revoke(tokenID, expiresAt)
}
