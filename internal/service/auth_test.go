package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/CoverCatalog/internal/auth"
	"github.com/atinyakov/CoverCatalog/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type mockCreds struct {
	VerifyFunc func(principal, secret string) (models.Role, error)
}

func (m *mockCreds) Verify(principal, secret string) (models.Role, error) {
	return m.VerifyFunc(principal, secret)
}

type mockCodec struct {
	IssueFunc  func(principal string, role models.Role) (auth.Token, error)
	VerifyFunc func(raw string) (models.Identity, error)
	revoked    []string
}

func (m *mockCodec) Issue(principal string, role models.Role) (auth.Token, error) {
	return m.IssueFunc(principal, role)
}

func (m *mockCodec) Verify(raw string) (models.Identity, error) {
	return m.VerifyFunc(raw)
}

func (m *mockCodec) Revoke(tokenID string, expiresAt time.Time) {
	m.revoked = append(m.revoked, tokenID)
}

func TestLogin_Success(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	creds := &mockCreds{VerifyFunc: func(principal, secret string) (models.Role, error) {
		if principal != "admin" || secret != "admin123" {
			t.Errorf("Verify received (%q, %q)", principal, secret)
		}
		return models.RoleAdmin, nil
	}}
	codec := &mockCodec{IssueFunc: func(principal string, role models.Role) (auth.Token, error) {
		if role != models.RoleAdmin {
			t.Errorf("Issue received role %q; want admin", role)
		}
		return auth.Token{Raw: "tok", ID: "jti", ExpiresAt: exp}, nil
	}}

	got, err := NewAuthService(creds, codec).Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	want := Session{Token: "tok", Principal: "admin", Role: models.RoleAdmin, ExpiresAt: exp}
	if got != want {
		t.Errorf("Login = %+v; want %+v", got, want)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	creds := &mockCreds{VerifyFunc: func(string, string) (models.Role, error) {
		return "", models.ErrInvalidCredentials
	}}
	codec := &mockCodec{IssueFunc: func(string, models.Role) (auth.Token, error) {
		t.Fatal("Issue must not be called for invalid credentials")
		return auth.Token{}, nil
	}}

	_, err := NewAuthService(creds, codec).Login(context.Background(), "admin", "bad")
	if !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("Login error = %v; want ErrInvalidCredentials", err)
	}
}

func TestLogin_IssueError(t *testing.T) {
	creds := &mockCreds{VerifyFunc: func(string, string) (models.Role, error) { return models.RoleUser, nil }}
	codec := &mockCodec{IssueFunc: func(string, models.Role) (auth.Token, error) {
		return auth.Token{}, errors.New("sign failed")
	}}

	if _, err := NewAuthService(creds, codec).Login(context.Background(), "user", "user123"); err == nil {
		t.Error("expected error from Login")
	}
}

func TestLogout_RevokesTokenID(t *testing.T) {
	codec := &mockCodec{}
	svc := NewAuthService(&mockCreds{}, codec)

	if err := svc.Logout(context.Background(), models.Identity{TokenID: "abc"}); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if len(codec.revoked) != 1 || codec.revoked[0] != "abc" {
		t.Errorf("revoked = %v; want [abc]", codec.revoked)
	}
}

// Every principal of the default table gets a token carrying its own role.
func TestAuthService_LoginThenVerify(t *testing.T) {
	store, err := auth.NewDefaultCredentialStore(bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAuthService(store, auth.NewTokenCodec([]byte("k"), auth.NewRevocationSet()))

	for name, u := range auth.DefaultUsers {
		sess, err := svc.Login(context.Background(), name, u.Password)
		if err != nil {
			t.Fatalf("Login(%s) returned error: %v", name, err)
		}
		id, err := svc.Verify(sess.Token)
		if err != nil {
			t.Fatalf("Verify(%s) returned error: %v", name, err)
		}
		if id.Principal != name || id.Role != u.Role || sess.Role != u.Role {
			t.Errorf("%s: identity %+v, session role %q; want role %q", name, id, sess.Role, u.Role)
		}

		if err := svc.Logout(context.Background(), id); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Verify(sess.Token); !errors.Is(err, models.ErrTokenRevoked) {
			t.Errorf("%s: Verify after logout = %v; want ErrTokenRevoked", name, err)
		}
	}
}
