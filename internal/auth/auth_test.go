package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fkhayef/thinglibrary/pkg/middleware"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*User)}
}

func (m *memoryUsers) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrEmailExists
		}
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func newTestService() (*Service, *JWTManager) {
	tokens := NewJWTManager("test-secret", time.Hour)
	return NewService(newMemoryUsers(), tokens), tokens
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, expiresAt, err := m.Generate(&User{ID: "u-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("expected expiry in the future")
	}

	userID, email, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if userID != "u-1" || email != "a@example.com" {
		t.Errorf("unexpected identity %s %s", userID, email)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, _, _ := m.Generate(&User{ID: "u-1"})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, tokens := newTestService()
	ctx := context.Background()

	session, err := svc.SignUp(ctx, &CredentialsRequest{Email: "  Ana@Example.com ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if session.User.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %s", session.User.Email)
	}
	if session.TokenType != "bearer" {
		t.Errorf("unexpected token type %s", session.TokenType)
	}
	if userID, _, err := tokens.ValidateToken(session.AccessToken); err != nil || userID != session.User.ID {
		t.Errorf("token does not identify new user: %v", err)
	}

	if _, err := svc.SignUp(ctx, &CredentialsRequest{Email: "ana@example.com", Password: "another pass"}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}

	signedIn, err := svc.SignIn(ctx, &CredentialsRequest{Email: "ANA@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signedIn.User.ID != session.User.ID {
		t.Error("sign in returned a different user")
	}

	for _, bad := range []CredentialsRequest{
		{Email: "ana@example.com", Password: "wrong password"},
		{Email: "nobody@example.com", Password: "correct horse"},
		{Email: "not an email", Password: "correct horse"},
	} {
		if _, err := svc.SignIn(ctx, &bad); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%s): expected ErrInvalidCredentials, got %v", bad.Email, err)
		}
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		req  CredentialsRequest
		want error
	}{
		{"short password", CredentialsRequest{Email: "a@example.com", Password: "short"}, ErrWeakPassword},
		{"bad email", CredentialsRequest{Email: "nope", Password: "long enough"}, ErrInvalidEmail},
		{"display name form", CredentialsRequest{Email: "Ana <a@example.com>", Password: "long enough"}, ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SignUp(context.Background(), &tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHandlerSessionFlow(t *testing.T) {
	svc, tokens := newTestService()
	h := NewHandler(svc)
	server := httptest.NewServer(h.Routes(middleware.Authenticate(tokens)))
	defer server.Close()

	resp, err := http.Post(server.URL+"/signup", "application/json", strings.NewReader(`{"email":"b@example.com","password":"password1"}`))
	if err != nil {
		t.Fatalf("signup request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/session")
	if err != nil {
		t.Fatalf("session request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, err = http.Post(server.URL+"/signin", "application/json", strings.NewReader(`{"email":"b@example.com","password":"wrong-one"}`))
	if err != nil {
		t.Fatalf("signin request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
}
