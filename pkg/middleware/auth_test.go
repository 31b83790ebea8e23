package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fkhayef/thinglibrary/pkg/logging"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (string, string, error) {
	if token == "good" {
		return "user-1", "a@example.com", nil
	}
	return "", "", errors.New("bad token")
}

type stubAdmins struct {
	admins map[string]bool
	err    error
}

func (s stubAdmins) IsAdmin(_ context.Context, userID string) (bool, error) {
	return s.admins[userID], s.err
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	w.Write([]byte(userID + "|" + GetEmail(r.Context())))
}

func TestAuthenticate(t *testing.T) {
	handler := Authenticate(stubValidator{})(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"no token", "Bearer ", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer good", http.StatusOK, "user-1|a@example.com"},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1|a@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name    string
		userID  string
		checker stubAdmins
		status  int
	}{
		{"anonymous", "", stubAdmins{}, http.StatusUnauthorized},
		{"regular user", "user-2", stubAdmins{admins: map[string]bool{"user-1": true}}, http.StatusForbidden},
		{"admin", "user-1", stubAdmins{admins: map[string]bool{"user-1": true}}, http.StatusOK},
		{"lookup failure", "user-1", stubAdmins{err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req = req.WithContext(WithUser(req.Context(), tt.userID, ""))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(tt.checker)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))

	out := buf.String()
	if !strings.Contains(out, "path=/api/v1/items") || !strings.Contains(out, "status=418") {
		t.Errorf("unexpected log output: %q", out)
	}
}
