package client

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fkhayef/thinglibrary/internal/state"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetSession returns the current session, or nil when signed out. A stored
// session is checked against the server; one that is expired or rejected
// is dropped and reported as signed out.
func (c *Client) GetSession(ctx context.Context) (*state.Session, error) {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()
	if s == nil {
		return nil, nil
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		c.setSession(state.EventSignedOut, nil)
		return nil, nil
	}

	var user state.User
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, nil, &user); err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			c.setSession(state.EventSignedOut, nil)
			return nil, nil
		}
		return nil, err
	}

	cp := *s
	cp.User = user
	return &cp, nil
}

// OnAuthStateChange registers fn for session changes. Callbacks run
// synchronously on the goroutine that caused the change.
func (c *Client) OnAuthStateChange(fn func(event state.AuthEvent, s *state.Session)) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

// SignIn exchanges credentials for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*state.Session, error) {
	return c.authenticate(ctx, "/auth/signin", email, password)
}

// SignUp creates an account and signs in
func (c *Client) SignUp(ctx context.Context, email, password string) (*state.Session, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*state.Session, error) {
	var s state.Session
	if err := c.do(ctx, http.MethodPost, path, nil, credentials{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	c.setSession(state.EventSignedIn, &s)
	return &s, nil
}

// SignOut drops the local session even when the server call fails
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.token() != "" {
		err = c.do(ctx, http.MethodPost, "/auth/signout", nil, nil, nil)
	}
	c.setSession(state.EventSignedOut, nil)
	return err
}

func (c *Client) setSession(event state.AuthEvent, s *state.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	if err := c.saveSession(s); err != nil {
		c.log.Warn("could not persist session", "error", err)
	}

	c.subsMu.Lock()
	subs := make([]func(state.AuthEvent, *state.Session), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range subs {
		fn(event, s)
	}
}

// LoadSession restores a session saved by an earlier run. A missing token
// file is not an error.
func (c *Client) LoadSession() error {
	if c.tokenFile == "" {
		return nil
	}
	raw, err := os.ReadFile(c.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not read token file")
	}

	var s state.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(err, "could not decode token file")
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return nil
}

func (c *Client) saveSession(s *state.Session) error {
	if c.tokenFile == "" {
		return nil
	}
	if s == nil {
		if err := os.Remove(c.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(err, "could not remove token file")
		}
		return nil
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "could not encode session")
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0o700); err != nil {
		return errors.Wrap(err, "could not create token directory")
	}
	return errors.Wrap(os.WriteFile(c.tokenFile, raw, 0o600), "could not write token file")
}
