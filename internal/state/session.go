package state

import (
	"context"
	"log/slog"
	"sync"
)

// SessionState is the observable state of a SessionResource
type SessionState struct {
	Session *Session
	User    *User
	Loading bool
}

// SessionResource tracks the current session for the lifetime of a scope
type SessionResource struct {
	scope *Scope
	auth  Auth
	log   *slog.Logger

	mu       sync.RWMutex
	state    SessionState
	notified bool
}

// StartSession retrieves the current session in the background and follows
// auth changes until the scope closes. A failed retrieval is logged and
// treated as no session.
func StartSession(scope *Scope, auth Auth, log *slog.Logger) *SessionResource {
	r := &SessionResource{
		scope: scope,
		auth:  auth,
		log:   log,
		state: SessionState{Loading: true},
	}

	unsubscribe := auth.OnAuthStateChange(r.handleChange)
	scope.OnClose(unsubscribe)

	scope.Go(func(ctx context.Context) {
		s, err := auth.GetSession(ctx)
		if err != nil {
			log.Error("Error getting session", "error", err)
			s = nil
		}
		scope.guard(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			// a change notification that arrived first is newer
			if !r.notified {
				r.set(s)
			}
			r.state.Loading = false
		})
	})

	return r
}

func (r *SessionResource) handleChange(_ AuthEvent, s *Session) {
	r.scope.guard(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.notified = true
		r.set(s)
	})
}

func (r *SessionResource) set(s *Session) {
	r.state.Session = s
	r.state.User = nil
	if s != nil {
		u := s.User
		r.state.User = &u
	}
}

// State returns a snapshot of the session state
func (r *SessionResource) State() SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// UserID returns the signed-in user id, or "" without a session
func (r *SessionResource) UserID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.User == nil {
		return ""
	}
	return r.state.User.ID
}

// Logout invalidates the session. The resulting auth change clears the state.
func (r *SessionResource) Logout(ctx context.Context) error {
	return r.auth.SignOut(ctx)
}
