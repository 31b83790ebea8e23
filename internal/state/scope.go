package state

import (
	"context"
	"errors"
	"sync"
)

// ErrScopeClosed is returned by mutations issued after their scope closed
var ErrScopeClosed = errors.New("view is no longer active")

// Scope is the lifetime of the view that owns some state. Closing it
// cancels in-flight calls and turns every later state write into a no-op.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	onClose []func()

	wg sync.WaitGroup
}

// NewScope opens a scope under parent
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the scope closes
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Active reports whether the scope is still open
func (s *Scope) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Go runs fn in the background, tracked by Wait
func (s *Scope) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Wait blocks until every function started with Go has returned
func (s *Scope) Wait() {
	s.wg.Wait()
}

// OnClose registers fn to run when the scope closes. On a closed scope fn
// runs immediately.
func (s *Scope) OnClose(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

// Close ends the scope. It is safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	s.cancel()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// guard runs write only while the scope is open and reports whether it ran.
// Close waits for a running write to finish.
func (s *Scope) guard(write func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	write()
	return true
}
