// Package application contains the client's use-case services: the session
// object views read identity from, and the cached query layer over the API.
package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// SessionState is a point-in-time snapshot of the session. IsLoading is true
// only between construction and the first SetUser (or completed Init), so
// views can distinguish "not logged in" from "not yet known".
type SessionState struct {
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
}

// Session is the process-wide view of the current user. It is an explicit
// object constructed at startup and passed to whoever needs it; there is no
// package-level instance.
//
// Writers race by design: the startup fetch, login, signup, and logout all
// replace the user wholesale. A monotonic generation counter makes
// authoritative writes (SetUser) win over the startup fetch, so a slow
// Init response can never clobber a login or logout that happened meanwhile.
type Session struct {
	api    driven.AnalysisAPI
	tokens driven.TokenStore

	mu              sync.RWMutex
	user            *model.User
	isAuthenticated bool
	isLoading       bool
	generation      uint64
}

// NewSession creates a Session in the loading state.
func NewSession(api driven.AnalysisAPI, tokens driven.TokenStore) *Session {
	return &Session{api: api, tokens: tokens, isLoading: true}
}

// State returns a snapshot of the current session.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{
		User:            s.user,
		IsAuthenticated: s.isAuthenticated,
		IsLoading:       s.isLoading,
	}
}

// SetUser is the single authoritative mutation entry point. It replaces the
// user, derives IsAuthenticated, drops IsLoading, and advances the
// generation so any in-flight startup fetch becomes stale.
func (s *Session) SetUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.apply(user)
}

// apply writes the derived state. Callers hold the write lock.
func (s *Session) apply(user *model.User) {
	s.user = user
	s.isAuthenticated = user != nil
	s.isLoading = false
}

// Init implements the startup contract: if a credential is stored, fetch the
// current user and populate the session; otherwise (or on fetch failure)
// settle on the unauthenticated state. If a SetUser happened while the fetch
// was in flight, the fetched result is discarded.
func (s *Session) Init(ctx context.Context) error {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.completeInit(gen, nil)
		return err
	}
	if token == "" {
		s.completeInit(gen, nil)
		return nil
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		// Expired or invalid credential; the API client has already cleared
		// the store on a 401. The session settles unauthenticated.
		slog.Info("session restore failed", "error", err)
		s.completeInit(gen, nil)
		return nil
	}

	if !s.completeInit(gen, user) {
		slog.Debug("discarded stale session restore", "user_id", user.ID)
	}
	return nil
}

// completeInit applies the startup fetch result unless an authoritative
// write advanced the generation first. Reports whether it applied.
func (s *Session) completeInit(gen uint64, user *model.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.apply(user)
	return true
}

// Logout clears the stored credential and resets the session. Local only;
// no network call is made.
func (s *Session) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	s.SetUser(nil)
	return err
}
