// Package session holds the signed-in identity. It owns the API
// client so a 401 from any call, on any goroutine, clears the cached
// user and notifies every listener exactly once per change.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mlefevre/amicale-client/internal/client"
	"github.com/mlefevre/amicale-client/internal/models"
)

type Session struct {
	api *client.Client
	log *logrus.Logger

	mu        sync.RWMutex
	user      *models.User
	listeners []func(*models.User)
}

// New builds a session and its API client. The passed config's
// OnAuthChanged is replaced; listen through OnChange instead.
func New(cfg client.Config) (*Session, error) {
	s := &Session{log: cfg.Log}
	if s.log == nil {
		s.log = logrus.New()
	}
	cfg.OnAuthChanged = s.authLost
	api, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	s.api = api
	return s, nil
}

// Client exposes the underlying API client for the query layer.
func (s *Session) Client() *client.Client {
	return s.api
}

// CurrentUser returns the cached identity, nil when signed out. It
// never touches the network; use Refresh for that.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh re-fetches the identity from the backend. A 401 resolves to
// (nil, nil): being signed out is a state, not an error.
func (s *Session) Refresh(ctx context.Context) (*models.User, error) {
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNotAuthenticated) {
			return nil, nil
		}
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

// OnChange registers a listener called with the new identity on every
// change, including nil on sign-out. The returned function removes it.
func (s *Session) OnChange(listener func(*models.User)) func() {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	index := len(s.listeners) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.listeners[index] = nil
		s.mu.Unlock()
	}
}

func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func (s *Session) Register(ctx context.Context, input client.RegisterInput) (*models.User, error) {
	user, err := s.api.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	s.setUser(nil)
	return nil
}

func (s *Session) authLost() {
	s.log.Info("session rejected by backend, clearing identity")
	s.setUser(nil)
}

func (s *Session) setUser(user *models.User) {
	s.mu.Lock()
	changed := !sameUser(s.user, user)
	s.user = user
	listeners := make([]func(*models.User), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, listener := range listeners {
		if listener != nil {
			listener(user)
		}
	}
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
