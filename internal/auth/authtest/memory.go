// Package authtest provides an in-memory auth.Service for tests.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mbs-manager/internal/auth"
)

// Service keeps users and sessions in maps. Tokens are opaque session ids.
type Service struct {
	mu       sync.Mutex
	users    map[string]user // by email
	sessions map[string]string
	// Calls counts every method invocation, for asserting that a caller
	// made no remote call.
	Calls int
}

type user struct {
	id       string
	password string
}

func New() *Service {
	return &Service{users: make(map[string]user), sessions: make(map[string]string)}
}

var _ auth.Service = (*Service)(nil)

func (s *Service) SignUp(_ context.Context, email, password string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.users[email]; ok {
		return nil, auth.ErrAlreadyRegistered
	}
	if len(password) < auth.MinPasswordLength {
		return nil, auth.ErrWeakPassword
	}
	u := user{id: uuid.NewString(), password: password}
	s.users[email] = u
	return s.open(email, u), nil
}

func (s *Service) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	email = strings.ToLower(strings.TrimSpace(email))
	u, ok := s.users[email]
	if !ok || u.password != password {
		return nil, auth.ErrInvalidCredentials
	}
	return s.open(email, u), nil
}

func (s *Service) open(email string, u user) *auth.Session {
	token := uuid.NewString()
	s.sessions[token] = email
	return &auth.Session{Token: token, UserID: u.id, Email: email, ExpiresAt: time.Now().Add(time.Hour)}
}

func (s *Service) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	delete(s.sessions, token)
	return nil
}

func (s *Service) Verify(_ context.Context, token string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	email, ok := s.sessions[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Session{Token: token, UserID: s.users[email].id, Email: email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *Service) UpdatePassword(_ context.Context, token, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	email, ok := s.sessions[token]
	if !ok {
		return auth.ErrInvalidToken
	}
	u := s.users[email]
	u.password = password
	s.users[email] = u
	return nil
}

func (s *Service) DeleteUser(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	email, ok := s.sessions[token]
	if !ok {
		return auth.ErrInvalidToken
	}
	delete(s.users, email)
	for tok, e := range s.sessions {
		if e == email {
			delete(s.sessions, tok)
		}
	}
	return nil
}

// Registered reports whether an identity exists for email.
func (s *Service) Registered(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
