package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mbs-manager/internal/auth"
	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
)

// State is what the rest of the client reads about the signed-in user.
type State struct {
	CurrentUser *auth.Session `json:"user"`
	Profile     *core.Profile `json:"profile"`
	Loading     bool          `json:"loading"`
}

// SignedIn reports whether a session is established.
func (s State) SignedIn() bool { return s.CurrentUser != nil }

// Provider owns the identity of one client. It is created at start-up,
// initialised once with Init and torn down with Dispose.
type Provider struct {
	auth     auth.Service
	profiles repository.ProfileRepository
	tokens   TokenStore
	log      *zap.Logger

	mu        sync.RWMutex
	state     State
	observers map[int]func(State)
	nextID    int
}

func NewProvider(authSvc auth.Service, profiles repository.ProfileRepository, tokens TokenStore, log *zap.Logger) *Provider {
	return &Provider{
		auth:      authSvc,
		profiles:  profiles,
		tokens:    tokens,
		log:       log,
		state:     State{Loading: true},
		observers: make(map[int]func(State)),
	}
}

// Init resolves whether a persisted session exists and loads its profile.
// An invalid or expired token is cleared and leaves the provider signed out.
func (p *Provider) Init(ctx context.Context) error {
	p.set(State{Loading: true})

	token, err := p.tokens.Load()
	if err != nil {
		p.set(State{})
		return err
	}
	if token == "" {
		p.set(State{})
		return nil
	}

	sess, err := p.auth.Verify(ctx, token)
	if err != nil {
		p.log.Info("stored session rejected", zap.Error(err))
		_ = p.tokens.Clear()
		p.set(State{})
		if core.IsAuth(err) {
			return nil
		}
		return err
	}
	return p.establish(ctx, sess)
}

// Dispose drops the in-memory session and every observer. The persisted
// token is kept so the next Init can resume.
func (p *Provider) Dispose() {
	p.mu.Lock()
	p.state = State{}
	p.observers = make(map[int]func(State))
	p.mu.Unlock()
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// UserID returns the signed-in user's id, or "" when signed out.
func (p *Provider) UserID() string {
	s := p.State()
	if s.CurrentUser == nil {
		return ""
	}
	return s.CurrentUser.UserID
}

// Token returns the current access token, or "".
func (p *Provider) Token() string {
	s := p.State()
	if s.CurrentUser == nil {
		return ""
	}
	return s.CurrentUser.Token
}

// Observe registers fn for every state change and returns its remover.
func (p *Provider) Observe(fn func(State)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	sess, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return p.establish(ctx, sess)
}

// SignUp registers the identity and provisions its profile row before the
// session is exposed. An empty full name is rejected before any remote call.
func (p *Provider) SignUp(ctx context.Context, email, password, fullName string, role core.Role) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return core.NewValidationError("full_name", "Le nom complet est requis")
	}
	if role == "" {
		role = core.DefaultRole
	}
	if !role.Valid() {
		return core.NewValidationError("role", fmt.Sprintf("rôle inconnu %q", role))
	}

	var sess *auth.Session
	err := store.NewPlan(p.log).
		Add(store.Step{
			Name: "register identity",
			Do: func(ctx context.Context) error {
				var err error
				sess, err = p.auth.SignUp(ctx, email, password)
				return err
			},
			Undo: func(ctx context.Context) error {
				return p.auth.DeleteUser(ctx, sess.Token)
			},
		}).
		Add(store.Step{
			Name: "provision profile",
			Do: func(ctx context.Context) error {
				_, err := p.profiles.Create(ctx, repository.ProfileInput{
					ID:       sess.UserID,
					Email:    sess.Email,
					FullName: fullName,
					Role:     role,
				})
				if err != nil {
					return fmt.Errorf("failed to provision profile: %w", err)
				}
				return nil
			},
		}).
		Run(ctx)
	if err != nil {
		return err
	}
	return p.establish(ctx, sess)
}

// SignOut revokes the session and clears all state.
func (p *Provider) SignOut(ctx context.Context) error {
	token := p.Token()
	var err error
	if token != "" {
		err = p.auth.SignOut(ctx, token)
	}
	if cerr := p.tokens.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	p.set(State{})
	return err
}

// UpdatePassword changes the signed-in user's password after checking the
// confirmation and minimum length locally.
func (p *Provider) UpdatePassword(ctx context.Context, password, confirm string) error {
	if password != confirm {
		return core.NewValidationError("confirm_password", "Les mots de passe ne correspondent pas")
	}
	if len(password) < auth.MinPasswordLength {
		return core.NewValidationError("password", "Le mot de passe doit contenir au moins 6 caractères")
	}
	token := p.Token()
	if token == "" {
		return auth.ErrInvalidToken
	}
	return p.auth.UpdatePassword(ctx, token, password)
}

// RefreshProfile reloads the profile row, e.g. after the profile form saves.
func (p *Provider) RefreshProfile(ctx context.Context) error {
	s := p.State()
	if s.CurrentUser == nil {
		return nil
	}
	prof, err := p.profiles.Get(ctx, s.CurrentUser.UserID)
	if err != nil {
		return err
	}
	s.Profile = prof
	p.set(s)
	return nil
}

func (p *Provider) establish(ctx context.Context, sess *auth.Session) error {
	prof, err := p.profiles.Get(ctx, sess.UserID)
	if err != nil {
		// A missing profile does not block the session.
		p.log.Error("failed to load profile", zap.String("user_id", sess.UserID), zap.Error(err))
		prof = nil
	}
	if err := p.tokens.Save(sess.Token); err != nil {
		p.log.Warn("failed to persist session", zap.Error(err))
	}
	p.set(State{CurrentUser: sess, Profile: prof})
	return nil
}

func (p *Provider) set(s State) {
	p.mu.Lock()
	p.state = s
	fns := make([]func(State), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
