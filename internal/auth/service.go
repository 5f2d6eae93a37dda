package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

// Messages returned to callers verbatim.
var (
	ErrInvalidCredentials = &core.AuthError{Message: "Invalid login credentials"}
	ErrAlreadyRegistered  = &core.AuthError{Message: "User already registered"}
	ErrSessionExpired     = &core.AuthError{Message: "Session expired"}
	ErrInvalidToken       = &core.AuthError{Message: "Invalid session token"}
	ErrWeakPassword       = &core.AuthError{Message: "Password should be at least 6 characters"}
)

// MinPasswordLength is the shortest password the credential store accepts.
const MinPasswordLength = 6

// Session is an authenticated identity with its access token.
type Session struct {
	Token     string    `json:"access_token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service is the credential store: sign-up, sign-in, sign-out,
// token verification and credential updates.
type Service interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*Session, error)
	UpdatePassword(ctx context.Context, token, password string) error
	// DeleteUser removes the identity the token belongs to, together with
	// its sessions.
	DeleteUser(ctx context.Context, token string) error
}

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type sessionRow struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

type service struct {
	db     store.DB
	tokens *Tokens
	now    func() time.Time
}

func NewService(client *store.Client, tokens *Tokens) Service {
	return &service{db: client.DB(), tokens: tokens, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, &core.AuthError{Message: "Email is required"}
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := store.ExecOne[userRow](ctx, s.db, store.Insert{
		Into: "auth_users",
		Rows: []store.Values{store.Values{}.Set("email", email).Set("password_hash", string(hash))},
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return s.openSession(ctx, user)
}

func (s *service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := store.One[userRow](ctx, s.db, store.From("auth_users").Eq("email", normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

func (s *service) openSession(ctx context.Context, user *userRow) (*Session, error) {
	now := s.now()
	sess, err := store.ExecOne[sessionRow](ctx, s.db, store.Insert{
		Into: "auth_sessions",
		Rows: []store.Values{store.Values{}.
			Set("id", uuid.NewString()).
			Set("user_id", user.ID).
			Set("expires_at", now.Add(s.tokens.TTL()))},
	})
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.Issue(user.ID, sess.ID, user.Email, now)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: user.ID, Email: user.Email, ExpiresAt: exp}, nil
}

func (s *service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		// An expired or foreign token has nothing left to revoke.
		return nil
	}
	_, err = store.ExecCount(ctx, s.db, store.Update{
		In:    "auth_sessions",
		Set:   store.Values{}.Set("revoked_at", s.now()),
		Where: store.Eq("id", claims.SessionID),
	})
	return err
}

func (s *service) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := store.One[sessionRow](ctx, s.db, store.From("auth_sessions").Eq("id", claims.SessionID))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if sess.RevokedAt != nil || sess.UserID != claims.Subject {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return &Session{Token: token, UserID: claims.Subject, Email: claims.Email, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *service) DeleteUser(ctx context.Context, token string) error {
	sess, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}
	// auth_sessions and profiles cascade.
	_, err = store.ExecCount(ctx, s.db, store.Delete{
		From:  "auth_users",
		Where: store.Eq("id", sess.UserID),
	})
	return err
}

func (s *service) UpdatePassword(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	sess, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = store.ExecCount(ctx, s.db, store.Update{
		In:    "auth_users",
		Set:   store.Values{}.Set("password_hash", string(hash)).Set("updated_at", s.now()),
		Where: store.Eq("id", sess.UserID),
	})
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
