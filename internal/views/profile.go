package views

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/session"
)

// Profile shows the signed-in user's profile and owns the open state of the
// profile and password forms.
type Profile struct {
	sess *session.Provider
	log  *zap.Logger

	mu           sync.RWMutex
	phase        Phase
	editing      bool
	passwordOpen bool
}

func NewProfile(sess *session.Provider, log *zap.Logger) *Profile {
	return &Profile{sess: sess, log: log, phase: Loading}
}

// Load refreshes the profile row held by the session.
func (v *Profile) Load(ctx context.Context) {
	if err := v.sess.RefreshProfile(ctx); err != nil {
		v.log.Error("page fetch failed", zap.String("page", "profile"), zap.Error(err))
	}
	v.mu.Lock()
	v.phase = Ready
	v.mu.Unlock()
}

func (v *Profile) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

func (v *Profile) Profile() *core.Profile {
	return v.sess.State().Profile
}

func (v *Profile) Email() string {
	if u := v.sess.State().CurrentUser; u != nil {
		return u.Email
	}
	return ""
}

func (v *Profile) SetEditing(on bool) {
	v.mu.Lock()
	v.editing = on
	v.mu.Unlock()
}

func (v *Profile) Editing() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.editing
}

func (v *Profile) SetPasswordOpen(on bool) {
	v.mu.Lock()
	v.passwordOpen = on
	v.mu.Unlock()
}

func (v *Profile) PasswordOpen() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.passwordOpen
}

// ProfileSaved is the profile form's success callback.
func (v *Profile) ProfileSaved(ctx context.Context) {
	v.SetEditing(false)
	v.Load(ctx)
}
