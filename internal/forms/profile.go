package forms

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mbs-manager/internal/auth"
	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/session"
)

// ProfileForm edits the signed-in user's own profile. The role is not
// editable here.
type ProfileForm struct {
	status
	profiles  repository.ProfileRepository
	sess      *session.Provider
	log       *zap.Logger
	onSuccess OnSuccess

	mu    sync.Mutex
	draft repository.ProfileUpdate
}

func NewProfileForm(profiles repository.ProfileRepository, sess *session.Provider, log *zap.Logger, onSuccess OnSuccess) *ProfileForm {
	return &ProfileForm{profiles: profiles, sess: sess, log: log, onSuccess: onSuccess}
}

// Load seeds the draft from the session's profile.
func (f *ProfileForm) Load() {
	var d repository.ProfileUpdate
	if p := f.sess.State().Profile; p != nil {
		d = repository.ProfileUpdate{
			FullName:    p.FullName,
			Phone:       core.Deref(p.Phone),
			CompanyName: core.Deref(p.CompanyName),
		}
	}
	f.SetDraft(d)
}

func (f *ProfileForm) Draft() repository.ProfileUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *ProfileForm) SetDraft(d repository.ProfileUpdate) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
}

func (f *ProfileForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case "full_name":
		f.draft.FullName = value
	case "phone":
		f.draft.Phone = value
	case "company_name":
		f.draft.CompanyName = value
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
	return nil
}

// Submit writes the profile row and refreshes the session's copy of it.
func (f *ProfileForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	err := f.submit(ctx, f.Draft())
	f.end(err)
	if err != nil {
		return err
	}
	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}
	return nil
}

func (f *ProfileForm) submit(ctx context.Context, d repository.ProfileUpdate) error {
	userID := f.sess.UserID()
	if userID == "" {
		return auth.ErrInvalidToken
	}
	if blank(d.FullName) {
		return core.NewValidationError("full_name", "Le nom complet est requis")
	}
	if _, err := f.profiles.Update(ctx, userID, d); err != nil {
		return err
	}
	if err := f.sess.RefreshProfile(ctx); err != nil {
		f.log.Warn("failed to refresh profile", zap.Error(err))
	}
	return nil
}

// PasswordForm changes the signed-in user's password.
type PasswordForm struct {
	status
	sess      *session.Provider
	onSuccess OnSuccess

	mu       sync.Mutex
	password string
	confirm  string
}

func NewPasswordForm(sess *session.Provider, onSuccess OnSuccess) *PasswordForm {
	return &PasswordForm{sess: sess, onSuccess: onSuccess}
}

func (f *PasswordForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case "password":
		f.password = value
	case "confirm_password":
		f.confirm = value
	default:
		return fmt.Errorf("unknown password field %q", field)
	}
	return nil
}

func (f *PasswordForm) Reset() {
	f.mu.Lock()
	f.password, f.confirm = "", ""
	f.mu.Unlock()
}

func (f *PasswordForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	f.mu.Lock()
	password, confirm := f.password, f.confirm
	f.mu.Unlock()

	err := f.sess.UpdatePassword(ctx, password, confirm)
	f.end(err)
	if err != nil {
		return err
	}
	f.Reset()
	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}
	return nil
}
