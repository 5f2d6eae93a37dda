package session_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mbs-manager/internal/auth"
	"mbs-manager/internal/auth/authtest"
	"mbs-manager/internal/core"
	"mbs-manager/internal/repository/repotest"
	"mbs-manager/internal/session"
)

func newProvider(t *testing.T) (*session.Provider, *authtest.Service, *repotest.Store, session.TokenStore) {
	t.Helper()
	authSvc := authtest.New()
	mem := repotest.New()
	tokens := session.FileTokenStore{Path: filepath.Join(t.TempDir(), "session")}
	return session.NewProvider(authSvc, mem.Set().Profiles, tokens, zap.NewNop()), authSvc, mem, tokens
}

func TestProvider_InitWithoutTokenSettlesSignedOut(t *testing.T) {
	p, _, _, _ := newProvider(t)
	assert.True(t, p.State().Loading, "loading until Init resolves")

	require.NoError(t, p.Init(context.Background()))
	st := p.State()
	assert.False(t, st.Loading)
	assert.False(t, st.SignedIn())
	assert.Nil(t, st.Profile)
}

func TestProvider_SignUpEmptyNameFailsBeforeRemoteCall(t *testing.T) {
	p, authSvc, mem, _ := newProvider(t)

	err := p.SignUp(context.Background(), "a@b.c", "secret1", "   ", core.RoleSales)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "full_name", verr.Field)
	assert.Zero(t, authSvc.Calls)
	assert.Empty(t, mem.Calls)
}

func TestProvider_SignUpProvisionsProfile(t *testing.T) {
	p, _, mem, _ := newProvider(t)
	ctx := context.Background()

	var seen []session.State
	p.Observe(func(s session.State) { seen = append(seen, s) })

	require.NoError(t, p.SignUp(ctx, "alice@mbs.mq", "secret1", " Alice ", ""))

	st := p.State()
	require.True(t, st.SignedIn())
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Alice", st.Profile.FullName)
	assert.Equal(t, core.RoleSales, st.Profile.Role)
	assert.Equal(t, []string{"profiles.Create", "profiles.Get"}, mem.Calls)
	require.NotEmpty(t, seen)
	assert.True(t, seen[len(seen)-1].SignedIn())
}

func TestProvider_SignUpDuplicateSurfacesAuthError(t *testing.T) {
	p, _, _, _ := newProvider(t)
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleManager))

	err := p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleManager)
	assert.Equal(t, "User already registered", err.Error())
	assert.True(t, core.IsAuth(err))
}

func TestProvider_ProfileFailureAbortsSignUp(t *testing.T) {
	p, _, mem, _ := newProvider(t)
	mem.FailOn("profiles.Create")

	err := p.SignUp(context.Background(), "alice@mbs.mq", "secret1", "Alice", core.RoleSales)
	require.Error(t, err)
	assert.False(t, p.State().SignedIn())
}

func TestProvider_ProfileFailureRemovesIdentity(t *testing.T) {
	p, authSvc, mem, _ := newProvider(t)
	ctx := context.Background()
	mem.FailOnce("profiles.Create")

	err := p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleSales)
	require.ErrorIs(t, err, repotest.ErrInjected)
	assert.False(t, authSvc.Registered("alice@mbs.mq"))

	// The address is free again, so a retry provisions normally.
	require.NoError(t, p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleSales))
	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignIn(ctx, "alice@mbs.mq", "secret1"))
	require.NotNil(t, p.State().Profile)
	assert.Equal(t, "Alice", p.State().Profile.FullName)
}

func TestProvider_SignInWrongPassword(t *testing.T) {
	p, _, _, _ := newProvider(t)
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleSales))
	require.NoError(t, p.SignOut(ctx))

	err := p.SignIn(ctx, "alice@mbs.mq", "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.False(t, p.State().SignedIn())
}

func TestProvider_SessionResumesAcrossInit(t *testing.T) {
	p, authSvc, mem, tokens := newProvider(t)
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleSales))
	p.Dispose()
	assert.False(t, p.State().SignedIn())

	again := session.NewProvider(authSvc, mem.Set().Profiles, tokens, zap.NewNop())
	require.NoError(t, again.Init(ctx))
	require.True(t, again.State().SignedIn())
	assert.Equal(t, "Alice", again.State().Profile.FullName)

	require.NoError(t, again.SignOut(ctx))
	tok, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.Nil(t, again.State().Profile)
}

func TestProvider_InitClearsRevokedToken(t *testing.T) {
	p, _, _, tokens := newProvider(t)
	require.NoError(t, tokens.Save("stale-token"))

	require.NoError(t, p.Init(context.Background()))
	assert.False(t, p.State().SignedIn())
	tok, _ := tokens.Load()
	assert.Empty(t, tok)
}

func TestProvider_UpdatePasswordValidatesLocally(t *testing.T) {
	p, authSvc, _, _ := newProvider(t)
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "alice@mbs.mq", "secret1", "Alice", core.RoleSales))
	before := authSvc.Calls

	assert.True(t, core.IsValidation(p.UpdatePassword(ctx, "abcdef", "abcdeg")))
	assert.True(t, core.IsValidation(p.UpdatePassword(ctx, "abc", "abc")))
	assert.Equal(t, before, authSvc.Calls)

	require.NoError(t, p.UpdatePassword(ctx, "longer-secret", "longer-secret"))
	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignIn(ctx, "alice@mbs.mq", "longer-secret"))
}
