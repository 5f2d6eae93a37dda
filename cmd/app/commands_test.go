package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mbs-manager/internal/config"
	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/repository/repotest"
)

func TestResolveUser(t *testing.T) {
	ctx := context.Background()
	profiles := repotest.New().Set().Profiles
	_, err := profiles.Create(ctx, repository.ProfileInput{ID: "u-1", Email: "alice@mbs.mq", FullName: "Alice", Role: core.RoleSales})
	require.NoError(t, err)

	id, err := resolveUser(ctx, profiles, "ALICE@mbs.mq")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	id, err = resolveUser(ctx, profiles, "u-42")
	require.NoError(t, err)
	assert.Equal(t, "u-42", id, "ids pass through unchecked")

	_, err = resolveUser(ctx, profiles, "bob@mbs.mq")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMigrate_PrintUsesConfiguredChannel(t *testing.T) {
	t.Setenv("REALTIME_CHANNEL", "mbs_changes")
	e := &env{cfg: config.LoadEnv(), log: zap.NewNop()}
	root := newRootCmd(e)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate", "--print"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "pg_notify('mbs_changes'")
	assert.Nil(t, e.pool, "printing never connects")
}

func TestNotify_RequiresRecipientAndTitle(t *testing.T) {
	e := &env{cfg: config.LoadEnv(), log: zap.NewNop()}
	root := newRootCmd(e)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"notify", "--message", "hello"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
