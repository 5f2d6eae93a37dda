package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbs-manager/internal/core"
)

func TestPlan_RunsAllSteps(t *testing.T) {
	var ran []string
	step := func(name string) Step {
		return Step{Name: name, Do: func(context.Context) error { ran = append(ran, name); return nil }}
	}
	err := NewPlan(nil).Add(step("a")).Add(step("b")).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestPlan_CompensatesInReverse(t *testing.T) {
	boom := errors.New("boom")
	var undone []string
	ok := func(name string) Step {
		return Step{
			Name: name,
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { undone = append(undone, name); return nil },
		}
	}
	err := NewPlan(nil).
		Add(ok("header")).
		Add(ok("items")).
		Add(Step{Name: "third", Do: func(context.Context) error { return boom }}).
		Run(context.Background())

	assert.ErrorIs(t, err, boom)
	var partial *core.PartialWriteError
	assert.False(t, errors.As(err, &partial))
	assert.Equal(t, []string{"items", "header"}, undone)
}

func TestPlan_FailedUndoReportsLeftovers(t *testing.T) {
	boom := errors.New("boom")
	stuck := errors.New("undo refused")
	err := NewPlan(nil).
		Add(Step{
			Name: "insert product",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { return stuck },
		}).
		Add(Step{Name: "insert inventory", Do: func(context.Context) error { return boom }}).
		Run(context.Background())

	var partial *core.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "insert inventory", partial.Failed)
	assert.Equal(t, []string{"insert product"}, partial.Leftovers)
	assert.ErrorIs(t, err, boom)
}

func TestPlan_UndoIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undoCtxErr error
	err := NewPlan(nil).
		Add(Step{
			Name: "first",
			Do:   func(context.Context) error { return nil },
			Undo: func(c context.Context) error { undoCtxErr = c.Err(); return nil },
		}).
		Add(Step{Name: "second", Do: func(context.Context) error { cancel(); return context.Canceled }}).
		Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, undoCtxErr)
}
