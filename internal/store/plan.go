package store

import (
	"context"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
)

// Step is one command of a multi-step write. Undo reverses a completed Do
// and may be nil when there is nothing to reverse.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Plan runs steps in order. When a step fails, the completed steps are
// undone in reverse order. The caller gets the step's error when every undo
// succeeds, and a *core.PartialWriteError when one does not.
type Plan struct {
	steps []Step
	log   *zap.Logger
}

func NewPlan(log *zap.Logger) *Plan {
	if log == nil {
		log = zap.NewNop()
	}
	return &Plan{log: log}
}

func (p *Plan) Add(s Step) *Plan {
	p.steps = append(p.steps, s)
	return p
}

func (p *Plan) Run(ctx context.Context) error {
	for i, s := range p.steps {
		err := s.Do(ctx)
		if err == nil {
			continue
		}
		p.log.Warn("write step failed, compensating",
			zap.String("step", s.Name), zap.Int("completed", i), zap.Error(err))
		return p.compensate(ctx, i, s.Name, err)
	}
	return nil
}

func (p *Plan) compensate(ctx context.Context, failedAt int, failed string, cause error) error {
	// Undo must run even when the caller's context is what failed the step.
	undoCtx := context.WithoutCancel(ctx)

	var leftovers []string
	var undoErrs []error
	for i := failedAt - 1; i >= 0; i-- {
		s := p.steps[i]
		if s.Undo == nil {
			continue
		}
		if err := s.Undo(undoCtx); err != nil {
			p.log.Error("undo failed", zap.String("step", s.Name), zap.Error(err))
			leftovers = append(leftovers, s.Name)
			undoErrs = append(undoErrs, err)
		}
	}
	if len(leftovers) == 0 {
		return cause
	}
	return &core.PartialWriteError{Failed: failed, Err: cause, Leftovers: leftovers, UndoErrs: undoErrs}
}
