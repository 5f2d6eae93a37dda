// Package views holds the page view-models: each fetches its own rows,
// derives summary statistics, filters by a local search term and tracks
// whether its create/edit form is open.
package views

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
)

type Phase string

const (
	Loading Phase = "loading"
	Ready   Phase = "ready"
)

// List is the fetch, filter and form-open state shared by the list pages.
// A failed fetch is logged and the page still becomes Ready, keeping the
// rows it had.
type List[T core.Searchable] struct {
	page  string
	log   *zap.Logger
	fetch func(ctx context.Context) ([]T, error)

	mu       sync.RWMutex
	phase    Phase
	rows     []T
	search   string
	formOpen bool
	loadErr  error
}

func NewList[T core.Searchable](page string, log *zap.Logger, fetch func(ctx context.Context) ([]T, error)) *List[T] {
	return &List[T]{page: page, log: log, fetch: fetch, phase: Loading}
}

// Load fetches the page's rows. Overlapping loads are last-response-wins.
func (l *List[T]) Load(ctx context.Context) {
	l.mu.Lock()
	l.phase = Loading
	l.mu.Unlock()

	rows, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = Ready
	l.loadErr = err
	if err != nil {
		l.log.Error("page fetch failed", zap.String("page", l.page), zap.Error(err))
		return
	}
	l.rows = rows
}

func (l *List[T]) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// LastError is the error of the most recent load, kept for diagnostics only.
func (l *List[T]) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadErr
}

// Rows returns every fetched row.
func (l *List[T]) Rows() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.rows...)
}

func (l *List[T]) SetSearch(term string) {
	l.mu.Lock()
	l.search = term
	l.mu.Unlock()
}

func (l *List[T]) Search() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.search
}

// Visible returns the rows matching the search term.
func (l *List[T]) Visible() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return core.Filter(l.rows, l.search)
}

func (l *List[T]) OpenForm() {
	l.mu.Lock()
	l.formOpen = true
	l.mu.Unlock()
}

func (l *List[T]) CloseForm() {
	l.mu.Lock()
	l.formOpen = false
	l.mu.Unlock()
}

func (l *List[T]) FormOpen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.formOpen
}

// FormSaved is the callback forms invoke on success: close the form and
// re-fetch.
func (l *List[T]) FormSaved(ctx context.Context) {
	l.CloseForm()
	l.Load(ctx)
}
