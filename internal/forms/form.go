// Package forms holds the entity forms. Each owns a draft seeded with
// defaults, validates required fields when submitted, issues its commands
// and calls its owner's success callback.
package forms

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"mbs-manager/internal/core"
)

// OnSuccess is called after a successful submit, typically to re-fetch the
// owning page.
type OnSuccess func(ctx context.Context)

// ErrBusy is returned when a submit is started while another is in flight.
var ErrBusy = errors.New("submit already in progress")

// status is the submit state every form shares: the in-flight flag and the
// inline error message.
type status struct {
	mu         sync.Mutex
	submitting bool
	errMsg     string
}

// begin marks a submit as started. It reports false when one is already in
// flight.
func (s *status) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return false
	}
	s.submitting = true
	s.errMsg = ""
	return true
}

func (s *status) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		s.errMsg = verr.Message
	case err != nil:
		s.errMsg = err.Error()
	}
}

func (s *status) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Error is the inline message of the last failed submit, or "".
func (s *status) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ParseInt reads a numeric input. Anything unparsable or outside the int
// range is 0.
func ParseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt || f < math.MinInt {
		return 0
	}
	return int(f)
}

// ParseMoney reads a price input, accepting a decimal comma. Anything
// unparsable is 0.
func ParseMoney(raw string) decimal.Decimal {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
