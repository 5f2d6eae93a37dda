package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventKind selects which row changes a subscription receives.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
	EventAll    EventKind = "*"
)

// Change is one row change published by the store's change trigger. When
// Partial is set when the row was too large for a notification and Row holds
// only its id and filter column.
type Change struct {
	Table   string          `json:"table"`
	Kind    EventKind       `json:"op"`
	Row     json.RawMessage `json:"row"`
	Partial bool            `json:"partial,omitempty"`
}

// Decode unmarshals the changed row into v.
func (c Change) Decode(v any) error {
	if err := json.Unmarshal(c.Row, v); err != nil {
		return fmt.Errorf("decode %s change: %w", c.Table, err)
	}
	return nil
}

// Subscription scopes a change stream to a table, an optional
// foreign-key equality filter and an event kind.
type Subscription struct {
	Table  string
	Column string
	Value  string
	Kind   EventKind
}

// Topic identifies the subscription for consolidation.
func (s Subscription) Topic() string {
	kind := s.Kind
	if kind == "" {
		kind = EventAll
	}
	return fmt.Sprintf("%s:%s=%s:%s", s.Table, s.Column, s.Value, kind)
}

func (s Subscription) matches(c Change, row map[string]any) bool {
	if s.Table != c.Table {
		return false
	}
	if s.Kind != "" && s.Kind != EventAll && s.Kind != c.Kind {
		return false
	}
	if s.Column == "" {
		return true
	}
	v, ok := row[s.Column]
	return ok && v != nil && fmt.Sprint(v) == s.Value
}

type listener struct {
	sub Subscription
	fn  func(Change)
}

// Feed delivers row changes received with LISTEN on one channel to the
// registered subscriptions. Callbacks run on the feed goroutine and must not
// block.
type Feed struct {
	client  *Client
	channel string
	log     *zap.Logger

	mu        sync.RWMutex
	listeners map[int]listener
	nextID    int
}

func NewFeed(client *Client, channel string, log *zap.Logger) *Feed {
	return &Feed{
		client:    client,
		channel:   channel,
		log:       log,
		listeners: make(map[int]listener),
	}
}

// Subscribe registers fn for changes matching sub and returns the function
// that removes it.
func (f *Feed) Subscribe(sub Subscription, fn func(Change)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = listener{sub: sub, fn: fn}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Run listens until ctx is cancelled, reconnecting with backoff when the
// connection drops.
func (f *Feed) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		f.log.Warn("change feed disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (f *Feed) listen(ctx context.Context) error {
	conn, err := f.client.Pool().Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ident(f.channel)); err != nil {
		return fmt.Errorf("listen %s: %w", f.channel, err)
	}
	f.log.Info("change feed listening", zap.String("channel", f.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		f.Dispatch([]byte(n.Payload))
	}
}

// Dispatch decodes one notification payload and fans it out.
func (f *Feed) Dispatch(payload []byte) {
	var c Change
	if err := json.Unmarshal(payload, &c); err != nil {
		f.log.Error("bad change payload", zap.Error(err))
		return
	}
	var row map[string]any
	if err := json.Unmarshal(c.Row, &row); err != nil {
		f.log.Error("bad change row", zap.String("table", c.Table), zap.Error(err))
		return
	}

	f.mu.RLock()
	var targets []func(Change)
	for _, l := range f.listeners {
		if l.sub.matches(c, row) {
			targets = append(targets, l.fn)
		}
	}
	f.mu.RUnlock()

	for _, fn := range targets {
		fn(c)
	}
}
