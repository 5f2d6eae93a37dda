// Package notify keeps a user's notification list and unread count in step
// with the store's change feed, and publishes new notifications.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
)

// RecentLimit is how many notifications the initial fetch returns.
const RecentLimit = 20

// Changes delivers row changes. realtime.Hub implements it.
type Changes interface {
	Subscribe(sub store.Subscription, fn func(store.Change)) func()
}

// subscription is the change stream shared by the feed and the badge of a
// user: every kind of change on the user's notification rows.
func subscription(userID string) store.Subscription {
	return store.Subscription{Table: "notifications", Column: "user_id", Value: userID, Kind: store.EventAll}
}

// Feed is the newest-first notification list of one user. Inserts seen on
// the change stream are prepended without applying the fetch limit.
type Feed struct {
	repo    repository.NotificationRepository
	changes Changes
	log     *zap.Logger

	mu       sync.RWMutex
	userID   string
	items    []core.Notification
	loading  bool
	unsub    func()
	onChange func([]core.Notification)
}

func NewFeed(repo repository.NotificationRepository, changes Changes, log *zap.Logger) *Feed {
	return &Feed{repo: repo, changes: changes, log: log}
}

// OnChange registers fn to be called with a copy of the list whenever it
// changes. It replaces any previous callback.
func (f *Feed) OnChange(fn func([]core.Notification)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Open subscribes to the user's inserts and fetches the most recent rows.
// A failed fetch is logged and leaves whatever the stream delivers.
func (f *Feed) Open(ctx context.Context, userID string) {
	f.Close()

	f.mu.Lock()
	f.userID = userID
	f.items = nil
	f.loading = true
	f.mu.Unlock()

	unsub := f.changes.Subscribe(subscription(userID), f.apply)

	rows, err := f.repo.Recent(ctx, userID, RecentLimit)

	f.mu.Lock()
	f.unsub = unsub
	f.loading = false
	if err != nil {
		f.log.Error("failed to fetch notifications", zap.String("user_id", userID), zap.Error(err))
	} else {
		f.items = merge(f.items, rows)
	}
	f.mu.Unlock()
	f.changed()
}

// merge keeps rows delivered live during the fetch ahead of the fetched
// ones, dropping duplicates.
func merge(live, fetched []core.Notification) []core.Notification {
	seen := make(map[string]bool, len(fetched))
	for _, n := range fetched {
		seen[n.ID] = true
	}
	out := make([]core.Notification, 0, len(live)+len(fetched))
	for _, n := range live {
		if !seen[n.ID] {
			out = append(out, n)
		}
	}
	return append(out, fetched...)
}

// fetchTimeout bounds the lookup of a row the change stream only
// identified.
const fetchTimeout = 10 * time.Second

func (f *Feed) apply(c store.Change) {
	if c.Kind != store.EventInsert {
		return
	}
	var n core.Notification
	if err := c.Decode(&n); err != nil {
		f.log.Warn("dropping undecodable notification", zap.Error(err))
		return
	}
	if n.UserID != f.user() {
		return
	}
	if c.Partial {
		// Runs on the change stream's goroutine; fetch elsewhere.
		go f.fetchAndPrepend(n.UserID, n.ID)
		return
	}
	f.prepend(n)
}

func (f *Feed) fetchAndPrepend(userID, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	n, err := f.repo.Get(ctx, userID, id)
	if err != nil {
		f.log.Error("failed to fetch notification", zap.String("user_id", userID), zap.String("id", id), zap.Error(err))
		return
	}
	f.prepend(*n)
}

func (f *Feed) prepend(n core.Notification) {
	f.mu.Lock()
	if n.UserID != f.userID {
		f.mu.Unlock()
		return
	}
	for _, have := range f.items {
		if have.ID == n.ID {
			f.mu.Unlock()
			return
		}
	}
	f.items = append([]core.Notification{n}, f.items...)
	f.mu.Unlock()
	f.changed()
}

// Close ends the subscription. The list is kept.
func (f *Feed) Close() {
	f.mu.Lock()
	unsub := f.unsub
	f.unsub = nil
	f.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (f *Feed) Items() []core.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]core.Notification(nil), f.items...)
}

func (f *Feed) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// UnreadCount counts the unread rows held locally.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, it := range f.items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (f *Feed) user() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.userID
}

func (f *Feed) MarkAsRead(ctx context.Context, id string) error {
	if err := f.repo.MarkRead(ctx, f.user(), id); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
		}
	}
	f.mu.Unlock()
	f.changed()
	return nil
}

// MarkAllAsRead marks the user's unread rows read in the store, then every
// local row.
func (f *Feed) MarkAllAsRead(ctx context.Context) error {
	if _, err := f.repo.MarkAllRead(ctx, f.user()); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.items {
		f.items[i].Read = true
	}
	f.mu.Unlock()
	f.changed()
	return nil
}

func (f *Feed) Delete(ctx context.Context, id string) error {
	if err := f.repo.Delete(ctx, f.user(), id); err != nil {
		return err
	}
	f.mu.Lock()
	out := f.items[:0]
	for _, it := range f.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	f.items = out
	f.mu.Unlock()
	f.changed()
	return nil
}

func (f *Feed) changed() {
	f.mu.RLock()
	fn := f.onChange
	f.mu.RUnlock()
	if fn != nil {
		fn(f.Items())
	}
}
