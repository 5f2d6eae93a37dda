package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/realtime"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/repository/repotest"
	"mbs-manager/internal/store"
)

// source stands in for the store feed: it records open subscriptions and
// lets the test emit changes into them.
type source struct {
	mu     sync.Mutex
	opened int
	subs   map[string]func(store.Change)
}

func newSource() *source { return &source{subs: make(map[string]func(store.Change))} }

func (s *source) Subscribe(sub store.Subscription, fn func(store.Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	s.subs[sub.Topic()] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, sub.Topic())
		s.mu.Unlock()
	}
}

func (s *source) emit(t *testing.T, userID string, kind store.EventKind, n core.Notification) {
	t.Helper()
	row, err := json.Marshal(n)
	require.NoError(t, err)
	s.mu.Lock()
	fn := s.subs[subscription(userID).Topic()]
	s.mu.Unlock()
	require.NotNil(t, fn, "no subscription for %s", userID)
	fn(store.Change{Table: "notifications", Kind: kind, Row: row})
}

func (s *source) open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func seeded() *repotest.Store {
	mem := repotest.New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		mem.Notifications = append(mem.Notifications, core.Notification{
			ID: "n" + string(rune('a'+i)), UserID: "u1", Title: "t", Type: core.NotificationInfo,
			Read: i%2 == 0, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	mem.Notifications = append(mem.Notifications, core.Notification{ID: "other", UserID: "u2", CreatedAt: base})
	return mem
}

func TestFeed_OpenFetchesRecentNewestFirst(t *testing.T) {
	mem := seeded()
	src := newSource()
	f := NewFeed(mem.Set().Notifications, realtime.NewHub(src, zap.NewNop()), zap.NewNop())

	f.Open(context.Background(), "u1")
	items := f.Items()
	require.Len(t, items, RecentLimit)
	assert.Equal(t, "ny", items[0].ID)
	assert.False(t, f.Loading())
	assert.Equal(t, 1, src.open())

	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	assert.Equal(t, unread, f.UnreadCount())
}

func TestFeed_LiveInsertPrependsBeyondLimit(t *testing.T) {
	mem := seeded()
	src := newSource()
	f := NewFeed(mem.Set().Notifications, realtime.NewHub(src, zap.NewNop()), zap.NewNop())
	f.Open(context.Background(), "u1")
	before := f.UnreadCount()

	var seen int
	f.OnChange(func([]core.Notification) { seen++ })

	n := core.Notification{ID: "live", UserID: "u1", Title: "Nouvelle commande", Type: core.NotificationSuccess, CreatedAt: time.Now()}
	src.emit(t, "u1", store.EventInsert, n)
	src.emit(t, "u1", store.EventInsert, n)
	src.emit(t, "u1", store.EventUpdate, core.Notification{ID: "na", UserID: "u1"})

	items := f.Items()
	require.Len(t, items, RecentLimit+1, "no cap on live inserts")
	assert.Equal(t, "live", items[0].ID)
	assert.Equal(t, before+1, f.UnreadCount())
	assert.Equal(t, 1, seen, "duplicates and updates ignored")
}

func TestFeed_PartialInsertIsFetchedByID(t *testing.T) {
	mem := seeded()
	src := newSource()
	f := NewFeed(mem.Set().Notifications, realtime.NewHub(src, zap.NewNop()), zap.NewNop())
	f.Open(context.Background(), "u1")

	long := strings.Repeat("x", 9000)
	mem.Notifications = append(mem.Notifications, core.Notification{
		ID: "big", UserID: "u1", Title: "Rapport", Message: long, Type: core.NotificationInfo, CreatedAt: time.Now(),
	})
	changed := make(chan struct{}, 4)
	f.OnChange(func([]core.Notification) { changed <- struct{}{} })

	src.mu.Lock()
	fn := src.subs[subscription("u1").Topic()]
	src.mu.Unlock()
	fn(store.Change{Table: "notifications", Kind: store.EventInsert, Partial: true, Row: []byte(`{"id":"big","user_id":"u1"}`)})
	fn(store.Change{Table: "notifications", Kind: store.EventInsert, Partial: true, Row: []byte(`{"id":"gone","user_id":"u1"}`)})

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("partial insert never applied")
	}
	items := f.Items()
	assert.Equal(t, "big", items[0].ID)
	assert.Equal(t, long, items[0].Message)
}

func TestFeed_MarkAllAsReadTouchesOnlyUnreadOfUser(t *testing.T) {
	mem := seeded()
	f := NewFeed(mem.Set().Notifications, realtime.NewHub(newSource(), zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	f.Open(ctx, "u1")

	require.NoError(t, f.MarkAllAsRead(ctx))
	assert.Zero(t, f.UnreadCount())
	for _, n := range f.Items() {
		assert.True(t, n.Read)
	}
	for _, n := range mem.Notifications {
		if n.UserID == "u2" {
			assert.False(t, n.Read, "other users untouched")
		}
	}
}

func TestFeed_MarkAsReadAndDelete(t *testing.T) {
	mem := seeded()
	f := NewFeed(mem.Set().Notifications, realtime.NewHub(newSource(), zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	f.Open(ctx, "u1")
	before := f.UnreadCount()

	require.NoError(t, f.MarkAsRead(ctx, "nx"))
	assert.Equal(t, before-1, f.UnreadCount())

	require.NoError(t, f.MarkAsRead(ctx, "other"))
	assert.False(t, mem.Notifications[len(mem.Notifications)-1].Read, "foreign row untouched")

	require.NoError(t, f.Delete(ctx, "ny"))
	assert.Len(t, f.Items(), RecentLimit-1)
	assert.NotEqual(t, "ny", f.Items()[0].ID)

	mem.FailOn("notifications.Delete")
	err := f.Delete(ctx, "nx")
	var cerr *core.RemoteCommandError
	require.ErrorAs(t, err, &cerr)
	assert.Len(t, f.Items(), RecentLimit-1, "local list kept on failure")
}

func TestFeed_FetchFailureIsSwallowed(t *testing.T) {
	mem := seeded()
	mem.FailOn("notifications.Recent")
	src := newSource()
	f := NewFeed(mem.Set().Notifications, realtime.NewHub(src, zap.NewNop()), zap.NewNop())
	f.Open(context.Background(), "u1")
	assert.Empty(t, f.Items())

	src.emit(t, "u1", store.EventInsert, core.Notification{ID: "live", UserID: "u1"})
	assert.Len(t, f.Items(), 1)
}

func TestFeedAndBadge_ShareOneSubscription(t *testing.T) {
	mem := seeded()
	src := newSource()
	hub := realtime.NewHub(src, zap.NewNop())
	ctx := context.Background()

	f := NewFeed(mem.Set().Notifications, hub, zap.NewNop())
	b := NewBadge(mem.Set().Notifications, hub, zap.NewNop())
	f.Open(ctx, "u1")
	b.Open(ctx, "u1")

	assert.Equal(t, 1, src.opened)
	assert.Equal(t, 12, b.Count())

	f.Close()
	assert.Equal(t, 1, src.open(), "badge still listening")
	b.Close()
	assert.Zero(t, src.open())
}

func TestBadge_RepollsOnChange(t *testing.T) {
	mem := seeded()
	src := newSource()
	b := NewBadge(mem.Set().Notifications, realtime.NewHub(src, zap.NewNop()), zap.NewNop())
	polled := make(chan int, 4)
	b.OnPoll(func(n int) { polled <- n })

	b.Open(context.Background(), "u1")
	assert.Equal(t, 12, <-polled)

	_, err := mem.Set().Notifications.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	src.emit(t, "u1", store.EventUpdate, core.Notification{ID: "na", UserID: "u1", Read: true})

	select {
	case n := <-polled:
		assert.Zero(t, n)
	case <-time.After(2 * time.Second):
		t.Fatal("badge did not re-poll")
	}
	assert.Zero(t, b.Count())
	b.Close()
}

type pushed struct {
	userID, event string
	payload       any
}

type recorder struct{ got []pushed }

func (r *recorder) Notify(userID, event string, payload any) int {
	r.got = append(r.got, pushed{userID, event, payload})
	return 1
}

func TestService_Publish(t *testing.T) {
	mem := repotest.New()
	rec := &recorder{}
	svc := NewService(mem.Set().Notifications, rec, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Publish(ctx, repository.NotificationInput{Title: "x"})
	assert.True(t, core.IsValidation(err))
	_, err = svc.Publish(ctx, repository.NotificationInput{UserID: "u1", Title: "x", Type: "urgent"})
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, mem.Calls)

	n, err := svc.Publish(ctx, repository.NotificationInput{UserID: "u1", Title: "Stock faible", Link: "/inventory"})
	require.NoError(t, err)
	assert.Equal(t, core.NotificationInfo, n.Type)
	require.Len(t, rec.got, 1)
	assert.Equal(t, "u1", rec.got[0].userID)
	assert.Equal(t, EventNotification, rec.got[0].event)
}
