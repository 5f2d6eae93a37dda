package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
)

const pollTimeout = 10 * time.Second

// Badge is the unread counter shown next to the bell. It asks the store for
// the count when opened and again after every change to the user's rows.
type Badge struct {
	repo    repository.NotificationRepository
	changes Changes
	log     *zap.Logger

	mu     sync.RWMutex
	userID string
	count  int
	unsub  func()
	onPoll func(int)
}

func NewBadge(repo repository.NotificationRepository, changes Changes, log *zap.Logger) *Badge {
	return &Badge{repo: repo, changes: changes, log: log}
}

// OnPoll registers fn to receive each polled count.
func (b *Badge) OnPoll(fn func(int)) {
	b.mu.Lock()
	b.onPoll = fn
	b.mu.Unlock()
}

func (b *Badge) Open(ctx context.Context, userID string) {
	b.Close()
	b.mu.Lock()
	b.userID = userID
	b.mu.Unlock()

	b.poll(ctx)
	unsub := b.changes.Subscribe(subscription(userID), func(store.Change) {
		// Change callbacks run on the feed goroutine.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
			defer cancel()
			b.poll(ctx)
		}()
	})

	b.mu.Lock()
	b.unsub = unsub
	b.mu.Unlock()
}

func (b *Badge) poll(ctx context.Context) {
	b.mu.RLock()
	userID := b.userID
	b.mu.RUnlock()
	if userID == "" {
		return
	}

	n, err := b.repo.UnreadCount(ctx, userID)
	if err != nil {
		b.log.Error("failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		return
	}
	b.mu.Lock()
	b.count = n
	fn := b.onPoll
	b.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

func (b *Badge) Close() {
	b.mu.Lock()
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
