package realtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mbs-manager/internal/store"
)

type fakeConn struct {
	mu        sync.Mutex
	sent      []Envelope
	deadlines int
	fail      bool
	closed    bool
	// block, when set, holds every write until it is closed.
	block chan struct{}
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.sent = append(c.sent, v.(Envelope))
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error {
	c.mu.Lock()
	c.deadlines++
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) events() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.sent...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestSockets_NotifyEveryTab(t *testing.T) {
	s := NewSockets(zap.NewNop())
	a, b, broken := &fakeConn{}, &fakeConn{}, &fakeConn{fail: true}
	s.Register("u1", a)
	sb := s.Register("u1", b)
	s.Register("u1", broken)

	assert.Equal(t, 3, s.Notify("u1", "notification", map[string]string{"id": "n1"}))
	require.Eventually(t, func() bool { return len(a.events()) == 1 && len(b.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "notification", a.events()[0].Event)

	require.Eventually(t, broken.isClosed, time.Second, 5*time.Millisecond, "failed write drops the connection")
	assert.Equal(t, 2, s.Connected("u1"))

	sb.Close()
	sb.Close()
	assert.True(t, b.isClosed())
	assert.Equal(t, 1, s.Connected("u1"))
	assert.Equal(t, 0, s.Notify("nobody", "notification", nil))
	assert.ErrorIs(t, sb.Send("unread_count", 1), ErrClosed)
}

func TestSocket_SendTargetsOneConnection(t *testing.T) {
	s := NewSockets(zap.NewNop())
	a, b := &fakeConn{}, &fakeConn{}
	sa := s.Register("u1", a)
	s.Register("u1", b)

	assert.NoError(t, sa.Send("unread_count", 3))
	require.Eventually(t, func() bool { return len(a.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, b.events())

	a.mu.Lock()
	assert.Equal(t, 1, a.deadlines, "deadline set before the write")
	a.mu.Unlock()
}

func TestSocket_FullQueueClosesSlowConnection(t *testing.T) {
	s := NewSockets(zap.NewNop())
	stalled := &fakeConn{block: make(chan struct{})}
	defer close(stalled.block)
	sk := s.Register("u1", stalled)

	var err error
	for i := 0; i < sendBuffer+2 && err == nil; i++ {
		err = sk.Send("notifications", i)
	}
	assert.ErrorIs(t, err, ErrSlowConsumer)
	assert.Zero(t, s.Connected("u1"))
	assert.True(t, stalled.isClosed())
}

// A client that stops reading must not hold up change delivery to others:
// the feed's dispatch goroutine only queues.
func TestSockets_StalledClientDoesNotBlockDispatch(t *testing.T) {
	log := zap.NewNop()
	feed := store.NewFeed(nil, "table_changes", log)
	hub := NewHub(feed, log)
	sockets := NewSockets(log)

	stalled := &fakeConn{block: make(chan struct{})}
	defer close(stalled.block)
	healthy := &fakeConn{}
	for user, conn := range map[string]*fakeConn{"u1": stalled, "u2": healthy} {
		sk := sockets.Register(user, conn)
		hub.Subscribe(store.Subscription{Table: "notifications", Column: "user_id", Value: user, Kind: store.EventInsert},
			func(c store.Change) { _ = sk.Send("notifications", string(c.Row)) })
	}

	dispatched := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+5; i++ {
			feed.Dispatch([]byte(fmt.Sprintf(`{"table":"notifications","op":"INSERT","row":{"id":"a%d","user_id":"u1"}}`, i)))
		}
		feed.Dispatch([]byte(`{"table":"notifications","op":"INSERT","row":{"id":"b1","user_id":"u2"}}`))
		close(dispatched)
	}()

	select {
	case <-dispatched:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked on a stalled connection")
	}
	require.Eventually(t, func() bool { return len(healthy.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, sockets.Connected("u1"), "stalled connection dropped")
}
