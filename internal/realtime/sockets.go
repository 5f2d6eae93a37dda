package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// sendBuffer is how many events may wait for a slow connection before
	// it is dropped.
	sendBuffer = 32
	writeWait  = 10 * time.Second
)

// ErrSlowConsumer is returned by Send when the connection's queue is full.
// The connection is closed.
var ErrSlowConsumer = errors.New("ws: connection too slow, closed")

// ErrClosed is returned by Send after the socket was closed.
var ErrClosed = errors.New("ws: connection closed")

// Conn is the part of a websocket connection the registry writes to.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Sockets tracks the open browser connections of each user. A user may have
// several tabs open.
type Sockets struct {
	log *zap.Logger

	mu     sync.RWMutex
	byUser map[string]map[*Socket]struct{}
}

// Socket is one registered connection. Send only queues; a single writer
// goroutine per socket does the network writes, so a stalled client never
// blocks the caller.
type Socket struct {
	conn   Conn
	log    *zap.Logger
	out    chan Envelope
	done   chan struct{}
	remove func()
}

// Envelope is the message format pushed to clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func NewSockets(log *zap.Logger) *Sockets {
	return &Sockets{log: log, byUser: make(map[string]map[*Socket]struct{})}
}

// Register adds conn for userID.
func (s *Sockets) Register(userID string, conn Conn) *Socket {
	sk := &Socket{
		conn: conn,
		log:  s.log,
		out:  make(chan Envelope, sendBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	set, ok := s.byUser[userID]
	if !ok {
		set = make(map[*Socket]struct{})
		s.byUser[userID] = set
	}
	set[sk] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	sk.remove = func() {
		once.Do(func() {
			s.mu.Lock()
			if set, ok := s.byUser[userID]; ok {
				delete(set, sk)
				if len(set) == 0 {
					delete(s.byUser, userID)
				}
			}
			s.mu.Unlock()
			close(sk.done)
			_ = sk.conn.Close()
		})
	}
	go sk.writeLoop()
	return sk
}

func (sk *Socket) writeLoop() {
	for {
		select {
		case <-sk.done:
			return
		case env := <-sk.out:
			_ = sk.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sk.conn.WriteJSON(env); err != nil {
				sk.log.Debug("ws: write failed; closing", zap.String("event", env.Event), zap.Error(err))
				sk.remove()
				return
			}
		}
	}
}

// Send queues one event for this connection only. It never blocks: a full
// queue closes the connection and returns ErrSlowConsumer.
func (sk *Socket) Send(event string, payload any) error {
	select {
	case <-sk.done:
		return ErrClosed
	default:
	}
	select {
	case sk.out <- Envelope{Event: event, Data: payload}:
		return nil
	default:
		sk.remove()
		return ErrSlowConsumer
	}
}

// Close unregisters and closes the connection. It is safe to call twice.
func (sk *Socket) Close() { sk.remove() }

// Notify queues an event on every connection of userID. Users with no open
// connection are skipped. It returns how many connections accepted it.
func (s *Sockets) Notify(userID, event string, payload any) int {
	s.mu.RLock()
	targets := make([]*Socket, 0, len(s.byUser[userID]))
	for sk := range s.byUser[userID] {
		targets = append(targets, sk)
	}
	s.mu.RUnlock()

	if len(targets) == 0 {
		s.log.Debug("ws: user not connected; drop event", zap.String("user_id", userID), zap.String("event", event))
		return 0
	}

	sent := 0
	for _, sk := range targets {
		if err := sk.Send(event, payload); err != nil {
			s.log.Warn("ws: send failed", zap.String("user_id", userID), zap.String("event", event), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// Connected reports how many connections userID has open.
func (s *Sockets) Connected(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[userID])
}
