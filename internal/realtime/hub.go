package realtime

import (
	"sync"

	"go.uber.org/zap"

	"mbs-manager/internal/store"
)

// Source opens change subscriptions on the store.
type Source interface {
	Subscribe(sub store.Subscription, fn func(store.Change)) func()
}

// Hub keeps one store subscription per topic (table, filter, event kind) and
// multicasts each change to every local listener of that topic.
type Hub struct {
	src Source
	log *zap.Logger

	mu     sync.Mutex
	topics map[string]*topic
	nextID int
}

type topic struct {
	unsubscribe func()
	listeners   map[int]func(store.Change)
}

func NewHub(src Source, log *zap.Logger) *Hub {
	return &Hub{src: src, log: log, topics: make(map[string]*topic)}
}

// Subscribe adds fn to the topic of sub, opening the store subscription on
// first use. The returned function removes fn and closes the store
// subscription once the topic has no listeners left.
func (h *Hub) Subscribe(sub store.Subscription, fn func(store.Change)) func() {
	key := sub.Topic()

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	t, ok := h.topics[key]
	if !ok {
		t = &topic{listeners: make(map[int]func(store.Change))}
		h.topics[key] = t
	}
	t.listeners[id] = fn
	h.mu.Unlock()

	if !ok {
		// Opened outside the lock: a source may deliver synchronously.
		unsub := h.src.Subscribe(sub, func(c store.Change) { h.publish(key, c) })
		h.mu.Lock()
		if cur, still := h.topics[key]; still && cur == t {
			t.unsubscribe = unsub
			unsub = nil
		}
		h.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		h.log.Debug("realtime topic opened", zap.String("topic", key))
	}

	var once sync.Once
	return func() { once.Do(func() { h.remove(key, id) }) }
}

func (h *Hub) remove(key string, id int) {
	h.mu.Lock()
	t, ok := h.topics[key]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(t.listeners, id)
	var unsub func()
	if len(t.listeners) == 0 {
		delete(h.topics, key)
		unsub = t.unsubscribe
	}
	h.mu.Unlock()

	if unsub != nil {
		unsub()
		h.log.Debug("realtime topic closed", zap.String("topic", key))
	}
}

func (h *Hub) publish(key string, c store.Change) {
	h.mu.Lock()
	t, ok := h.topics[key]
	var fns []func(store.Change)
	if ok {
		fns = make([]func(store.Change), 0, len(t.listeners))
		for _, fn := range t.listeners {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Topics reports how many store subscriptions are open.
func (h *Hub) Topics() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics)
}
