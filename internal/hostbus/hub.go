package hostbus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
)

// AllEvents subscribes to every event name.
const AllEvents = "*"

// DefaultBuffer is the subscriber channel size used when Subscribe is given
// a non-positive buffer.
const DefaultBuffer = 64

type subscription struct {
	id    uint64
	event string
	ch    chan Event
}

// Hub is an in-process event bus. Emit never blocks: when a subscriber's
// buffer is full the event is dropped for that subscriber and counted.
// Events from a single emitting goroutine arrive in emission order.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	nextID uint64
	closed bool

	dropped atomic.Uint64
	now     func() time.Time
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string][]*subscription),
		now:  time.Now,
	}
}

// Subscribe registers interest in event (or AllEvents). The returned cancel
// function unsubscribes and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(event string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	h.nextID++
	sub := &subscription{id: h.nextID, event: event, ch: ch}
	h.subs[event] = append(h.subs[event], sub)

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(sub) })
	}
}

func (h *Hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[sub.event]
	for i, s := range list {
		if s.id == sub.id {
			h.subs[sub.event] = append(list[:i:i], list[i+1:]...)
			close(s.ch)
			break
		}
	}
	if len(h.subs[sub.event]) == 0 {
		delete(h.subs, sub.event)
	}
}

// Emit implements Bus.
func (h *Hub) Emit(event string, payload any) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return domain.ErrEmitFailed.WithDetails("hub closed")
	}

	ev := Event{Name: event, Payload: payload, At: h.now()}
	h.deliver(h.subs[event], ev)
	if event != AllEvents {
		h.deliver(h.subs[AllEvents], ev)
	}
	return nil
}

func (h *Hub) deliver(subs []*subscription, ev Event) {
	for _, s := range subs {
		select {
		case s.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped returns the number of deliveries skipped because a subscriber
// was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, list := range h.subs {
		n += len(list)
	}
	return n
}

// Close closes every subscriber channel. Later Emit calls fail with
// domain.ErrEmitFailed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for event, list := range h.subs {
		for _, s := range list {
			close(s.ch)
		}
		delete(h.subs, event)
	}
}
