package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var _ Subscription = (*subscription)(nil)

type subscription struct {
	id      string
	kind    Kind
	handler Handler
	active  atomic.Bool
	cancel  func()
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Kind() Kind     { return s.kind }
func (s *subscription) IsActive() bool { return s.active.Load() }

func (s *subscription) Cancel() {
	if !s.active.Swap(false) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// Hub is safe for concurrent use, although entities publish from their owning goroutine.
type Hub struct {
	mu     sync.RWMutex
	subs   []*subscription
	closed bool
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers handler for kind. A nil handler or a closed hub yields an inactive subscription.
func (h *Hub) Subscribe(kind Kind, handler Handler) Subscription {
	s := &subscription{id: uuid.NewString(), kind: kind, handler: handler}
	if handler == nil {
		return s
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return s
	}
	s.active.Store(true)
	s.cancel = func() { h.remove(s) }
	h.subs = append(h.subs, s)
	return s
}

// Publish delivers event to every active subscriber of event.Kind and reports how many handlers ran.
func (h *Hub) Publish(event Event) int {
	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.kind == event.Kind {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if !s.active.Load() {
			continue
		}
		s.handler(event)
		delivered++
	}
	return delivered
}

// Len returns the number of active subscriptions for kind.
func (h *Hub) Len(kind Kind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.subs {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// Close cancels every subscription and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = nil
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.active.Store(false)
	}
}

func (h *Hub) remove(target *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s == target {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}
