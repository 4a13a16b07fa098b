package feed

import "sync"

// Hub is a single-process broadcast channel for change events. The notes
// repository publishes into it after every successful write; the dashboard
// list, open editor sessions and the WebSocket fan-out each hold their own
// subscription.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[*Subscription[T]]struct{}
}

// Subscription is one receiver attached to a Hub. C is closed on Unsubscribe.
type Subscription[T any] struct {
	C <-chan T

	hub *Hub[T]
	c   chan T
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a new receiver with the given channel capacity.
func (h *Hub[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}
	c := make(chan T, buffer)
	sub := &Subscription[T]{C: c, hub: h, c: c}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers v to every subscription. It never blocks: when a
// subscriber's buffer is full the oldest buffered event is dropped so the
// latest state always gets through.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.c <- v:
		default:
			select {
			case <-sub.c:
			default:
			}
			select {
			case sub.c <- v:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of attached subscriptions.
func (h *Hub[T]) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every remaining subscription.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.c)
	}
}

// Unsubscribe detaches the subscription and closes C. Safe to call more than
// once.
func (s *Subscription[T]) Unsubscribe() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if _, ok := s.hub.subs[s]; !ok {
		return
	}
	delete(s.hub.subs, s)
	close(s.c)
}
