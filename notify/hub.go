package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// Toast is a transient notification. Toasts sharing an ID replace each other
// on the client.
type Toast struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier accepts toasts.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(Toast) {})

const subscriberBuffer = 64

// Hub fans toasts out to subscribers. A subscriber whose buffer is full
// misses toasts rather than blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Toast]struct{}
	last *Toast
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Toast]struct{})}
}

var _ Notifier = (*Hub)(nil)

// Notify fills in a missing ID and timestamp and publishes t.
func (h *Hub) Notify(t Toast) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	last := t
	h.last = &last
	for ch := range h.subs {
		select {
		case ch <- t:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Toast, func()) {
	ch := make(chan Toast, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			// Close may already have released it.
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Last returns the most recent toast, if any.
func (h *Hub) Last() (Toast, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return Toast{}, false
	}
	return *h.last, true
}

// Close unregisters and closes every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
