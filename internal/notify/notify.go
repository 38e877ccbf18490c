// Package notify delivers user-facing toast notifications.
package notify

import "sync"

// Kind is the visual category of a notification.
type Kind string

// Notification kinds.
const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notification is a short message shown to the dashboard user.
type Notification struct {
	Kind    Kind   `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier accepts notifications. Notify must not block.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

const defaultQueueSize = 32

// Queue buffers notifications until a reader drains them. When full the
// oldest entry is dropped. Ready fires (coalesced) whenever new entries arrive.
type Queue struct {
	mu     sync.Mutex
	items  []Notification
	size   int
	ready  chan struct{}
	closed bool
}

// NewQueue creates a queue holding at most size notifications.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{size: size, ready: make(chan struct{}, 1)}
}

// Notify appends n to the queue.
func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if len(q.items) == q.size {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives after new notifications were queued.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes and returns all queued notifications in arrival order.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Close stops the queue from accepting notifications.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}
