package listctl

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/simp-lee/newsdesk/internal/metrics"
	"github.com/simp-lee/newsdesk/internal/notify"
)

// Live pairs a controller with the queue its notifications are delivered to.
type Live[T any] struct {
	*Controller[T]
	Toasts *notify.Queue
}

// Factory builds a controller reporting to n.
type Factory[T any] func(n notify.Notifier) *Controller[T]

// Registry keeps one live view per key (a signed-in session) for a screen.
// Views idle for longer than the TTL, or pushed out by newer ones, are closed.
type Registry[T any] struct {
	gauge prometheus.Gauge
	build Factory[T]
	mu    sync.Mutex
	views *expirable.LRU[string, *Live[T]]
}

// NewRegistry creates a registry holding at most size views for ttl each.
func NewRegistry[T any](name string, size int, ttl time.Duration, build Factory[T]) *Registry[T] {
	if build == nil {
		panic("listctl.NewRegistry: factory must not be nil")
	}
	gauge := metrics.LiveViews.WithLabelValues(name)
	r := &Registry[T]{gauge: gauge, build: build}
	// Runs for every removal: release, purge, capacity and TTL eviction.
	r.views = expirable.NewLRU[string, *Live[T]](size, func(_ string, v *Live[T]) {
		v.Close()
		v.Toasts.Close()
		gauge.Dec()
	}, ttl)
	return r
}

// Acquire returns the view for key, creating it when missing. The second
// result reports whether the view is new and still needs a first fetch.
// Acquiring a view renews its TTL.
func (r *Registry[T]) Acquire(key string) (*Live[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views.Get(key); ok {
		r.views.Add(key, v)
		return v, false
	}
	q := notify.NewQueue(0)
	v := &Live[T]{Controller: r.build(q), Toasts: q}
	r.gauge.Inc()
	r.views.Add(key, v)
	return v, true
}

// Lookup returns the view for key without creating or renewing it.
func (r *Registry[T]) Lookup(key string) (*Live[T], bool) {
	return r.views.Peek(key)
}

// Release closes and forgets the view for key.
func (r *Registry[T]) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views.Remove(key)
}

// Len returns the number of live views.
func (r *Registry[T]) Len() int {
	return r.views.Len()
}

// Purge closes every view.
func (r *Registry[T]) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views.Purge()
}
