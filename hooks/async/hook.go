// Package asynchook decouples slow Hooks sinks from the publish and delivery
// paths. Events are queued to a bounded channel and handled by a worker pool;
// when the queue is full, events are dropped and counted.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{NoListenersEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	client, _ := cachecast.Connect(ctx, "redis://localhost:6379/0", cachecast.Options{
//	    Hooks: hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachecast"
)

type Hooks struct {
	inner   cachecast.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards q against send-after-close
	closed  bool
	dropped atomic.Uint64
}

var _ cachecast.Hooks = (*Hooks)(nil)

func New(inner cachecast.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to be handled.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped is the number of events discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) PublishNoListeners(ch string)   { h.try(func() { h.inner.PublishNoListeners(ch) }) }
func (h *Hooks) HandlerPanic(ch string, r any) { h.try(func() { h.inner.HandlerPanic(ch, r) }) }
func (h *Hooks) SubscriptionLost(ch string)     { h.try(func() { h.inner.SubscriptionLost(ch) }) }
func (h *Hooks) StoreSetRejected(k string)      { h.try(func() { h.inner.StoreSetRejected(k) }) }
func (h *Hooks) PartialSetAndPublish(ch, k string, we, pe error) {
	h.try(func() { h.inner.PartialSetAndPublish(ch, k, we, pe) })
}
