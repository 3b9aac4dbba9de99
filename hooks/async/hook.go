// Package asynchook moves hook work off the request path. Events are queued
// to a bounded channel and dropped when it is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{MissEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	mgr, _ := cacheflow.New[User](cacheflow.Options[User]{
//	    Provider: provider,
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheflow"
)

type Hooks struct {
	inner   cacheflow.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent try
	closed  bool
	dropped atomic.Uint64
}

var _ cacheflow.Hooks = (*Hooks)(nil)

func New(inner cacheflow.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = cacheflow.NopHooks{}
	}
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

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped counts events lost to a full queue or a closed hook.
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
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string, m cacheflow.Method)  { h.try(func() { h.inner.Hit(k, m) }) }
func (h *Hooks) Miss(k string, m cacheflow.Method) { h.try(func() { h.inner.Miss(k, m) }) }
func (h *Hooks) FactoryCalled(k string, m cacheflow.Method, produced bool) {
	h.try(func() { h.inner.FactoryCalled(k, m, produced) })
}
func (h *Hooks) ProviderSetRejected(k string, m cacheflow.Method) {
	h.try(func() { h.inner.ProviderSetRejected(k, m) })
}
func (h *Hooks) WriteBackFailed(k string, err error) {
	h.try(func() { h.inner.WriteBackFailed(k, err) })
}
func (h *Hooks) OpFailed(k string, m cacheflow.Method, op string, err error) {
	h.try(func() { h.inner.OpFailed(k, m, op, err) })
}
func (h *Hooks) InvalidQuery(entry string, m cacheflow.Method) {
	h.try(func() { h.inner.InvalidQuery(entry, m) })
}
