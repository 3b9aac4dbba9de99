// Package memory is an in-process map provider. It honors absolute, relative
// and sliding expiry exactly and is the reference backend for tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/cacheflow/provider"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory provider: closed")

type entry struct {
	value     []byte
	lease     pr.Lease
	expiresAt time.Time // zero => never
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Provider is a mutex-guarded map with lazy expiry.
type Provider struct {
	mu     sync.Mutex
	m      map[string]*entry
	now    func() time.Time
	closed bool
}

var _ pr.Provider = (*Provider)(nil)

type Option func(*Provider)

// WithClock overrides time.Now. Handy for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func New(opts ...Option) *Provider {
	p := &Provider{m: make(map[string]*entry), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, false, ErrClosed
	}

	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	now := p.now()
	if e.expired(now) {
		delete(p.m, key)
		return nil, false, nil
	}
	if e.lease.Sliding > 0 {
		e.expiresAt = e.lease.ExpiresAt(now)
	}
	return e.value, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, exp pr.Expiration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrClosed
	}

	now := p.now()
	l := exp.Lease(now)
	e := &entry{value: value, lease: l, expiresAt: l.ExpiresAt(now)}
	if e.expired(now) {
		delete(p.m, key)
		return false, nil
	}
	p.m[key] = e
	return true, nil
}

func (p *Provider) Refresh(_ context.Context, key string, exp pr.Expiration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrClosed
	}

	e, ok := p.m[key]
	if !ok {
		return false, nil
	}
	now := p.now()
	if e.expired(now) {
		delete(p.m, key)
		return false, nil
	}
	if !exp.IsZero() {
		e.lease = exp.Lease(now)
	}
	e.expiresAt = e.lease.ExpiresAt(now)
	if e.expired(now) {
		delete(p.m, key)
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	delete(p.m, key)
	return nil
}

// Len counts stored entries, including expired ones not yet collected.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// Close is idempotent.
func (p *Provider) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.m = nil
	return nil
}
