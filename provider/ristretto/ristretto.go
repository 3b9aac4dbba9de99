// Package ristretto is a cost-aware in-process provider.
//
// Ristretto buffers writes internally. Set waits for the buffers to drain
// after an admitted write, so a Set followed by Get observes the value;
// a Set that Ristretto's admission policy drops reports ok=false.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/cacheflow/internal/keylock"
	pr "github.com/unkn0wn-root/cacheflow/provider"
)

// item keeps the lease and cost next to the bytes so a sliding hit can be
// re-admitted with the same cost.
type item struct {
	raw   []byte
	cost  int64
	lease pr.Lease
}

// Every operation holds the key's lock: a sliding hit re-admits the item it
// read and must not overwrite a concurrent Set.
type Provider struct {
	c     *rc.Cache
	now   func() time.Time
	locks keylock.Striped
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost in Ristretto is provided by the caller (cacheflow passes cost per Set).
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	defer p.locks.Lock(key)()

	it, ok := p.load(key)
	if !ok {
		return nil, false, nil
	}
	if it.lease.Sliding > 0 {
		p.admit(key, it)
	}
	return it.raw, true, nil
}

// Set returns Ristretto's admission verdict.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, exp pr.Expiration) (bool, error) {
	defer p.locks.Lock(key)()

	it := item{raw: value, cost: cost, lease: exp.Lease(p.now())}
	return p.admit(key, it), nil
}

func (p *Provider) Refresh(_ context.Context, key string, exp pr.Expiration) (bool, error) {
	defer p.locks.Lock(key)()

	it, ok := p.load(key)
	if !ok {
		return false, nil
	}
	if !exp.IsZero() {
		it.lease = exp.Lease(p.now())
	}
	p.admit(key, it)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	defer p.locks.Lock(key)()
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Wait blocks until buffered writes are applied.
func (p *Provider) Wait() { p.c.Wait() }

// Metrics is nil unless Config.Metrics was set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

func (p *Provider) load(key string) (item, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		return item{}, false
	}
	it, ok := v.(item)
	if !ok {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return item{}, false
	}
	return it, true
}

func (p *Provider) admit(key string, it item) bool {
	ttl := it.lease.TTL(p.now())
	if ttl < 0 {
		p.c.Del(key)
		return false
	}
	if !p.c.SetWithTTL(key, it, it.cost, ttl) {
		return false
	}
	// applied before the key lock is released
	p.c.Wait()
	return true
}
