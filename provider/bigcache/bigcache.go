package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/cacheflow/internal/keylock"
	"github.com/unkn0wn-root/cacheflow/internal/wire"
	pr "github.com/unkn0wn-root/cacheflow/provider"
)

// Provider stores framed entries in BigCache. BigCache only knows a global
// LifeWindow, so per-entry deadlines and sliding windows travel inside the
// frame and are enforced on read. LifeWindow acts as an upper bound.
//
// A sliding hit rewrites the frame, so every operation holds the key's lock
// to keep that rewrite from clobbering a concurrent Set.
type Provider struct {
	c     *bc.BigCache
	now   func() time.Time
	locks keylock.Striped
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	defer p.locks.Lock(key)()

	raw, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	now := p.now()
	s, err := wire.Unseal(raw, now)
	if err != nil {
		// expired or foreign bytes
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	if s.Lease.Sliding > 0 {
		if err := p.c.Set(key, s.Touch(now)); err != nil {
			return nil, false, err
		}
	}
	return s.Payload, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, exp pr.Expiration) (bool, error) {
	defer p.locks.Lock(key)()

	now := p.now()
	l := exp.Lease(now)
	if l.TTL(now) < 0 {
		return false, p.del(key)
	}
	if err := p.c.Set(key, wire.Seal(l, now, value)); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Refresh(_ context.Context, key string, exp pr.Expiration) (bool, error) {
	defer p.locks.Lock(key)()

	raw, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	now := p.now()
	s, err := wire.Unseal(raw, now)
	if err != nil {
		_ = p.c.Delete(key)
		return false, nil
	}
	if !exp.IsZero() {
		s.Lease = exp.Lease(now)
		if s.Lease.TTL(now) < 0 {
			return true, p.del(key)
		}
	}
	return true, p.c.Set(key, s.Touch(now))
}

func (p *Provider) Del(_ context.Context, key string) error {
	defer p.locks.Lock(key)()
	return p.del(key)
}

func (p *Provider) del(key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
