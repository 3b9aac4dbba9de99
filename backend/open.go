package backend

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"

	pr "github.com/unkn0wn-root/cacheflow/provider"
	bbp "github.com/unkn0wn-root/cacheflow/provider/bbolt"
	bcp "github.com/unkn0wn-root/cacheflow/provider/bigcache"
	"github.com/unkn0wn-root/cacheflow/provider/memory"
	rdp "github.com/unkn0wn-root/cacheflow/provider/redis"
	rsp "github.com/unkn0wn-root/cacheflow/provider/ristretto"
)

const (
	defaultPingTimeout = 5 * time.Second
	defaultBoltTimeout = time.Second
	defaultBufferItems = 64
)

// Opener builds a provider for a custom backend type.
type Opener func(ctx context.Context, cfg Config) (pr.Provider, error)

type openOptions struct {
	openers map[string]Opener
}

type OpenOption func(*openOptions)

// WithOpener serves a custom type. Built-in types always win.
func WithOpener(typ string, o Opener) OpenOption {
	return func(oo *openOptions) {
		if oo.openers == nil {
			oo.openers = make(map[string]Opener)
		}
		oo.openers[typ] = o
	}
}

// Open validates cfg and returns a provider that owns every resource it
// created; closing the provider releases them.
func Open(ctx context.Context, cfg Config, opts ...OpenOption) (pr.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeMemory:
		return memory.New(), nil
	case TypeRedis:
		return openRedis(ctx, cfg.Redis)
	case TypeBigCache:
		c := cfg.BigCache
		return bcp.New(bcp.Config{
			LifeWindow:         c.LifeWindow,
			CleanWindow:        c.CleanWindow,
			MaxEntriesInWindow: c.MaxEntriesInWindow,
			MaxEntrySize:       c.MaxEntrySize,
			HardMaxCacheSizeMB: c.HardMaxCacheSizeMB,
		})
	case TypeRistretto:
		c := cfg.Ristretto
		buf := c.BufferItems
		if buf == 0 {
			buf = defaultBufferItems
		}
		return rsp.New(rsp.Config{NumCounters: c.NumCounters, MaxCost: c.MaxCost, BufferItems: buf, Metrics: c.Metrics})
	case TypeBbolt:
		return openBolt(cfg.Bbolt)
	}

	var oo openOptions
	for _, opt := range opts {
		opt(&oo)
	}
	o, ok := oo.openers[cfg.Type]
	if !ok || o == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, cfg.Type)
	}
	return o(ctx, cfg)
}

func openRedis(ctx context.Context, c *RedisConfig) (pr.Provider, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:       c.Addrs,
		Username:    c.Username,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: c.DialTimeout,
	})

	timeout := c.PingTimeout
	if timeout == 0 {
		timeout = defaultPingTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("backend: redis ping: %w", err)
	}

	p, err := rdp.New(rdp.Config{Client: client, CloseClient: true})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return p, nil
}

func openBolt(c *BboltConfig) (pr.Provider, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultBoltTimeout
	}
	db, err := bolt.Open(c.Path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("backend: open bbolt %s: %w", c.Path, err)
	}
	p, err := bbp.New(bbp.Config{DB: db, Bucket: c.Bucket, CloseDB: true})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}
