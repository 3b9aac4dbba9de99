// Package bbolt is a persistent provider on top of an embedded bbolt database.
// Entries are framed with their expiry and checked on read; expired entries
// are removed lazily.
package bbolt

import (
	"context"
	"errors"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/cacheflow/internal/wire"
	pr "github.com/unkn0wn-root/cacheflow/provider"
)

// DefaultBucket is used when Config.Bucket is empty.
const DefaultBucket = "cacheflow"

var (
	ErrNilDB  = errors.New("bbolt provider: nil db")
	ErrClosed = errors.New("bbolt provider: closed")
)

type Config struct {
	DB      *bolt.DB
	Bucket  string
	CloseDB bool // set true only if this provider exclusively owns the db
}

type Provider struct {
	db      *bolt.DB
	bucket  []byte
	closeDB bool
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ pr.Provider = (*Provider)(nil)

// New creates the bucket if it doesn't exist.
func New(cfg Config) (*Provider, error) {
	if cfg.DB == nil {
		return nil, ErrNilDB
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	err := cfg.DB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Provider{db: cfg.DB, bucket: []byte(bucket), closeDB: cfg.CloseDB, now: time.Now}, nil
}

// Get needs a write transaction: a hit on a sliding entry re-stamps it and an
// expired entry is deleted.
func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, false, ErrClosed
	}

	var out []byte
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		now := p.now()
		s, err := wire.Unseal(raw, now)
		if err != nil {
			return b.Delete([]byte(key))
		}
		// raw is only valid for the life of the transaction
		out = append([]byte{}, s.Payload...)
		if s.Lease.Sliding > 0 {
			return b.Put([]byte(key), s.Touch(now))
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, exp pr.Expiration) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false, ErrClosed
	}

	now := p.now()
	l := exp.Lease(now)
	ok := l.TTL(now) >= 0
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		if !ok {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), wire.Seal(l, now, value))
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (p *Provider) Refresh(_ context.Context, key string, exp pr.Expiration) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false, ErrClosed
	}

	var found bool
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		now := p.now()
		s, err := wire.Unseal(raw, now)
		if err != nil {
			return b.Delete([]byte(key))
		}
		found = true
		if !exp.IsZero() {
			s.Lease = exp.Lease(now)
			if s.Lease.TTL(now) < 0 {
				return b.Delete([]byte(key))
			}
		}
		return b.Put([]byte(key), s.Touch(now))
	})
	return found, err
}

// Del is idempotent - deleting a non-existent key is not an error.
func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
}

// Close is idempotent. The db is closed only when the provider owns it.
func (p *Provider) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.closeDB {
		return p.db.Close()
	}
	return nil
}
