package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/cacheflow/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Entries are hashes: data holds the payload, absexp the hard deadline in unix
// nanoseconds and sldexp the sliding window in nanoseconds (-1 when unset).
// The key TTL always tracks the next expiry instant.
const (
	fieldData    = "data"
	fieldAbs     = "absexp"
	fieldSliding = "sldexp"
	unset        = -1
)

// releaseScript re-leases an existing entry. It is a no-op returning 0 when
// the data field is gone, so a concurrent Del cannot leave behind a hash with
// expiry fields and no payload.
//
// KEYS[1] key; ARGV: data field, abs field, abs, sliding field, sliding, ttl ms (0 = persist)
var releaseScript = goredis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5])
local ttl = tonumber(ARGV[6])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
else
  redis.call('PERSIST', KEYS[1])
end
return 1
`)

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	now         func() time.Time
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, now: time.Now}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	vals, err := p.rdb.HMGet(ctx, key, fieldAbs, fieldSliding, fieldData).Result()
	if err != nil {
		return nil, false, err // transport/server error
	}
	data, ok := vals[2].(string)
	if !ok {
		return nil, false, nil // miss
	}
	l, err := parseLease(vals[0], vals[1])
	if err != nil {
		// self-heal: drop unexpected entry shape
		_ = p.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	if l.Sliding > 0 {
		if err := p.touch(ctx, key, l); err != nil {
			return nil, false, err
		}
	}
	return []byte(data), true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, exp pr.Expiration) (bool, error) {
	now := p.now()
	l := exp.Lease(now)
	ttl := l.TTL(now)
	if ttl < 0 {
		return false, p.rdb.Del(ctx, key).Err()
	}

	_, err := p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldData, value,
			fieldAbs, deadlineField(l),
			fieldSliding, slidingField(l),
		)
		if ttl > 0 {
			pipe.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Refresh(ctx context.Context, key string, exp pr.Expiration) (bool, error) {
	vals, err := p.rdb.HMGet(ctx, key, fieldAbs, fieldSliding).Result()
	if err != nil {
		return false, err
	}
	if vals[0] == nil && vals[1] == nil {
		return false, nil
	}
	if exp.IsZero() {
		l, err := parseLease(vals[0], vals[1])
		if err != nil {
			_ = p.rdb.Del(ctx, key).Err()
			return false, nil
		}
		return true, p.touch(ctx, key, l)
	}

	now := p.now()
	l := exp.Lease(now)
	ttl := l.TTL(now)
	if ttl < 0 {
		return true, p.rdb.Del(ctx, key).Err()
	}
	var ms int64
	if ttl > 0 {
		ms = max(ttl.Milliseconds(), 1)
	}
	n, err := releaseScript.Run(ctx, p.rdb, []string{key},
		fieldData,
		fieldAbs, deadlineField(l),
		fieldSliding, slidingField(l),
		ms,
	).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// touch moves the key TTL to the next expiry of a sliding lease.
func (p *Redis) touch(ctx context.Context, key string, l pr.Lease) error {
	if l.Sliding <= 0 {
		return nil
	}
	ttl := l.TTL(p.now())
	if ttl < 0 {
		return p.rdb.Del(ctx, key).Err()
	}
	return p.rdb.PExpire(ctx, key, ttl).Err()
}

func deadlineField(l pr.Lease) int64 {
	if l.Deadline.IsZero() {
		return unset
	}
	return l.Deadline.UnixNano()
}

func slidingField(l pr.Lease) int64 {
	if l.Sliding <= 0 {
		return unset
	}
	return int64(l.Sliding)
}

func parseLease(abs, sliding any) (pr.Lease, error) {
	a, err := parseField(abs)
	if err != nil {
		return pr.Lease{}, err
	}
	s, err := parseField(sliding)
	if err != nil {
		return pr.Lease{}, err
	}
	var l pr.Lease
	if a != unset {
		l.Deadline = time.Unix(0, a)
	}
	if s != unset {
		l.Sliding = time.Duration(s)
	}
	return l, nil
}

func parseField(v any) (int64, error) {
	str, ok := v.(string)
	if !ok {
		return 0, errors.New("redis provider: missing expiry field")
	}
	return strconv.ParseInt(str, 10, 64)
}
