package cacheflow

import (
	"time"

	pr "github.com/unkn0wn-root/cacheflow/provider"
)

// Expiry is the duration policy applied when an entry is written: either an
// absolute instant or a duration relative to the write, plus an optional
// sliding window. The two hard forms are mutually exclusive by construction.
//
// The zero Expiry means "no policy given"; the manager then applies its
// DefaultTTL. Non-positive durations are treated as unset.
type Expiry struct {
	at      time.Time
	in      time.Duration
	sliding time.Duration
}

// ExpireAt expires the entry at t.
func ExpireAt(t time.Time) Expiry { return Expiry{at: t} }

// ExpireAtSliding expires the entry at t, or earlier when it goes unread for sliding.
func ExpireAtSliding(t time.Time, sliding time.Duration) Expiry {
	return Expiry{at: t, sliding: positive(sliding)}
}

// ExpireAfter expires the entry d after it is written.
func ExpireAfter(d time.Duration) Expiry { return Expiry{in: positive(d)} }

// ExpireAfterSliding expires the entry d after it is written, or earlier when
// it goes unread for sliding.
func ExpireAfterSliding(d, sliding time.Duration) Expiry {
	return Expiry{in: positive(d), sliding: positive(sliding)}
}

func (e Expiry) AbsoluteAt() time.Time        { return e.at }
func (e Expiry) RelativeToNow() time.Duration { return e.in }
func (e Expiry) Sliding() time.Duration       { return e.sliding }

func (e Expiry) IsZero() bool {
	return e.at.IsZero() && e.in == 0 && e.sliding == 0
}

// expiration copies the policy 1:1 into the backend form.
func (e Expiry) expiration() pr.Expiration {
	return pr.Expiration{AbsoluteAt: e.at, RelativeToNow: e.in, Sliding: e.sliding}
}

func positive(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
