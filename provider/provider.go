// Package provider defines the storage abstraction used by cacheflow.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. If a store frames the
// value internally (e.g. to carry expiry metadata), the framing MUST be fully
// reversed before the bytes are returned.
//
// Expiration is applied by the provider. A hit on an entry with a sliding window
// pushes its next expiry forward, bounded by the absolute deadline.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with absolute, relative and sliding expiry.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under the given expiration. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write (pressure, or an
	// expiration that already elapsed).
	Set(ctx context.Context, key string, value []byte, cost int64, exp Expiration) (ok bool, err error)

	// Refresh resets the sliding window of an existing entry when exp is zero,
	// otherwise re-leases the entry under exp. found=false on miss.
	Refresh(ctx context.Context, key string, exp Expiration) (found bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Expiration is the backend view of a duration policy. Fields are copied 1:1
// from the caller's policy; zero fields are unset.
type Expiration struct {
	AbsoluteAt    time.Time
	RelativeToNow time.Duration
	Sliding       time.Duration
}

// IsZero reports whether no expiry is configured (entry lives until removed).
func (e Expiration) IsZero() bool {
	return e.AbsoluteAt.IsZero() && e.RelativeToNow <= 0 && e.Sliding <= 0
}

// Lease pins the relative parts of e against now.
// An absolute instant wins over a relative duration when both are present.
func (e Expiration) Lease(now time.Time) Lease {
	l := Lease{Deadline: e.AbsoluteAt}
	if l.Deadline.IsZero() && e.RelativeToNow > 0 {
		l.Deadline = now.Add(e.RelativeToNow)
	}
	if e.Sliding > 0 {
		l.Sliding = e.Sliding
	}
	return l
}

// Lease is a resolved expiration: a hard deadline and an optional sliding window.
type Lease struct {
	Deadline time.Time     // zero => no hard deadline
	Sliding  time.Duration // 0 => no sliding window
}

// ExpiresAt returns the next expiry instant for an entry touched at now.
// Zero means the entry never expires.
func (l Lease) ExpiresAt(now time.Time) time.Time {
	if l.Sliding <= 0 {
		return l.Deadline
	}
	next := now.Add(l.Sliding)
	if !l.Deadline.IsZero() && l.Deadline.Before(next) {
		return l.Deadline
	}
	return next
}

// TTL is ExpiresAt expressed relative to now.
// 0 means no expiry; a negative value means the lease already elapsed.
func (l Lease) TTL(now time.Time) time.Duration {
	at := l.ExpiresAt(now)
	if at.IsZero() {
		return 0
	}
	if d := at.Sub(now); d > 0 {
		return d
	}
	return -1
}
