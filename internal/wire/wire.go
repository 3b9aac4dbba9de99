// Package wire frames cache payloads together with their expiry metadata for
// byte-only backends that cannot express per-entry or sliding expiration.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	pr "github.com/unkn0wn-root/cacheflow/provider"
)

const (
	version   byte = 1
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 8 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cacheflow: corrupt entry")
	ErrExpired = errors.New("cacheflow: entry expired")
	magic4     = [...]byte{'C', 'F', 'L', 'W'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Sealed is a decoded envelope. Payload aliases the decoded buffer.
type Sealed struct {
	Lease     pr.Lease
	ExpiresAt time.Time // zero => never
	Payload   []byte
}

// Seal frames payload under lease l, stamped for an access at now.
//
// Entry: magic(4) | ver(1) | kind(1) | deadline(i64 be) | sliding(i64 be) | expiresAt(i64 be) | vlen(u32 be) | payload(vlen)
// Instants are unix nanoseconds; 0 means unset.
func Seal(l pr.Lease, now time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(l.Deadline)))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(l.Sliding))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(l.ExpiresAt(now))))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses an envelope without looking at the clock.
// Trailing bytes after the payload are rejected.
func Decode(b []byte) (Sealed, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Sealed{}, ErrCorrupt
	}
	off := 6

	deadline := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	sliding := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	expiresAt := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	if deadline < 0 || sliding < 0 || expiresAt < 0 {
		return Sealed{}, ErrCorrupt
	}

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Sealed{}, ErrCorrupt
	}

	return Sealed{
		Lease:     pr.Lease{Deadline: fromUnixNano(deadline), Sliding: time.Duration(sliding)},
		ExpiresAt: fromUnixNano(expiresAt),
		Payload:   b[off:],
	}, nil
}

// Unseal decodes b and checks it against now.
// Returns ErrExpired for elapsed entries, ErrCorrupt for malformed ones.
func Unseal(b []byte, now time.Time) (Sealed, error) {
	s, err := Decode(b)
	if err != nil {
		return Sealed{}, err
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return Sealed{}, ErrExpired
	}
	return s, nil
}

// Touch re-stamps s for an access at now. Only sliding leases move.
func (s Sealed) Touch(now time.Time) []byte {
	return Seal(s.Lease, now, s.Payload)
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
