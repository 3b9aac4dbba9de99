// Package keylock serializes read-modify-write sequences on the same key.
package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const stripes = 256

// Striped maps keys onto a fixed set of mutexes. Distinct keys may share a
// stripe; the same key always does. The zero value is ready to use.
type Striped struct {
	mu [stripes]sync.Mutex
}

// Lock locks key's stripe and returns its unlock func.
func (s *Striped) Lock(key string) func() {
	m := &s.mu[xxhash.Sum64String(key)%stripes]
	m.Lock()
	return m.Unlock
}
