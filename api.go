package cacheflow

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/cacheflow/codec"
	pr "github.com/unkn0wn-root/cacheflow/provider"
)

// SetCostFunc computes the provider cost of one write (used by cost-aware
// providers such as Ristretto).
type SetCostFunc func(storageKey string, raw []byte) int64

// Manager dispatches requests against a provider and reports what happened
// as a Result. V is the caller's value type. Managers keep no per-request
// state; concurrent calls are independent.
type Manager[V any] interface {
	// Process serves read-only requests (RefreshCacheOnly, ExpireCacheOnly).
	// Any other request fails with *InvalidQueryError.
	Process(ctx context.Context, req Request) (Result[V], error)

	// ProcessWithValue serves the value-bearing requests. cd overrides the
	// configured codec for this call; nil uses Options.Codec. Read-only
	// requests fail with *InvalidQueryError.
	ProcessWithValue(ctx context.Context, req Request, cd c.Codec[V]) (Result[V], error)

	Close(ctx context.Context) error
}

// Options tune the manager. Only Provider is required.
type Options[V any] struct {
	// Required
	Provider pr.Provider

	Codec          c.Codec[V]    // nil => codec.JSON[V]{}
	Namespace      string        // optional storage-key prefix, "<ns>:<key>"
	Logger         Logger        // if nil, NopLogger is used
	Hooks          Hooks         // if nil, NopHooks is used
	DefaultTTL     time.Duration // writes without an Expiry; 0 => 10m, <0 => no expiry
	ComputeSetCost SetCostFunc   // default 1

	// DisableWriteBack stops GetFromCacheOrFactory from caching factory
	// values; they are returned with StatusDataStore instead.
	DisableWriteBack bool
	// CoalesceFactory shares one in-flight factory call between concurrent
	// requests for the same key in this process. The shared call runs on a
	// context that keeps the first caller's values but not its cancellation;
	// a caller whose own ctx ends stops waiting and gets an OpError wrapping
	// ctx.Err(), while the others still receive the value.
	CoalesceFactory bool
}

func New[V any](opts Options[V]) (Manager[V], error) {
	return newManager[V](opts)
}
