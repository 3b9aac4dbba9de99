package cacheflow

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Factory produces a value when the cache has none. ok=false (or a nil
// pointer/map/slice/interface value) means the factory yielded nothing.
type Factory[V any] func(ctx context.Context) (v V, ok bool, err error)

// Request is a sealed sum type: one variant per Method. Requests are built
// once by their constructor and never mutated.
type Request interface {
	ID() string
	Key() Key
	Method() Method

	sealed()
}

type request struct {
	id     string
	key    Key
	method Method
}

func newRequest(key Key, m Method) (request, error) {
	if key.IsZero() {
		return request{}, fmt.Errorf("%w: %s: key is required", ErrInvalidArgument, m)
	}
	return request{id: uuid.NewString(), key: key, method: m}, nil
}

func (r request) ID() string     { return r.id }
func (r request) Key() Key       { return r.key }
func (r request) Method() Method { return r.method }
func (request) sealed()          {}

// GetRequest reads the cache only.
type GetRequest[V any] struct{ request }

// GetOrFactoryRequest reads the cache and falls back to the factory on a miss.
type GetOrFactoryRequest[V any] struct {
	request
	factory Factory[V]
}

// SetRequest writes a value.
type SetRequest[V any] struct {
	request
	value  V
	expiry Expiry
}

// SetOrFactoryRequest writes the given value, or the factory's when none is given.
type SetOrFactoryRequest[V any] struct {
	request
	value   *V
	expiry  Expiry
	factory Factory[V]
}

// UpdateRequest replaces whatever is stored under the key.
type UpdateRequest[V any] struct {
	request
	value  V
	expiry Expiry
}

// RefreshRequest re-leases an entry without touching its value.
type RefreshRequest struct {
	request
	expiry Expiry
}

// ExpireRequest removes an entry.
type ExpireRequest struct{ request }

func (r *SetRequest[V]) Value() V                { return r.value }
func (r *SetRequest[V]) Expiry() Expiry          { return r.expiry }
func (r *UpdateRequest[V]) Value() V             { return r.value }
func (r *UpdateRequest[V]) Expiry() Expiry       { return r.expiry }
func (r *SetOrFactoryRequest[V]) Expiry() Expiry { return r.expiry }
func (r *RefreshRequest) Expiry() Expiry         { return r.expiry }

// Value returns the caller-supplied value, if any.
func (r *SetOrFactoryRequest[V]) Value() (V, bool) {
	if r.value == nil {
		var zero V
		return zero, false
	}
	return *r.value, true
}

func GetFromCacheOnly[V any](key Key) (*GetRequest[V], error) {
	base, err := newRequest(key, MethodGetFromCacheOnly)
	if err != nil {
		return nil, err
	}
	return &GetRequest[V]{request: base}, nil
}

func GetFromCacheOrFactory[V any](key Key, factory Factory[V]) (*GetOrFactoryRequest[V], error) {
	base, err := newRequest(key, MethodGetFromCacheOrFactory)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, argErr(base.method, "factory")
	}
	return &GetOrFactoryRequest[V]{request: base, factory: factory}, nil
}

func SetCacheOnly[V any](key Key, value V, expiry Expiry) (*SetRequest[V], error) {
	base, err := newRequest(key, MethodSetCacheOnly)
	if err != nil {
		return nil, err
	}
	if isNil(value) {
		return nil, argErr(base.method, "value")
	}
	if expiry.IsZero() {
		return nil, argErr(base.method, "expiry")
	}
	return &SetRequest[V]{request: base, value: value, expiry: expiry}, nil
}

// SetCacheOrCreateFactoryThenSetCache writes value when it is non-nil, and
// otherwise whatever factory produces at processing time.
func SetCacheOrCreateFactoryThenSetCache[V any](key Key, value *V, expiry Expiry, factory Factory[V]) (*SetOrFactoryRequest[V], error) {
	base, err := newRequest(key, MethodSetCacheOrCreateFactoryThenSetCache)
	if err != nil {
		return nil, err
	}
	if expiry.IsZero() {
		return nil, argErr(base.method, "expiry")
	}
	if factory == nil {
		return nil, argErr(base.method, "factory")
	}
	if value != nil && isNil(*value) {
		value = nil
	}
	return &SetOrFactoryRequest[V]{request: base, value: value, expiry: expiry, factory: factory}, nil
}

// UpdateCacheOnly replaces the entry. A zero expiry selects the manager's DefaultTTL.
func UpdateCacheOnly[V any](key Key, value V, expiry Expiry) (*UpdateRequest[V], error) {
	base, err := newRequest(key, MethodUpdateCacheOnly)
	if err != nil {
		return nil, err
	}
	if isNil(value) {
		return nil, argErr(base.method, "value")
	}
	return &UpdateRequest[V]{request: base, value: value, expiry: expiry}, nil
}

func RefreshCacheOnly(key Key, expiry Expiry) (*RefreshRequest, error) {
	base, err := newRequest(key, MethodRefreshCacheOnly)
	if err != nil {
		return nil, err
	}
	if expiry.IsZero() {
		return nil, argErr(base.method, "expiry")
	}
	return &RefreshRequest{request: base, expiry: expiry}, nil
}

func ExpireCacheOnly(key Key) (*ExpireRequest, error) {
	base, err := newRequest(key, MethodExpireCacheOnly)
	if err != nil {
		return nil, err
	}
	return &ExpireRequest{request: base}, nil
}

func argErr(m Method, arg string) error {
	return fmt.Errorf("%w: %s: %s is required", ErrInvalidArgument, m, arg)
}

// isNil reports whether v holds nothing: a nil interface, or a nil value of a
// nillable kind. Non-nillable values (structs, numbers, strings) are never nil.
func isNil[V any](v V) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
