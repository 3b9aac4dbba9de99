package cacheflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/cacheflow/codec"
	pr "github.com/unkn0wn-root/cacheflow/provider"
)

const (
	entryProcess          = "Process"
	entryProcessWithValue = "ProcessWithValue"
)

type manager[V any] struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[V]
	log            Logger
	hooks          Hooks
	defaultTTL     time.Duration
	computeSetCost SetCostFunc
	writeBack      bool
	flight         *singleflight.Group // nil unless coalescing
}

func newManager[V any](opts Options[V]) (*manager[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidArgument)
	}

	m := &manager[V]{
		ns:        opts.Namespace,
		provider:  opts.Provider,
		writeBack: !opts.DisableWriteBack,
	}

	// defaults
	m.codec = opts.Codec
	if m.codec == nil {
		m.codec = c.JSON[V]{}
	}
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = opts.Hooks
	if m.hooks == nil {
		m.hooks = NopHooks{}
	}
	m.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		m.computeSetCost = opts.ComputeSetCost
	} else {
		m.computeSetCost = func(string, []byte) int64 { return 1 }
	}
	if opts.CoalesceFactory {
		m.flight = new(singleflight.Group)
	}
	return m, nil
}

func (m *manager[V]) Close(ctx context.Context) error {
	return m.provider.Close(ctx)
}

func (m *manager[V]) Process(ctx context.Context, req Request) (Result[V], error) {
	switch r := req.(type) {
	case *RefreshRequest:
		return m.refresh(ctx, r)
	case *ExpireRequest:
		return m.expire(ctx, r)
	}
	return m.invalid(entryProcess, req)
}

func (m *manager[V]) ProcessWithValue(ctx context.Context, req Request, cd c.Codec[V]) (Result[V], error) {
	if cd == nil {
		cd = m.codec
	}
	switch r := req.(type) {
	case *GetRequest[V]:
		return m.get(ctx, r, cd)
	case *GetOrFactoryRequest[V]:
		return m.getOrFactory(ctx, r, cd)
	case *SetRequest[V]:
		return m.set(ctx, r, cd)
	case *SetOrFactoryRequest[V]:
		return m.setOrFactory(ctx, r, cd)
	case *UpdateRequest[V]:
		return m.update(ctx, r, cd)
	}
	if req != nil && req.Method().Valid() && !req.Method().ReadOnly() {
		// a value request, but built for another V
		return Empty[V](), fmt.Errorf("%w: %s request %T", ErrValueTypeMismatch, req.Method(), req)
	}
	return m.invalid(entryProcessWithValue, req)
}

func (m *manager[V]) invalid(entry string, req Request) (Result[V], error) {
	if req == nil {
		return Empty[V](), fmt.Errorf("%w: nil request", ErrInvalidArgument)
	}
	m.hooks.InvalidQuery(entry, req.Method())
	m.log.Warn("request passed to wrong entry point", Fields{"entry": entry, "method": req.Method().String(), "id": req.ID()})
	return Empty[V](), &InvalidQueryError{Entry: entry, Method: req.Method()}
}

func (m *manager[V]) get(ctx context.Context, r *GetRequest[V], cd c.Codec[V]) (Result[V], error) {
	k := m.storageKey(r.Key())
	v, ok, err := m.read(ctx, r, k, cd)
	if err != nil || !ok {
		return Empty[V](), err
	}
	return FromCache[V](r, v), nil
}

// getOrFactory: cache first, then the factory. A produced value is written
// back with DefaultTTL and reported as StatusCache; if write-back is off or
// does not stick, the value is still returned, as StatusDataStore.
func (m *manager[V]) getOrFactory(ctx context.Context, r *GetOrFactoryRequest[V], cd c.Codec[V]) (Result[V], error) {
	k := m.storageKey(r.Key())
	v, ok, err := m.read(ctx, r, k, cd)
	if err != nil {
		return Empty[V](), err
	}
	if ok {
		return FromCache[V](r, v), nil
	}

	v, ok, err = m.produce(ctx, r, k, r.factory)
	if err != nil || !ok {
		return Empty[V](), err
	}
	if !m.writeBack {
		return FromDataStore[V](r, v), nil
	}

	stored, err := m.write(ctx, r, k, v, Expiry{}, cd)
	if err != nil {
		m.hooks.WriteBackFailed(k, err)
		m.log.Warn("factory value not cached", Fields{"key": k, "err": err})
		return FromDataStore[V](r, v), nil
	}
	if !stored {
		return FromDataStore[V](r, v), nil
	}
	return FromCache[V](r, v), nil
}

func (m *manager[V]) set(ctx context.Context, r *SetRequest[V], cd c.Codec[V]) (Result[V], error) {
	k := m.storageKey(r.Key())
	if _, err := m.write(ctx, r, k, r.value, r.expiry, cd); err != nil {
		return Empty[V](), err
	}
	return FromCache[V](r, r.value), nil
}

func (m *manager[V]) setOrFactory(ctx context.Context, r *SetOrFactoryRequest[V], cd c.Codec[V]) (Result[V], error) {
	k := m.storageKey(r.Key())
	v, ok := r.Value()
	if !ok {
		var err error
		v, ok, err = m.produce(ctx, r, k, r.factory)
		if err != nil {
			return Empty[V](), err
		}
		if !ok {
			return FromRequestEmptyValue[V](r), nil
		}
	}
	if _, err := m.write(ctx, r, k, v, r.expiry, cd); err != nil {
		return Empty[V](), err
	}
	return FromCache[V](r, v), nil
}

// update is delete-then-set. Not atomic: a concurrent reader may observe
// the gap as a miss.
func (m *manager[V]) update(ctx context.Context, r *UpdateRequest[V], cd c.Codec[V]) (Result[V], error) {
	k := m.storageKey(r.Key())
	if err := m.provider.Del(ctx, k); err != nil {
		return Empty[V](), m.opErr(r, k, "del", err)
	}
	if _, err := m.write(ctx, r, k, r.value, r.expiry, cd); err != nil {
		return Empty[V](), err
	}
	return FromCache[V](r, r.value), nil
}

func (m *manager[V]) refresh(ctx context.Context, r *RefreshRequest) (Result[V], error) {
	k := m.storageKey(r.Key())
	found, err := m.provider.Refresh(ctx, k, r.expiry.expiration())
	if err != nil {
		return Empty[V](), m.opErr(r, k, "refresh", err)
	}
	if !found {
		m.log.Debug("refresh on absent key", Fields{"key": k})
	}
	return FromRequestEmptyValue[V](r), nil
}

func (m *manager[V]) expire(ctx context.Context, r *ExpireRequest) (Result[V], error) {
	k := m.storageKey(r.Key())
	if err := m.provider.Del(ctx, k); err != nil {
		return Empty[V](), m.opErr(r, k, "del", err)
	}
	m.log.Debug("expired key", Fields{"key": k})
	return FromRequestEmptyValue[V](r), nil
}

// read returns ok=false for an absent entry and for one that decodes to nil.
func (m *manager[V]) read(ctx context.Context, req Request, k string, cd c.Codec[V]) (V, bool, error) {
	var zero V
	raw, ok, err := m.provider.Get(ctx, k)
	if err != nil {
		return zero, false, m.opErr(req, k, "get", err)
	}
	if !ok {
		m.miss(req, k)
		return zero, false, nil
	}
	v, err := cd.Decode(raw)
	if err != nil {
		return zero, false, m.fail(req, k, "decode", err, Fields{"codec": c.NameOf(cd)})
	}
	if isNil(v) {
		m.miss(req, k)
		return zero, false, nil
	}
	m.hooks.Hit(k, req.Method())
	m.log.Debug("cache hit", Fields{"key": k, "method": req.Method().String()})
	return v, true, nil
}

func (m *manager[V]) miss(req Request, k string) {
	m.hooks.Miss(k, req.Method())
	m.log.Debug("cache miss", Fields{"key": k, "method": req.Method().String()})
}

type produced[V any] struct {
	v  V
	ok bool
}

// produce runs f at most once per call. With coalescing, concurrent callers
// for the same storage key share one run; the shared run is detached from
// any single caller's cancellation, and each caller stops waiting when its
// own ctx is done.
func (m *manager[V]) produce(ctx context.Context, req Request, k string, f Factory[V]) (V, bool, error) {
	call := func(fctx context.Context) (produced[V], error) {
		v, ok, err := f(fctx)
		if err != nil {
			m.hooks.FactoryCalled(k, req.Method(), false)
			return produced[V]{}, err
		}
		ok = ok && !isNil(v)
		m.hooks.FactoryCalled(k, req.Method(), ok)
		return produced[V]{v: v, ok: ok}, nil
	}

	var (
		p   produced[V]
		err error
	)
	if m.flight == nil {
		p, err = call(ctx)
	} else {
		shared := context.WithoutCancel(ctx)
		ch := m.flight.DoChan(k, func() (any, error) { return call(shared) })
		select {
		case res := <-ch:
			p, _ = res.Val.(produced[V])
			err = res.Err
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		var zero V
		return zero, false, m.opErr(req, k, "factory", err)
	}
	return p.v, p.ok, nil
}

// write reports stored=false when the provider declined the entry.
func (m *manager[V]) write(ctx context.Context, req Request, k string, v V, e Expiry, cd c.Codec[V]) (bool, error) {
	payload, err := cd.Encode(v)
	if err != nil {
		return false, m.fail(req, k, "encode", err, Fields{"codec": c.NameOf(cd)})
	}
	ok, err := m.provider.Set(ctx, k, payload, m.computeSetCost(k, payload), m.expiration(e))
	if err != nil {
		return false, m.opErr(req, k, "set", err)
	}
	if !ok {
		m.hooks.ProviderSetRejected(k, req.Method())
		m.log.Debug("set rejected by provider", Fields{"key": k, "method": req.Method().String()})
	}
	return ok, nil
}

func (m *manager[V]) expiration(e Expiry) pr.Expiration {
	if !e.IsZero() {
		return e.expiration()
	}
	if m.defaultTTL < 0 {
		return pr.Expiration{}
	}
	return pr.Expiration{RelativeToNow: m.defaultTTL}
}

func (m *manager[V]) opErr(req Request, k, op string, err error) error {
	return m.fail(req, k, op, err, nil)
}

// fail reports err to hooks and logs, and wraps it for the caller. extra
// fields are added to the log line only.
func (m *manager[V]) fail(req Request, k, op string, err error, extra Fields) error {
	// cancellation is the caller's doing, not a backend fault
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		f := Fields{"key": k, "method": req.Method().String(), "op": op, "err": err}
		for fk, fv := range extra {
			f[fk] = fv
		}
		m.log.Error("cache operation failed", f)
	}
	m.hooks.OpFailed(k, req.Method(), op, err)
	return &OpError{Method: req.Method(), Key: k, Op: op, Err: err}
}

func (m *manager[V]) storageKey(key Key) string {
	if m.ns == "" {
		return key.String()
	}
	return m.ns + ":" + key.String()
}
