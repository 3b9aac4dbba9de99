// Package cacheflow routes typed cache requests to a pluggable byte store
// and reports where each answer came from.
//
// A request names a Key, a Method and whatever the method needs: a value,
// an Expiry, a Factory that produces the value on a miss. Requests are
// immutable and built only through their constructors, which validate
// arguments up front:
//
//	key := cacheflow.MustKey("|", "users", "profile", "42")
//	req, err := cacheflow.GetFromCacheOrFactory(key, loadProfile)
//	res, err := mgr.ProcessWithValue(ctx, req, nil)
//	if v, ok := res.Value(); ok && res.Status() == cacheflow.StatusCache { ... }
//
// Components:
//   - Provider: byte store with per-entry expiry (memory, Redis, BigCache,
//     Ristretto, bbolt; see provider/).
//   - Codec[V]: (de)serializes V <-> []byte (see codec/).
//   - Manager[V]: dispatches requests. Process serves the methods that carry
//     no value (refresh, expire); ProcessWithValue serves the rest.
//
// Storage keys are the joined key, optionally prefixed:
//
//	<ns>:<seg1>|<seg2>|<seg3>...
package cacheflow
