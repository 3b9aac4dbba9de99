package cacheflow

// Status is the provenance of a result value.
type Status uint8

const (
	StatusEmpty      Status = iota // no value
	StatusCache                    // value is in the cache
	StatusDataStore                // value came from the origin and is not (yet) cached
	StatusThirdParty               // value came from an external service
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "Empty"
	case StatusCache:
		return "Cache"
	case StatusDataStore:
		return "DataStore"
	case StatusThirdParty:
		return "ThirdParty"
	}
	return "Unknown"
}

// Result is the outcome of processing one request. Read-only once built.
type Result[V any] struct {
	req    Request
	status Status
	value  V
	has    bool
}

// Empty is a result with neither request nor value.
func Empty[V any]() Result[V] { return Result[V]{status: StatusEmpty} }

// FromRequestEmptyValue is an empty result that still records its request.
func FromRequestEmptyValue[V any](req Request) Result[V] {
	return Result[V]{req: req, status: StatusEmpty}
}

func FromCache[V any](req Request, v V) Result[V]     { return withValue(req, StatusCache, v) }
func FromDataStore[V any](req Request, v V) Result[V] { return withValue(req, StatusDataStore, v) }
func FromThirdParty[V any](req Request, v V) Result[V] {
	return withValue(req, StatusThirdParty, v)
}

func withValue[V any](req Request, s Status, v V) Result[V] {
	return Result[V]{req: req, status: s, value: v, has: true}
}

// Request is nil for Empty results.
func (r Result[V]) Request() Request { return r.req }
func (r Result[V]) Status() Status   { return r.status }
func (r Result[V]) IsEmpty() bool    { return !r.has }

// Value returns the value and whether there is one.
func (r Result[V]) Value() (V, bool) { return r.value, r.has }
