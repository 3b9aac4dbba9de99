package cacheflow

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the manager calls them
// inline on every request.
type Hooks interface {
	// A read found a usable value under storageKey.
	Hit(storageKey string, m Method)
	// A read found nothing (absent, or decoded to nil).
	Miss(storageKey string, m Method)

	// A factory ran. produced=false when it yielded nothing.
	FactoryCalled(storageKey string, m Method, produced bool)

	// Provider returned ok=false on Set (pressure or elapsed expiration).
	ProviderSetRejected(storageKey string, m Method)

	// A factory value could not be written back; it was still returned
	// with StatusDataStore.
	WriteBackFailed(storageKey string, err error)

	// A backend or codec error is being returned to the caller.
	// op ∈ {"get", "set", "del", "refresh", "encode", "decode", "factory"}
	OpFailed(storageKey string, m Method, op string, err error)

	// A request reached an entry point that does not serve its method.
	InvalidQuery(entry string, m Method)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string, Method)                     {}
func (NopHooks) Miss(string, Method)                    {}
func (NopHooks) FactoryCalled(string, Method, bool)     {}
func (NopHooks) ProviderSetRejected(string, Method)     {}
func (NopHooks) WriteBackFailed(string, error)          {}
func (NopHooks) OpFailed(string, Method, string, error) {}
func (NopHooks) InvalidQuery(string, Method)            {}
