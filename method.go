package cacheflow

import "strconv"

// Method is the operation a request asks for. The set is closed; each value
// maps to exactly one manager code path.
type Method uint8

const (
	MethodGetFromCacheOrFactory Method = iota + 1
	MethodGetFromCacheOnly
	MethodSetCacheOnly
	MethodSetCacheOrCreateFactoryThenSetCache
	MethodUpdateCacheOnly
	MethodRefreshCacheOnly
	MethodExpireCacheOnly
)

var methodNames = [...]string{
	MethodGetFromCacheOrFactory:               "GetFromCacheOrFactory",
	MethodGetFromCacheOnly:                    "GetFromCacheOnly",
	MethodSetCacheOnly:                        "SetCacheOnly",
	MethodSetCacheOrCreateFactoryThenSetCache: "SetCacheOrCreateFactoryThenSetCache",
	MethodUpdateCacheOnly:                     "UpdateCacheOnly",
	MethodRefreshCacheOnly:                    "RefreshCacheOnly",
	MethodExpireCacheOnly:                     "ExpireCacheOnly",
}

func (m Method) String() string {
	if m.Valid() {
		return methodNames[m]
	}
	return "Method(" + strconv.Itoa(int(m)) + ")"
}

func (m Method) Valid() bool {
	return m >= MethodGetFromCacheOrFactory && m <= MethodExpireCacheOnly
}

// ReadOnly reports whether m carries no value (served by Manager.Process).
func (m Method) ReadOnly() bool {
	return m == MethodRefreshCacheOnly || m == MethodExpireCacheOnly
}
