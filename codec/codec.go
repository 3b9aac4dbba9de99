// Package codec converts cached values to and from bytes.
//
// JSON is the default serializer of the manager. Options are carried by the
// codec value itself; there is no package-level configuration.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Named is implemented by codecs that report a short format name ("json",
// "msgpack", ...). The manager logs it on encode and decode failures.
type Named interface {
	Name() string
}

// NameOf returns c's format name, or "custom" when c does not implement Named.
func NameOf(c any) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return "custom"
}
