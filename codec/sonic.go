package codec

import "github.com/bytedance/sonic"

// Sonic is a JSON codec backed by bytedance/sonic. Output is wire-compatible
// with JSON, so entries written by one can be read by the other.
// The zero value uses sonic.ConfigDefault; set Std for encoding/json parity
// (sorted map keys, HTML escaping).
type Sonic[V any] struct {
	Std bool
}

var _ Codec[struct{}] = Sonic[struct{}]{}

func (Sonic[V]) Name() string { return "json" }

func (c Sonic[V]) api() sonic.API {
	if c.Std {
		return sonic.ConfigStd
	}
	return sonic.ConfigDefault
}

func (c Sonic[V]) Encode(v V) ([]byte, error) {
	return c.api().Marshal(v)
}

func (c Sonic[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.api().Unmarshal(b, &v)
	return v, err
}
