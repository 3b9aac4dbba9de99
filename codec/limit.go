package codec

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is returned by Limit.Decode for oversized input.
var ErrPayloadTooLarge = errors.New("codec: payload too large")

// Limit wraps another codec to enforce a maximum payload size at Decode time.
// Encode is forwarded to Inner unchanged. If MaxDecode <= 0, size limiting is
// disabled.
//
// Typical use: protect against oversized inputs coming from a shared cache.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Name() string { return NameOf(c.Inner) }

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
