package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOROptions configures NewCBOR.
type CBOROptions struct {
	// Deterministic selects RFC 8949 Core Deterministic encoding, for
	// byte-for-byte stable output. Otherwise PreferredUnsortedEncOptions.
	Deterministic bool
	// StrictMapKeys rejects payloads containing duplicate map keys.
	StrictMapKeys bool
}

// CBOR serializes values using fxamacker/cbor. Times are encoded as
// RFC3339Nano strings. The zero value is NOT ready to use; build it with
// NewCBOR or MustCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](opts CBOROptions) (CBOR[V], error) {
	var eo cbor.EncOptions
	if opts.Deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}

	do := cbor.DecOptions{}
	if opts.StrictMapKeys {
		do.DupMapKey = cbor.DupMapKeyEnforcedAPF
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error. Meant for package-level vars.
func MustCBOR[V any](opts CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (CBOR[V]) Name() string { return "cbor" }

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
