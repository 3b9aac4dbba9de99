package codec

import (
	"bytes"
	"encoding/json"
)

// JSON serializes values with encoding/json. The zero value is ready to use
// and produces compact output.
type JSON[V any] struct {
	// Indent, when non-empty, pretty-prints with this indent string.
	Indent string
	// EscapeHTML mirrors json.Encoder.SetEscapeHTML. Off by default.
	EscapeHTML bool
	// DisallowUnknownFields rejects payloads with fields V does not declare.
	DisallowUnknownFields bool
	// UseNumber decodes numbers into json.Number inside interface values.
	UseNumber bool
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Name() string { return "json" }

func (c JSON[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder terminates every value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if !c.DisallowUnknownFields && !c.UseNumber {
		err := json.Unmarshal(b, &v)
		return v, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if c.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if c.UseNumber {
		dec.UseNumber()
	}
	err := dec.Decode(&v)
	return v, err
}
