package codec

import "google.golang.org/protobuf/proto"

// Protobuf serializes generated protobuf messages. The constructor supplies an
// empty message for Decode, e.g. func() *pb.Order { return &pb.Order{} }.
type Protobuf[T proto.Message] struct {
	new func() T
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (Protobuf[T]) Name() string { return "protobuf" }

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
