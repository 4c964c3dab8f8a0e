package codec

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Protobuf is the binary wire encoding for proto messages.
type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.User { return &mypb.User{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// ProtoJSON is the text (canonical JSON mapping) encoding for proto messages.
// Its output is not byte-stable: protojson varies whitespace between builds on
// purpose, so compare decoded messages, never encoded payloads. Use JSON or a
// deterministic CBOR when subscribers need identical bytes.
type ProtoJSON[T proto.Message] struct {
	new func() T
}

func NewProtoJSON[T proto.Message](ctor func() T) ProtoJSON[T] {
	return ProtoJSON[T]{new: ctor}
}

func (c ProtoJSON[T]) Encode(v T) ([]byte, error) {
	return protojson.MarshalOptions{UseProtoNames: true}.Marshal(v)
}

func (c ProtoJSON[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(b, m)
	return m, err
}
