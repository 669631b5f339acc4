package codec

import (
	"encoding/json"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf encodes concrete proto messages.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *structpb.Value { return &structpb.Value{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// Struct carries JSON-shaped values as a google.protobuf.Value message, which
// lets the backend speak protobuf without generated types for every record.
// Construct with NewStruct.
type Struct[V any] struct {
	pb Protobuf[*structpb.Value]
}

var _ Codec[struct{}] = Struct[struct{}]{}

func NewStruct[V any]() Struct[V] {
	return Struct[V]{pb: NewProtobuf(func() *structpb.Value { return &structpb.Value{} })}
}

func (c Struct[V]) Encode(v V) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	pv, err := structpb.NewValue(generic)
	if err != nil {
		return nil, err
	}
	return c.pb.Encode(pv)
}

func (c Struct[V]) Decode(b []byte) (V, error) {
	var v V
	pv, err := c.pb.Decode(b)
	if err != nil {
		return v, err
	}
	switch pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return v, ErrEmpty
	}
	raw, err := json.Marshal(pv.AsInterface())
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(raw, &v)
	return v, err
}
