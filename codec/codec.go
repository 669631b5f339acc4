// Package codec converts request and response bodies between Go values and
// the bytes exchanged with the entity backend.
//
// Every codec rejects a payload that decodes to "nothing" (empty body or a
// top-level null) with ErrEmpty, so callers can tell a missing body from a
// zero value.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// ErrEmpty is returned by Decode when the payload carries no value.
var ErrEmpty = errors.New("codec: empty payload")

// Kind names a wire format.
type Kind string

const (
	KindJSON     Kind = "json"
	KindCBOR     Kind = "cbor"
	KindMsgpack  Kind = "msgpack"
	KindProtobuf Kind = "protobuf"
)

// ContentType is the media type sent in Content-Type and Accept headers.
func (k Kind) ContentType() string {
	switch k {
	case KindCBOR:
		return "application/cbor"
	case KindMsgpack:
		return "application/msgpack"
	case KindProtobuf:
		return "application/x-protobuf"
	default:
		return "application/json"
	}
}

// ParseKind accepts the names used in config files; empty means JSON.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindJSON, nil
	case KindJSON, KindCBOR, KindMsgpack, KindProtobuf:
		return k, nil
	default:
		return "", fmt.Errorf("codec: unknown kind %q", s)
	}
}

// For returns the codec for kind k. maxDecode > 0 wraps it in a Limit.
func For[V any](k Kind, maxDecode int) (Codec[V], error) {
	var inner Codec[V]
	switch k {
	case "", KindJSON:
		inner = JSON[V]{}
	case KindCBOR:
		c, err := NewCBOR[V](false)
		if err != nil {
			return nil, err
		}
		inner = c
	case KindMsgpack:
		inner = Msgpack[V]{}
	case KindProtobuf:
		inner = NewStruct[V]()
	default:
		return nil, fmt.Errorf("codec: unknown kind %q", k)
	}
	if maxDecode > 0 {
		return Limit[V]{Inner: inner, MaxDecode: maxDecode}, nil
	}
	return inner, nil
}
