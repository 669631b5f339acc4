package entitycache

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/unkn0wn-root/entitycache/groupindex"
	"github.com/unkn0wn-root/entitycache/model"
)

// HTTPError is the failure detail for a non-2xx response. Message is the
// human-readable text extracted from the error body.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// DecodeError reports a 2xx response whose body could not be read as the
// expected type. Status keeps the original response status.
type DecodeError struct {
	Status int
	Type   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (status %d): %v", e.Type, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError wraps a fault raised before any response was received.
type TransportError struct {
	Op  string // e.g. "GET /EntityDefinitions"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PanicError carries a value recovered by Execute.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// FaultClass buckets a failure for logs and metrics.
type FaultClass string

const (
	ClassTransport    FaultClass = "transport"
	ClassHTTP         FaultClass = "http"
	ClassDecode       FaultClass = "decode"
	ClassValidation   FaultClass = "validation"
	ClassDuplicateKey FaultClass = "duplicate_key"
	ClassPanic        FaultClass = "panic"
	ClassInternal     FaultClass = "internal"
)

// Classify reports the class of err. A nil error is "".
func Classify(err error) FaultClass {
	if err == nil {
		return ""
	}
	var (
		he *HTTPError
		de *DecodeError
		te *TransportError
		pe *PanicError
		ve *model.ValidationError
		ne net.Error
	)
	switch {
	case errors.As(err, &he):
		return ClassHTTP
	case errors.As(err, &de):
		return ClassDecode
	case errors.As(err, &ve):
		return ClassValidation
	case errors.Is(err, groupindex.ErrDuplicateKey):
		return ClassDuplicateKey
	case errors.As(err, &pe):
		return ClassPanic
	case errors.As(err, &te), errors.As(err, &ne),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassTransport
	default:
		return ClassInternal
	}
}
