package entitycache

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/unkn0wn-root/entitycache/codec"
)

// EmptyErrorBody is the failure detail used when an error response has no body.
const EmptyErrorBody = "the server returned an empty error response"

// IsSuccessStatus reports whether status is in [200, 299].
func IsSuccessStatus(status int) bool { return status >= 200 && status <= 299 }

// FromResponse builds an outcome from a received response. A non-2xx status
// fails with an *HTTPError carrying the parsed error body. A 2xx body that
// does not decode as T fails with a *DecodeError that keeps the status.
func FromResponse[T any](status int, body []byte, c codec.Codec[T]) Outcome[T] {
	if !IsSuccessStatus(status) {
		return Fail[T](status, &HTTPError{Status: status, Message: ParseErrorBody(body)})
	}
	v, err := c.Decode(body)
	if err != nil {
		return Fail[T](status, &DecodeError{Status: status, Type: reflect.TypeFor[T]().String(), Err: err})
	}
	return Success(v, status)
}

// FromStatus is FromResponse for operations without a payload. The body of a
// 2xx response is ignored.
func FromStatus(status int, body []byte) Outcome[None] {
	if !IsSuccessStatus(status) {
		return Fail[None](status, &HTTPError{Status: status, Message: ParseErrorBody(body)})
	}
	return Success(None{}, status)
}

type errorBody struct {
	Message string `json:"message"`
	Title   string `json:"title"`
}

// ParseErrorBody extracts the message of an error response: "message", then
// "title" of a JSON object, otherwise the raw text.
func ParseErrorBody(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return EmptyErrorBody
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if m := strings.TrimSpace(eb.Message); m != "" {
			return eb.Message
		}
		if t := strings.TrimSpace(eb.Title); t != "" {
			return eb.Title
		}
	}
	return string(body)
}
