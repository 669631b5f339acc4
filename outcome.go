package entitycache

// None is the value type of outcomes that carry no payload, e.g. a delete.
type None struct{}

// Outcome is the result of a remote operation: either a value, or a failure
// with an optional status code and error detail. It is immutable; the zero
// Outcome is a failure without status or detail.
type Outcome[T any] struct {
	value  T
	ok     bool
	status int
	err    error
}

// Success wraps v. status 0 means "no code", e.g. a value served from cache.
func Success[T any](v T, status int) Outcome[T] {
	return Outcome[T]{value: v, ok: true, status: status}
}

// Fail builds a failed outcome. status 0 means no code was obtained
// (transport fault, rejected input); err may be nil.
func Fail[T any](status int, err error) Outcome[T] {
	return Outcome[T]{status: status, err: err}
}

func (o Outcome[T]) OK() bool { return o.ok }

// Value returns the payload; the zero T and false on failure.
func (o Outcome[T]) Value() (T, bool) {
	if !o.ok {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Status returns the status code, if one was recorded.
func (o Outcome[T]) Status() (int, bool) { return o.status, o.status != 0 }

// Err returns the failure detail; nil on success.
func (o Outcome[T]) Err() error { return o.err }

// Detail is the human-readable failure text, "" when there is none.
func (o Outcome[T]) Detail() string {
	if o.err == nil {
		return ""
	}
	return o.err.Error()
}

// Convert maps the value of a successful outcome with f. Status and failure
// detail pass through unchanged; f is not called on failure.
func Convert[T, U any](o Outcome[T], f func(T) U) Outcome[U] {
	if !o.ok {
		return Outcome[U]{status: o.status, err: o.err}
	}
	return Outcome[U]{value: f(o.value), ok: true, status: o.status}
}

// ConvertEach maps every element of a successful list outcome.
func ConvertEach[T, U any](o Outcome[[]T], f func(T) U) Outcome[[]U] {
	return Convert(o, func(in []T) []U {
		out := make([]U, len(in))
		for i, v := range in {
			out[i] = f(v)
		}
		return out
	})
}

// Discard drops the payload and keeps success, status and detail.
func Discard[T any](o Outcome[T]) Outcome[None] {
	return Convert(o, func(T) None { return None{} })
}
