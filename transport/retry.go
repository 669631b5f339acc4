package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/unkn0wn-root/entitycache"
)

// RetryOption configures Retry.
type RetryOption interface {
	Apply(*Retry)
}

type optionFunc func(*Retry)

func (f optionFunc) Apply(r *Retry) { f(r) }

// WithMaxRetries bounds the retries after the first attempt.
func WithMaxRetries(n uint64) RetryOption {
	return optionFunc(func(r *Retry) { r.maxRetries = n })
}

// WithBackoff sets the first wait and the cap between attempts.
func WithBackoff(initial, maxWait time.Duration) RetryOption {
	return optionFunc(func(r *Retry) {
		if initial > 0 {
			r.initial = initial
		}
		if maxWait > 0 {
			r.maxWait = maxWait
		}
	})
}

// WithNonIdempotent also retries POST. Off by default: a fault after the
// request was written may have created the record already.
func WithNonIdempotent() RetryOption {
	return optionFunc(func(r *Retry) { r.retryPost = true })
}

func WithLogger(l entitycache.Logger) RetryOption {
	return optionFunc(func(r *Retry) {
		if l != nil {
			r.log = l
		}
	})
}

// Retry is a Gateway decorator that retries transport faults with
// exponential backoff. Responses, whatever their status, are never retried.
type Retry struct {
	next       Gateway
	maxRetries uint64
	initial    time.Duration
	maxWait    time.Duration
	retryPost  bool
	log        entitycache.Logger
}

var _ Gateway = (*Retry)(nil)

func NewRetry(next Gateway, opts ...RetryOption) *Retry {
	r := &Retry{
		next:       next,
		maxRetries: 3,
		initial:    100 * time.Millisecond,
		maxWait:    2 * time.Second,
		log:        entitycache.NopLogger{},
	}
	for _, opt := range opts {
		opt.Apply(r)
	}
	return r
}

func (r *Retry) Send(ctx context.Context, method, path string, body []byte) (Response, error) {
	if method == http.MethodPost && !r.retryPost {
		return r.next.Send(ctx, method, path, body)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initial
	eb.MaxInterval = r.maxWait
	eb.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, r.maxRetries), ctx)

	var (
		resp    Response
		lastErr error
	)
	err := backoff.RetryNotify(func() error {
		var err error
		resp, err = r.next.Send(ctx, method, path, body)
		if err == nil {
			return nil
		}
		lastErr = err
		var te *entitycache.TransportError
		if !errors.As(err, &te) {
			return backoff.Permanent(err)
		}
		return err
	}, bo, func(err error, wait time.Duration) {
		r.log.Debug("transport fault, retrying", entitycache.Fields{
			"method": method, "path": path, "wait": wait.String(), "err": err,
		})
	})
	if err == nil {
		return resp, nil
	}
	// A cancelled wait surfaces ctx.Err(); keep the fault that caused it.
	if lastErr != nil && !errors.Is(err, lastErr) {
		return Response{}, &entitycache.TransportError{Op: method + " " + path, Err: errors.Join(lastErr, err)}
	}
	return Response{}, err
}
