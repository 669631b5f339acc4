package entitycache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// shared runs fetch once per key for concurrent callers. The fetch is
// detached from the cancellation of whichever caller started it; each caller
// stops waiting when its own ctx ends and gets Fail(0, ctx.Err()).
func shared[T any](ctx context.Context, sf *singleflight.Group, key string, fetch func(context.Context) Outcome[T]) Outcome[T] {
	ch := sf.DoChan(key, func() (any, error) {
		return fetch(context.WithoutCancel(ctx)), nil
	})
	select {
	case r := <-ch:
		return r.Val.(Outcome[T])
	case <-ctx.Done():
		return Fail[T](0, ctx.Err())
	}
}
