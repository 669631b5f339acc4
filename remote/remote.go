// Package remote implements the entitycache sources over a transport.Gateway.
// Every call runs through entitycache.Run, so a failure of any kind is logged
// and shown to the user once and returned as a failed Outcome.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/codec"
	"github.com/unkn0wn-root/entitycache/transport"
)

// Options configure both services.
type Options struct {
	Codec     codec.Kind         // wire format; "" => JSON
	MaxDecode int                // response bytes accepted by the codec; 0 => unlimited
	Guard     *entitycache.Guard // nil => silent guard
}

func (o Options) guard() *entitycache.Guard {
	if o.Guard == nil {
		return entitycache.NewGuard(nil, nil)
	}
	return o.Guard
}

// send issues one request and builds the outcome. Only transport faults are
// returned as errors.
func send[T any](ctx context.Context, gw transport.Gateway, method, path string, body []byte, c codec.Codec[T]) (entitycache.Outcome[T], error) {
	resp, err := gw.Send(ctx, method, path, body)
	if err != nil {
		return entitycache.Outcome[T]{}, err
	}
	if resp.Truncated && entitycache.IsSuccessStatus(resp.Status) {
		return entitycache.Fail[T](resp.Status, &entitycache.DecodeError{
			Status: resp.Status,
			Type:   reflect.TypeFor[T]().String(),
			Err:    fmt.Errorf("%w: body cut at %d bytes", codec.ErrTooLarge, len(resp.Body)),
		}), nil
	}
	return entitycache.FromResponse(resp.Status, resp.Body, c), nil
}

func sendStatus(ctx context.Context, gw transport.Gateway, method, path string, body []byte) (entitycache.Outcome[entitycache.None], error) {
	resp, err := gw.Send(ctx, method, path, body)
	if err != nil {
		return entitycache.Outcome[entitycache.None]{}, err
	}
	return entitycache.FromStatus(resp.Status, resp.Body), nil
}

// notFound replaces the failure of a 404 with msg.
func notFound[T any](o entitycache.Outcome[T], msg string) entitycache.Outcome[T] {
	if s, _ := o.Status(); s == http.StatusNotFound {
		return entitycache.Fail[T](s, &entitycache.HTTPError{Status: s, Message: msg})
	}
	return o
}
