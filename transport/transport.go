// Package transport carries requests to the entity backend. A Gateway either
// returns a Response (any status) or fails with an error when no status could
// be obtained; those errors are *entitycache.TransportError.
package transport

import (
	"context"
)

// Response is a received HTTP response.
type Response struct {
	Status int
	Body   []byte
	// Truncated is set when the body was cut at the gateway's size limit.
	Truncated bool
}

// Gateway sends one request. path is relative to the backend base URL and may
// carry a query string. body is nil for requests without payload.
type Gateway interface {
	Send(ctx context.Context, method, path string, body []byte) (Response, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, method, path string, body []byte) (Response, error)

func (f GatewayFunc) Send(ctx context.Context, method, path string, body []byte) (Response, error) {
	return f(ctx, method, path, body)
}
