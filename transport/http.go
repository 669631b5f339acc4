package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unkn0wn-root/entitycache"
)

// HTTPOptions configure HTTP. BaseURL is required.
type HTTPOptions struct {
	BaseURL     string
	Token       string        // sent as "Authorization: Bearer <token>" when set
	ContentType string        // Content-Type and Accept; "" => application/json
	Timeout     time.Duration // per request; 0 => 30s
	MaxBody     int64         // response bytes kept, longer bodies are Truncated; 0 => 8 MiB
	Client      *http.Client  // nil => a client with Timeout
}

// HTTP is a Gateway over net/http.
type HTTP struct {
	base    *url.URL
	token   string
	ctype   string
	maxBody int64
	client  *http.Client
}

var _ Gateway = (*HTTP)(nil)

var ErrNoBaseURL = errors.New("transport: base URL is required")

func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: base URL %q: scheme must be http or https", opts.BaseURL)
	}
	h := &HTTP{
		base:    u,
		token:   opts.Token,
		ctype:   opts.ContentType,
		maxBody: opts.MaxBody,
		client:  opts.Client,
	}
	if h.ctype == "" {
		h.ctype = "application/json"
	}
	if h.maxBody <= 0 {
		h.maxBody = 8 << 20
	}
	if h.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		h.client = &http.Client{Timeout: timeout}
	}
	return h, nil
}

func (h *HTTP) Send(ctx context.Context, method, path string, body []byte) (Response, error) {
	op := method + " " + path
	ref, err := url.Parse(path)
	if err != nil {
		return Response{}, &entitycache.TransportError{Op: op, Err: err}
	}
	target := *h.base
	target.Path = h.base.Path + "/" + strings.TrimLeft(ref.Path, "/")
	target.RawQuery = ref.RawQuery

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), rd)
	if err != nil {
		return Response{}, &entitycache.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", h.ctype)
	if body != nil {
		req.Header.Set("Content-Type", h.ctype)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Response{}, &entitycache.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return Response{}, &entitycache.TransportError{Op: op, Err: err}
	}
	if int64(len(b)) > h.maxBody {
		return Response{Status: resp.StatusCode, Body: b[:h.maxBody], Truncated: true}, nil
	}
	return Response{Status: resp.StatusCode, Body: b}, nil
}
