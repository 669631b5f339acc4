// Package sloghooks implements entitycache.Hooks by logging through slog.
// High-volume events (hits, misses) are sampled; keys are redacted.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ entitycache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.ShortHash(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(scope string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("entitycache.hit", "scope", scope)
}

func (h *Hooks) Miss(scope string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("entitycache.miss", "scope", scope)
}

func (h *Hooks) DuplicateKey(scope, key string) {
	if h.l == nil {
		return
	}
	h.l.Error("entitycache.duplicate_key",
		"scope", scope,
		"key", h.redact(key))
}

func (h *Hooks) StaleWriteDropped(scope, key string) {
	if h.l == nil {
		return
	}
	h.l.Info("entitycache.stale_write_dropped",
		"scope", scope,
		"key", h.redact(key))
}

func (h *Hooks) GroupReplaced(group string, kept, dropped int) {
	if h.l == nil {
		return
	}
	h.l.Debug("entitycache.group_replaced",
		"group", h.redact(group),
		"kept", kept,
		"dropped", dropped)
}

func (h *Hooks) GroupEvicted(group string, count int) {
	if h.l == nil {
		return
	}
	h.l.Info("entitycache.group_evicted",
		"group", h.redact(group),
		"count", count)
}

func (h *Hooks) GenStoreError(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("entitycache.genstore_error",
		"op", op,
		"err", err)
}
