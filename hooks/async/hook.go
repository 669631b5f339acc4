// Package asynchook decorates entitycache.Hooks so that events are delivered
// by background workers. Events are dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{HitEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	s, _ := entitycache.NewSession(entitycache.SessionOptions{
//	    Definitions: defs,
//	    Instances:   insts,
//	    Hooks:       hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/entitycache"
)

type Hooks struct {
	inner   entitycache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ entitycache.Hooks = (*Hooks)(nil)

func New(inner entitycache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// send on a queue closed concurrently
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(s string)                     { h.try(func() { h.inner.Hit(s) }) }
func (h *Hooks) Miss(s string)                    { h.try(func() { h.inner.Miss(s) }) }
func (h *Hooks) DuplicateKey(s, k string)         { h.try(func() { h.inner.DuplicateKey(s, k) }) }
func (h *Hooks) StaleWriteDropped(s, k string)    { h.try(func() { h.inner.StaleWriteDropped(s, k) }) }
func (h *Hooks) GroupEvicted(g string, n int)     { h.try(func() { h.inner.GroupEvicted(g, n) }) }
func (h *Hooks) GenStoreError(op string, e error) { h.try(func() { h.inner.GenStoreError(op, e) }) }
func (h *Hooks) GroupReplaced(g string, kept, dropped int) {
	h.try(func() { h.inner.GroupReplaced(g, kept, dropped) })
}
