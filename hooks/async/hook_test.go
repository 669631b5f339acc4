package asynchook

import (
	"errors"
	"sync"
	"testing"

	"github.com/unkn0wn-root/entitycache"
)

type counting struct {
	entitycache.NopHooks
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

func (c *counting) record(e string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *counting) Hit(string)                       { c.record("hit") }
func (c *counting) GroupEvicted(string, int)         { c.record("evicted") }
func (c *counting) GenStoreError(string, error)      { c.record("genstore") }
func (c *counting) GroupReplaced(string, int, int)   { c.record("replaced") }
func (c *counting) StaleWriteDropped(string, string) { c.record("stale") }

func TestDeliversThenCloses(t *testing.T) {
	inner := &counting{}
	h := New(inner, 2, 16)
	h.Hit("definitions")
	h.GroupEvicted("g", 2)
	h.GenStoreError("bump", errors.New("x"))
	h.GroupReplaced("g", 1, 0)
	h.StaleWriteDropped("instances", "k")
	h.Close()

	if len(inner.events) != 5 {
		t.Fatalf("events = %v", inner.events)
	}
	h.Hit("after close")
	if h.Dropped() != 1 {
		t.Fatalf("dropped = %d", h.Dropped())
	}
	h.Close()
}

func TestDropsWhenFull(t *testing.T) {
	inner := &counting{block: make(chan struct{})}
	h := New(inner, 1, 1)
	// One event is taken by the worker (blocked), one sits in the queue,
	// the rest overflow.
	for i := 0; i < 10; i++ {
		h.Hit("x")
	}
	if h.Dropped() < 8 {
		t.Fatalf("dropped = %d, want >= 8", h.Dropped())
	}
	close(inner.block)
	h.Close()
}
