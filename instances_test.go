package entitycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/entitycache/model"
)

func newInstCache(t *testing.T, src *fakeInstances) (*InstanceCache, *recHooks, *recLogger) {
	t.Helper()
	h := newRecHooks()
	l := &recLogger{}
	return NewInstanceCache(src, Options{Hooks: h, Logger: l}), h, l
}

func TestInstanceListByDefinition(t *testing.T) {
	ctx := context.Background()
	defA, defB := uuid.New(), uuid.New()
	src := newFakeInstances(
		inst(defA, model.Data{"n": 1}),
		inst(defA, model.Data{"n": 2}),
		inst(defB, model.Data{"n": 3}),
	)
	c, h, _ := newInstCache(t, src)

	first := c.ListByDefinition(ctx, defA, false)
	if list, _ := first.Value(); len(list) != 2 {
		t.Fatalf("remote list = %+v", list)
	}
	second := c.ListByDefinition(ctx, defA, false)
	list, _ := second.Value()
	if len(list) != 2 || list[0].ID.String() > list[1].ID.String() {
		t.Fatalf("cached list = %+v", list)
	}
	if _, ok := second.Status(); ok {
		t.Fatal("cache hit carries a status")
	}
	if src.count("list") != 1 {
		t.Fatalf("remote lists = %d", src.count("list"))
	}
	if len(h.replaced) != 1 || h.replaced[0] != defA.String() {
		t.Fatalf("group replaced events = %v", h.replaced)
	}

	// Another group is not listed yet.
	c.ListByDefinition(ctx, defB, false)
	if src.count("list") != 2 {
		t.Fatal("unlisted group served from cache")
	}
}

func TestInstanceListReplacesGroupMembership(t *testing.T) {
	ctx := context.Background()
	defA := uuid.New()
	a1, a2 := inst(defA, nil), inst(defA, nil)
	src := newFakeInstances(a1, a2)
	c, _, _ := newInstCache(t, src)
	c.ListByDefinition(ctx, defA, false)

	src.mu.Lock()
	delete(src.items, a2.ID)
	src.mu.Unlock()

	c.ListByDefinition(ctx, defA, true)
	if _, ok := c.Peek(a2.ID); ok {
		t.Fatal("member missing from refresh still cached")
	}
	if _, ok := c.Peek(a1.ID); !ok {
		t.Fatal("refreshed member not cached")
	}
}

func TestInstanceListFailureLeavesCache(t *testing.T) {
	ctx := context.Background()
	defA := uuid.New()
	a1 := inst(defA, nil)
	src := newFakeInstances(a1)
	c, _, _ := newInstCache(t, src)
	c.ListByDefinition(ctx, defA, false)

	src.fail["list"] = 404
	o := c.ListByDefinition(ctx, defA, true)
	if o.OK() || o.Detail() != "Entity not found" {
		t.Fatalf("outcome = %+v", o)
	}
	if _, ok := c.Peek(a1.ID); !ok {
		t.Fatal("failed refresh evicted the group")
	}
}

func TestInstanceGetCachesUnderItsGroup(t *testing.T) {
	ctx := context.Background()
	defA := uuid.New()
	a1 := inst(defA, model.Data{"k": "v"})
	src := newFakeInstances(a1)
	c, _, _ := newInstCache(t, src)

	c.Get(ctx, a1.ID, false)
	o := c.Get(ctx, a1.ID, false)
	if v, _ := o.Value(); v.Data["k"] != "v" {
		t.Fatalf("hit = %+v", v)
	}
	if src.count("get") != 1 {
		t.Fatalf("remote gets = %d", src.count("get"))
	}
	if g, ok := c.index.GroupOf(a1.ID); !ok || g != defA {
		t.Fatalf("group = %v,%v", g, ok)
	}
	// A single get does not make the group listable from cache.
	c.ListByDefinition(ctx, defA, false)
	if src.count("list") != 1 {
		t.Fatal("group served from cache after a single get")
	}
}

func TestInstanceHitReturnsCopy(t *testing.T) {
	ctx := context.Background()
	a1 := inst(uuid.New(), model.Data{"k": "v"})
	c, _, _ := newInstCache(t, newFakeInstances(a1))
	c.Get(ctx, a1.ID, false)

	v, _ := c.Get(ctx, a1.ID, false).Value()
	v.Data["k"] = "mutated"
	p, _ := c.Peek(a1.ID)
	if p.Data["k"] != "v" {
		t.Fatal("caller mutation leaked into the cache")
	}
}

func TestInstanceCreateAddsToGroup(t *testing.T) {
	ctx := context.Background()
	defA := uuid.New()
	src := newFakeInstances()
	c, h, _ := newInstCache(t, src)
	c.ListByDefinition(ctx, defA, false)

	o := c.Create(ctx, defA, model.Data{"name": "x"})
	in, ok := o.Value()
	if !ok {
		t.Fatalf("create: %s", o.Detail())
	}
	list, _ := c.ListByDefinition(ctx, defA, false).Value()
	if len(list) != 1 || list[0].ID != in.ID {
		t.Fatalf("group after create = %+v", list)
	}
	if src.count("list") != 1 {
		t.Fatal("listed group went remote after create")
	}
	if len(h.dups) != 0 {
		t.Fatalf("unexpected duplicate events %v", h.dups)
	}
}

func TestInstanceCreateDuplicateKeyIsReported(t *testing.T) {
	ctx := context.Background()
	defA, defB := uuid.New(), uuid.New()
	existing := inst(defA, model.Data{"old": true})
	src := newFakeInstances(existing)
	src.nextID = func() uuid.UUID { return existing.ID }
	c, h, l := newInstCache(t, src)
	c.Get(ctx, existing.ID, false)

	o := c.Create(ctx, defB, model.Data{"new": true})
	if !o.OK() {
		t.Fatalf("create: %s", o.Detail())
	}
	if len(h.dups) != 1 || h.dups[0] != existing.ID.String() {
		t.Fatalf("duplicate events = %v", h.dups)
	}
	if len(l.at("error")) != 1 {
		t.Fatalf("error logs = %+v", l.at("error"))
	}
	p, _ := c.Peek(existing.ID)
	if p.Data["new"] != true || p.DefinitionID != defB {
		t.Fatalf("entry not replaced: %+v", p)
	}
	if g, _ := c.index.GroupOf(existing.ID); g != defB {
		t.Fatalf("group = %v", g)
	}
	if c.index.GroupLen(defA) != 0 {
		t.Fatal("old group still holds the key")
	}
}

func TestInstanceUpdateCachedDropsNil(t *testing.T) {
	ctx := context.Background()
	a1 := inst(uuid.New(), model.Data{"a": 1, "b": 2})
	src := newFakeInstances(a1)
	c, _, _ := newInstCache(t, src)
	c.Get(ctx, a1.ID, false)

	o := c.Update(ctx, a1.ID, model.InstancePatch{Data: model.Data{"a": 10, "b": nil, "c": "x"}})
	if !o.OK() {
		t.Fatalf("update: %s", o.Detail())
	}
	p, _ := c.Peek(a1.ID)
	if len(p.Data) != 2 || p.Data["a"] != 10 || p.Data["c"] != "x" {
		t.Fatalf("data = %v", p.Data)
	}
	if _, has := p.Data["b"]; has {
		t.Fatal("nil value kept")
	}
}

func TestInstanceUpdateUncachedCreatesNoEntry(t *testing.T) {
	ctx := context.Background()
	a1 := inst(uuid.New(), model.Data{"a": 1})
	src := newFakeInstances(a1)
	c, _, _ := newInstCache(t, src)

	if o := c.Update(ctx, a1.ID, model.InstancePatch{Data: model.Data{"a": 2}}); !o.OK() {
		t.Fatalf("update: %s", o.Detail())
	}
	if _, ok := c.Peek(a1.ID); ok {
		t.Fatal("update created a phantom entry")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestInstanceUpdateFailureKeepsData(t *testing.T) {
	ctx := context.Background()
	a1 := inst(uuid.New(), model.Data{"a": 1})
	src := newFakeInstances(a1)
	c, _, _ := newInstCache(t, src)
	c.Get(ctx, a1.ID, false)

	src.fail["update"] = 400
	if o := c.Update(ctx, a1.ID, model.InstancePatch{Data: model.Data{"a": 2}}); o.OK() {
		t.Fatal("expected failure")
	}
	if p, _ := c.Peek(a1.ID); p.Data["a"] != 1 {
		t.Fatalf("data = %v", p.Data)
	}
}

func TestInstanceDelete(t *testing.T) {
	ctx := context.Background()
	defA := uuid.New()
	a1, a2 := inst(defA, nil), inst(defA, nil)
	src := newFakeInstances(a1, a2)
	c, _, _ := newInstCache(t, src)
	c.ListByDefinition(ctx, defA, false)

	if o := c.Delete(ctx, a1.ID, true); !o.OK() {
		t.Fatalf("delete: %s", o.Detail())
	}
	list, _ := c.ListByDefinition(ctx, defA, false).Value()
	if len(list) != 1 || list[0].ID != a2.ID {
		t.Fatalf("group after delete = %+v", list)
	}

	src.fail["delete"] = 500
	if o := c.Delete(ctx, a2.ID, false); o.OK() {
		t.Fatal("expected failure")
	}
	if _, ok := c.Peek(a2.ID); !ok {
		t.Fatal("failed delete evicted the instance")
	}
}

func TestInstanceInvalidateGroup(t *testing.T) {
	ctx := context.Background()
	defA, defB := uuid.New(), uuid.New()
	a1, a2, b1 := inst(defA, nil), inst(defA, nil), inst(defB, nil)
	src := newFakeInstances(a1, a2, b1)
	c, h, _ := newInstCache(t, src)
	c.ListByDefinition(ctx, defA, false)
	c.ListByDefinition(ctx, defB, false)

	c.InvalidateGroup(ctx, defA)
	for _, id := range []uuid.UUID{a1.ID, a2.ID} {
		if _, ok := c.Peek(id); ok {
			t.Fatalf("%s still cached", id)
		}
	}
	if _, ok := c.Peek(b1.ID); !ok {
		t.Fatal("other group evicted")
	}
	if h.evicted[defA.String()] != 2 {
		t.Fatalf("evicted = %v", h.evicted)
	}

	c.InvalidateGroup(ctx, defA)
	if h.evicted[defA.String()] != 2 {
		t.Fatal("second eviction reported members")
	}

	c.ListByDefinition(ctx, defA, false)
	if src.count("list") != 3 {
		t.Fatal("evicted group served from cache")
	}
}

func TestInstanceClearDiscardsInFlightList(t *testing.T) {
	ctx := context.Background()
	defA := uuid.New()
	src := newFakeInstances(inst(defA, nil))
	g := newGate()
	src.before = func(op string) {
		if op == "list" {
			g.wait()
		}
	}
	c, h, _ := newInstCache(t, src)

	done := make(chan Outcome[[]model.Instance])
	go func() { done <- c.ListByDefinition(ctx, defA, false) }()
	<-g.entered
	c.Clear(ctx)
	close(g.release)

	o := <-done
	if list, ok := o.Value(); !ok || len(list) != 1 {
		t.Fatalf("caller lost its result: %+v", o)
	}
	if c.Len() != 0 {
		t.Fatal("stale list committed after Clear")
	}
	if h.staleCount() != 1 {
		t.Fatalf("stale drops = %d", h.staleCount())
	}
}

func TestInstanceDeleteDiscardsInFlightGet(t *testing.T) {
	ctx := context.Background()
	a1 := inst(uuid.New(), nil)
	src := newFakeInstances(a1)
	g := newGate()
	src.before = func(op string) {
		if op == "get" {
			g.wait()
		}
	}
	c, _, _ := newInstCache(t, src)

	done := make(chan Outcome[model.Instance])
	go func() { done <- c.Get(ctx, a1.ID, false) }()
	<-g.entered
	if o := c.Delete(ctx, a1.ID, false); !o.OK() {
		t.Fatalf("delete: %s", o.Detail())
	}
	// The in-flight read was served before the delete reached the backend.
	src.put(a1)
	close(g.release)
	if o := <-done; !o.OK() {
		t.Fatalf("in-flight get: %s", o.Detail())
	}

	if _, ok := c.Peek(a1.ID); ok {
		t.Fatal("deleted instance resurrected by in-flight get")
	}
}

func TestInstanceGetCancelledCallerDoesNotFailJoinedCallers(t *testing.T) {
	in := inst(uuid.New(), model.Data{"Name": "a"})
	src := newFakeInstances(in)
	g := newGate()
	src.before = func(op string) {
		if op == "get" {
			g.wait()
		}
	}
	c, h, _ := newInstCache(t, src)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	var a, b Outcome[model.Instance]
	doneA, doneB := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(doneA)
		a = c.Get(ctxA, in.ID, false)
	}()
	<-g.entered
	go func() {
		defer close(doneB)
		b = c.Get(context.Background(), in.ID, false)
	}()
	eventually(t, func() bool { return h.missCount() == 2 })
	time.Sleep(20 * time.Millisecond)

	cancelA()
	<-doneA
	if a.OK() || !errors.Is(a.Err(), context.Canceled) {
		t.Fatalf("cancelled caller = %+v", a)
	}
	close(g.release)
	<-doneB
	if v, ok := b.Value(); !ok || v.ID != in.ID {
		t.Fatalf("live caller = %+v", b)
	}
	if _, ok := c.Peek(in.ID); !ok {
		t.Fatal("shared fetch was not cached")
	}
}
