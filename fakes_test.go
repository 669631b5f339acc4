package entitycache

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/entitycache/model"
)

// fakeDefinitions is an in-memory DefinitionSource. before, when set, runs at
// the start of every call so tests can block or fail a request.
type fakeDefinitions struct {
	mu     sync.Mutex
	defs   map[uuid.UUID]model.Definition
	fail   map[string]int // op -> status to fail with
	before func(op string)
	calls  map[string]*atomic.Int64
}

func newFakeDefinitions(defs ...model.Definition) *fakeDefinitions {
	f := &fakeDefinitions{
		defs:  make(map[uuid.UUID]model.Definition),
		fail:  make(map[string]int),
		calls: make(map[string]*atomic.Int64),
	}
	for _, op := range []string{"list", "get", "create", "update", "delete"} {
		f.calls[op] = new(atomic.Int64)
	}
	for _, d := range defs {
		f.defs[d.ID] = d
	}
	return f
}

func (f *fakeDefinitions) enter(op string) (status int, failed bool) {
	f.calls[op].Add(1)
	if f.before != nil {
		f.before(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.fail[op]
	return s, ok
}

func (f *fakeDefinitions) count(op string) int64 { return f.calls[op].Load() }

func (f *fakeDefinitions) failWith(op string, status int) {
	f.mu.Lock()
	f.fail[op] = status
	f.mu.Unlock()
}

func (f *fakeDefinitions) put(d model.Definition) {
	f.mu.Lock()
	f.defs[d.ID] = d
	f.mu.Unlock()
}

func (f *fakeDefinitions) List(context.Context) Outcome[[]model.Definition] {
	if s, failed := f.enter("list"); failed {
		return Fail[[]model.Definition](s, &HTTPError{Status: s, Message: "list failed"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Definition, 0, len(f.defs))
	for _, d := range f.defs {
		out = append(out, d.Clone())
	}
	return Success(out, http.StatusOK)
}

func (f *fakeDefinitions) Get(ctx context.Context, id uuid.UUID) Outcome[model.Definition] {
	if s, failed := f.enter("get"); failed {
		return Fail[model.Definition](s, &HTTPError{Status: s, Message: "get failed"})
	}
	if err := ctx.Err(); err != nil {
		return Fail[model.Definition](0, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.defs[id]
	if !ok {
		return Fail[model.Definition](http.StatusNotFound, &HTTPError{Status: 404, Message: "Entity not found"})
	}
	return Success(d.Clone(), http.StatusOK)
}

func (f *fakeDefinitions) Create(_ context.Context, nd model.NewDefinition) Outcome[model.Definition] {
	if s, failed := f.enter("create"); failed {
		return Fail[model.Definition](s, &HTTPError{Status: s, Message: "create failed"})
	}
	d := model.Definition{ID: uuid.New(), Name: nd.Name}
	f.put(d)
	return Success(d, http.StatusCreated)
}

func (f *fakeDefinitions) Update(_ context.Context, id uuid.UUID, p model.DefinitionPatch) Outcome[None] {
	if s, failed := f.enter("update"); failed {
		return Fail[None](s, &HTTPError{Status: s, Message: "update failed"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.defs[id]
	if !ok {
		return Fail[None](http.StatusNotFound, &HTTPError{Status: 404, Message: "Entity not found"})
	}
	d.Name = p.Name
	f.defs[id] = d
	return Success(None{}, http.StatusNoContent)
}

func (f *fakeDefinitions) Delete(_ context.Context, id uuid.UUID) Outcome[None] {
	if s, failed := f.enter("delete"); failed {
		return Fail[None](s, &HTTPError{Status: s, Message: "delete failed"})
	}
	f.mu.Lock()
	delete(f.defs, id)
	f.mu.Unlock()
	return Success(None{}, http.StatusNoContent)
}

// fakeInstances is an in-memory InstanceSource.
type fakeInstances struct {
	mu     sync.Mutex
	items  map[uuid.UUID]model.Instance
	fail   map[string]int
	before func(op string)
	calls  map[string]*atomic.Int64
	nextID func() uuid.UUID
}

func newFakeInstances(items ...model.Instance) *fakeInstances {
	f := &fakeInstances{
		items:  make(map[uuid.UUID]model.Instance),
		fail:   make(map[string]int),
		calls:  make(map[string]*atomic.Int64),
		nextID: uuid.New,
	}
	for _, op := range []string{"list", "get", "create", "update", "delete"} {
		f.calls[op] = new(atomic.Int64)
	}
	for _, in := range items {
		f.items[in.ID] = in
	}
	return f
}

func (f *fakeInstances) enter(op string) (int, bool) {
	f.calls[op].Add(1)
	if f.before != nil {
		f.before(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.fail[op]
	return s, ok
}

func (f *fakeInstances) count(op string) int64 { return f.calls[op].Load() }

func (f *fakeInstances) put(in model.Instance) {
	f.mu.Lock()
	f.items[in.ID] = in
	f.mu.Unlock()
}

func (f *fakeInstances) ListByDefinition(_ context.Context, defID uuid.UUID) Outcome[[]model.Instance] {
	if s, failed := f.enter("list"); failed {
		return Fail[[]model.Instance](s, &HTTPError{Status: s, Message: "Entity not found"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Instance
	for _, in := range f.items {
		if in.DefinitionID == defID {
			out = append(out, in.Clone())
		}
	}
	return Success(out, http.StatusOK)
}

func (f *fakeInstances) Get(ctx context.Context, id uuid.UUID) Outcome[model.Instance] {
	if s, failed := f.enter("get"); failed {
		return Fail[model.Instance](s, &HTTPError{Status: s, Message: "get failed"})
	}
	if err := ctx.Err(); err != nil {
		return Fail[model.Instance](0, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.items[id]
	if !ok {
		return Fail[model.Instance](http.StatusNotFound, &HTTPError{Status: 404, Message: "Instance not found"})
	}
	return Success(in.Clone(), http.StatusOK)
}

func (f *fakeInstances) Create(_ context.Context, defID uuid.UUID, data model.Data) Outcome[model.Instance] {
	if s, failed := f.enter("create"); failed {
		return Fail[model.Instance](s, &HTTPError{Status: s, Message: "create failed"})
	}
	in := model.Instance{ID: f.nextID(), DefinitionID: defID, Data: data}
	f.put(in)
	return Success(in.Clone(), http.StatusCreated)
}

func (f *fakeInstances) Update(_ context.Context, id uuid.UUID, p model.InstancePatch) Outcome[None] {
	if s, failed := f.enter("update"); failed {
		return Fail[None](s, &HTTPError{Status: s, Message: "update failed"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.items[id]
	if ok {
		in.Data = p.Data.WithoutNil()
		f.items[id] = in
	}
	return Success(None{}, http.StatusNoContent)
}

func (f *fakeInstances) Delete(_ context.Context, id uuid.UUID, _ bool) Outcome[None] {
	if s, failed := f.enter("delete"); failed {
		return Fail[None](s, &HTTPError{Status: s, Message: "delete failed"})
	}
	f.mu.Lock()
	delete(f.items, id)
	f.mu.Unlock()
	return Success(None{}, http.StatusNoContent)
}

// recHooks counts hook events.
type recHooks struct {
	mu       sync.Mutex
	hits     int
	misses   int
	dups     []string
	stale    []string
	replaced []string
	evicted  map[string]int
	genErrs  []string
}

var _ Hooks = (*recHooks)(nil)

func newRecHooks() *recHooks { return &recHooks{evicted: make(map[string]int)} }

func (h *recHooks) Hit(string)  { h.mu.Lock(); h.hits++; h.mu.Unlock() }
func (h *recHooks) Miss(string) { h.mu.Lock(); h.misses++; h.mu.Unlock() }
func (h *recHooks) DuplicateKey(_, key string) {
	h.mu.Lock()
	h.dups = append(h.dups, key)
	h.mu.Unlock()
}
func (h *recHooks) StaleWriteDropped(_, key string) {
	h.mu.Lock()
	h.stale = append(h.stale, key)
	h.mu.Unlock()
}
func (h *recHooks) GroupReplaced(group string, _, _ int) {
	h.mu.Lock()
	h.replaced = append(h.replaced, group)
	h.mu.Unlock()
}
func (h *recHooks) GroupEvicted(group string, n int) {
	h.mu.Lock()
	h.evicted[group] += n
	h.mu.Unlock()
}
func (h *recHooks) GenStoreError(op string, _ error) {
	h.mu.Lock()
	h.genErrs = append(h.genErrs, op)
	h.mu.Unlock()
}

func (h *recHooks) missCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.misses
}

func (h *recHooks) staleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stale)
}

// recLogger records messages per level.
type recLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	f     Fields
}

func (l *recLogger) add(level, msg string, f Fields) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level, msg, f})
	l.mu.Unlock()
}

func (l *recLogger) Debug(m string, f Fields) { l.add("debug", m, f) }
func (l *recLogger) Info(m string, f Fields)  { l.add("info", m, f) }
func (l *recLogger) Warn(m string, f Fields)  { l.add("warn", m, f) }
func (l *recLogger) Error(m string, f Fields) { l.add("error", m, f) }

func (l *recLogger) at(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// gate blocks one operation until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// wait is used as a before hook body: the first caller signals and blocks.
func (g *gate) wait() {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return
	}
	close(g.entered)
	<-g.release
}

func def(name string) model.Definition {
	return model.Definition{ID: uuid.New(), Name: name}
}

func inst(defID uuid.UUID, data model.Data) model.Instance {
	return model.Instance{ID: uuid.New(), DefinitionID: defID, Data: data}
}

// eventually polls cond for up to a second.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
