// Package groupindex implements a dual-keyed in-memory index: every item has
// a unique key and belongs to exactly one group.
//
// Invariants, held after every mutating call:
//   - an item key present in the index belongs to exactly one group;
//   - a group present in the index has at least one member;
//   - Add never overwrites; Upsert and ReplaceGroup move stale memberships first;
//   - both maps change under one lock, so no half-applied state is observable.
//
// Index is safe for concurrent use.
package groupindex

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

// ErrDuplicateKey is matched by errors.Is on a *DuplicateKeyError.
var ErrDuplicateKey = errors.New("groupindex: duplicate key")

// DuplicateKeyError is returned by Add when the item key is already indexed.
type DuplicateKeyError struct {
	Key      any
	Group    any // group passed to Add
	Existing any // group the key already belongs to
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("groupindex: duplicate key %v (add to group %v, already in group %v)", e.Key, e.Group, e.Existing)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

type entry[G comparable, V any] struct {
	group G
	value V
}

// Index maps K -> V and G -> set of K.
type Index[G comparable, K comparable, V any] struct {
	mu     sync.RWMutex
	items  map[K]entry[G, V]
	groups map[G]map[K]struct{}
}

func New[G comparable, K comparable, V any]() *Index[G, K, V] {
	return &Index[G, K, V]{
		items:  make(map[K]entry[G, V]),
		groups: make(map[G]map[K]struct{}),
	}
}

// Add inserts v under k in group g. It fails with *DuplicateKeyError if k is
// already present, whatever its group.
func (ix *Index[G, K, V]) Add(g G, k K, v V) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if e, ok := ix.items[k]; ok {
		return &DuplicateKeyError{Key: k, Group: g, Existing: e.group}
	}
	ix.insert(g, k, v)
	return nil
}

// Upsert drops any existing membership of k, then inserts v under g.
// It reports whether an entry was replaced.
func (ix *Index[G, K, V]) Upsert(g G, k K, v V) (replaced bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, replaced = ix.detach(k)
	ix.insert(g, k, v)
	return replaced
}

// Update replaces the value of k in place, keeping its group. It is a no-op
// returning false when k is absent.
func (ix *Index[G, K, V]) Update(k K, fn func(V) V) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.items[k]
	if !ok {
		return false
	}
	e.value = fn(e.value)
	ix.items[k] = e
	return true
}

func (ix *Index[G, K, V]) TryGet(k K) (V, bool) {
	ix.mu.RLock()
	e, ok := ix.items[k]
	ix.mu.RUnlock()
	return e.value, ok
}

// GroupOf returns the group k belongs to.
func (ix *Index[G, K, V]) GroupOf(k K) (G, bool) {
	ix.mu.RLock()
	e, ok := ix.items[k]
	ix.mu.RUnlock()
	return e.group, ok
}

// GetGroup returns a restartable sequence over the members of g in no
// particular order. Each iteration reads the index as it is when the
// iteration starts; the sequence is empty if g does not exist.
func (ix *Index[G, K, V]) GetGroup(g G) iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range ix.Group(g) {
			if !yield(v) {
				return
			}
		}
	}
}

// Group returns the current members of g.
func (ix *Index[G, K, V]) Group(g G) []V {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	set := ix.groups[g]
	out := make([]V, 0, len(set))
	for k := range set {
		out = append(out, ix.items[k].value)
	}
	return out
}

// Remove deletes k from both maps, dropping its group when it empties.
func (ix *Index[G, K, V]) Remove(k K) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.detach(k)
	return ok
}

// RemoveGroup deletes g and every item in it. It reports whether g existed.
func (ix *Index[G, K, V]) RemoveGroup(g G) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.dropGroup(g) >= 0
}

// Evict is RemoveGroup returning how many items left with the group.
func (ix *Index[G, K, V]) Evict(g G) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return max(ix.dropGroup(g), 0)
}

// ReplaceGroup makes members the complete membership of g: previous members
// not in members are removed, and keys currently filed under another group
// are moved. An empty members leaves g absent. It returns how many previous
// members were dropped.
func (ix *Index[G, K, V]) ReplaceGroup(g G, members map[K]V) (dropped int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for k := range ix.groups[g] {
		if _, keep := members[k]; !keep {
			dropped++
		}
	}
	ix.dropGroup(g)
	for k, v := range members {
		ix.detach(k)
		ix.insert(g, k, v)
	}
	return dropped
}

// Clear empties the index; it stays usable.
func (ix *Index[G, K, V]) Clear() {
	ix.mu.Lock()
	ix.items = make(map[K]entry[G, V])
	ix.groups = make(map[G]map[K]struct{})
	ix.mu.Unlock()
}

func (ix *Index[G, K, V]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

func (ix *Index[G, K, V]) GroupLen(g G) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.groups[g])
}

func (ix *Index[G, K, V]) GroupCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.groups)
}

// callers hold mu.
func (ix *Index[G, K, V]) insert(g G, k K, v V) {
	ix.items[k] = entry[G, V]{group: g, value: v}
	set, ok := ix.groups[g]
	if !ok {
		set = make(map[K]struct{})
		ix.groups[g] = set
	}
	set[k] = struct{}{}
}

// callers hold mu.
func (ix *Index[G, K, V]) detach(k K) (entry[G, V], bool) {
	e, ok := ix.items[k]
	if !ok {
		return e, false
	}
	delete(ix.items, k)
	if set := ix.groups[e.group]; set != nil {
		delete(set, k)
		if len(set) == 0 {
			delete(ix.groups, e.group)
		}
	}
	return e, true
}

// dropGroup returns the number of removed items, or -1 if g was absent.
// callers hold mu.
func (ix *Index[G, K, V]) dropGroup(g G) int {
	set, ok := ix.groups[g]
	if !ok {
		return -1
	}
	for k := range set {
		delete(ix.items, k)
	}
	delete(ix.groups, g)
	return len(set)
}
