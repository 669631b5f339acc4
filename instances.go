package entitycache

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/entitycache/groupindex"
	"github.com/unkn0wn-root/entitycache/internal/util"
	"github.com/unkn0wn-root/entitycache/model"
)

// InstanceCache is a read-through, write-through cache over an
// InstanceSource. Instances are indexed by id and grouped by definition id.
//
// Generation scopes:
//
//	instances               Clear, InvalidateGroup
//	instances:group:<def>   forced list, create/update/delete in the group
//	instances:item:<id>     forced get, update, delete
//
// A group list observes instances + its group; a single get observes
// instances + its item.
type InstanceCache struct {
	src     InstanceSource
	gens    generations
	log     Logger
	hooks   Hooks
	enabled bool
	sf      singleflight.Group

	// mu is held across generation check + commit, and guards listed.
	// The index has its own lock for readers.
	mu     sync.RWMutex
	index  *groupindex.Index[uuid.UUID, uuid.UUID, model.Instance]
	listed map[uuid.UUID]struct{}
}

var _ GroupInvalidator = (*InstanceCache)(nil)

func NewInstanceCache(src InstanceSource, opts Options) *InstanceCache {
	opts = opts.withDefaults()
	return &InstanceCache{
		src:     src,
		gens:    generations{store: opts.GenStore, log: opts.Logger, hooks: opts.Hooks},
		log:     opts.Logger,
		hooks:   opts.Hooks,
		enabled: !opts.Disabled,
		index:   groupindex.New[uuid.UUID, uuid.UUID, model.Instance](),
		listed:  make(map[uuid.UUID]struct{}),
	}
}

func groupScope(defID uuid.UUID) string { return util.Scope(scopeInstances, "group", defID.String()) }

// ListByDefinition returns the instances of one definition, sorted by id when
// served from cache. The cache answers only for groups that were fully listed
// before; a remote result replaces the group's membership.
func (c *InstanceCache) ListByDefinition(ctx context.Context, defID uuid.UUID, refresh bool) Outcome[[]model.Instance] {
	if !c.enabled {
		return c.src.ListByDefinition(ctx, defID)
	}
	group := groupScope(defID)
	if refresh {
		c.gens.bump(ctx, group)
	} else {
		if list, ok := c.cachedGroup(defID); ok {
			c.hooks.Hit(scopeInstances)
			return Success(list, 0)
		}
		c.hooks.Miss(scopeInstances)
	}

	obs, ok := c.gens.snapshot(ctx, scopeInstances, group)
	out := c.src.ListByDefinition(ctx, defID)
	list, success := out.Value()
	if !success || !ok {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gens.unchanged(ctx, obs, scopeInstances, group) {
		return out
	}
	members := make(map[uuid.UUID]model.Instance, len(list))
	for _, in := range list {
		in = in.Clone()
		in.DefinitionID = defID
		members[in.ID] = in
	}
	dropped := c.index.ReplaceGroup(defID, members)
	c.listed[defID] = struct{}{}
	c.hooks.GroupReplaced(defID.String(), len(members), dropped)
	return out
}

// Get returns one instance. Concurrent misses for the same id share a single
// remote call; a caller whose ctx ends stops waiting without failing the
// others. refresh always goes remote.
func (c *InstanceCache) Get(ctx context.Context, id uuid.UUID, refresh bool) Outcome[model.Instance] {
	if !c.enabled {
		return c.src.Get(ctx, id)
	}
	if refresh {
		c.gens.bump(ctx, itemScope(scopeInstances, id))
		return c.fetch(ctx, id)
	}
	if in, ok := c.Peek(id); ok {
		c.hooks.Hit(scopeInstances)
		return Success(in, 0)
	}
	c.hooks.Miss(scopeInstances)

	out := shared(ctx, &c.sf, id.String(), func(ctx context.Context) Outcome[model.Instance] {
		return c.fetch(ctx, id)
	})
	return Convert(out, model.Instance.Clone)
}

func (c *InstanceCache) fetch(ctx context.Context, id uuid.UUID) Outcome[model.Instance] {
	obs, ok := c.gens.snapshot(ctx, scopeInstances, itemScope(scopeInstances, id))
	out := c.src.Get(ctx, id)
	in, success := out.Value()
	if !success || !ok {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens.unchanged(ctx, obs, scopeInstances, id.String()) {
		c.index.Upsert(in.DefinitionID, id, in.Clone())
	}
	return out
}

// Create creates an instance of defID remotely and adds it to the group.
// An id that is already cached is a contract violation: it is reported
// through Hooks.DuplicateKey and an error log, then overwritten.
func (c *InstanceCache) Create(ctx context.Context, defID uuid.UUID, data model.Data) Outcome[model.Instance] {
	out := c.src.Create(ctx, defID, data)
	in, ok := out.Value()
	if !ok || !c.enabled {
		return out
	}
	rec := in.Clone()
	if rec.DefinitionID == uuid.Nil {
		rec.DefinitionID = defID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bump(ctx, groupScope(rec.DefinitionID))
	if err := c.index.Add(rec.DefinitionID, rec.ID, rec); err != nil {
		var dk *groupindex.DuplicateKeyError
		if errors.As(err, &dk) {
			c.hooks.DuplicateKey(scopeInstances, rec.ID.String())
			c.log.Error("created instance was already cached; replacing it", Fields{
				"id": rec.ID, "definition": rec.DefinitionID, "cached_group": dk.Existing,
			})
		}
		c.index.Upsert(rec.DefinitionID, rec.ID, rec)
	}
	return out
}

// Update replaces an instance's data remotely. A cached copy gets the patch
// data minus nil values; an uncached instance stays uncached.
func (c *InstanceCache) Update(ctx context.Context, id uuid.UUID, patch model.InstancePatch) Outcome[None] {
	out := c.src.Update(ctx, id, patch)
	if !out.OK() || !c.enabled {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpMember(ctx, id)
	data := patch.Data.WithoutNil()
	c.index.Update(id, func(in model.Instance) model.Instance {
		in.Data = data
		return in
	})
	return out
}

// Delete deletes an instance remotely and drops it from the cache.
func (c *InstanceCache) Delete(ctx context.Context, id uuid.UUID, force bool) Outcome[None] {
	out := c.src.Delete(ctx, id, force)
	if !out.OK() || !c.enabled {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpMember(ctx, id)
	c.index.Remove(id)
	return out
}

// bumpMember invalidates reads that may carry the old state of id: its own
// scope and its group's. With the group unknown every list is invalidated.
func (c *InstanceCache) bumpMember(ctx context.Context, id uuid.UUID) {
	if defID, ok := c.index.GroupOf(id); ok {
		c.gens.bump(ctx, itemScope(scopeInstances, id), groupScope(defID))
		return
	}
	c.gens.bump(ctx, itemScope(scopeInstances, id), scopeInstances)
}

// InvalidateGroup evicts every cached instance of defID and discards reads in
// flight. Calling it for an unknown group is a no-op apart from the bump.
func (c *InstanceCache) InvalidateGroup(ctx context.Context, defID uuid.UUID) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bump(ctx, scopeInstances)
	n := c.index.Evict(defID)
	delete(c.listed, defID)
	if n > 0 {
		c.hooks.GroupEvicted(defID.String(), n)
		c.log.Debug("instance group evicted", Fields{"definition": defID, "count": n})
	}
}

// Peek returns a cached instance without any remote call.
func (c *InstanceCache) Peek(id uuid.UUID) (model.Instance, bool) {
	in, ok := c.index.TryGet(id)
	if !ok {
		return model.Instance{}, false
	}
	return in.Clone(), true
}

// Len reports the number of cached instances.
func (c *InstanceCache) Len() int { return c.index.Len() }

// Clear empties the cache and discards results of reads still in flight.
func (c *InstanceCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bump(ctx, scopeInstances)
	c.index.Clear()
	c.listed = make(map[uuid.UUID]struct{})
}

func (c *InstanceCache) cachedGroup(defID uuid.UUID) ([]model.Instance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.listed[defID]; !ok {
		return nil, false
	}
	out := make([]model.Instance, 0, c.index.GroupLen(defID))
	for in := range c.index.GetGroup(defID) {
		out = append(out, in.Clone())
	}
	slices.SortFunc(out, func(a, b model.Instance) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, true
}
