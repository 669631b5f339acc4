package entitycache

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/entitycache/internal/util"
	"github.com/unkn0wn-root/entitycache/model"
)

// DefinitionCache is a read-through, write-through cache over a
// DefinitionSource. Remote outcomes are returned to the caller unchanged;
// cache hits are Success(v, 0).
type DefinitionCache struct {
	src      DefinitionSource
	children GroupInvalidator
	gens     generations
	log      Logger
	hooks    Hooks
	enabled  bool
	sf       singleflight.Group

	// mu guards defs and listed and is held across generation check + commit.
	mu     sync.RWMutex
	defs   map[uuid.UUID]model.Definition
	listed bool
}

// NewDefinitionCache wraps src. children (may be nil) is told to drop a
// definition's instances once the definition is deleted.
func NewDefinitionCache(src DefinitionSource, children GroupInvalidator, opts Options) *DefinitionCache {
	opts = opts.withDefaults()
	return &DefinitionCache{
		src:      src,
		children: children,
		gens:     generations{store: opts.GenStore, log: opts.Logger, hooks: opts.Hooks},
		log:      opts.Logger,
		hooks:    opts.Hooks,
		enabled:  !opts.Disabled,
		defs:     make(map[uuid.UUID]model.Definition),
	}
}

func itemScope(kind string, id uuid.UUID) string { return util.Scope(kind, "item", id.String()) }

// List returns every definition, sorted by name when served from cache. The
// cache answers only after a full list has been loaded; refresh forces a
// remote call and replaces the cached collection.
func (c *DefinitionCache) List(ctx context.Context, refresh bool) Outcome[[]model.Definition] {
	if !c.enabled {
		return c.src.List(ctx)
	}
	if refresh {
		c.gens.bump(ctx, scopeDefinitions)
	} else {
		if defs, ok := c.cachedList(); ok {
			c.hooks.Hit(scopeDefinitions)
			return Success(defs, 0)
		}
		c.hooks.Miss(scopeDefinitions)
	}

	obs, ok := c.gens.snapshot(ctx, scopeDefinitions)
	out := c.src.List(ctx)
	defs, success := out.Value()
	if !success || !ok {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gens.unchanged(ctx, obs, scopeDefinitions, "*") {
		return out
	}
	c.defs = make(map[uuid.UUID]model.Definition, len(defs))
	for _, d := range defs {
		c.defs[d.ID] = d.Clone()
	}
	c.listed = true
	return out
}

// Get returns one definition. Concurrent misses for the same id share a
// single remote call; a caller whose ctx ends stops waiting without
// failing the others. refresh always goes remote.
func (c *DefinitionCache) Get(ctx context.Context, id uuid.UUID, refresh bool) Outcome[model.Definition] {
	if !c.enabled {
		return c.src.Get(ctx, id)
	}
	if refresh {
		c.gens.bump(ctx, itemScope(scopeDefinitions, id))
		return c.fetch(ctx, id)
	}
	if d, ok := c.Peek(id); ok {
		c.hooks.Hit(scopeDefinitions)
		return Success(d, 0)
	}
	c.hooks.Miss(scopeDefinitions)

	out := shared(ctx, &c.sf, id.String(), func(ctx context.Context) Outcome[model.Definition] {
		return c.fetch(ctx, id)
	})
	return Convert(out, model.Definition.Clone)
}

func (c *DefinitionCache) fetch(ctx context.Context, id uuid.UUID) Outcome[model.Definition] {
	obs, ok := c.gens.snapshot(ctx, scopeDefinitions, itemScope(scopeDefinitions, id))
	out := c.src.Get(ctx, id)
	d, success := out.Value()
	if !success || !ok {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens.unchanged(ctx, obs, scopeDefinitions, id.String()) {
		c.defs[id] = d.Clone()
	}
	return out
}

// Create creates a definition remotely and caches the created record.
func (c *DefinitionCache) Create(ctx context.Context, def model.NewDefinition) Outcome[model.Definition] {
	out := c.src.Create(ctx, def)
	d, ok := out.Value()
	if !ok || !c.enabled {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bump(ctx, scopeDefinitions)
	if _, dup := c.defs[d.ID]; dup {
		c.hooks.DuplicateKey(scopeDefinitions, d.ID.String())
		c.log.Error("created definition was already cached; replacing it", Fields{"id": d.ID})
	}
	c.defs[d.ID] = d.Clone()
	return out
}

// Update renames a definition. A cached copy is patched in place; otherwise
// the definition is fetched again with a forced Get.
func (c *DefinitionCache) Update(ctx context.Context, id uuid.UUID, patch model.DefinitionPatch) Outcome[None] {
	out := c.src.Update(ctx, id, patch)
	if !out.OK() || !c.enabled {
		return out
	}

	c.mu.Lock()
	c.gens.bump(ctx, scopeDefinitions)
	d, cached := c.defs[id]
	if cached {
		d.Name = patch.Name
		c.defs[id] = d
	}
	c.mu.Unlock()

	if !cached {
		c.Get(ctx, id, true)
	}
	return out
}

// Delete deletes a definition remotely, drops it from the cache and evicts
// its instances.
func (c *DefinitionCache) Delete(ctx context.Context, id uuid.UUID) Outcome[None] {
	out := c.src.Delete(ctx, id)
	if !out.OK() {
		return out
	}
	if c.enabled {
		c.mu.Lock()
		c.gens.bump(ctx, scopeDefinitions)
		delete(c.defs, id)
		c.mu.Unlock()
	}
	if c.children != nil {
		c.children.InvalidateGroup(ctx, id)
	}
	return out
}

// Peek returns a cached definition without any remote call.
func (c *DefinitionCache) Peek(id uuid.UUID) (model.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.defs[id]
	if !ok {
		return model.Definition{}, false
	}
	return d.Clone(), true
}

// Clear empties the cache and discards results of reads still in flight.
func (c *DefinitionCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bump(ctx, scopeDefinitions)
	c.defs = make(map[uuid.UUID]model.Definition)
	c.listed = false
}

func (c *DefinitionCache) cachedList() ([]model.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.listed {
		return nil, false
	}
	out := make([]model.Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b model.Definition) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID.String(), b.ID.String()))
	})
	return out, true
}
