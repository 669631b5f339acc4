package entitycache

import (
	"context"

	gen "github.com/unkn0wn-root/entitycache/genstore"
)

// generations wraps a GenStore with the cache's hooks and logger. A store
// error never fails a caller: a failed snapshot disables the commit, a failed
// bump is reported and the local mutation still applies.
type generations struct {
	store gen.GenStore
	log   Logger
	hooks Hooks
}

// snapshot observes scopes before a remote read. ok=false means the result
// of that read must not be cached.
func (g generations) snapshot(ctx context.Context, scopes ...string) (obs map[string]uint64, ok bool) {
	obs, err := g.store.SnapshotMany(ctx, scopes)
	if err != nil {
		g.hooks.GenStoreError("snapshot", err)
		g.log.Warn("generation snapshot failed; result will not be cached", Fields{"scopes": scopes, "err": err})
		return nil, false
	}
	return obs, true
}

// unchanged reports whether obs still holds. Callers hold the cache's commit
// lock so that no bump can land between the check and the write.
func (g generations) unchanged(ctx context.Context, obs map[string]uint64, scope, key string) bool {
	ok, err := gen.Unchanged(ctx, g.store, obs)
	if err != nil {
		g.hooks.GenStoreError("snapshot", err)
		g.log.Warn("generation check failed; dropping write", Fields{"scope": scope, "key": key, "err": err})
		return false
	}
	if !ok {
		g.hooks.StaleWriteDropped(scope, key)
		g.log.Debug("stale write dropped", Fields{"scope": scope, "key": key})
	}
	return ok
}

func (g generations) bump(ctx context.Context, scopes ...string) {
	for _, s := range scopes {
		if _, err := g.store.Bump(ctx, s); err != nil {
			g.hooks.GenStoreError("bump", err)
			g.log.Error("generation bump failed", Fields{"scope": s, "err": err})
		}
	}
}
