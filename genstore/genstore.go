// Package genstore keeps per-scope generation counters. A cache snapshots the
// generation of a scope before it issues a remote read and commits the result
// only if the generation is unchanged; anything that invalidates the scope
// (clear, logout, forced refresh, delete) bumps it.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use Local (default) for in-process generations or Redis to keep them in a
// Redis instance owned by the session.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, scope string) (uint64, error)
	// SnapshotMany returns generations for many scopes; missing => 0.
	SnapshotMany(ctx context.Context, scopes []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, scope string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

// Unchanged reports whether every scope in observed still has the same
// generation in s. A store error counts as changed.
func Unchanged(ctx context.Context, s GenStore, observed map[string]uint64) (bool, error) {
	if len(observed) == 0 {
		return true, nil
	}
	scopes := make([]string, 0, len(observed))
	for k := range observed {
		scopes = append(scopes, k)
	}
	now, err := s.SnapshotMany(ctx, scopes)
	if err != nil {
		return false, err
	}
	for k, g := range observed {
		if now[k] != g {
			return false, nil
		}
	}
	return true, nil
}
