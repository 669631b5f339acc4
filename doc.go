// Package entitycache is a client-side cache for an entity-modeling backend:
// definitions (schemas) and the instances recorded against them.
//
// Every remote call yields an Outcome[T] instead of an error: a value on
// success, or a status code plus error detail on failure. Execute is the only
// place where returned errors and panics from the transport are turned into
// outcomes; Run adds the single log record and user notification every failure
// gets.
//
// DefinitionCache and InstanceCache decorate the remote sources with
// read-through and write-through caching. Instances live in a
// groupindex.Index keyed by instance id and grouped by definition id, so
// deleting a definition evicts its instances in one step.
//
// Writes from remote reads are guarded by generations (see genstore):
//
//	obs := snapshot(scopes)   // before the remote read
//	out := source.Get(...)
//	commit iff unchanged(obs) // Clear, forced refresh and mutations bump scopes
//
// A Session owns both caches for one logged-in user; Reset clears them on logout.
package entitycache
