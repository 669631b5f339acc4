package entitycache

import (
	"context"
	"errors"
	"time"

	gen "github.com/unkn0wn-root/entitycache/genstore"
)

// SessionOptions configure a Session. Definitions and Instances are required.
type SessionOptions struct {
	Definitions DefinitionSource
	Instances   InstanceSource

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	GenStore        gen.GenStore  // nil => Local owned by the session
	CleanupInterval time.Duration // Local only; 0 => 1h
	GenRetention    time.Duration // Local only; 0 => 24h
	Disabled        bool
}

// Session owns the caches of one logged-in user. Reset on logout clears them;
// the caches themselves live as long as the Session.
type Session struct {
	Definitions *DefinitionCache
	Instances   *InstanceCache

	gen gen.GenStore
	log Logger
}

var (
	ErrNilDefinitionSource = errors.New("entitycache: nil definition source")
	ErrNilInstanceSource   = errors.New("entitycache: nil instance source")
)

// NewSession builds both caches over one generation store and wires
// definition deletes to instance group eviction.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Definitions == nil {
		return nil, ErrNilDefinitionSource
	}
	if opts.Instances == nil {
		return nil, ErrNilInstanceSource
	}
	gs := opts.GenStore
	if gs == nil {
		gs = gen.NewLocal(
			coalesce(opts.CleanupInterval, time.Hour),
			coalesce(opts.GenRetention, 24*time.Hour),
		)
	}
	co := Options{
		Logger:   opts.Logger,
		Hooks:    opts.Hooks,
		GenStore: gs,
		Disabled: opts.Disabled,
	}.withDefaults()

	inst := NewInstanceCache(opts.Instances, co)
	defs := NewDefinitionCache(opts.Definitions, inst, co)
	return &Session{Definitions: defs, Instances: inst, gen: gs, log: co.Logger}, nil
}

// Reset clears both caches. Reads still in flight complete for their callers
// but their results are not cached.
func (s *Session) Reset(ctx context.Context) {
	s.Definitions.Clear(ctx)
	s.Instances.Clear(ctx)
	s.log.Info("session caches cleared", nil)
}

// Close releases the generation store.
func (s *Session) Close(ctx context.Context) error {
	return s.gen.Close(ctx)
}
