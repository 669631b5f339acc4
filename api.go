package entitycache

import (
	"context"

	"github.com/google/uuid"

	gen "github.com/unkn0wn-root/entitycache/genstore"
	"github.com/unkn0wn-root/entitycache/model"
)

// DefinitionSource is the remote side of DefinitionCache.
// Implementations never return errors; every failure is a failed Outcome.
type DefinitionSource interface {
	List(ctx context.Context) Outcome[[]model.Definition]
	Get(ctx context.Context, id uuid.UUID) Outcome[model.Definition]
	Create(ctx context.Context, def model.NewDefinition) Outcome[model.Definition]
	Update(ctx context.Context, id uuid.UUID, patch model.DefinitionPatch) Outcome[None]
	Delete(ctx context.Context, id uuid.UUID) Outcome[None]
}

// InstanceSource is the remote side of InstanceCache.
type InstanceSource interface {
	ListByDefinition(ctx context.Context, defID uuid.UUID) Outcome[[]model.Instance]
	Get(ctx context.Context, id uuid.UUID) Outcome[model.Instance]
	Create(ctx context.Context, defID uuid.UUID, data model.Data) Outcome[model.Instance]
	Update(ctx context.Context, id uuid.UUID, patch model.InstancePatch) Outcome[None]
	Delete(ctx context.Context, id uuid.UUID, force bool) Outcome[None]
}

// GroupInvalidator drops everything cached for one definition's instances.
// DefinitionCache calls it after a definition is deleted.
type GroupInvalidator interface {
	InvalidateGroup(ctx context.Context, defID uuid.UUID)
}

// Options tune a cache. All fields are optional.
type Options struct {
	Logger   Logger       // if nil, NopLogger is used
	Hooks    Hooks        // if nil, NopHooks is used
	GenStore gen.GenStore // nil => in-process Local without cleanup loop
	Disabled bool         // pass every call through to the source
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = NopLogger{}
	}
	if o.Hooks == nil {
		o.Hooks = NopHooks{}
	}
	if o.GenStore == nil {
		o.GenStore = gen.NewLocal(0, 0)
	}
	return o
}

const (
	scopeDefinitions = "definitions"
	scopeInstances   = "instances"
)
