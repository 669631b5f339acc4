package remote

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/codec"
	"github.com/unkn0wn-root/entitycache/model"
	"github.com/unkn0wn-root/entitycache/transport"
)

const definitionsPath = "/EntityDefinitions"

// Definitions is the remote DefinitionSource.
type Definitions struct {
	gw    transport.Gateway
	guard *entitycache.Guard

	list   codec.Codec[[]definitionDTO]
	one    codec.Codec[definitionDTO]
	create codec.Codec[createDefinitionDTO]
	update codec.Codec[updateDefinitionDTO]
}

var _ entitycache.DefinitionSource = (*Definitions)(nil)

func NewDefinitions(gw transport.Gateway, opts Options) (*Definitions, error) {
	d := &Definitions{gw: gw, guard: opts.guard()}
	var err error
	if d.list, err = codec.For[[]definitionDTO](opts.Codec, opts.MaxDecode); err != nil {
		return nil, err
	}
	if d.one, err = codec.For[definitionDTO](opts.Codec, opts.MaxDecode); err != nil {
		return nil, err
	}
	if d.create, err = codec.For[createDefinitionDTO](opts.Codec, 0); err != nil {
		return nil, err
	}
	if d.update, err = codec.For[updateDefinitionDTO](opts.Codec, 0); err != nil {
		return nil, err
	}
	return d, nil
}

func definitionPath(id uuid.UUID) string { return definitionsPath + "/" + id.String() }

func (d *Definitions) List(ctx context.Context) entitycache.Outcome[[]model.Definition] {
	out := entitycache.Run(d.guard, "fetching entity definitions", nil, func() (entitycache.Outcome[[]definitionDTO], error) {
		return send(ctx, d.gw, http.MethodGet, definitionsPath, nil, d.list)
	})
	return entitycache.ConvertEach(out, definitionToDomain)
}

func (d *Definitions) Get(ctx context.Context, id uuid.UUID) entitycache.Outcome[model.Definition] {
	out := entitycache.Run(d.guard, "fetching entity definition", entitycache.Fields{"id": id}, func() (entitycache.Outcome[definitionDTO], error) {
		return send(ctx, d.gw, http.MethodGet, definitionPath(id), nil, d.one)
	})
	return entitycache.Convert(out, definitionToDomain)
}

func (d *Definitions) Create(ctx context.Context, nd model.NewDefinition) entitycache.Outcome[model.Definition] {
	const action = "creating entity definition"
	f := entitycache.Fields{"name": nd.Name}
	if err := model.Validate(nd); err != nil {
		return entitycache.Reject[model.Definition](d.guard, action, f, err)
	}
	out := entitycache.Run(d.guard, action, f, func() (entitycache.Outcome[definitionDTO], error) {
		body, err := d.create.Encode(newDefinitionToDTO(nd))
		if err != nil {
			return entitycache.Outcome[definitionDTO]{}, err
		}
		return send(ctx, d.gw, http.MethodPost, definitionsPath, body, d.one)
	})
	return entitycache.Convert(out, definitionToDomain)
}

func (d *Definitions) Update(ctx context.Context, id uuid.UUID, patch model.DefinitionPatch) entitycache.Outcome[entitycache.None] {
	const action = "updating entity definition"
	f := entitycache.Fields{"id": id}
	if err := model.Validate(patch); err != nil {
		return entitycache.Reject[entitycache.None](d.guard, action, f, err)
	}
	return entitycache.Run(d.guard, action, f, func() (entitycache.Outcome[entitycache.None], error) {
		body, err := d.update.Encode(updateDefinitionDTO{Name: patch.Name})
		if err != nil {
			return entitycache.Outcome[entitycache.None]{}, err
		}
		return sendStatus(ctx, d.gw, http.MethodPut, definitionPath(id), body)
	})
}

func (d *Definitions) Delete(ctx context.Context, id uuid.UUID) entitycache.Outcome[entitycache.None] {
	return entitycache.Run(d.guard, "deleting entity definition", entitycache.Fields{"id": id}, func() (entitycache.Outcome[entitycache.None], error) {
		return sendStatus(ctx, d.gw, http.MethodDelete, definitionPath(id), nil)
	})
}
