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

const instancesPath = "/Instances"

// Instances is the remote InstanceSource.
type Instances struct {
	gw    transport.Gateway
	guard *entitycache.Guard

	list codec.Codec[[]instanceDTO]
	one  codec.Codec[instanceDTO]
	data codec.Codec[instanceDataDTO]
}

var _ entitycache.InstanceSource = (*Instances)(nil)

func NewInstances(gw transport.Gateway, opts Options) (*Instances, error) {
	in := &Instances{gw: gw, guard: opts.guard()}
	var err error
	if in.list, err = codec.For[[]instanceDTO](opts.Codec, opts.MaxDecode); err != nil {
		return nil, err
	}
	if in.one, err = codec.For[instanceDTO](opts.Codec, opts.MaxDecode); err != nil {
		return nil, err
	}
	if in.data, err = codec.For[instanceDataDTO](opts.Codec, 0); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Instances) ListByDefinition(ctx context.Context, defID uuid.UUID) entitycache.Outcome[[]model.Instance] {
	out := entitycache.Run(s.guard, "fetching instances for entity", entitycache.Fields{"id": defID}, func() (entitycache.Outcome[[]instanceDTO], error) {
		o, err := send(ctx, s.gw, http.MethodGet, instancesPath+"/"+defID.String(), nil, s.list)
		return notFound(o, "Entity not found"), err
	})
	return entitycache.ConvertEach(out, instanceToDomain)
}

func (s *Instances) Get(ctx context.Context, id uuid.UUID) entitycache.Outcome[model.Instance] {
	out := entitycache.Run(s.guard, "fetching instance", entitycache.Fields{"id": id}, func() (entitycache.Outcome[instanceDTO], error) {
		return send(ctx, s.gw, http.MethodGet, instancesPath+"/Instance/"+id.String(), nil, s.one)
	})
	return entitycache.Convert(out, instanceToDomain)
}

func (s *Instances) Create(ctx context.Context, defID uuid.UUID, data model.Data) entitycache.Outcome[model.Instance] {
	out := entitycache.Run(s.guard, "creating instance for entity", entitycache.Fields{"id": defID}, func() (entitycache.Outcome[instanceDTO], error) {
		body, err := s.data.Encode(dataToDTO(data))
		if err != nil {
			return entitycache.Outcome[instanceDTO]{}, err
		}
		return send(ctx, s.gw, http.MethodPost, instancesPath+"/"+defID.String(), body, s.one)
	})
	return entitycache.Convert(out, instanceToDomain)
}

func (s *Instances) Update(ctx context.Context, id uuid.UUID, patch model.InstancePatch) entitycache.Outcome[entitycache.None] {
	return entitycache.Run(s.guard, "updating instance", entitycache.Fields{"id": id}, func() (entitycache.Outcome[entitycache.None], error) {
		body, err := s.data.Encode(dataToDTO(patch.Data))
		if err != nil {
			return entitycache.Outcome[entitycache.None]{}, err
		}
		return sendStatus(ctx, s.gw, http.MethodPut, instancesPath+"/"+id.String(), body)
	})
}

func (s *Instances) Delete(ctx context.Context, id uuid.UUID, force bool) entitycache.Outcome[entitycache.None] {
	path := instancesPath + "/" + id.String()
	if force {
		path += "?force=true"
	}
	return entitycache.Run(s.guard, "deleting instance", entitycache.Fields{"id": id, "force": force}, func() (entitycache.Outcome[entitycache.None], error) {
		return sendStatus(ctx, s.gw, http.MethodDelete, path, nil)
	})
}
