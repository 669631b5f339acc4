package remote

import (
	"maps"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/entitycache/model"
)

// Wire shapes of the entity backend. Conversions to and from the model
// types are explicit functions; nothing is resolved by reflection.

type fieldDTO struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	DataType        model.DataType `json:"dataType"`
	IsRequired      bool           `json:"isRequired,omitempty"`
	IsList          bool           `json:"isList,omitempty"`
	DefinitionID    uuid.UUID      `json:"entityDefinitionId"`
	ReferenceTarget *uuid.UUID     `json:"referenceTargetEntityDefinitionId,omitempty"`
}

type definitionDTO struct {
	ID     uuid.UUID  `json:"id"`
	Name   string     `json:"name"`
	Fields []fieldDTO `json:"fields"`
}

type instanceDTO struct {
	ID             uuid.UUID      `json:"id"`
	DefinitionID   uuid.UUID      `json:"entityDefinitionId"`
	DefinitionName string         `json:"entityDefinitionName,omitempty"`
	Data           map[string]any `json:"data"`
}

type createFieldDTO struct {
	Name            string         `json:"name"`
	DataType        model.DataType `json:"dataType"`
	IsRequired      bool           `json:"isRequired"`
	IsList          bool           `json:"isList"`
	ReferenceTarget *uuid.UUID     `json:"referenceTargetEntityDefinitionId,omitempty"`
}

type createDefinitionDTO struct {
	Name   string           `json:"name"`
	Fields []createFieldDTO `json:"fields"`
}

type updateDefinitionDTO struct {
	Name string `json:"name"`
}

// instanceDataDTO is the body of both create and update instance requests.
// Nil values are sent as null.
type instanceDataDTO struct {
	Data map[string]any `json:"data"`
}

func fieldToDomain(f fieldDTO) model.Field {
	return model.Field{
		ID:              f.ID,
		Name:            f.Name,
		DataType:        f.DataType,
		IsRequired:      f.IsRequired,
		IsList:          f.IsList,
		DefinitionID:    f.DefinitionID,
		ReferenceTarget: f.ReferenceTarget,
	}
}

func definitionToDomain(d definitionDTO) model.Definition {
	out := model.Definition{ID: d.ID, Name: d.Name}
	if len(d.Fields) > 0 {
		out.Fields = make([]model.Field, len(d.Fields))
		for i, f := range d.Fields {
			out.Fields[i] = fieldToDomain(f)
		}
	}
	return out
}

func instanceToDomain(in instanceDTO) model.Instance {
	return model.Instance{
		ID:             in.ID,
		DefinitionID:   in.DefinitionID,
		DefinitionName: in.DefinitionName,
		Data:           model.Data(in.Data),
	}
}

func newDefinitionToDTO(nd model.NewDefinition) createDefinitionDTO {
	out := createDefinitionDTO{Name: nd.Name, Fields: make([]createFieldDTO, len(nd.Fields))}
	for i, f := range nd.Fields {
		out.Fields[i] = createFieldDTO{
			Name:            f.Name,
			DataType:        f.DataType,
			IsRequired:      f.IsRequired,
			IsList:          f.IsList,
			ReferenceTarget: f.ReferenceTarget,
		}
	}
	return out
}

func dataToDTO(d model.Data) instanceDataDTO {
	m := maps.Clone(map[string]any(d))
	if m == nil {
		m = map[string]any{}
	}
	return instanceDataDTO{Data: m}
}
